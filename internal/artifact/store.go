package artifact

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"homestage/internal/domain"
	"homestage/internal/infra"
)

// ObjectStore is the binary side of the artifact store: it persists payloads
// under a key and computes the public URL they will be served from.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	PublicURL(key string) string
}

// Store is the single capability object for persistence: object uploads plus
// generation-record inserts. A Store with no object backend is disabled and
// degrades every upload to a no-op; a Store with no database skips record
// writes. Handlers check Enabled once instead of re-deriving configuration.
type Store struct {
	objects ObjectStore
	db      infra.SQLExecutor
	logger  zerolog.Logger
}

// New assembles a Store. Either dependency may be nil.
func New(objects ObjectStore, db infra.SQLExecutor, logger zerolog.Logger) *Store {
	return &Store{objects: objects, db: db, logger: logger}
}

// Enabled reports whether binary artifacts can be persisted.
func (s *Store) Enabled() bool {
	return s != nil && s.objects != nil
}

// UploadOriginal stores the user's source image under the generation id.
// When the store is disabled it returns ("", nil): an unconfigured store is a
// degrade path, not a failure.
func (s *Store) UploadOriginal(ctx context.Context, generationID string, data []byte, contentType string) (string, error) {
	if !s.Enabled() {
		return "", nil
	}
	key := fmt.Sprintf("%s/original.%s", generationID, extensionFor(contentType))
	if err := s.objects.Put(ctx, key, data, contentType); err != nil {
		return "", fmt.Errorf("upload original: %w", err)
	}
	return s.objects.PublicURL(key), nil
}

// UploadGenerated stores one staged variant. Index is zero-based; keys are
// numbered from 1 to match the original slot numbering.
func (s *Store) UploadGenerated(ctx context.Context, generationID string, index int, data []byte) (string, error) {
	if !s.Enabled() {
		return "", nil
	}
	key := fmt.Sprintf("%s/generated_%d.jpeg", generationID, index+1)
	if err := s.objects.Put(ctx, key, data, "image/jpeg"); err != nil {
		return "", fmt.Errorf("upload generated %d: %w", index, err)
	}
	return s.objects.PublicURL(key), nil
}

// InsertRecord writes one immutable generation record. Callers log failures
// and move on: a generation is returned to the user even when history could
// not be saved.
func (s *Store) InsertRecord(ctx context.Context, rec *domain.GenerationRecord) error {
	if s == nil || s.db == nil {
		s.logDebug().Str("generation_id", rec.ID).Msg("artifact: no database, skipping record insert")
		return nil
	}
	outcome, err := rec.MarshalOutcome()
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	_, err = s.db.Exec(ctx, qInsertGeneration,
		rec.ID, string(rec.Kind), rec.Style, rec.RoomType, rec.Prompt,
		nullable(rec.OriginalImageURL), outcome)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// GetRecord loads a single generation record by id.
func (s *Store) GetRecord(ctx context.Context, id string) (*domain.GenerationRecord, error) {
	if s == nil || s.db == nil {
		return nil, domain.ErrNotFound
	}
	row := s.db.QueryRow(ctx, qSelectGeneration, id)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

// ListRecords returns the most recent generation records, newest first.
func (s *Store) ListRecords(ctx context.Context, limit int) ([]domain.GenerationRecord, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, qListGenerations, limit)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()
	var out []domain.GenerationRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			s.logger.Warn().Err(err).Msg("artifact: skipping unreadable record")
			continue
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*domain.GenerationRecord, error) {
	var rec domain.GenerationRecord
	var kind string
	var originalURL *string
	var outcome []byte
	var createdAt time.Time
	if err := row.Scan(&rec.ID, &kind, &rec.Style, &rec.RoomType, &rec.Prompt, &originalURL, &outcome, &createdAt); err != nil {
		return nil, err
	}
	rec.Kind = domain.OutcomeKind(kind)
	if originalURL != nil {
		rec.OriginalImageURL = *originalURL
	}
	rec.CreatedAt = createdAt
	if err := rec.UnmarshalOutcome(outcome); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) logDebug() *zerolog.Event {
	if s == nil {
		discard := zerolog.Nop()
		return discard.Debug()
	}
	return s.logger.Debug()
}

func nullable(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func extensionFor(contentType string) string {
	if idx := strings.Index(contentType, "/"); idx >= 0 && idx < len(contentType)-1 {
		ext := contentType[idx+1:]
		if semi := strings.Index(ext, ";"); semi >= 0 {
			ext = ext[:semi]
		}
		if ext != "" {
			return ext
		}
	}
	return "png"
}
