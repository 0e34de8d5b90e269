package artifact

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Bucket uploads objects to a hosted storage service over its REST API and
// derives the public URL objects are served from.
type Bucket struct {
	baseURL    string
	apiKey     string
	bucket     string
	httpClient *http.Client
}

// NewBucket constructs a bucket client. baseURL is the storage service root,
// apiKey its service key, name the bucket objects live in.
func NewBucket(baseURL, apiKey, name string, httpClient *http.Client) *Bucket {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Bucket{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		bucket:     name,
		httpClient: httpClient,
	}
}

// Put uploads one object. Existing objects are not overwritten; generation
// ids are fresh per request so collisions never happen in practice.
func (b *Bucket) Put(ctx context.Context, key string, data []byte, contentType string) error {
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", b.baseURL, b.bucket, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("bucket: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+b.apiKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Upsert", "false")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bucket: upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("bucket: upload status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return nil
}

// PublicURL returns the anonymous read URL for a key.
func (b *Bucket) PublicURL(key string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", b.baseURL, b.bucket, key)
}

var _ ObjectStore = (*Bucket)(nil)
