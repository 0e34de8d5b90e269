package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing or invalid %s", e.Field)
}

// ConfigError reports absent credentials or misconfiguration. Clients check
// for it eagerly, before issuing any network call.
type ConfigError struct {
	Name string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s is not configured", e.Name)
}

// UpstreamError reports a non-success response from a third-party API.
type UpstreamError struct {
	Provider string
	Status   int
	Detail   string
}

func (e *UpstreamError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s: status %d", e.Provider, e.Status)
}

// GenerationError reports a well-formed upstream response that carried an
// empty result set. Distinct from transport failures.
type GenerationError struct {
	Detail string
}

func (e *GenerationError) Error() string {
	return e.Detail
}

// TimeoutError reports an upstream call that exceeded its deadline.
type TimeoutError struct {
	Provider string
	Op       string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: %s timed out", e.Provider, e.Op)
}
