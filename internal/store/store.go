// Package store persists debate transcripts keyed by ticket id.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/ppiankov/ticketdebate/internal/model"
)

// ErrNotFound is returned by Load and Delete for unknown ids
var ErrNotFound = errors.New("transcript not found")

// ErrInvalidID is returned for ids that cannot be used as keys
var ErrInvalidID = errors.New("invalid transcript id")

// TranscriptStore saves and loads transcripts. Implementations are safe for
// concurrent use.
type TranscriptStore interface {
	Save(ctx context.Context, id string, transcript []model.Entry) error
	Load(ctx context.Context, id string) ([]model.Entry, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
	Close() error
}

var validID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidateID rejects ids that would escape a directory or key prefix
func ValidateID(id string) error {
	if !validID.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// Nop stores nothing
type Nop struct{}

func (Nop) Save(context.Context, string, []model.Entry) error   { return nil }
func (Nop) Load(context.Context, string) ([]model.Entry, error) { return nil, ErrNotFound }
func (Nop) Delete(context.Context, string) error                { return ErrNotFound }
func (Nop) List(context.Context) ([]string, error)              { return nil, nil }
func (Nop) Close() error                                        { return nil }

// FromConfig builds the configured backend
func FromConfig(cfg model.StoreConfig) (TranscriptStore, error) {
	switch cfg.Backend {
	case "", "none":
		return Nop{}, nil
	case "file":
		return NewFileStore(cfg.Dir)
	case "redis":
		opts := []Option{WithTTL(cfg.TTL)}
		if cfg.RedisPrefix != "" {
			opts = append(opts, WithPrefix(cfg.RedisPrefix))
		}
		return NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, opts...), nil
	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", model.ErrConfiguration, cfg.Backend)
	}
}
