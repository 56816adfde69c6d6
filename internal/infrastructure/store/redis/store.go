// Package redis persists annotation lists in Redis.  Each document key maps
// to one JSON-encoded annotation list; writes replace the whole value, which
// keeps the store free of partial-update states at the cost of last-writer-
// wins semantics between concurrent sessions.
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/annolens/annolens/internal/domain/annotation"
	"github.com/annolens/annolens/internal/infrastructure/monitoring/logging"
	"github.com/annolens/annolens/internal/infrastructure/monitoring/prometheus"
	"github.com/annolens/annolens/pkg/errors"
)

// Serializer encodes annotation lists for storage.  JSON is the default;
// tests may substitute a failing serializer.
type Serializer interface {
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
}

type jsonSerializer struct{}

func (jsonSerializer) Marshal(v interface{}) ([]byte, error)      { return json.Marshal(v) }
func (jsonSerializer) Unmarshal(data []byte, v interface{}) error { return json.Unmarshal(data, v) }

// Store implements annotation.Store on a Redis client.
type Store struct {
	client     redis.UniversalClient
	logger     logging.Logger
	metrics    *prometheus.Metrics
	prefix     string
	ttl        time.Duration
	serializer Serializer
}

// Option configures a Store.
type Option func(*Store)

// WithKeyPrefix namespaces all document keys.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// WithTTL expires stored lists after the given duration; zero keeps them
// forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithSerializer replaces the JSON serializer.
func WithSerializer(ser Serializer) Option {
	return func(s *Store) { s.serializer = ser }
}

// WithMetrics attaches the metric surface.
func WithMetrics(m *prometheus.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// New builds a Store over an existing Redis client.
func New(client redis.UniversalClient, logger logging.Logger, opts ...Option) *Store {
	s := &Store{
		client:     client,
		logger:     logger,
		prefix:     "annolens:",
		serializer: jsonSerializer{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ annotation.Store = (*Store)(nil)

func (s *Store) fullKey(key string) string {
	return s.prefix + "doc:" + key
}

// Save replaces the stored annotation list for key.
func (s *Store) Save(ctx context.Context, key string, annotations []*annotation.Annotation) error {
	if annotations == nil {
		annotations = []*annotation.Annotation{}
	}
	data, err := s.serializer.Marshal(annotations)
	if err != nil {
		s.count("save", "error")
		return errors.Wrap(err, errors.ErrCodeStoreSerialization, "encode annotation list")
	}
	if err := s.client.Set(ctx, s.fullKey(key), data, s.ttl).Err(); err != nil {
		s.count("save", "error")
		return errors.Wrap(err, errors.ErrCodeStoreUnavailable, "write annotation list")
	}
	s.count("save", "ok")
	return nil
}

// Load returns the stored list for key.  An absent key yields an empty list,
// not an error.
func (s *Store) Load(ctx context.Context, key string) ([]*annotation.Annotation, error) {
	data, err := s.client.Get(ctx, s.fullKey(key)).Bytes()
	if err == redis.Nil {
		s.count("load", "ok")
		return []*annotation.Annotation{}, nil
	}
	if err != nil {
		s.count("load", "error")
		return nil, errors.Wrap(err, errors.ErrCodeStoreUnavailable, "read annotation list")
	}
	var out []*annotation.Annotation
	if err := s.serializer.Unmarshal(data, &out); err != nil {
		s.count("load", "error")
		return nil, errors.Wrap(err, errors.ErrCodeStoreSerialization, "decode annotation list")
	}
	if out == nil {
		out = []*annotation.Annotation{}
	}
	s.count("load", "ok")
	return out, nil
}

// Delete removes one annotation by id.  A missing id is a no-op.
func (s *Store) Delete(ctx context.Context, key, id string) error {
	current, err := s.Load(ctx, key)
	if err != nil {
		return err
	}
	filtered := current[:0]
	for _, a := range current {
		if a.ID != id {
			filtered = append(filtered, a)
		}
	}
	if len(filtered) == len(current) {
		return nil
	}
	return s.Save(ctx, key, filtered)
}

// Clear drops the whole list for key.
func (s *Store) Clear(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.fullKey(key)).Err(); err != nil {
		s.count("clear", "error")
		return errors.Wrap(err, errors.ErrCodeStoreUnavailable, "delete annotation list")
	}
	s.count("clear", "ok")
	return nil
}

// Ping verifies connectivity for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeStoreUnavailable, "redis ping")
	}
	return nil
}

func (s *Store) count(op, outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.StoreOpsTotal.WithLabelValues(op, outcome).Inc()
}
