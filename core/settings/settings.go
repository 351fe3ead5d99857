package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// Store is a typed key/value facade over a single Redis hash. Field values
// are encoded with a self-describing binary codec (MessagePack), so nulls,
// booleans, numbers, strings, byte strings, arrays, maps, and timestamps all
// round-trip without a schema.
//
// A Set call writes all of its fields in one hash-multi-set, so readers may
// observe values from any prior complete call but never a partial write.
type Store struct {
	client redis.UniversalClient
	key    string
}

// New creates a settings store over the hash at prefix+"settings".
func New(client redis.UniversalClient, prefix string) *Store {
	return &Store{
		client: client,
		key:    prefix + "settings",
	}
}

// Key returns the Redis key of the backing hash.
func (s *Store) Key() string {
	return s.key
}

// Set encodes each value and writes all fields as a single hash-multi-set.
func (s *Store) Set(ctx context.Context, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	encoded := make([]any, 0, len(fields)*2)
	for field, value := range fields {
		b, err := msgpack.Marshal(value)
		if err != nil {
			return fmt.Errorf("%w: field %q: %w", ErrEncode, field, err)
		}
		encoded = append(encoded, field, b)
	}

	if err := s.client.HSet(ctx, s.key, encoded...).Err(); err != nil {
		return fmt.Errorf("settings: write %s: %w", s.key, err)
	}
	return nil
}

// GetRaw reads the listed fields in one round-trip and returns the raw
// encoded bytes of every field that is present.
func (s *Store) GetRaw(ctx context.Context, fields ...string) (map[string][]byte, error) {
	if len(fields) == 0 {
		return map[string][]byte{}, nil
	}

	values, err := s.client.HMGet(ctx, s.key, fields...).Result()
	if err != nil {
		return nil, fmt.Errorf("settings: read %s: %w", s.key, err)
	}

	out := make(map[string][]byte, len(fields))
	for i, v := range values {
		if v == nil {
			continue
		}
		str, ok := v.(string)
		if !ok {
			continue
		}
		out[fields[i]] = []byte(str)
	}
	return out, nil
}

// Get reads and decodes a single field into T. A missing field, or a field
// whose stored bytes do not decode into T, reports absent; transport errors
// propagate.
func Get[T any](ctx context.Context, s *Store, field string) (T, bool, error) {
	var zero T

	raw, err := s.client.HGet(ctx, s.key, field).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return zero, false, nil
		}
		return zero, false, fmt.Errorf("settings: read %s/%s: %w", s.key, field, err)
	}

	var value T
	if err := msgpack.Unmarshal(raw, &value); err != nil {
		return zero, false, nil
	}
	return value, true, nil
}

// Has reports whether the field exists in the hash.
func (s *Store) Has(ctx context.Context, field string) (bool, error) {
	ok, err := s.client.HExists(ctx, s.key, field).Result()
	if err != nil {
		return false, fmt.Errorf("settings: exists %s/%s: %w", s.key, field, err)
	}
	return ok, nil
}

// Delete removes the listed fields and returns the count actually removed.
func (s *Store) Delete(ctx context.Context, fields ...string) (int64, error) {
	if len(fields) == 0 {
		return 0, nil
	}
	n, err := s.client.HDel(ctx, s.key, fields...).Result()
	if err != nil {
		return 0, fmt.Errorf("settings: delete %s: %w", s.key, err)
	}
	return n, nil
}

// SetAndIncr writes the encoded fields and increments the counter field by
// one inside a single atomic pipeline, returning the new counter value.
// The counter field holds a plain integer, not an encoded value, so it can
// be incremented server-side.
func (s *Store) SetAndIncr(ctx context.Context, fields map[string]any, counter string) (int64, error) {
	encoded := make([]any, 0, len(fields)*2)
	for field, value := range fields {
		b, err := msgpack.Marshal(value)
		if err != nil {
			return 0, fmt.Errorf("%w: field %q: %w", ErrEncode, field, err)
		}
		encoded = append(encoded, field, b)
	}

	pipe := s.client.TxPipeline()
	if len(encoded) > 0 {
		pipe.HSet(ctx, s.key, encoded...)
	}
	incr := pipe.HIncrBy(ctx, s.key, counter, 1)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("settings: write %s: %w", s.key, err)
	}
	return incr.Val(), nil
}

// Counter reads an integer counter field maintained by SetAndIncr.
func (s *Store) Counter(ctx context.Context, field string) (int64, bool, error) {
	n, err := s.client.HGet(ctx, s.key, field).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("settings: read %s/%s: %w", s.key, field, err)
	}
	return n, true, nil
}
