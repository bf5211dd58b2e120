package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

type NATSStoreConfig struct {
	Bucket string
	TTL    time.Duration
}

// NATSStore keeps values in a NATS JetStream key-value bucket.
type NATSStore struct {
	kv jetstream.KeyValue
}

var _ Store = (*NATSStore)(nil)

func NewNATSStore(ctx context.Context, js jetstream.JetStream, cfg NATSStoreConfig) (*NATSStore, error) {
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{ //nolint:exhaustruct // optional config
		Bucket: cfg.Bucket,
		TTL:    cfg.TTL,
	})
	if err != nil {
		return nil, fmt.Errorf("create KeyValue bucket: %w", err)
	}

	return &NATSStore{kv: kv}, nil
}

func (s *NATSStore) Get(ctx context.Context, key string) (string, error) {
	entry, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return "", ErrKeyNotFound
		}
		return "", fmt.Errorf("get value from KeyValue store: %w", err)
	}

	return string(entry.Value()), nil
}

func (s *NATSStore) Put(ctx context.Context, key string, value string) error {
	_, err := s.kv.PutString(ctx, key, value)
	if err != nil {
		return fmt.Errorf("put value in KeyValue store: %w", err)
	}

	return nil
}

func (s *NATSStore) Delete(ctx context.Context, key string) error {
	err := s.kv.Delete(ctx, key)
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("delete value from KeyValue store: %w", err)
	}

	return nil
}
