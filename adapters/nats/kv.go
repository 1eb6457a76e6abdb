package nats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/r4z4/loanactors/ports/kv"
)

const DefaultBucket = "loanactor_snapshots"

type KvConfig struct {
	Connect Connector
	Bucket  string
	// TTL applies to every key in the bucket. JetStream has no per-put
	// expiry, so kv.PutOptions.TTL is ignored.
	TTL time.Duration
	// Timeout bounds each operation when the caller's context has no
	// deadline. Defaults to 5s.
	Timeout time.Duration
}

// KvStore implements kv.Store on a JetStream key-value bucket.
type KvStore struct {
	kv      jetstream.KeyValue
	timeout time.Duration
	close   closeFunc
}

func NewKvStore(ctx context.Context, cfg KvConfig) (*KvStore, error) {
	if cfg.Bucket == "" {
		cfg.Bucket = DefaultBucket
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	doConnect := cfg.Connect
	if doConnect == nil {
		doConnect = ConnectDefault()
	}

	nc, closeConn, err := doConnect()
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		closeConn()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	bucket, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:   cfg.Bucket,
		Storage:  jetstream.FileStorage,
		TTL:      cfg.TTL,
		MaxBytes: 8 * 1024 * 1024,
	})
	if err != nil {
		closeConn()
		return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
	}

	return &KvStore{kv: bucket, timeout: cfg.Timeout, close: closeConn}, nil
}

func (k *KvStore) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, k.timeout)
}

func (k *KvStore) Put(ctx context.Context, key string, entry kv.Entry, _ kv.PutOptions) error {
	if key == "" {
		return kv.ErrEmptyKey
	}
	ctx, cancel := k.opCtx(ctx)
	defer cancel()

	if _, err := k.kv.Put(ctx, key, entry.Data); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (k *KvStore) Get(ctx context.Context, key string) (kv.Entry, error) {
	ctx, cancel := k.opCtx(ctx)
	defer cancel()

	v, err := k.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return kv.Entry{}, kv.ErrNotFound
		}
		return kv.Entry{}, fmt.Errorf("get %s: %w", key, err)
	}
	return kv.Entry{Data: v.Value(), Stored: v.Created()}, nil
}

func (k *KvStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := k.opCtx(ctx)
	defer cancel()

	if err := k.kv.Delete(ctx, key); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Close releases the connection lease.
func (k *KvStore) Close() error {
	k.close()
	return nil
}

var _ kv.Store = (*KvStore)(nil)
