package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pmxy/gallery/internal/models"
	"github.com/redis/go-redis/v9"
	"k8s.io/klog/v2"
)

const maxTxRetries = 5

// RedisStore keeps the JSON document under a single Redis key. Update runs
// in a WATCH transaction so several server processes can share one document.
type RedisStore struct {
	client redis.UniversalClient
	key    string
	mu     sync.Mutex
}

func NewRedisStore(client redis.UniversalClient, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Load(ctx context.Context) (*models.Document, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		doc := models.NewDocument()
		// SETNX so a concurrent writer's document is never replaced
		payload, err := encode(doc)
		if err != nil {
			return nil, err
		}
		created, err := s.client.SetNX(ctx, s.key, payload, 0).Result()
		if err != nil {
			return nil, fmt.Errorf("initialize document: %w", err)
		}
		if created {
			klog.Infof("redis document %s initialized empty", s.key)
			return doc, nil
		}
		return s.Load(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return decode(data)
}

func (s *RedisStore) Save(ctx context.Context, doc *models.Document) error {
	data, err := encode(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

func (s *RedisStore) Update(ctx context.Context, fn func(doc *models.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	txf := func(tx *redis.Tx) error {
		doc := models.NewDocument()
		data, err := tx.Get(ctx, s.key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return fmt.Errorf("read document: %w", err)
		default:
			if doc, err = decode(data); err != nil {
				return err
			}
		}

		if err := fn(doc); err != nil {
			return err
		}

		payload, err := encode(doc)
		if err != nil {
			return fmt.Errorf("encode document: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, payload, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, s.key)
		if errors.Is(err, redis.TxFailedErr) {
			klog.V(1).Infof("redis document %s changed during update, retrying (%d)", s.key, i+1)
			continue
		}
		return err
	}
	return fmt.Errorf("update document: %w", redis.TxFailedErr)
}
