package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ReceiptStore implements ports.ReceiptStore using Redis SET NX. A
// settlement receipt seen once within the TTL is reported as a duplicate.
type ReceiptStore struct {
	client *goredis.Client
	prefix string
}

func NewReceiptStore(client *goredis.Client) *ReceiptStore {
	return &ReceiptStore{
		client: client,
		prefix: "receipt:",
	}
}

// CheckAndSet atomically records receiptID and reports whether it was new.
func (s *ReceiptStore) CheckAndSet(ctx context.Context, receiptID string, ttl time.Duration) (bool, error) {
	key := s.prefix + receiptID
	result, err := s.client.SetArgs(ctx, key, 1, goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if err == goredis.Nil {
			// Key already exists, the receipt was recorded before.
			return false, nil
		}
		return false, fmt.Errorf("redis receipt check: %w", err)
	}
	return result == "OK", nil
}
