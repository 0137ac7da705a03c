// Package cache is the local key/value store that gamification and finance
// data are written through before the durable store.
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Store is a byte-oriented key/value cache. Get reports ok=false on a miss.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

const (
	suffixProfile      = "financialProfile"
	suffixGoals        = "financialGoals"
	suffixPlan         = "financialPlan"
	suffixGamification = "gamification"
)

func ProfileKey(userID uuid.UUID) string      { return key(userID, suffixProfile) }
func GoalsKey(userID uuid.UUID) string        { return key(userID, suffixGoals) }
func PlanKey(userID uuid.UUID) string         { return key(userID, suffixPlan) }
func GamificationKey(userID uuid.UUID) string { return key(userID, suffixGamification) }

func key(userID uuid.UUID, suffix string) string {
	return userID.String() + ":" + suffix
}

// GetJSON decodes the value at key into out. A miss returns ok=false and
// leaves out untouched.
func GetJSON(ctx context.Context, s Store, key string, out interface{}) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode cache value %q: %w", key, err)
	}
	return true, nil
}

func PutJSON(ctx context.Context, s Store, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache value %q: %w", key, err)
	}
	return s.Put(ctx, key, raw)
}
