package repository

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"autorent/internal/entities"
)

// Key prefixes for the draft slots.
const (
	draftKeyPrefix   = "draft:"
	pendingKeyPrefix = "draft:pending:"
)

// DraftStore is the durable slot for the current booking draft, one per user.
// It is injectable so the checkout flow can be tested against a fake.
type DraftStore interface {
	Save(ctx context.Context, userID string, draft *entities.BookingDraft) error
	Load(ctx context.Context, userID string) (*entities.BookingDraft, error)
	Clear(ctx context.Context, userID string) error

	// The pending slot keeps the in-flight correlation id alive across
	// provider redirect round-trips. Shorter lived than the draft itself.
	SavePendingCorrelation(ctx context.Context, userID, correlationID string) error
	LoadPendingCorrelation(ctx context.Context, userID string) (string, error)
	ClearPendingCorrelation(ctx context.Context, userID string) error
}

// RedisDraftStore keeps drafts in Redis with a TTL, surviving page reloads
// within a session without pretending to be cross-device storage.
type RedisDraftStore struct {
	client     *redis.Client
	draftTTL   time.Duration
	pendingTTL time.Duration
}

func NewRedisDraftStore(client *redis.Client, draftTTL, pendingTTL time.Duration) *RedisDraftStore {
	return &RedisDraftStore{client: client, draftTTL: draftTTL, pendingTTL: pendingTTL}
}

// Save serializes the draft, fully overwriting any previous value.
func (s *RedisDraftStore) Save(ctx context.Context, userID string, draft *entities.BookingDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, draftKeyPrefix+userID, data, s.draftTTL).Err()
}

// Load returns the saved draft, or ErrNoDraft when the slot is empty or holds
// something unreadable. Callers redirect to vehicle selection on ErrNoDraft.
func (s *RedisDraftStore) Load(ctx context.Context, userID string) (*entities.BookingDraft, error) {
	data, err := s.client.Get(ctx, draftKeyPrefix+userID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNoDraft
		}
		return nil, err
	}
	var draft entities.BookingDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		log.Printf("Draft slot for user %s is malformed, treating as empty: %v", userID, err)
		return nil, ErrNoDraft
	}
	return &draft, nil
}

func (s *RedisDraftStore) Clear(ctx context.Context, userID string) error {
	return s.client.Del(ctx, draftKeyPrefix+userID).Err()
}

func (s *RedisDraftStore) SavePendingCorrelation(ctx context.Context, userID, correlationID string) error {
	return s.client.Set(ctx, pendingKeyPrefix+userID, correlationID, s.pendingTTL).Err()
}

func (s *RedisDraftStore) LoadPendingCorrelation(ctx context.Context, userID string) (string, error) {
	id, err := s.client.Get(ctx, pendingKeyPrefix+userID).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrNoDraft
		}
		return "", err
	}
	return id, nil
}

func (s *RedisDraftStore) ClearPendingCorrelation(ctx context.Context, userID string) error {
	return s.client.Del(ctx, pendingKeyPrefix+userID).Err()
}
