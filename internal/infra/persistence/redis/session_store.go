package redis

import (
	"context"
	"encoding/json"
	"time"

	"portal/config"
	"portal/internal/domain/entity"
	"portal/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix      = "session:"
	userSessionsKeyPrefix = "user_sessions:"

	deleteAllScanBatch = 200
)

// sessionRecord is the JSON payload stored under each session key. The
// expiry never lives in the payload; the key TTL is the single source of
// session lifetime.
type sessionRecord struct {
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// sessionStore implements repository.SessionStore on Redis. Each session is
// one key with a native TTL, plus a per-user set used as a reverse index for
// the bulk operations.
type sessionStore struct {
	client  *redis.Client
	testEnv bool
}

// NewSessionStore is the constructor for sessionStore.
func NewSessionStore(client *redis.Client, cfg *config.Config) repository.SessionStore {
	return &sessionStore{
		client:  client,
		testEnv: cfg.IsTestEnv(),
	}
}

func sessionKey(refreshToken string) string {
	return sessionKeyPrefix + refreshToken
}

func userSessionsKey(userID uuid.UUID) string {
	return userSessionsKeyPrefix + userID.String()
}

func storeUnavailable(err error) error {
	return errors.Wrapf(repository.ErrSessionStoreUnavailable, "redis: %v", err)
}

// Create writes the refreshToken -> user mapping with the given TTL and adds
// the token to the user's reverse index.
func (s *sessionStore) Create(ctx context.Context, userID uuid.UUID, refreshToken string, ttl time.Duration) (*entity.Session, error) {
	now := time.Now()
	payload, err := json.Marshal(sessionRecord{UserID: userID, CreatedAt: now})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode session record")
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(refreshToken), payload, ttl)
	pipe.SAdd(ctx, userSessionsKey(userID), refreshToken)
	// The index must outlive its longest session. ExpireGT only ever extends.
	pipe.ExpireGT(ctx, userSessionsKey(userID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, storeUnavailable(err)
	}

	return &entity.Session{
		RefreshToken: refreshToken,
		UserID:       userID,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}, nil
}

// Get returns the session for a refresh token. An absent key and a key whose
// remaining TTL is not positive both read as not found.
func (s *sessionStore) Get(ctx context.Context, refreshToken string) (*entity.Session, error) {
	pipe := s.client.TxPipeline()
	getCmd := pipe.Get(ctx, sessionKey(refreshToken))
	ttlCmd := pipe.TTL(ctx, sessionKey(refreshToken))
	if _, err := pipe.Exec(ctx); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrSessionNotFound
		}

		return nil, storeUnavailable(err)
	}

	ttl := ttlCmd.Val()
	if ttl <= 0 {
		return nil, repository.ErrSessionNotFound
	}

	var record sessionRecord
	if err := json.Unmarshal([]byte(getCmd.Val()), &record); err != nil {
		return nil, errors.Wrap(err, "failed to decode session record")
	}

	return &entity.Session{
		RefreshToken: refreshToken,
		UserID:       record.UserID,
		CreatedAt:    record.CreatedAt,
		ExpiresAt:    time.Now().Add(ttl),
	}, nil
}

// Delete removes a session and its reverse-index entry. Deleting an absent
// token reports false without error, which makes logout idempotent.
func (s *sessionStore) Delete(ctx context.Context, refreshToken string) (bool, error) {
	raw, err := s.client.Get(ctx, sessionKey(refreshToken)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}

		return false, storeUnavailable(err)
	}

	var record sessionRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		// Undecodable record still gets removed.
		if delErr := s.client.Del(ctx, sessionKey(refreshToken)).Err(); delErr != nil {
			return false, storeUnavailable(delErr)
		}

		return true, nil
	}

	pipe := s.client.TxPipeline()
	delCmd := pipe.Del(ctx, sessionKey(refreshToken))
	pipe.SRem(ctx, userSessionsKey(record.UserID), refreshToken)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, storeUnavailable(err)
	}

	return delCmd.Val() > 0, nil
}

// Refresh extends the TTL of an existing session in place.
func (s *sessionStore) Refresh(ctx context.Context, refreshToken string, ttl time.Duration) (*entity.Session, error) {
	session, err := s.Get(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	ok, err := s.client.Expire(ctx, sessionKey(refreshToken), ttl).Result()
	if err != nil {
		return nil, storeUnavailable(err)
	}
	if !ok {
		// The key expired between the read and the Expire call.
		return nil, repository.ErrSessionNotFound
	}

	s.client.ExpireGT(ctx, userSessionsKey(session.UserID), ttl)

	session.ExpiresAt = time.Now().Add(ttl)

	return session, nil
}

// GetAllForUser returns the refresh tokens of every live session for a user.
// Index entries whose session key already expired are pruned on the way.
func (s *sessionStore) GetAllForUser(ctx context.Context, userID uuid.UUID) ([]string, error) {
	members, err := s.client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return nil, storeUnavailable(err)
	}

	live := make([]string, 0, len(members))
	var stale []any
	for _, token := range members {
		exists, err := s.client.Exists(ctx, sessionKey(token)).Result()
		if err != nil {
			return nil, storeUnavailable(err)
		}
		if exists > 0 {
			live = append(live, token)
		} else {
			stale = append(stale, token)
		}
	}

	if len(stale) > 0 {
		if err := s.client.SRem(ctx, userSessionsKey(userID), stale...).Err(); err != nil {
			return nil, storeUnavailable(err)
		}
	}

	return live, nil
}

// DeleteAllForUser removes every session for a user and returns how many
// live sessions were revoked.
func (s *sessionStore) DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	tokens, err := s.GetAllForUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, token := range tokens {
		deleted, err := s.client.Del(ctx, sessionKey(token)).Result()
		if err != nil {
			return count, storeUnavailable(err)
		}
		count += int(deleted)
	}

	if err := s.client.Del(ctx, userSessionsKey(userID)).Err(); err != nil {
		return count, storeUnavailable(err)
	}

	return count, nil
}

// DeleteAll clears every session and index key. Refused outright outside the
// test environment; there is no force flag.
func (s *sessionStore) DeleteAll(ctx context.Context) error {
	if !s.testEnv {
		return repository.ErrBulkClearForbidden
	}

	for _, pattern := range []string{sessionKeyPrefix + "*", userSessionsKeyPrefix + "*"} {
		var cursor uint64
		for {
			keys, next, err := s.client.Scan(ctx, cursor, pattern, deleteAllScanBatch).Result()
			if err != nil {
				return storeUnavailable(err)
			}
			if len(keys) > 0 {
				if err := s.client.Del(ctx, keys...).Err(); err != nil {
					return storeUnavailable(err)
				}
			}
			if next == 0 {
				break
			}
			cursor = next
		}
	}

	return nil
}
