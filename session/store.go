package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/authsvc/internal"
	"github.com/redis/go-redis/v9"
)

// ErrStorage is returned when Redis rejects or fails a session operation.
// Callers must not assume a session exists after a failed Create.
var ErrStorage = errors.New("session storage failed")

// DefaultTTL is used when NewStore receives a non-positive default.
const DefaultTTL = 24 * time.Hour

const (
	updateStatusMissing int64 = 0
	updateStatusMerged  int64 = 1
	updateStatusCorrupt int64 = 2
)

// updateSessionScript merges ARGV[1] into the stored object and keeps the
// remaining TTL. It never creates a missing key.
const updateSessionScript = `
local current = redis.call("GET", KEYS[1])
if not current then
  return 0
end
local ok, record = pcall(cjson.decode, current)
if not ok or type(record) ~= "table" then
  return 2
end
local patch = cjson.decode(ARGV[1])
for k, v in pairs(patch) do
  if k ~= "user_id" and k ~= "created_at" then
    record[k] = v
  end
end
redis.call("SET", KEYS[1], cjson.encode(record), "KEEPTTL")
return 1
`

var updateSessionLua = redis.NewScript(updateSessionScript)

// Store persists sessions as JSON values under "<namespace>:session:<id>".
type Store struct {
	redis      redis.UniversalClient
	prefix     string
	defaultTTL time.Duration
	now        func() time.Time
	newID      func() (string, error)
}

// NewStore returns a Store. An empty namespace stores keys as "session:<id>".
func NewStore(client redis.UniversalClient, namespace string, defaultTTL time.Duration) *Store {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	prefix := "session:"
	if namespace != "" {
		prefix = namespace + ":session:"
	}
	return &Store{
		redis:      client,
		prefix:     prefix,
		defaultTTL: defaultTTL,
		now:        time.Now,
		newID:      internal.NewSessionID,
	}
}

func (s *Store) key(sessionID string) string {
	return s.prefix + sessionID
}

// DefaultTTL returns the lifetime applied when callers pass ttl <= 0.
func (s *Store) DefaultTTL() time.Duration {
	return s.defaultTTL
}

// Create writes a new session and returns its opaque identifier.
func (s *Store) Create(ctx context.Context, userID string, metadata map[string]any, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: empty user id", ErrStorage)
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	sessionID, err := s.newID()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorage, err)
	}

	payload, err := encodeRecord(userID, s.now(), metadata)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorage, err)
	}

	created, err := s.redis.SetNX(ctx, s.key(sessionID), payload, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if !created {
		return "", fmt.Errorf("%w: session id collision", ErrStorage)
	}

	return sessionID, nil
}

// Get returns the stored record. A missing session is (nil, false, nil).
func (s *Store) Get(ctx context.Context, sessionID string) (Record, bool, error) {
	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	rec, err := decodeRecord(data)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

// Update merges partial into an existing session atomically. It reports
// false without writing when the session does not exist. user_id and
// created_at cannot be overwritten.
func (s *Store) Update(ctx context.Context, sessionID string, partial map[string]any) (bool, error) {
	if len(partial) == 0 {
		n, err := s.redis.Exists(ctx, s.key(sessionID)).Result()
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		return n > 0, nil
	}

	patch, err := json.Marshal(partial)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	status, err := updateSessionLua.Run(ctx, s.redis, []string{s.key(sessionID)}, patch).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	switch status {
	case updateStatusMerged:
		return true, nil
	case updateStatusMissing:
		return false, nil
	case updateStatusCorrupt:
		return false, ErrCorrupt
	default:
		return false, fmt.Errorf("%w: unexpected update status %d", ErrStorage, status)
	}
}

// Delete removes the session and reports whether it existed.
func (s *Store) Delete(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.redis.Del(ctx, s.key(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return n > 0, nil
}

// Extend resets the session TTL without touching its content. ttl <= 0
// applies the store default.
func (s *Store) Extend(ctx context.Context, sessionID string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	ok, err := s.redis.Expire(ctx, s.key(sessionID), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return ok, nil
}
