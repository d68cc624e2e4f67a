package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/genui-analytics/internal/domain/dashboard"
)

// ErrUpdateConflict is returned when a session kept changing underneath Update.
var ErrUpdateConflict = errors.New("session changed concurrently")

const maxUpdateAttempts = 5

// compareAndSet writes ARGV[2] only while the key still holds ARGV[1]. ARGV[3] is the TTL in seconds, 0 for none.
var compareAndSet = valkey.NewLuaScript(`
if redis.call('GET', KEYS[1]) ~= ARGV[1] then
  return 0
end
if tonumber(ARGV[3]) > 0 then
  redis.call('SET', KEYS[1], ARGV[2], 'EX', ARGV[3])
else
  redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

// ValkeyStore shares sessions between dashboard replicas.
// Update is optimistic: it retries when another writer changed the session between read and write.
type ValkeyStore struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
}

// NewValkeyStore constructs a store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string, ttl time.Duration) *ValkeyStore {
	if prefix == "" {
		prefix = "genui:session"
	}
	return &ValkeyStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *ValkeyStore) Create(ctx context.Context, sess *dashboard.Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	builder := s.client.B().Set().Key(s.sessionKey(sess.ID)).Value(string(payload))
	var cmd valkey.Completed
	if ttl := s.ttlSeconds(); ttl > 0 {
		cmd = builder.Ex(time.Duration(ttl) * time.Second).Build()
	} else {
		cmd = builder.Build()
	}
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) Get(ctx context.Context, id string) (*dashboard.Session, error) {
	_, sess, err := s.read(ctx, id)
	return sess, err
}

func (s *ValkeyStore) Update(ctx context.Context, id string, fn func(*dashboard.Session) error) (*dashboard.Session, error) {
	key := s.sessionKey(id)
	ttl := strconv.FormatInt(s.ttlSeconds(), 10)
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		current, sess, err := s.read(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := fn(sess); err != nil {
			return nil, err
		}
		payload, err := json.Marshal(sess)
		if err != nil {
			return nil, err
		}
		swapped, err := compareAndSet.Exec(ctx, s.client, []string{key}, []string{current, string(payload), ttl}).AsInt64()
		if err != nil {
			return nil, err
		}
		if swapped == 1 {
			return sess, nil
		}
	}
	return nil, fmt.Errorf("update session %s: %w", id, ErrUpdateConflict)
}

func (s *ValkeyStore) read(ctx context.Context, id string) (string, *dashboard.Session, error) {
	payload, err := s.client.Do(ctx, s.client.B().Get().Key(s.sessionKey(id)).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return "", nil, dashboard.ErrSessionNotFound
		}
		return "", nil, err
	}
	var sess dashboard.Session
	if err := json.Unmarshal([]byte(payload), &sess); err != nil {
		return "", nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return payload, &sess, nil
}

// ttlSeconds rounds sub-second TTLs up to one second.
func (s *ValkeyStore) ttlSeconds() int64 {
	if s.ttl <= 0 {
		return 0
	}
	if s.ttl < time.Second {
		return 1
	}
	return int64(s.ttl / time.Second)
}

func (s *ValkeyStore) sessionKey(id string) string {
	return fmt.Sprintf("%s:%s", s.prefix, id)
}

var _ dashboard.Store = (*ValkeyStore)(nil)
