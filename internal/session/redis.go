package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Factory returns an empty Data value for a flow, used to decode sessions.
type Factory func(FlowName) (Data, bool)

// RedisStore keeps sessions as JSON with a TTL so abandoned flows expire.
type RedisStore struct {
	client  *redis.Client
	ttl     time.Duration
	factory Factory
	prefix  string
}

func NewRedisStore(client *redis.Client, ttl time.Duration, factory Factory) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, factory: factory, prefix: "honeydesk:session:"}
}

type envelope struct {
	UserID    string          `json:"user_id"`
	Flow      FlowName        `json:"flow"`
	Step      string          `json:"step"`
	StartedAt time.Time       `json:"started_at"`
	Data      json.RawMessage `json:"data"`
}

func (r *RedisStore) key(userID string) string { return r.prefix + userID }

func (r *RedisStore) Get(ctx context.Context, userID string) (*Session, error) {
	raw, err := r.client.Get(ctx, r.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return Decode(raw, r.factory)
}

func (r *RedisStore) Put(ctx context.Context, s *Session) error {
	raw, err := Encode(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(s.UserID), raw, r.ttl).Err()
}

func (r *RedisStore) Clear(ctx context.Context, userID string) error {
	return r.client.Del(ctx, r.key(userID)).Err()
}

func (r *RedisStore) Ping(ctx context.Context) error { return r.client.Ping(ctx).Err() }

// Encode serializes a session with its flow name as the union tag.
func Encode(s *Session) ([]byte, error) {
	data, err := json.Marshal(s.Data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{UserID: s.UserID, Flow: s.Flow, Step: s.Step, StartedAt: s.StartedAt, Data: data})
}

// Decode reverses Encode, asking factory for the flow's Data type.
func Decode(raw []byte, factory Factory) (*Session, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	data, ok := factory(env.Flow)
	if !ok {
		return nil, fmt.Errorf("session: unknown flow %q", env.Flow)
	}
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, data); err != nil {
			return nil, fmt.Errorf("session: decode %s data: %w", env.Flow, err)
		}
	}
	return &Session{UserID: env.UserID, Flow: env.Flow, Step: env.Step, StartedAt: env.StartedAt, Data: data}, nil
}
