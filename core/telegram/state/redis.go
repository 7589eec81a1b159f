package state

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cast"

	"github.com/m3rciful/keyshop/core/logger"

	tele "gopkg.in/telebot.v4"
)

const defaultSessionTTL = 24 * time.Hour

// RedisOptions configures the Redis-backed session manager.
type RedisOptions struct {
	Client *redis.Client
	// Prefix namespaces session keys; defaults to "fsm:session".
	Prefix string
	// TTL bounds how long an abandoned dialog survives; 0 -> 24h.
	TTL time.Duration
	// OpTimeout bounds a single Redis call; 0 -> 2s.
	OpTimeout time.Duration
}

type redisManager struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	timeout time.Duration
}

// NewRedisManager constructs a Manager backed by Redis so in-progress
// dialogs survive process restarts. All operations are best-effort: on a
// Redis failure the manager degrades to idle rather than blocking updates.
func NewRedisManager(opts RedisOptions) (Manager, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("state: nil redis client")
	}
	m := &redisManager{
		client:  opts.Client,
		prefix:  opts.Prefix,
		ttl:     opts.TTL,
		timeout: opts.OpTimeout,
	}
	if m.prefix == "" {
		m.prefix = "fsm:session"
	}
	if m.ttl <= 0 {
		m.ttl = defaultSessionTTL
	}
	if m.timeout <= 0 {
		m.timeout = 2 * time.Second
	}
	return m, nil
}

func (m *redisManager) key(userID int64) string {
	return fmt.Sprintf("%s:%d", m.prefix, userID)
}

func (m *redisManager) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.timeout)
}

func (m *redisManager) load(userID int64) *Session {
	ctx, cancel := m.opCtx()
	defer cancel()

	raw, err := m.client.Get(ctx, m.key(userID)).Result()
	if err == redis.Nil {
		return &Session{Step: StateIdle, Fields: make(map[string]any)}
	}
	if err != nil {
		logger.Warn(ctx, "tg.state", "session.load_failed",
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return &Session{Step: StateIdle, Fields: make(map[string]any)}
	}

	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		logger.Warn(ctx, "tg.state", "session.decode_failed",
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return &Session{Step: StateIdle, Fields: make(map[string]any)}
	}
	if sess.Fields == nil {
		sess.Fields = make(map[string]any)
	}
	if sess.Step == "" {
		sess.Step = StateIdle
	}
	return &sess
}

func (m *redisManager) store(userID int64, sess *Session) {
	ctx, cancel := m.opCtx()
	defer cancel()

	raw, err := json.Marshal(sess)
	if err != nil {
		logger.Warn(ctx, "tg.state", "session.encode_failed",
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return
	}
	if err := m.client.Set(ctx, m.key(userID), raw, m.ttl).Err(); err != nil {
		logger.Warn(ctx, "tg.state", "session.store_failed",
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
	}
}

// Get returns the session for a user, or a default idle session.
func (m *redisManager) Get(userID int64) *Session {
	return m.load(userID)
}

// SetStep moves the user to the given step.
func (m *redisManager) SetStep(userID int64, st State) {
	sess := m.load(userID)
	sess.Step = st
	m.store(userID, sess)
}

// Step returns the current step of a user, or StateIdle if none exists.
func (m *redisManager) Step(userID int64) State {
	return m.load(userID).Step
}

// InProgress reports whether the user currently has an active step.
func (m *redisManager) InProgress(userID int64) bool {
	return m.load(userID).Step != StateIdle
}

// UpdateFields merges the partial record into the user's scratch record.
func (m *redisManager) UpdateFields(userID int64, partial map[string]any) {
	sess := m.load(userID)
	for k, v := range partial {
		sess.Fields[k] = v
	}
	m.store(userID, sess)
}

// Fields returns the accumulated scratch record.
func (m *redisManager) Fields(userID int64) map[string]any {
	return m.load(userID).Fields
}

// Field retrieves a scratch value by key.
func (m *redisManager) Field(userID int64, key string) (any, bool) {
	val, ok := m.load(userID).Fields[key]
	return val, ok
}

// FieldString retrieves a scratch value coerced to string, or "" when absent.
func (m *redisManager) FieldString(userID int64, key string) string {
	val, ok := m.Field(userID, key)
	if !ok {
		return ""
	}
	return cast.ToString(val)
}

// FieldInt64 retrieves a scratch value coerced to int64. JSON round-trips
// numbers as float64, so coercion is required rather than a type assertion.
func (m *redisManager) FieldInt64(userID int64, key string) (int64, bool) {
	val, ok := m.Field(userID, key)
	if !ok {
		return 0, false
	}
	v, err := cast.ToInt64E(val)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ClearField removes a single key from the scratch record.
func (m *redisManager) ClearField(userID int64, key string) {
	sess := m.load(userID)
	delete(sess.Fields, key)
	m.store(userID, sess)
}

// Clear removes the entire session for a user.
func (m *redisManager) Clear(userID int64) {
	ctx, cancel := m.opCtx()
	defer cancel()
	if err := m.client.Del(ctx, m.key(userID)).Err(); err != nil {
		logger.Warn(ctx, "tg.state", "session.clear_failed",
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
	}
}

// ManagerHandler executes the handler registered for the user's current step, if any.
func (m *redisManager) ManagerHandler(c tele.Context) error {
	return dispatch(m, c)
}
