package commerce

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	importLockPrefix   = "desk:commerce:import:" // desk:commerce:import:{user_id} -> holder token, held while importing
	lastImportPrefix   = "desk:commerce:last:"   // desk:commerce:last:{user_id} -> RFC3339 time of the last successful import
	eventChannelPrefix = "desk:commerce:events:" // Pub/Sub channel per user
	connectedSetKey    = "desk:commerce:connected"
	defaultLockTTL     = 2 * time.Minute
)

// Tracker keeps cross-process import state in Redis: the per-user import
// lock, status events and the set of users with a connected store.
type Tracker struct {
	client  *redis.Client
	lockTTL time.Duration
}

func NewTracker(client *redis.Client, lockTTL time.Duration) *Tracker {
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}
	return &Tracker{client: client, lockTTL: lockTTL}
}

// releaseScript deletes the lock only while it still carries the caller's token,
// so an import whose lock expired cannot free a newer holder's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// AcquireImport takes the user's import lock and returns the token that
// releases it. It reports false when another import holds the lock.
func (t *Tracker) AcquireImport(ctx context.Context, userID string) (string, bool, error) {
	token := uuid.NewString()
	ok, err := t.client.SetNX(ctx, importLockPrefix+userID, token, t.lockTTL).Result()
	if err != nil {
		return "", false, fmt.Errorf("acquire import lock: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// ReleaseImport frees the lock taken with token. It is a no-op once the lock
// has expired or passed to another import.
func (t *Tracker) ReleaseImport(ctx context.Context, userID, token string) error {
	if err := releaseScript.Run(ctx, t.client, []string{importLockPrefix + userID}, token).Err(); err != nil {
		return fmt.Errorf("release import lock: %w", err)
	}
	return nil
}

func (t *Tracker) Importing(ctx context.Context, userID string) (bool, error) {
	n, err := t.client.Exists(ctx, importLockPrefix+userID).Result()
	if err != nil {
		return false, fmt.Errorf("check import lock: %w", err)
	}
	return n > 0, nil
}

// Publish records the event and fans it out to subscribers of the user's channel.
func (t *Tracker) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	pipe := t.client.Pipeline()
	if ev.Type == EventImportFinished && ev.LastSync != nil {
		pipe.Set(ctx, lastImportPrefix+ev.UserID, ev.LastSync.UTC().Format(time.RFC3339Nano), 0)
	}
	pipe.Publish(ctx, eventChannelPrefix+ev.UserID, data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Subscribe listens on the user's event channel. The caller closes the subscription.
func (t *Tracker) Subscribe(ctx context.Context, userID string) (*redis.PubSub, error) {
	sub := t.client.Subscribe(ctx, eventChannelPrefix+userID)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	return sub, nil
}

// DecodeEvent parses a message received from Subscribe.
func DecodeEvent(msg *redis.Message) (Event, error) {
	var ev Event
	if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
		return Event{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return ev, nil
}

// LastImport returns the time of the user's last successful import, if any.
func (t *Tracker) LastImport(ctx context.Context, userID string) (*time.Time, error) {
	v, err := t.client.Get(ctx, lastImportPrefix+userID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get last import: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return nil, fmt.Errorf("parse last import: %w", err)
	}
	return &ts, nil
}

func (t *Tracker) MarkConnected(ctx context.Context, userID string) error {
	return t.client.SAdd(ctx, connectedSetKey, userID).Err()
}

func (t *Tracker) MarkDisconnected(ctx context.Context, userID string) error {
	return t.client.SRem(ctx, connectedSetKey, userID).Err()
}

// ConnectedUsers lists every user with a connected store.
func (t *Tracker) ConnectedUsers(ctx context.Context) ([]string, error) {
	users, err := t.client.SMembers(ctx, connectedSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list connected users: %w", err)
	}
	return users, nil
}
