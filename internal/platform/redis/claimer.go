package redis

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/tasktracker/reminder-worker/internal/config"
	"github.com/tasktracker/reminder-worker/internal/reminder"
)

// KeyPrefix namespaces claim keys.
const KeyPrefix = "reminder:claim:"

// Client is the subset of the go-redis client used by the claimer.
type Client interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// releaseScript deletes the claim only while it still holds our owner id, so
// a release after the TTL lapsed cannot drop another worker's claim.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// Claimer implements reminder.Claimer with Redis SET NX.
type Claimer struct {
	client Client
	ttl    time.Duration
	owner  string
	logger *slog.Logger
}

// Compile-time check that Claimer implements reminder.Claimer.
var _ reminder.Claimer = (*Claimer)(nil)

// NewClient opens a go-redis client for the configured address.
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewClaimer creates a claimer. Claims expire after ttl.
func NewClaimer(client Client, ttl time.Duration, log *slog.Logger) *Claimer {
	if client == nil {
		panic("redis client cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Claimer{
		client: client,
		ttl:    ttl,
		owner:  ownerID(),
		logger: log.With(slog.String("component", "redis_claimer")),
	}
}

// ClaimKey returns the Redis key guarding a task.
func ClaimKey(taskID uuid.UUID) string {
	return KeyPrefix + taskID.String()
}

// Claim attempts to take the task for this replica.
func (c *Claimer) Claim(ctx context.Context, taskID uuid.UUID) (bool, error) {
	key := ClaimKey(taskID)
	ok, err := c.client.SetNX(ctx, key, c.owner, c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	if !ok {
		c.logger.DebugContext(ctx, "task already claimed by another worker",
			slog.String("task_id", taskID.String()))
	}
	return ok, nil
}

// Release drops the claim so the task can be retried next cycle. A claim
// that expired and was taken by another worker is left alone.
func (c *Claimer) Release(ctx context.Context, taskID uuid.UUID) error {
	key := ClaimKey(taskID)
	n, err := c.client.Eval(ctx, releaseScript, []string{key}, c.owner).Int64()
	if err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	if n == 0 {
		c.logger.WarnContext(ctx, "claim no longer held by this worker, not released",
			slog.String("task_id", taskID.String()))
	}
	return nil
}

// Ping checks connectivity to Redis.
func (c *Claimer) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func ownerID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s:%d:%s", host, os.Getpid(), uuid.NewString())
}
