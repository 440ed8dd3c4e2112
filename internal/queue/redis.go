package queue

import (
    "context"
    "fmt"
    "strings"
    "time"

    redis "github.com/redis/go-redis/v9"
)

// RedisQueue implements the async job queue on Redis Streams with a consumer
// group.
type RedisQueue struct {
    client *redis.Client
    Stream string
    Group  string
}

// NewRedisQueue connects to Redis and ensures the stream and group exist.
func NewRedisQueue(redisURL, stream, group string) (*RedisQueue, error) {
    opt, err := redis.ParseURL(redisURL)
    if err != nil {
        return nil, fmt.Errorf("parse redis url: %w", err)
    }
    c := redis.NewClient(opt)
    ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
    defer cancel()
    if err := c.Ping(ctx).Err(); err != nil {
        return nil, fmt.Errorf("redis ping: %w", err)
    }
    q := &RedisQueue{client: c, Stream: stream, Group: group}
    // Ensure consumer group exists (MKSTREAM creates stream if missing)
    if err := c.XGroupCreateMkStream(ctx, stream, group, "$").Err(); err != nil && !isBusyGroupErr(err) {
        return nil, fmt.Errorf("xgroup create: %w", err)
    }
    return q, nil
}

func isBusyGroupErr(err error) bool {
    if err == nil { return false }
    // go-redis may return a generic error string from Redis
    return strings.Contains(strings.ToUpper(err.Error()), "BUSYGROUP")
}

func (q *RedisQueue) Close() error { return q.client.Close() }

// Ping checks redis connectivity.
func (q *RedisQueue) Ping(ctx context.Context) error { return q.client.Ping(ctx).Err() }

// Enqueue adds a job to the stream as a single-field entry {data: <json>}.
func (q *RedisQueue) Enqueue(ctx context.Context, payload []byte) error {
    return q.client.XAdd(ctx, &redis.XAddArgs{
        Stream: q.Stream,
        Values: map[string]any{"data": string(payload)},
    }).Err()
}

// Dequeue reads one message from the consumer group and ACKs it immediately.
// Ack-on-read: a job that dies mid-run is reported through its status record,
// not redelivered.
func (q *RedisQueue) Dequeue(ctx context.Context, consumer string, timeout time.Duration) ([]byte, error) {
    res, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
        Group:    q.Group,
        Consumer: consumer,
        Streams:  []string{q.Stream, ">"},
        Count:    1,
        Block:    timeout,
        NoAck:    false,
    }).Result()
    if err != nil {
        if err == redis.Nil { return nil, nil }
        return nil, err
    }
    if len(res) == 0 || len(res[0].Messages) == 0 { return nil, nil }
    msg := res[0].Messages[0]
    if err := q.client.XAck(ctx, q.Stream, q.Group, msg.ID).Err(); err != nil {
        return nil, err
    }
    if v, ok := msg.Values["data"]; ok {
        switch t := v.(type) {
        case string:
            return []byte(t), nil
        case []byte:
            return t, nil
        }
    }
    return nil, nil
}

// Depth returns the current stream length.
func (q *RedisQueue) Depth(ctx context.Context) (int64, error) {
    return q.client.XLen(ctx, q.Stream).Result()
}
