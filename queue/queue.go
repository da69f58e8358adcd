package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ErrEmpty is returned by Dequeue when no task became ready within the
// blocking window.
var ErrEmpty = errors.New("queue is empty")

// Task is the JSON envelope carried through redis. Payload stays opaque to
// the queue; handlers decode it by Kind.
type Task struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	Attempt    int             `json:"attempt"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// Queue is a durable at-least-once task queue over redis: a pending list fed
// by Enqueue, a delayed zset holding retries scored by their due time, and a
// dead-letter list for tasks that exhausted their attempts.
type Queue struct {
	client      *redis.Client
	name        string
	MaxAttempts int
	BackoffBase time.Duration
}

func New(client *redis.Client, name string) *Queue {
	return &Queue{
		client:      client,
		name:        name,
		MaxAttempts: 3,
		BackoffBase: time.Minute,
	}
}

func (q *Queue) key(suffix string) string {
	return fmt.Sprintf("queue:%s:%s", q.name, suffix)
}

// Enqueue serializes the payload and pushes a fresh task onto the pending
// list. Enqueue is synchronous and fast; execution happens in the worker.
func (q *Queue) Enqueue(ctx context.Context, kind string, payload interface{}) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	task := Task{
		ID:         uuid.New().String(),
		Kind:       kind,
		Payload:    data,
		EnqueuedAt: time.Now().UTC(),
	}
	encoded, err := json.Marshal(task)
	if err != nil {
		return "", err
	}

	if err := q.client.LPush(ctx, q.key("pending"), encoded).Err(); err != nil {
		return "", err
	}
	return task.ID, nil
}

// Dequeue promotes due retries and then blocks up to timeout for the next
// pending task.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Task, error) {
	if err := q.promoteDue(ctx); err != nil {
		return nil, err
	}

	result, err := q.client.BRPop(ctx, timeout, q.key("pending")).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, err
	}

	// BRPop returns [key, value].
	var task Task
	if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
		return nil, fmt.Errorf("malformed task envelope: %w", err)
	}
	return &task, nil
}

// Retry re-enqueues a failed task onto the delayed zset with exponential
// backoff (base doubling per attempt), or moves it to the dead-letter list
// once its attempts are spent. Reports whether a retry was scheduled.
func (q *Queue) Retry(ctx context.Context, task *Task) (bool, error) {
	task.Attempt++
	encoded, err := json.Marshal(task)
	if err != nil {
		return false, err
	}

	if task.Attempt >= q.MaxAttempts {
		if err := q.client.LPush(ctx, q.key("dead"), encoded).Err(); err != nil {
			return false, err
		}
		return false, nil
	}

	delay := q.BackoffBase * (1 << (task.Attempt - 1))
	due := time.Now().Add(delay)
	err = q.client.ZAdd(ctx, q.key("delayed"), &redis.Z{
		Score:  float64(due.Unix()),
		Member: encoded,
	}).Err()
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeadLetters returns the tasks parked after exhausting their retries.
func (q *Queue) DeadLetters(ctx context.Context) ([]Task, error) {
	entries, err := q.client.LRange(ctx, q.key("dead"), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	tasks := make([]Task, 0, len(entries))
	for _, entry := range entries {
		var task Task
		if err := json.Unmarshal([]byte(entry), &task); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// promoteDue moves every delayed task whose due time has passed back onto
// the pending list.
func (q *Queue) promoteDue(ctx context.Context) error {
	now := fmt.Sprintf("%d", time.Now().Unix())
	entries, err := q.client.ZRangeByScore(ctx, q.key("delayed"), &redis.ZRangeBy{
		Min: "-inf",
		Max: now,
	}).Result()
	if err != nil {
		return err
	}

	for _, entry := range entries {
		removed, err := q.client.ZRem(ctx, q.key("delayed"), entry).Result()
		if err != nil {
			return err
		}
		// Another worker may have promoted it first.
		if removed == 0 {
			continue
		}
		if err := q.client.LPush(ctx, q.key("pending"), entry).Err(); err != nil {
			return err
		}
	}
	return nil
}
