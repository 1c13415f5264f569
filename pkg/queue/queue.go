// Package queue provides the Redis-backed execution request queue. The API
// pushes requests, workers consume them and hand each one to the engine.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const (
	defaultQueue   = "weft:execution_requests"
	defaultAddr    = "localhost:6379"
	connectTimeout = 5 * time.Second
	popTimeout     = 1 * time.Second
)

// ExecutionRequest is the unit of work placed on the queue.
type ExecutionRequest struct {
	WorkflowID  string         `json:"workflow_id"`
	Variables   map[string]any `json:"variables,omitempty"`
	RequestedAt time.Time      `json:"requested_at"`
}

// Callback handles one dequeued execution request.
type Callback func(ctx context.Context, request ExecutionRequest) error

// Config holds the Redis connection settings for the queue.
type Config struct {
	Addr     string
	Password string
	DB       int
	Queue    string
}

func (c Config) queueName() string {
	if c.Queue == "" {
		return defaultQueue
	}

	return c.Queue
}

// ParseDB converts the textual database index from configuration.
func ParseDB(dbStr string) (int, error) {
	if dbStr == "" {
		return 0, nil
	}

	return strconv.Atoi(dbStr)
}

// Queue is a Redis list used as a work queue. Safe for one producer and many
// consumers.
type Queue struct {
	config Config
	client redis.UniversalClient
	logger *slog.Logger

	callback Callback
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewQueue(ctx context.Context, config Config, logger *slog.Logger) (*Queue, error) {
	if config.Addr == "" {
		config.Addr = defaultAddr
	}

	queue := &Queue{
		config: config,
		stopCh: make(chan struct{}),
		logger: logger.With("module", "execution_queue", "queue", config.queueName()),
	}

	if err := queue.connect(ctx); err != nil {
		return nil, err
	}

	return queue, nil
}

func (q *Queue) connect(ctx context.Context) error {
	q.client = redis.NewClient(&redis.Options{
		Addr:     q.config.Addr,
		Password: q.config.Password,
		DB:       q.config.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := q.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	q.logger.InfoContext(ctx, "Connected to Redis", "addr", q.config.Addr, "db", q.config.DB)

	return nil
}

// Enqueue pushes an execution request onto the queue.
func (q *Queue) Enqueue(ctx context.Context, request ExecutionRequest) error {
	if request.WorkflowID == "" {
		return errors.New("execution request requires a workflow id")
	}

	if request.RequestedAt.IsZero() {
		request.RequestedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal execution request: %w", err)
	}

	if err := q.client.RPush(ctx, q.config.queueName(), payload).Err(); err != nil {
		return fmt.Errorf("failed to push execution request: %w", err)
	}

	q.logger.DebugContext(ctx, "Enqueued execution request", "workflow_id", request.WorkflowID)

	return nil
}

// Start begins consuming requests, invoking the callback for each. Each
// request runs in its own goroutine; ordering across requests is not
// guaranteed.
func (q *Queue) Start(ctx context.Context, callback Callback) error {
	if callback == nil {
		return errors.New("queue consumer callback is required")
	}

	q.callback = callback

	q.wg.Add(1)

	go q.consume(ctx)

	return nil
}

func (q *Queue) consume(ctx context.Context) {
	defer q.wg.Done()

	q.logger.InfoContext(ctx, "Starting queue consumer")

	for {
		select {
		case <-q.stopCh:
			q.logger.InfoContext(ctx, "Queue consumer stopped")

			return
		case <-ctx.Done():
			q.logger.InfoContext(ctx, "Context cancelled, stopping queue consumer")

			return
		default:
			if err := q.processMessage(ctx); err != nil {
				q.logger.ErrorContext(ctx, "Error processing message", "error", err)
				time.Sleep(time.Second)
			}
		}
	}
}

func (q *Queue) processMessage(ctx context.Context) error {
	result, err := q.client.BLPop(ctx, popTimeout, q.config.queueName()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}

		return fmt.Errorf("failed to pop message from queue: %w", err)
	}

	if len(result) < 2 {
		return nil
	}

	var request ExecutionRequest
	if err := json.Unmarshal([]byte(result[1]), &request); err != nil {
		return fmt.Errorf("failed to unmarshal execution request: %w", err)
	}

	go func() {
		if err := q.callback(ctx, request); err != nil {
			q.logger.ErrorContext(ctx, "Error handling execution request",
				"workflow_id", request.WorkflowID, "error", err)
		}
	}()

	return nil
}

// Stop halts the consumer and closes the Redis connection.
func (q *Queue) Stop(ctx context.Context) error {
	q.logger.InfoContext(ctx, "Stopping execution queue")

	close(q.stopCh)
	q.wg.Wait()

	if q.client != nil {
		if err := q.client.Close(); err != nil {
			q.logger.ErrorContext(ctx, "Error closing Redis client", "error", err)
		}
	}

	return nil
}
