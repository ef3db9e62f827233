package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"riskintel/internal/util"
)

// ReportJobQueue distributes deferred report-generation jobs over a Redis
// stream with a consumer group. Job lifecycle state lives in the report
// request row, not in Redis; the stream only carries delivery.
type ReportJobQueue struct {
	client       *redis.Client
	stream       string
	group        string
	consumerBase string
	maxRetries   int
	block        time.Duration
	claimIdle    time.Duration
	retryDelay   time.Duration
	maxLen       int64
	once         sync.Once
}

// Config configures the queue; zero values pick sensible defaults.
type Config struct {
	Addr       string
	Password   string
	Stream     string
	Group      string
	Consumer   string
	MaxRetries int
	Block      time.Duration
	ClaimIdle  time.Duration
	RetryDelay time.Duration
	MaxLen     int64
}

// New connects to Redis and prepares the queue.
func New(cfg Config) (*ReportJobQueue, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("redis addr required")
	}
	stream := strings.TrimSpace(cfg.Stream)
	if stream == "" {
		return nil, errors.New("queue stream required")
	}
	group := strings.TrimSpace(cfg.Group)
	if group == "" {
		group = "reports"
	}
	consumer := strings.TrimSpace(cfg.Consumer)
	if consumer == "" {
		consumer = util.NewID()
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	block := cfg.Block
	if block <= 0 {
		block = 5 * time.Second
	}
	claimIdle := cfg.ClaimIdle
	if claimIdle <= 0 {
		claimIdle = 30 * time.Second
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 2 * time.Second
	}
	maxLen := cfg.MaxLen
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &ReportJobQueue{
		client:       redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Password}),
		stream:       stream,
		group:        group,
		consumerBase: consumer,
		maxRetries:   maxRetries,
		block:        block,
		claimIdle:    claimIdle,
		retryDelay:   retryDelay,
		maxLen:       maxLen,
	}, nil
}

// Enqueue publishes a report request id for background processing.
func (q *ReportJobQueue) Enqueue(ctx context.Context, reportID string) error {
	reportID = strings.TrimSpace(reportID)
	if reportID == "" {
		return errors.New("report id required")
	}
	return q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		MaxLen: q.maxLen,
		Approx: true,
		Values: map[string]any{
			"report_id": reportID,
			"attempt":   "1",
		},
	}).Err()
}

// Start launches consumer goroutines that run until ctx is canceled.
// The handler error decides delivery: nil acks, non-nil requeues until the
// attempt budget is spent.
func (q *ReportJobQueue) Start(ctx context.Context, concurrency int, handler func(context.Context, string) error) {
	if concurrency <= 0 {
		concurrency = 1
	}
	q.ensureGroup(ctx)
	for i := 0; i < concurrency; i++ {
		consumer := fmt.Sprintf("%s-%d", q.consumerBase, i)
		go q.consumeLoop(ctx, consumer, handler)
	}
}

func (q *ReportJobQueue) ensureGroup(ctx context.Context) {
	q.once.Do(func() {
		// BUSYGROUP means the group already exists. Other errors are not
		// fatal here, they surface on the first consume.
		_ = q.client.XGroupCreateMkStream(ctx, q.stream, q.group, "$").Err()
	})
}

func (q *ReportJobQueue) consumeLoop(ctx context.Context, consumer string, handler func(context.Context, string) error) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if msgs, err := q.claimPending(ctx, consumer); err == nil {
			for _, msg := range msgs {
				q.handleMessage(ctx, msg, handler)
			}
		}

		streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.group,
			Consumer: consumer,
			Streams:  []string{q.stream, ">"},
			Count:    10,
			Block:    q.block,
		}).Result()
		if err != nil {
			continue
		}
		for _, stream := range streams {
			for _, msg := range stream.Messages {
				q.handleMessage(ctx, msg, handler)
			}
		}
	}
}

func (q *ReportJobQueue) claimPending(ctx context.Context, consumer string) ([]redis.XMessage, error) {
	res, _, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   q.stream,
		Group:    q.group,
		Consumer: consumer,
		MinIdle:  q.claimIdle,
		Start:    "0-0",
		Count:    10,
	}).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (q *ReportJobQueue) handleMessage(ctx context.Context, msg redis.XMessage, handler func(context.Context, string) error) {
	reportID, _ := msg.Values["report_id"].(string)
	if reportID == "" {
		q.ackAndDel(ctx, msg.ID)
		return
	}
	attempt := 1
	if raw, _ := msg.Values["attempt"].(string); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			attempt = n
		}
	}
	if err := handler(ctx, reportID); err == nil || attempt >= q.maxRetries {
		q.ackAndDel(ctx, msg.ID)
		return
	}
	if q.retryDelay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(q.retryDelay):
		}
	}
	_ = q.requeueAndAck(ctx, msg.ID, reportID, attempt+1)
}

func (q *ReportJobQueue) ackAndDel(ctx context.Context, msgID string) {
	_, _ = q.client.XAck(ctx, q.stream, q.group, msgID).Result()
	_, _ = q.client.XDel(ctx, q.stream, msgID).Result()
}

func (q *ReportJobQueue) requeueAndAck(ctx context.Context, msgID, reportID string, attempt int) error {
	pipe := q.client.TxPipeline()
	pipe.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		MaxLen: q.maxLen,
		Approx: true,
		Values: map[string]any{
			"report_id": reportID,
			"attempt":   strconv.Itoa(attempt),
		},
	})
	pipe.XAck(ctx, q.stream, q.group, msgID)
	pipe.XDel(ctx, q.stream, msgID)
	_, err := pipe.Exec(ctx)
	return err
}
