package embedding

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"focal/internal/logging"
	"focal/internal/model"
)

// Queue defaults.
const (
	DefaultBatchSize   = 50
	DefaultConcurrency = 3
)

// Metrics holds the queue's shared counters. One instance is
// constructed per process and passed to the queue; counters are atomic
// so interleaved batch completions never lose updates, and they are
// queryable mid-flight by concurrent callers.
type Metrics struct {
	totalProcessed atomic.Int64
	queueDepth     atomic.Int64
	activeJobs     atomic.Int64
}

// NewMetrics creates an empty metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// TotalProcessed returns the cumulative number of tasks processed.
func (m *Metrics) TotalProcessed() int64 { return m.totalProcessed.Load() }

// QueueDepth returns the number of tasks enqueued but not yet finished.
func (m *Metrics) QueueDepth() int64 { return m.queueDepth.Load() }

// ActiveJobs returns the number of batches currently in flight.
func (m *Metrics) ActiveJobs() int64 { return m.activeJobs.Load() }

// Reset drains the bookkeeping. Used for process-restart semantics; it
// does not cancel already-dispatched requests.
func (m *Metrics) Reset() {
	m.totalProcessed.Store(0)
	m.queueDepth.Store(0)
	m.activeJobs.Store(0)
}

// Sink receives successfully generated embeddings.
type Sink interface {
	StoreEmbedding(ctx context.Context, taskID string, vec []float32) error
}

// Item statuses in a queue result.
const (
	ItemSuccess = "success"
	ItemFailed  = "failed"
	ItemPending = "pending"
)

// ItemResult is the outcome for one task.
type ItemResult struct {
	TaskID       string `json:"task_id"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Result accounts for every input task exactly once:
// Success + Failed + Pending equals the input length.
type Result struct {
	DocumentID string        `json:"document_id,omitempty"`
	Success    int           `json:"success"`
	Failed     int           `json:"failed"`
	Pending    int           `json:"pending"`
	Duration   time.Duration `json:"duration"`
	Items      []ItemResult  `json:"items"`
}

// Queue throttles embedding generation: fixed-size batches, a bounded
// number of concurrent in-flight batches, per-task failure isolation.
// Retryable failures are marked pending for a later re-trigger — the
// queue itself never retries, to avoid retry storms against a
// rate-limited provider.
type Queue struct {
	provider    Provider
	sink        Sink
	metrics     *Metrics
	batchSize   int
	concurrency int
	log         zerolog.Logger
}

// NewQueue constructs a queue over the given provider and sink.
func NewQueue(provider Provider, sink Sink, metrics *Metrics, batchSize, concurrency int) *Queue {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Queue{
		provider:    provider,
		sink:        sink,
		metrics:     metrics,
		batchSize:   batchSize,
		concurrency: concurrency,
		log:         logging.With("queue"),
	}
}

// Metrics returns the queue's shared counters.
func (q *Queue) Metrics() *Metrics { return q.metrics }

// Enqueue embeds every task's description and stores the vectors via
// the sink. Batches run concurrently up to the concurrency cap;
// batches for the same document are unordered relative to each other.
func (q *Queue) Enqueue(ctx context.Context, tasks []model.Task, documentID string) (Result, error) {
	start := time.Now()
	items := make([]ItemResult, len(tasks))

	q.metrics.queueDepth.Add(int64(len(tasks)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(q.concurrency)

	for offset := 0; offset < len(tasks); offset += q.batchSize {
		end := offset + q.batchSize
		if end > len(tasks) {
			end = len(tasks)
		}
		batch := tasks[offset:end]
		slot := items[offset:end]

		g.Go(func() error {
			q.metrics.activeJobs.Add(1)
			defer q.metrics.activeJobs.Add(-1)
			q.processBatch(gctx, batch, slot)
			return nil
		})
	}
	_ = g.Wait()

	result := Result{
		DocumentID: documentID,
		Duration:   time.Since(start),
		Items:      items,
	}
	for _, item := range items {
		switch item.Status {
		case ItemSuccess:
			result.Success++
		case ItemPending:
			result.Pending++
		default:
			result.Failed++
		}
	}

	q.log.Info().
		Str("document_id", documentID).
		Int("success", result.Success).
		Int("failed", result.Failed).
		Int("pending", result.Pending).
		Dur("duration", result.Duration).
		Msg("embedding queue drained")

	return result, nil
}

func (q *Queue) processBatch(ctx context.Context, batch []model.Task, slot []ItemResult) {
	defer func() {
		q.metrics.queueDepth.Add(-int64(len(batch)))
		q.metrics.totalProcessed.Add(int64(len(batch)))
	}()

	texts := make([]string, len(batch))
	for i, t := range batch {
		texts[i] = t.Description
	}

	vecs, err := q.provider.EmbedBatch(ctx, texts)
	if err != nil {
		status, msg := statusFor(err)
		for i, t := range batch {
			slot[i] = ItemResult{TaskID: t.ID, Status: status, ErrorMessage: msg}
		}
		q.log.Warn().Err(err).Int("tasks", len(batch)).Str("status", status).Msg("embedding batch failed")
		return
	}

	for i, t := range batch {
		if i >= len(vecs) || len(vecs[i]) == 0 {
			slot[i] = ItemResult{TaskID: t.ID, Status: ItemPending, ErrorMessage: "provider returned no vector"}
			continue
		}
		if err := q.sink.StoreEmbedding(ctx, t.ID, vecs[i]); err != nil {
			slot[i] = ItemResult{TaskID: t.ID, Status: ItemFailed, ErrorMessage: err.Error()}
			continue
		}
		slot[i] = ItemResult{TaskID: t.ID, Status: ItemSuccess}
	}
}

func statusFor(err error) (string, string) {
	if Retryable(Classify(err)) {
		return ItemPending, err.Error()
	}
	return ItemFailed, err.Error()
}
