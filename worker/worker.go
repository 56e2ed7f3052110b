package worker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"finzora/api/logger"
	"finzora/api/models"

	"go.uber.org/zap"
)

// Sink receives a notification payload for one user and reports how many
// live connections took it.
type Sink interface {
	Publish(userID, payload string) int
}

type WorkerPool struct {
	workers    int
	partitions []chan []byte
	sink       Sink
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	stopOnce   sync.Once

	// Metrics
	mu                 sync.RWMutex
	messagesProcessed  uint64
	messagesDelivered  uint64
	processingDuration uint64
	bufferFillLevels   []int64
	messagesDropped    uint64
}

func NewWorkerPool(workers int, sink Sink) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	partitions := make([]chan []byte, workers)
	for i := range partitions {
		partitions[i] = make(chan []byte, 100) // Buffer size of 100 per partition
	}
	return &WorkerPool{
		workers:          workers,
		partitions:       partitions,
		sink:             sink,
		ctx:              ctx,
		cancelFunc:       cancel,
		bufferFillLevels: make([]int64, workers),
	}
}

func (wp *WorkerPool) Start() {
	logger.Get().Info("Starting worker pool", zap.Int("workers", wp.workers))
	for i := range wp.partitions {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop drains nothing: queued jobs are abandoned once the context is cancelled.
func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() {
		logger.Get().Info("Stopping worker pool")
		wp.cancelFunc()
		wp.wg.Wait()
	})
}

// Submit queues job on a worker. Partitions beyond the pool size wrap around
// so every message for one Kafka partition lands on the same worker.
func (wp *WorkerPool) Submit(job []byte, partition int32) {
	if partition < 0 {
		wp.drop()
		logger.Get().Error("Invalid partition number",
			zap.Int32("partition", partition),
			zap.Int("max_partitions", len(wp.partitions)))
		return
	}
	idx := int(partition) % len(wp.partitions)

	select {
	case <-wp.ctx.Done():
		wp.drop()
		logger.Get().Warn("Worker pool is stopped, job not submitted")
		return
	default:
	}

	select {
	case wp.partitions[idx] <- job:
		wp.mu.Lock()
		wp.bufferFillLevels[idx]++
		wp.mu.Unlock()
		logger.Get().Debug("Job submitted to worker pool", zap.Int("partition", idx))
	case <-wp.ctx.Done():
		wp.drop()
		logger.Get().Warn("Worker pool is stopped, job not submitted")
	}
}

func (wp *WorkerPool) drop() {
	wp.mu.Lock()
	wp.messagesDropped++
	wp.mu.Unlock()
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()
	logger.Get().Info("Worker started", zap.Int("worker_id", id))

	for {
		select {
		case job := <-wp.partitions[id]:
			wp.mu.Lock()
			wp.bufferFillLevels[id]--
			wp.mu.Unlock()
			wp.process(id, job)

		case <-wp.ctx.Done():
			logger.Get().Info("Worker stopping due to context cancellation",
				zap.Int("worker_id", id))
			return
		}
	}
}

func (wp *WorkerPool) process(id int, job []byte) {
	startTime := time.Now()

	var n models.AlertNotification
	if err := json.Unmarshal(job, &n); err != nil || n.UserID == "" {
		wp.drop()
		logger.Get().Error("Failed to unmarshal notification",
			zap.Int("worker_id", id),
			zap.Error(err))
		return
	}

	logger.Get().Debug("Processing notification",
		zap.Int("worker_id", id),
		zap.String("user_id", n.UserID),
		zap.String("symbol", n.Symbol))

	delivered := wp.sink.Publish(n.UserID, string(job))

	wp.mu.Lock()
	wp.messagesProcessed++
	wp.messagesDelivered += uint64(delivered)
	wp.processingDuration += uint64(time.Since(startTime).Milliseconds())
	wp.mu.Unlock()
}

type Metrics struct {
	MessagesProcessed uint64  `json:"messages_processed"`
	MessagesDelivered uint64  `json:"messages_delivered"`
	MessagesDropped   uint64  `json:"messages_dropped"`
	AvgProcessingMs   float64 `json:"avg_processing_ms"`
	BufferLevels      []int64 `json:"buffer_levels"`
	ActiveWorkers     int     `json:"active_workers"`
}

func (wp *WorkerPool) Metrics() Metrics {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	var avgProcessingTime float64
	if wp.messagesProcessed > 0 {
		avgProcessingTime = float64(wp.processingDuration) / float64(wp.messagesProcessed)
	}
	return Metrics{
		MessagesProcessed: wp.messagesProcessed,
		MessagesDelivered: wp.messagesDelivered,
		MessagesDropped:   wp.messagesDropped,
		AvgProcessingMs:   avgProcessingTime,
		BufferLevels:      append([]int64(nil), wp.bufferFillLevels...),
		ActiveWorkers:     wp.workers,
	}
}
