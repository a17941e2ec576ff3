package fulfillment

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dropflow/backend/internal/domain/fulfillment"
	"github.com/dropflow/backend/internal/domain/order"
	"github.com/dropflow/backend/internal/domain/shared"
)

const (
	defaultWorkers        = 2
	defaultQueueSize      = 64
	defaultAttemptTimeout = 5 * time.Minute
)

// DispatcherOptions configures the fulfillment worker pool
type DispatcherOptions struct {
	Workers        int
	QueueSize      int
	AttemptTimeout time.Duration
}

// Dispatcher runs fulfillment attempts on a bounded worker pool. Orders are
// processed at most once concurrently: a second enqueue of an in-flight
// order is a no-op, so no order can be purchased twice in parallel. Job
// lifetimes are detached from the HTTP requests that trigger them.
type Dispatcher struct {
	executor fulfillment.Executor
	orders   order.Repository
	logger   *zap.Logger
	opts     DispatcherOptions

	queue chan string
	wg    sync.WaitGroup

	mu       sync.Mutex
	inflight map[string]struct{}
	stopped  bool
}

// NewDispatcher creates a dispatcher; call Start before enqueueing
func NewDispatcher(executor fulfillment.Executor, orders order.Repository, opts DispatcherOptions, logger *zap.Logger) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = defaultAttemptTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dispatcher{
		executor: executor,
		orders:   orders,
		logger:   logger,
		opts:     opts,
		queue:    make(chan string, opts.QueueSize),
		inflight: make(map[string]struct{}),
	}
}

// Start launches the worker pool
func (d *Dispatcher) Start() {
	for i := 0; i < d.opts.Workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	d.logger.Info("Fulfillment dispatcher started",
		zap.String("executor", d.executor.Name()),
		zap.Int("workers", d.opts.Workers),
		zap.Int("queue_size", d.opts.QueueSize))
}

// Enqueue implements the checkout dispatcher port. It never blocks: a full
// queue is an error the caller logs, and the order stays retryable.
func (d *Dispatcher) Enqueue(o *order.Order) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return shared.NewDomainError("DISPATCHER_STOPPED", "Fulfillment dispatcher is shutting down")
	}
	if _, busy := d.inflight[o.ID]; busy {
		d.mu.Unlock()
		d.logger.Debug("Order already queued for fulfillment", zap.String("order_id", o.ID))
		return nil
	}
	d.inflight[o.ID] = struct{}{}
	d.mu.Unlock()

	select {
	case d.queue <- o.ID:
		return nil
	default:
		d.release(o.ID)
		return shared.NewDomainError("QUEUE_FULL", "Fulfillment queue is full")
	}
}

// Stop drains the queue and waits for in-flight attempts, up to the ctx
// deadline.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	d.mu.Unlock()

	close(d.queue)

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("Fulfillment dispatcher stopped")
		return nil
	case <-ctx.Done():
		d.logger.Warn("Fulfillment dispatcher stop timed out with work in flight")
		return ctx.Err()
	}
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for orderID := range d.queue {
		d.process(orderID)
		d.release(orderID)
	}
	d.logger.Debug("Fulfillment worker exited", zap.Int("worker", id))
}

func (d *Dispatcher) release(orderID string) {
	d.mu.Lock()
	delete(d.inflight, orderID)
	d.mu.Unlock()
}

// process runs one fulfillment attempt end to end. The context is rooted in
// Background: the buyer's HTTP request is long gone by the time this runs.
func (d *Dispatcher) process(orderID string) {
	ctx, cancel := context.WithTimeout(context.Background(), d.opts.AttemptTimeout)
	defer cancel()

	o, err := d.orders.FindByID(ctx, orderID)
	if err != nil {
		d.logger.Error("Fulfillment skipped, order not loadable",
			zap.String("order_id", orderID),
			zap.Error(err))
		return
	}
	if o.Status != order.StatusAwaitingFulfillment {
		d.logger.Warn("Fulfillment skipped, order not awaiting",
			zap.String("order_id", orderID),
			zap.String("status", string(o.Status)))
		return
	}

	record, attemptErr := d.executor.AttemptFulfillment(ctx, o)

	var transitionErr error
	switch {
	case record.Succeeded():
		transitionErr = o.MarkFulfilled(record)
	case record.Kind == order.RecordKindManual:
		transitionErr = o.MarkManualReview(record)
	default:
		if record.IsZero() {
			message := "executor returned no record"
			if attemptErr != nil {
				message = attemptErr.Error()
			}
			record = order.NewBotRecord(order.BotResult{
				Success:   false,
				ErrorKind: string(fulfillment.KindOf(attemptErr)),
				Error:     message,
			})
		}
		transitionErr = o.MarkFulfillmentFailed(record)
	}
	if transitionErr != nil {
		d.logger.Error("Fulfillment outcome could not be applied",
			zap.String("order_id", orderID),
			zap.Error(transitionErr))
		return
	}

	// The attempt may have outlived its own deadline; persisting the outcome
	// must not be lost with it.
	updateCtx, updateCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer updateCancel()

	if err := d.orders.Update(updateCtx, o); err != nil {
		d.logger.Error("Fulfillment outcome could not be persisted",
			zap.String("order_id", orderID),
			zap.String("status", string(o.Status)),
			zap.Error(err))
		return
	}

	switch o.Status {
	case order.StatusFulfilled:
		d.logger.Info("Order fulfilled",
			zap.String("order_id", orderID),
			zap.String("external_order_id", externalOrderID(record)))
	case order.StatusManualReview:
		d.logger.Info("Order parked for manual purchase",
			zap.String("order_id", orderID))
	default:
		d.logger.Warn("Order fulfillment failed",
			zap.String("order_id", orderID),
			zap.Error(attemptErr))
	}
}

func externalOrderID(record order.FulfillmentRecord) string {
	if record.Bot != nil {
		return record.Bot.ExternalOrderID
	}
	return ""
}
