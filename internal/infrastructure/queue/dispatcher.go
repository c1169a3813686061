package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/demopark/parking-api/internal/api/metrics"
	"github.com/demopark/parking-api/internal/core/domain"
	"github.com/demopark/parking-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher routes spot events to a fixed set of workers using consistent
// hashing on the spot code, guaranteeing per-spot event ordering.
type Dispatcher struct {
	workers []chan domain.SpotEvent
	service ports.EventService
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.EventService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.SpotEvent, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.SpotEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Publish hands an event to the worker responsible for its spot. It never
// blocks: when that worker's channel is full the event is dropped and logged.
func (d *Dispatcher) Publish(event domain.SpotEvent) {
	idx := d.shardIndex(event.SpotCode)
	select {
	case d.workers[idx] <- event:
		metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.EventsDroppedTotal.Inc()
		d.log.Warn().
			Str("spot", event.SpotCode).
			Str("receipt", event.Receipt).
			Int("worker_id", idx).
			Msg("spot event dropped, queue full")
	}
}

// shardIndex maps a spot code deterministically to a worker index.
func (d *Dispatcher) shardIndex(spotCode string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(spotCode))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.SpotEvent) {
	workerID := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			metrics.EventsQueueDepth.WithLabelValues(workerID).Set(float64(len(ch)))

			start := time.Now()
			label := string(event.Type)
			if err := d.service.Process(ctx, event); err != nil {
				label = "error"
				d.log.Error().Err(err).
					Str("spot", event.SpotCode).
					Int("worker_id", id).
					Msg("spot event processing failed")
			}
			metrics.EventProcessingDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
		}
	}
}
