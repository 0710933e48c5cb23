package ingestion

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"uld-tracker/internal/domain/uld"
	"uld-tracker/pkg/utils"
)

const SourceMQTT = "mqtt"

// Reporter applies a telemetry report; the fleet service implements it.
type Reporter interface {
	ReportTelemetryFrom(ctx context.Context, source, id string, patch *uld.Patch) (uld.ULD, error)
}

// Processor queues telemetry messages and applies them from a pool of workers,
// so a burst on the broker never blocks the MQTT callback goroutine.
type Processor struct {
	reporter Reporter
	log      *zap.Logger

	workerCount   int
	bufferSize    int
	reportTimeout time.Duration

	queue chan *TelemetryMessage

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	started bool
	stopped bool

	metrics *MetricsTracker
}

func NewProcessor(reporter Reporter, workerCount, bufferSize int, log *zap.Logger) *Processor {
	if workerCount <= 0 {
		workerCount = 1
	}
	if bufferSize <= 0 {
		bufferSize = 1
	}
	if log == nil {
		log = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Processor{
		reporter:      reporter,
		log:           log,
		workerCount:   workerCount,
		bufferSize:    bufferSize,
		reportTimeout: 5 * time.Second,
		queue:         make(chan *TelemetryMessage, bufferSize),
		ctx:           ctx,
		cancel:        cancel,
		metrics:       NewMetricsTracker(),
	}
}

func (p *Processor) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started || p.stopped {
		return
	}
	p.started = true

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.log.Info("Telemetry processor started",
		zap.Int("workers", p.workerCount),
		zap.Int("buffer_size", p.bufferSize),
	)
}

// Stop drains the queue and waits for the workers to exit. Messages submitted
// afterwards are dropped.
func (p *Processor) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	p.cancel()

	p.log.Info("Telemetry processor stopped")
}

// Submit enqueues msg without blocking. It reports false when the message was
// dropped because the queue is full or the processor has stopped.
func (p *Processor) Submit(msg *TelemetryMessage) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		p.metrics.Update(func(m *IngestMetrics) {
			m.MessagesDropped++
		})
		return false
	}

	select {
	case p.queue <- msg:
		p.metrics.Update(func(m *IngestMetrics) {
			m.MessagesReceived++
			m.BufferSize = len(p.queue)
		})
		return true
	default:
		p.log.Warn("Telemetry buffer full, dropping message", zap.String("uld_id", msg.ULDID))
		p.metrics.Update(func(m *IngestMetrics) {
			m.MessagesDropped++
		})
		return false
	}
}

func (p *Processor) worker(id int) {
	defer p.wg.Done()

	for msg := range p.queue {
		start := time.Now()

		err := p.process(msg)
		elapsed := time.Since(start)

		if err != nil {
			p.log.Warn("Failed to apply telemetry",
				zap.Int("worker", id),
				zap.String("uld_id", msg.ULDID),
				zap.String("topic", msg.Topic),
				zap.Error(err),
			)
			p.metrics.Update(func(m *IngestMetrics) {
				m.MessagesFailed++
				if errors.Is(err, uld.ErrULDNotFound) {
					m.UnknownULDs++
				}
				m.BufferSize = len(p.queue)
			})
			continue
		}

		p.metrics.Update(func(m *IngestMetrics) {
			m.MessagesProcessed++
			m.LastProcessedAt = time.Now()
			m.BufferSize = len(p.queue)
			if m.AverageProcessingTime == 0 {
				m.AverageProcessingTime = elapsed
			} else {
				m.AverageProcessingTime = (m.AverageProcessingTime + elapsed) / 2
			}
		})
	}
}

func (p *Processor) process(msg *TelemetryMessage) error {
	if err := ValidateTelemetry(msg); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(p.ctx, p.reportTimeout)
	defer cancel()

	_, err := p.reporter.ReportTelemetryFrom(ctx, SourceMQTT, utils.SanitizeID(msg.ULDID), msg.ToPatch())
	return err
}

func (p *Processor) Metrics() *MetricsTracker {
	return p.metrics
}

func (p *Processor) GetMetrics() IngestMetrics {
	return p.metrics.Snapshot()
}
