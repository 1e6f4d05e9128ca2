package auditlogs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/NeuralTrust/BotGate/pkg/domain/audit"
	"github.com/NeuralTrust/BotGate/pkg/infra/breaker"
	"github.com/NeuralTrust/BotGate/pkg/infra/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultQueueSize    = 10000
	DefaultWorkers      = 4
	DefaultWriteTimeout = 2 * time.Second
)

// Service fans decision records out to every configured sink without
// blocking the caller.
type Service interface {
	Emit(record *audit.Record)
	Close() error
}

type Options struct {
	QueueSize    int
	Workers      int
	WriteTimeout time.Duration
	Breaker      breaker.Settings
}

type guardedSink struct {
	sink    audit.Sink
	breaker breaker.CircuitBreaker
}

type service struct {
	logger   *logrus.Logger
	sinks    []guardedSink
	timeout  time.Duration
	taskChan chan *audit.Record
	mu       sync.RWMutex
	closed   bool
	wg       sync.WaitGroup
}

func NewService(logger *logrus.Logger, sinks []audit.Sink, opts Options) Service {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}

	s := &service{
		logger:   logger,
		timeout:  opts.WriteTimeout,
		taskChan: make(chan *audit.Record, opts.QueueSize),
	}
	for _, sink := range sinks {
		s.sinks = append(s.sinks, guardedSink{
			sink:    sink,
			breaker: breaker.NewCircuitBreaker("audit-"+sink.Name(), opts.Breaker, logger),
		})
	}

	for i := 0; i < opts.Workers; i++ {
		s.wg.Add(1)
		go s.work()
	}
	return s
}

// Emit enqueues record and returns immediately. When the queue is full the
// record is dropped and counted.
func (s *service) Emit(record *audit.Record) {
	if record == nil || len(s.sinks) == 0 {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.taskChan <- record:
	default:
		prometheus.AuditDropped.Inc()
		s.logger.WithField("record_id", record.ID).Debug("audit queue full, record dropped")
	}
}

func (s *service) work() {
	defer s.wg.Done()
	for record := range s.taskChan {
		s.dispatch(record)
	}
}

func (s *service) dispatch(record *audit.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	var g errgroup.Group
	for _, gs := range s.sinks {
		gs := gs
		g.Go(func() error {
			err := gs.breaker.Execute(func() error {
				return gs.sink.Write(ctx, record)
			})
			if err != nil {
				prometheus.AuditSinkFailures.WithLabelValues(gs.sink.Name()).Inc()
				entry := s.logger.WithFields(logrus.Fields{
					"sink":      gs.sink.Name(),
					"record_id": record.ID,
				}).WithError(err)
				if errors.Is(err, breaker.ErrOpen) {
					entry.Debug("audit sink skipped, breaker open")
				} else {
					entry.Error("audit sink write failed")
				}
			}
			return nil
		})
	}
	_ = g.Wait()
}

// Close stops accepting records, drains the queue and closes every sink.
func (s *service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.taskChan)
	s.mu.Unlock()

	s.logger.Info("draining audit queue")
	s.wg.Wait()

	var errs []error
	for _, gs := range s.sinks {
		if err := gs.sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.logger.Info("audit sinks closed")
	return errors.Join(errs...)
}
