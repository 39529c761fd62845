package engine

import (
	"context"
	"errors"

	"stock-insight/internal/model"

	"go.uber.org/zap"
)

// ScanFunc scores the latest bar of one symbol.
type ScanFunc func(ctx context.Context, symbol string) (model.SignalReport, error)

// ScanPool fans watchlist symbols out to a fixed set of workers. Each run of
// the scan function touches only its own frame, so workers share nothing.
type ScanPool struct {
	jobQueue    chan string
	workerCount int
	scan        ScanFunc
	onReport    func(model.SignalReport)
	logger      *zap.Logger
}

func NewScanPool(workerCount, bufferSize int, scan ScanFunc, onReport func(model.SignalReport), logger *zap.Logger) *ScanPool {
	return &ScanPool{
		jobQueue:    make(chan string, bufferSize),
		workerCount: workerCount,
		scan:        scan,
		onReport:    onReport,
		logger:      logger,
	}
}

func (p *ScanPool) Start(ctx context.Context) {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(ctx, i)
	}
	p.logger.Info("started scan pool", zap.Int("workers", p.workerCount))
}

// Submit queues a symbol for scanning, dropping it when the queue is full.
// A dropped symbol is picked up again on the next scheduler tick.
func (p *ScanPool) Submit(symbol string) {
	select {
	case p.jobQueue <- symbol:
	default:
		p.logger.Warn("scan pool queue full, dropping symbol", zap.String("symbol", symbol))
	}
}

func (p *ScanPool) worker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case symbol, ok := <-p.jobQueue:
			if !ok {
				return
			}
			p.process(ctx, id, symbol)
		}
	}
}

func (p *ScanPool) process(ctx context.Context, workerID int, symbol string) {
	report, err := p.scan(ctx, symbol)
	if err != nil {
		var insufficient *InsufficientDataError
		if errors.As(err, &insufficient) {
			p.logger.Debug("symbol not scorable yet",
				zap.Int("worker_id", workerID),
				zap.String("symbol", symbol),
				zap.Strings("missing", insufficient.Missing),
			)
			return
		}
		p.logger.Warn("scan failed",
			zap.Int("worker_id", workerID),
			zap.String("symbol", symbol),
			zap.Error(err),
		)
		return
	}

	if p.onReport != nil {
		p.onReport(report)
	}
}
