package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stock-insight/internal/engine"
	"stock-insight/internal/indicator"
	"stock-insight/internal/infrastructure"
	"stock-insight/internal/model"

	"go.uber.org/zap"
)

// scanLookback is the history window each scan loads. Generous compared to
// the longest indicator warm-up so holidays and halts do not starve it.
const scanLookback = 365 * 24 * time.Hour

// runWatchlistScanner periodically feeds every watched symbol into the scan
// pool.
func (a *App) runWatchlistScanner(ctx context.Context) {
	ticker := time.NewTicker(a.Config.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			symbols, err := a.Watchlist.Symbols(ctx)
			if err != nil {
				a.Logger.Error("failed to list watched symbols", zap.Error(err))
				continue
			}
			for _, symbol := range symbols {
				a.ScanPool.Submit(symbol)
			}
		}
	}
}

// runPredictionChecker periodically settles every user's pending
// predictions.
func (a *App) runPredictionChecker(ctx context.Context) {
	ticker := time.NewTicker(a.Config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.Checker.CheckAll(ctx); err != nil {
				a.Logger.Error("prediction check pass failed", zap.Error(err))
			}
		}
	}
}

// scanSymbol is the ScanPool work function: load history, enrich, score the
// latest bar.
func (a *App) scanSymbol(ctx context.Context, symbol string) (model.SignalReport, error) {
	end := time.Now()
	bars, err := a.History.Bars(ctx, symbol, end.Add(-scanLookback), end)
	if err != nil {
		return model.SignalReport{}, fmt.Errorf("load bars for %s: %w", symbol, err)
	}

	frame, err := indicator.Enrich(bars)
	if err != nil {
		return model.SignalReport{}, err
	}

	report, err := engine.ScoreLatest(frame)
	if err != nil {
		return model.SignalReport{}, err
	}

	infrastructure.SignalScans.WithLabelValues(symbol).Inc()
	return report, nil
}

// publishSignal pushes a scan report onto the analysis stream for the
// websocket gateway.
func (a *App) publishSignal(report model.SignalReport) {
	subject := fmt.Sprintf("analysis.signal.%s", report.Symbol)
	data, err := json.Marshal(report)
	if err != nil {
		a.Logger.Error("failed to marshal signal report", zap.Error(err))
		return
	}
	if _, err := a.JS.Publish(subject, data); err != nil {
		a.Logger.Error("failed to publish signal report",
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}
