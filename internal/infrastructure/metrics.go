package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BacktestRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backtest_runs_total",
		Help: "Total number of backtest simulations executed",
	})

	SignalScans = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signal_scans_total",
		Help: "Total number of signal scores computed",
	}, []string{"symbol"})

	PredictionResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prediction_resolutions_total",
		Help: "Total number of predictions settled, by terminal status",
	}, []string{"status"})

	BarFetchLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "bar_fetch_latency_seconds",
		Help: "Latency of daily bar retrieval",
	}, []string{"source"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	DBInsertRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "db_insert_total",
		Help: "Total number of records inserted into DB",
	}, []string{"table"})
)
