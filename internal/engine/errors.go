package engine

import "strings"

// DataError means the input bar sequence itself is unusable (empty, or
// timestamps out of order). The engine cannot recover from it; callers must
// fix the data source.
type DataError struct {
	Reason string
}

func (e *DataError) Error() string {
	return "bad input data: " + e.Reason
}

// ConfigError means the simulation parameters are invalid. Parameters are
// never clamped; the run fails before the first bar is processed.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid backtest config: " + e.Reason
}

// InsufficientDataError means an indicator required by the caller is still
// inside its warm-up window. Retrying with more history resolves it.
type InsufficientDataError struct {
	Missing []string
}

func (e *InsufficientDataError) Error() string {
	return "indicators not ready: " + strings.Join(e.Missing, ", ")
}
