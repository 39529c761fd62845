package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"stock-insight/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestScanPool_ProcessesSubmittedSymbols(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	seen := make(map[string]int)
	done := make(chan struct{}, 3)

	scan := func(_ context.Context, symbol string) (model.SignalReport, error) {
		return model.SignalReport{Symbol: symbol, Score: 2}, nil
	}
	onReport := func(r model.SignalReport) {
		mu.Lock()
		seen[r.Symbol]++
		mu.Unlock()
		done <- struct{}{}
	}

	pool := NewScanPool(2, 8, scan, onReport, zap.NewNop())
	pool.Start(ctx)

	for _, s := range []string{"600519", "000001", "300750"} {
		pool.Submit(s)
	}
	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for scan reports")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 3)
	for symbol, count := range seen {
		assert.Equal(t, 1, count, "symbol %s scanned more than once", symbol)
	}
}

func TestScanPool_ScanErrorsDoNotReachReporter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	processed := make(chan string, 2)
	scan := func(_ context.Context, symbol string) (model.SignalReport, error) {
		defer func() { processed <- symbol }()
		if symbol == "999999" {
			return model.SignalReport{}, errors.New("provider down")
		}
		if symbol == "688001" {
			return model.SignalReport{}, &InsufficientDataError{Missing: []string{ColK}}
		}
		return model.SignalReport{Symbol: symbol}, nil
	}

	var reported []string
	var mu sync.Mutex
	onReport := func(r model.SignalReport) {
		mu.Lock()
		reported = append(reported, r.Symbol)
		mu.Unlock()
	}

	pool := NewScanPool(1, 8, scan, onReport, zap.NewNop())
	pool.Start(ctx)

	pool.Submit("999999")
	pool.Submit("688001")
	for i := 0; i < 2; i++ {
		select {
		case <-processed:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for jobs")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Empty(t, reported)
}

func TestScanPool_SubmitDropsWhenQueueFull(t *testing.T) {
	// Never started: nothing drains the queue, so the buffer fills up and
	// the overflow submit must not block.
	pool := NewScanPool(1, 1, nil, nil, zap.NewNop())

	pool.Submit("600519")

	dropped := make(chan struct{})
	go func() {
		pool.Submit("000001")
		close(dropped)
	}()

	select {
	case <-dropped:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked on a full queue")
	}
}
