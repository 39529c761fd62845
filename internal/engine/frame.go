package engine

import (
	"fmt"

	"stock-insight/internal/model"

	"github.com/shopspring/decimal"
)

// Indicator column names, used in InsufficientDataError reports.
const (
	ColMACD       = "MACD"
	ColMACDSignal = "MACD_signal"
	ColMACDHist   = "MACD_hist"
	ColBollUpper  = "BBU"
	ColBollMid    = "BBM"
	ColBollLower  = "BBL"
	ColK          = "K"
	ColD          = "D"
	ColJ          = "J"
	ColMA20       = "MA20"
	ColRSI        = "RSI"
)

// Indicators holds the derived columns for one bar. A column inside its
// warm-up window is carried as an invalid NullDecimal, never as zero.
type Indicators struct {
	MACD       decimal.NullDecimal `json:"macd"`
	MACDSignal decimal.NullDecimal `json:"macd_signal"`
	MACDHist   decimal.NullDecimal `json:"macd_hist"`
	BollUpper  decimal.NullDecimal `json:"bbu"`
	BollMid    decimal.NullDecimal `json:"bbm"`
	BollLower  decimal.NullDecimal `json:"bbl"`
	K          decimal.NullDecimal `json:"k"`
	D          decimal.NullDecimal `json:"d"`
	J          decimal.NullDecimal `json:"j"`
	MA20       decimal.NullDecimal `json:"ma20"`
	RSI        decimal.NullDecimal `json:"rsi"`
}

// Defined reports whether the named column holds a value.
func (ix Indicators) Defined(col string) bool {
	switch col {
	case ColMACD:
		return ix.MACD.Valid
	case ColMACDSignal:
		return ix.MACDSignal.Valid
	case ColMACDHist:
		return ix.MACDHist.Valid
	case ColBollUpper:
		return ix.BollUpper.Valid
	case ColBollMid:
		return ix.BollMid.Valid
	case ColBollLower:
		return ix.BollLower.Valid
	case ColK:
		return ix.K.Valid
	case ColD:
		return ix.D.Valid
	case ColJ:
		return ix.J.Valid
	case ColMA20:
		return ix.MA20.Valid
	case ColRSI:
		return ix.RSI.Valid
	default:
		return false
	}
}

// Frame is an immutable, time-ordered bar sequence with its indicator
// columns. Column i is computed only from bars [0, i]; the frame itself
// never looks ahead.
type Frame struct {
	bars []model.Bar
	cols []Indicators
}

// NewFrame validates and wraps a bar sequence. cols may be nil, in which
// case every column of every bar is undefined.
func NewFrame(bars []model.Bar, cols []Indicators) (*Frame, error) {
	if len(bars) == 0 {
		return nil, &DataError{Reason: "empty bar sequence"}
	}
	if cols != nil && len(cols) != len(bars) {
		return nil, &DataError{Reason: fmt.Sprintf("indicator columns length %d does not match %d bars", len(cols), len(bars))}
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i].Timestamp.After(bars[i-1].Timestamp) {
			return nil, &DataError{Reason: fmt.Sprintf("non-monotonic timestamp at index %d (%s)", i, bars[i].Timestamp.Format("2006-01-02"))}
		}
	}
	if cols == nil {
		cols = make([]Indicators, len(bars))
	}
	return &Frame{bars: bars, cols: cols}, nil
}

func (f *Frame) Len() int {
	return len(f.bars)
}

// Bar returns the bar at index i in original order.
func (f *Frame) Bar(i int) model.Bar {
	return f.bars[i]
}

// Indicators returns the indicator columns for the bar at index i.
func (f *Frame) Indicators(i int) Indicators {
	return f.cols[i]
}

// Defined reports whether the named column is defined at index i.
func (f *Frame) Defined(i int, col string) bool {
	return f.cols[i].Defined(col)
}

// Latest returns the most recent bar with its columns.
func (f *Frame) Latest() (model.Bar, Indicators) {
	n := len(f.bars) - 1
	return f.bars[n], f.cols[n]
}
