package engine

import (
	"stock-insight/internal/model"

	"github.com/shopspring/decimal"
)

const (
	reasonAboveMid    = "above mid band (strength)"
	reasonAboveUpper  = "above upper band (very strong / possible overbought)"
	reasonKDBullish   = "bullish cross, not yet saturated"
	reasonJOverbought = "J overbought risk"
	reasonMACDBullish = "MACD bullish"
)

var (
	kdSaturation = decimal.NewFromInt(80)
	jOverbought  = decimal.NewFromInt(100)
)

// scoreRequires are the columns the scorer refuses to guess around.
var scoreRequires = []string{ColBollMid, ColBollUpper, ColK, ColD, ColJ, ColMACD, ColMACDSignal}

// Score rates a single bar into a bullish score in [-1, 4] with the reasons
// in evaluation order. Pure: same bar, same report. Fails with
// InsufficientDataError when any required column is undefined.
func Score(bar model.Bar, ind Indicators) (model.SignalReport, error) {
	var missing []string
	for _, col := range scoreRequires {
		if !ind.Defined(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return model.SignalReport{}, &InsufficientDataError{Missing: missing}
	}

	score := 0
	reasons := make([]string, 0, 4)

	if bar.Close.GreaterThan(ind.BollMid.Decimal) {
		score++
		reasons = append(reasons, reasonAboveMid)
	}
	if bar.Close.GreaterThan(ind.BollUpper.Decimal) {
		score++
		reasons = append(reasons, reasonAboveUpper)
	}
	// K == D earns nothing: the cross must be strict.
	if ind.K.Decimal.GreaterThan(ind.D.Decimal) && ind.K.Decimal.LessThan(kdSaturation) {
		score++
		reasons = append(reasons, reasonKDBullish)
	} else if ind.J.Decimal.GreaterThan(jOverbought) {
		score--
		reasons = append(reasons, reasonJOverbought)
	}
	if ind.MACD.Decimal.GreaterThan(ind.MACDSignal.Decimal) {
		score++
		reasons = append(reasons, reasonMACDBullish)
	}

	return model.SignalReport{
		Symbol:  bar.Symbol,
		Time:    bar.Timestamp,
		Score:   score,
		Reasons: reasons,
		Verdict: verdictFor(score),
	}, nil
}

// ScoreLatest scores the most recent bar of the frame.
func ScoreLatest(f *Frame) (model.SignalReport, error) {
	bar, ind := f.Latest()
	return Score(bar, ind)
}

func verdictFor(score int) model.Verdict {
	switch {
	case score >= 3:
		return model.VerdictStrong
	case score <= 1:
		return model.VerdictWeak
	default:
		return model.VerdictNeutral
	}
}
