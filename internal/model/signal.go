package model

import "time"

// Verdict classifies a signal score into a coarse recommendation band.
type Verdict string

const (
	VerdictStrong  Verdict = "STRONG"
	VerdictNeutral Verdict = "NEUTRAL"
	VerdictWeak    Verdict = "WEAK"
)

// SignalReport is the bullish score of the most recent bar of a symbol,
// with the reasons that contributed to it in evaluation order.
type SignalReport struct {
	Symbol  string   `json:"symbol"`
	Time    time.Time `json:"time"`
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
	Verdict Verdict  `json:"verdict"`
}
