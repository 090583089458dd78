package tracking

import "github.com/TinyKitten/TrainLCDWeb/internal/domain"

// DefaultBadAccuracyM is the accuracy radius in meters above which a fix is
// considered untrustworthy.
const DefaultBadAccuracyM = 1000.0

// AccuracyGate flags fixes whose reported accuracy is too poor to rely on.
// The rider can dismiss the warning, which silences it for the rest of the
// session; there is no way to re-arm a dismissed gate.
//
// Not safe for concurrent use on its own; the owning session serializes
// access.
type AccuracyGate struct {
	thresholdM float64
	dismissed  bool
}

func NewAccuracyGate(thresholdM float64) *AccuracyGate {
	return &AccuracyGate{thresholdM: thresholdM}
}

// IsBad reports whether the fix should be flagged. A nil fix (nothing
// received yet), a dismissed gate, or a fix without a reported accuracy all
// read as not bad.
func (g *AccuracyGate) IsBad(fix *domain.Coordinates) bool {
	if fix == nil || g.dismissed {
		return false
	}
	return fix.Accuracy != nil && *fix.Accuracy > g.thresholdM
}

// Dismiss silences the gate for the rest of the session. Idempotent.
func (g *AccuracyGate) Dismiss() {
	g.dismissed = true
}

// Dismissed reports whether the gate has been dismissed.
func (g *AccuracyGate) Dismissed() bool {
	return g.dismissed
}
