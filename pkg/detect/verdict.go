package detect

import (
	"sync"

	"github.com/pagewarden/pagewarden/pkg/snapshot"
)

// Band is the user-facing risk band derived from a legitimacy score.
type Band string

const (
	BandLegitimate Band = "legitimate"
	BandUncertain  Band = "uncertain"
	BandPhishing   Band = "phishing"
)

// Threshold bounds. Safe must stay in [70,95], caution in [30,70], and the
// pair must keep at least MinSeparation points between them.
const (
	SafeMin       = 70
	SafeMax       = 95
	CautionMin    = 30
	CautionMax    = 70
	MinSeparation = 10
)

// Thresholds holds the two configurable verdict cut points.
type Thresholds struct {
	Safe    int `json:"safe_threshold"`
	Caution int `json:"caution_threshold"`
}

// DefaultThresholds returns the shipped cut points (80/50).
func DefaultThresholds() Thresholds {
	return Thresholds{Safe: 80, Caution: 50}
}

// Normalize clamps both values into their legal ranges and restores the
// minimum separation. An update that would invert the pair is corrected,
// never applied as-is: {safe:55, caution:60} normalizes to {70, 60}.
func (t Thresholds) Normalize() Thresholds {
	if t.Safe < SafeMin {
		t.Safe = SafeMin
	}
	if t.Safe > SafeMax {
		t.Safe = SafeMax
	}
	if t.Caution < CautionMin {
		t.Caution = CautionMin
	}
	if t.Caution > CautionMax {
		t.Caution = CautionMax
	}
	// Safe >= 70 here, so pushing caution down never leaves [30,70].
	if t.Safe-t.Caution < MinSeparation {
		t.Caution = t.Safe - MinSeparation
	}
	return t
}

// Classify maps a score through the thresholds into exactly one band.
// The partition is total over [0,100]:
//
//	score >= Safe             -> Legitimate
//	Caution <= score < Safe   -> Uncertain
//	score < Caution           -> Phishing
func Classify(score int, t Thresholds) Band {
	score = snapshot.ClampScore(score)
	switch {
	case score >= t.Safe:
		return BandLegitimate
	case score >= t.Caution:
		return BandUncertain
	default:
		return BandPhishing
	}
}

// ThresholdStore holds the live threshold configuration. It is read on
// every banding decision, so updating it retroactively reclassifies any
// cached result the next time that result is rendered.
type ThresholdStore struct {
	mu sync.RWMutex
	t  Thresholds
}

// NewThresholdStore creates a store seeded with normalized values.
func NewThresholdStore(t Thresholds) *ThresholdStore {
	return &ThresholdStore{t: t.Normalize()}
}

// Load returns the current thresholds.
func (s *ThresholdStore) Load() Thresholds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.t
}

// Update atomically replaces the thresholds after normalization and
// returns the values actually installed.
func (s *ThresholdStore) Update(t Thresholds) Thresholds {
	norm := t.Normalize()
	s.mu.Lock()
	s.t = norm
	s.mu.Unlock()
	return norm
}
