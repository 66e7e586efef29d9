package service

import "github.com/noah-isme/gradebook-api/pkg/config"

// LetterScale maps numeric scores on the 0-10 scale to letter grades.
// Thresholds are inclusive and checked highest first; anything below the D
// threshold is an F, which also covers out-of-range input on either side.
type LetterScale struct {
	A float64
	B float64
	C float64
	D float64
}

// DefaultLetterScale returns the institution's observed ladder.
func DefaultLetterScale() LetterScale {
	return LetterScale{A: 9, B: 8, C: 7, D: 6}
}

// NewLetterScale builds a scale from config, filling unset thresholds from
// the default ladder.
func NewLetterScale(cfg config.GradingConfig) LetterScale {
	scale := DefaultLetterScale()
	if cfg.ThresholdA > 0 {
		scale.A = cfg.ThresholdA
	}
	if cfg.ThresholdB > 0 {
		scale.B = cfg.ThresholdB
	}
	if cfg.ThresholdC > 0 {
		scale.C = cfg.ThresholdC
	}
	if cfg.ThresholdD > 0 {
		scale.D = cfg.ThresholdD
	}
	return scale
}

// Grade returns the letter for a score. Total over all inputs; no error
// case and no range check.
func (s LetterScale) Grade(score float64) string {
	switch {
	case score >= s.A:
		return "A"
	case score >= s.B:
		return "B"
	case score >= s.C:
		return "C"
	case score >= s.D:
		return "D"
	default:
		return "F"
	}
}
