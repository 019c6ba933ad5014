// Package risk maps probabilities onto Low / Medium / High tiers.
package risk

import (
	"fmt"
	"sync/atomic"

	"github.com/medml-risk-server/internal/domain"
)

// Default cut points
const (
	DefaultMedium = 0.35
	DefaultHigh   = 0.70
)

// Thresholds are the lower bounds of the Medium and High tiers
type Thresholds struct {
	Medium float64 `json:"medium"`
	High   float64 `json:"high"`
}

// DefaultThresholds returns the standard cut points.
func DefaultThresholds() Thresholds {
	return Thresholds{Medium: DefaultMedium, High: DefaultHigh}
}

// FromConfig converts the configuration block.
func FromConfig(cfg domain.ThresholdConfig) Thresholds {
	return Thresholds{Medium: cfg.Medium, High: cfg.High}
}

// Validate requires 0 < medium < high < 1.
func (t Thresholds) Validate() error {
	if !(t.Medium > 0 && t.Medium < t.High && t.High < 1) {
		return fmt.Errorf("%w: need 0 < medium (%v) < high (%v) < 1", domain.ErrInvalidThresholds, t.Medium, t.High)
	}
	return nil
}

// Classifier assigns tiers. Thresholds can be swapped at runtime; each
// Classify call sees one consistent pair.
type Classifier struct {
	thresholds atomic.Pointer[Thresholds]
}

// NewClassifier creates a classifier with validated thresholds
func NewClassifier(t Thresholds) (*Classifier, error) {
	c := &Classifier{}
	if err := c.SetThresholds(t); err != nil {
		return nil, err
	}
	return c, nil
}

// SetThresholds replaces the cut points. Invalid values leave the current
// ones in place.
func (c *Classifier) SetThresholds(t Thresholds) error {
	if err := t.Validate(); err != nil {
		return err
	}
	c.thresholds.Store(&t)
	return nil
}

// Thresholds returns the active cut points.
func (c *Classifier) Thresholds() Thresholds {
	return *c.thresholds.Load()
}

// Classify returns High for p >= high, Medium for p >= medium, else Low.
// Values below 0 classify Low and values above 1 classify High.
func (c *Classifier) Classify(p float64) domain.RiskTier {
	t := c.thresholds.Load()
	switch {
	case p >= t.High:
		return domain.TierHigh
	case p >= t.Medium:
		return domain.TierMedium
	}
	return domain.TierLow
}
