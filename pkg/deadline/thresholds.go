package deadline

import (
	"errors"
	"fmt"

	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/model"
)

var ErrInvalidThresholds = errors.New("invalid thresholds")

// Thresholds lists the day offsets at which alerts fire. Order matters: the
// first exact match wins.
type Thresholds struct {
	ProjectDeadline []int `json:"project_deadline" yaml:"project_deadline"`
	Milestone       []int `json:"milestone" yaml:"milestone"`
}

// DefaultThresholds returns the stock day offsets.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ProjectDeadline: []int{60, 30, 15, 7},
		Milestone:       []int{30, 15, 7, 3},
	}
}

// Validate rejects empty lists and non-positive offsets.
func (t Thresholds) Validate() error {
	if err := validateOffsets("project_deadline", t.ProjectDeadline); err != nil {
		return err
	}
	return validateOffsets("milestone", t.Milestone)
}

func validateOffsets(name string, offsets []int) error {
	if len(offsets) == 0 {
		return fmt.Errorf("%w: %s list is empty", ErrInvalidThresholds, name)
	}
	for _, d := range offsets {
		if d <= 0 {
			return fmt.Errorf("%w: %s offset %d must be positive", ErrInvalidThresholds, name, d)
		}
	}
	return nil
}

// SeverityFor bands a remaining-day count into a severity. The same banding
// applies to every alert type.
func SeverityFor(days int) model.Severity {
	switch {
	case days <= 7:
		return model.SeverityCritical
	case days <= 15:
		return model.SeverityHigh
	case days <= 30:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

// matches reports whether days equals one of the offsets.
func matches(offsets []int, days int) bool {
	for _, threshold := range offsets {
		if days == threshold {
			return true
		}
	}
	return false
}
