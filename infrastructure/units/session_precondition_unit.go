package units

import (
	"context"
	"fmt"

	"github.com/ahrav/go-rubric/internal/domain"
	"github.com/ahrav/go-rubric/internal/ports"
)

var _ ports.Unit = (*SessionPreconditionUnit)(nil)

// SessionPreconditionUnit refuses to assemble a report for a session that
// lacks a completed epoch or an analyst evaluation. It is the first step of
// every assembly pipeline and never modifies the session.
//
// Concurrency: The unit is stateless and thread-safe for concurrent execution.
//
// Example:
//
//	unit, err := NewSessionPreconditionUnit("precondition", DefaultSessionPreconditionConfig())
type SessionPreconditionUnit struct {
	name   string
	config SessionPreconditionConfig
}

// SessionPreconditionConfig defines the completeness rule.
type SessionPreconditionConfig struct {
	// RequireBothAnalysts demands both analyst slots of every epoch. When
	// false an epoch with one usable slot is accepted and recorded as a
	// warning; an epoch with none is still missing.
	//
	// Default: true
	RequireBothAnalysts bool `yaml:"require_both_analysts" json:"require_both_analysts"`
}

// DefaultSessionPreconditionConfig returns the strict rule: both epochs and
// all four analyst slots must be complete.
func DefaultSessionPreconditionConfig() SessionPreconditionConfig {
	return SessionPreconditionConfig{RequireBothAnalysts: true}
}

// NewSessionPreconditionUnit creates a SessionPreconditionUnit.
// It returns ErrEmptyUnitName when name is empty.
func NewSessionPreconditionUnit(name string, config SessionPreconditionConfig) (*SessionPreconditionUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return &SessionPreconditionUnit{name: name, config: config}, nil
}

// NewSessionPreconditionFromConfig creates a SessionPreconditionUnit from a
// configuration map. This is the boundary adapter for YAML/JSON configuration.
func NewSessionPreconditionFromConfig(id string, config map[string]any) (ports.Unit, error) {
	cfg, err := decodeConfig(config, DefaultSessionPreconditionConfig())
	if err != nil {
		return nil, err
	}
	return NewSessionPreconditionUnit(id, cfg)
}

// Name returns the unique identifier for this unit instance.
func (u *SessionPreconditionUnit) Name() string { return u.name }

// Execute checks session completeness.
//
// State Requirements:
//   - domain.KeySession: domain.Session - the session snapshot
//
// State Updates:
//   - domain.KeyWarnings: one entry per epoch graded by a single analyst,
//     only when RequireBothAnalysts is false
//
// Error Conditions:
//   - *domain.IncompleteSessionError naming every missing epoch and slot
func (u *SessionPreconditionUnit) Execute(_ context.Context, state domain.State) (domain.State, error) {
	session, err := requireKey(state, domain.KeySession)
	if err != nil {
		return state, err
	}

	if err := session.CheckComplete(u.config.RequireBothAnalysts); err != nil {
		return state, err
	}

	if u.config.RequireBothAnalysts {
		return state, nil
	}
	for i, epoch := range session.Epochs {
		if n := len(epoch.Evaluations()); n < domain.MaxAnalystsPerEpoch {
			state = state.AddWarning(fmt.Sprintf(
				"%s was graded by %d of %d analysts", domain.EpochName(i), n, domain.MaxAnalystsPerEpoch))
		}
	}
	return state, nil
}

// Validate checks if the unit is properly configured and ready for execution.
func (u *SessionPreconditionUnit) Validate() error {
	return validateConfig(u.config)
}
