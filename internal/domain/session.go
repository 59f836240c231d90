package domain

import "fmt"

// EpochsPerSession is the number of synthesis epochs in a complete session.
const EpochsPerSession = 2

// SlotStatus tracks the progress of one analyst grading pass.
type SlotStatus string

// Analyst slot statuses. Only complete slots are usable.
const (
	SlotPending  SlotStatus = "pending"
	SlotComplete SlotStatus = "complete"
	SlotFailed   SlotStatus = "failed"
)

// AnalystSlot holds one analyst's evaluation of an epoch transcript.
type AnalystSlot struct {
	// Status is the grading status; only SlotComplete slots are used.
	Status SlotStatus `json:"status"`

	// Evaluation is the validated evaluation; nil until the slot completes.
	Evaluation *AnalystEvaluation `json:"evaluation,omitempty"`

	// Model optionally names the analyst model that graded the transcript.
	Model string `json:"model,omitempty"`
}

// Usable reports whether the slot holds a complete evaluation.
func (s AnalystSlot) Usable() bool {
	return s.Status == SlotComplete && s.Evaluation != nil
}

// Epoch is one synthesis run together with its analyst grades.
type Epoch struct {
	// Complete is true once every turn of the epoch was captured.
	Complete bool `json:"complete"`

	// DurationMinutes is the elapsed time of the epoch as captured upstream.
	DurationMinutes float64 `json:"duration_minutes"`

	// Turns is the number of captured turns.
	Turns int `json:"turns"`

	// Analysts holds the two analyst slots of the epoch.
	Analysts [MaxAnalystsPerEpoch]AnalystSlot `json:"analysts"`
}

// Evaluations returns the evaluations of every usable analyst slot in slot
// order.
func (e Epoch) Evaluations() []AnalystEvaluation {
	evals := make([]AnalystEvaluation, 0, MaxAnalystsPerEpoch)
	for _, slot := range e.Analysts {
		if slot.Usable() {
			evals = append(evals, *slot.Evaluation)
		}
	}
	return evals
}

// Session is an immutable snapshot of a two-epoch diagnostic run, passed to
// report assembly by value.
type Session struct {
	// ID identifies the session.
	ID string `json:"id"`

	// Category is the challenge category the session was run against.
	Category Category `json:"category"`

	// Epochs holds both epochs in order.
	Epochs [EpochsPerSession]Epoch `json:"epochs"`
}

// EpochName renders the 1-based name of an epoch, e.g. "epoch_1".
func EpochName(index int) string { return fmt.Sprintf("epoch_%d", index+1) }

// SlotName renders the 1-based name of an analyst slot, e.g.
// "epoch_1.analyst_2".
func SlotName(epoch, slot int) string {
	return fmt.Sprintf("%s.analyst_%d", EpochName(epoch), slot+1)
}

// MissingPieces lists every incomplete epoch and every unusable analyst
// slot. When requireBothAnalysts is false an epoch needs only one usable
// slot, and only epochs with none are reported, naming both slots.
func (s Session) MissingPieces(requireBothAnalysts bool) []string {
	var missing []string
	for i, epoch := range s.Epochs {
		if !epoch.Complete {
			missing = append(missing, EpochName(i))
		}
	}
	for i, epoch := range s.Epochs {
		usable := len(epoch.Evaluations())
		if !requireBothAnalysts && usable > 0 {
			continue
		}
		for j, slot := range epoch.Analysts {
			if !slot.Usable() {
				missing = append(missing, SlotName(i, j))
			}
		}
	}
	return missing
}

// CheckComplete returns an IncompleteSessionError naming every missing
// piece, or nil when the session can be assembled.
func (s Session) CheckComplete(requireBothAnalysts bool) error {
	missing := s.MissingPieces(requireBothAnalysts)
	if len(missing) == 0 {
		return nil
	}
	return &IncompleteSessionError{SessionID: s.ID, Missing: missing}
}

// AllEvaluations returns the evaluations of every usable slot across both
// epochs.
func (s Session) AllEvaluations() []AnalystEvaluation {
	var evals []AnalystEvaluation
	for _, epoch := range s.Epochs {
		evals = append(evals, epoch.Evaluations()...)
	}
	return evals
}
