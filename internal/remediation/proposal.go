package remediation

import "context"

// ProposalRequest carries everything a Proposer needs to suggest a repaired
// design. OriginalDesign is always the pristine input, never a patched
// intermediate; the model sees intermediates through the Variant.
type ProposalRequest struct {
	OriginalDesign string
	Report         string
	Liberty        string
	Iteration      int
	Variant        Variant
}

// Variant distinguishes the first proposal request from follow-ups.
// Exactly two implementations exist: FirstAttempt and SubsequentAttempt.
type Variant interface {
	attemptVariant()
}

// FirstAttempt asks for a fix with no prior history.
type FirstAttempt struct{}

// SubsequentAttempt asks for a fix after at least one earlier proposal was
// applied. BestIteration is 1-based for display.
type SubsequentAttempt struct {
	History       []FixAttempt
	Trend         *Trend
	BestIteration int
	BestDesign    string
	CurrentDesign string
}

func (FirstAttempt) attemptVariant()      {}
func (SubsequentAttempt) attemptVariant() {}

// Proposer produces a candidate fix as raw model text. Transport failures
// surface as text too; the loop extracts what it can and aborts when no
// design comes back, so there is no error return to split the cases.
type Proposer interface {
	ProposeFix(ctx context.Context, req ProposalRequest) string
}
