package hybridx

import "errors"

var (
	ErrNilController       = errors.New("nil controller")
	ErrNilControllerSet    = errors.New("nil controller set")
	ErrPeriodMismatch      = errors.New("controller period does not match behaviour period")
	ErrDuplicateController = errors.New("duplicate controller name")
	ErrSharedControllerSet = errors.New("controller set already owned by another behaviour")
	ErrNilMilestone        = errors.New("nil milestone")
	ErrDuplicateMilestone  = errors.New("duplicate milestone name")
	ErrUnknownMilestone    = errors.New("milestone not in automaton")
	ErrNoStart             = errors.New("automaton has no start milestone")
	ErrUpdateNotAllowed    = errors.New("in-place update not allowed")
	ErrDimensionMismatch   = errors.New("dimension mismatch")
)
