package hsm

import "errors"

// Model construction errors. They are recorded while the model is being
// built and returned by Model.Build; a model carrying one can never be
// instantiated.
var (
	ErrInvalidParent    = errors.New("invalid parent")
	ErrInvalidTarget    = errors.New("invalid transition target")
	ErrDuplicateName    = errors.New("duplicate element name")
	ErrDuplicateInitial = errors.New("region already has an initial pseudostate")
	ErrDuplicateHistory = errors.New("region already has a history pseudostate of this kind")
	ErrInvalidInternal  = errors.New("internal transition must target its own source")
	ErrSealed           = errors.New("model is sealed")
	ErrNotBuilt         = errors.New("model has not been built")
)

// Runtime integrity errors returned by Instance.Evaluate and NewInstance.
// They are never conflated with the plain "no transition matched" outcome.
var (
	ErrNoInitialTransition = errors.New("no initial transition")
	ErrUnsatisfiedChoice   = errors.New("no outgoing transition satisfied")
	ErrJunctionLoop        = errors.New("junction chain does not terminate")
)
