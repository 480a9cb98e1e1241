package client

// callState tracks one logical call through its retry lifecycle.
type callState int

const (
	stateAttempting callState = iota
	stateBackoff
	stateSucceeded
	stateFailedFatal
	stateFailedExhausted
)

func (s callState) String() string {
	switch s {
	case stateAttempting:
		return "attempting"
	case stateBackoff:
		return "backoff"
	case stateSucceeded:
		return "succeeded"
	case stateFailedFatal:
		return "failed_fatal"
	case stateFailedExhausted:
		return "failed_exhausted"
	default:
		return "unknown"
	}
}

// outcomeClass is the classification of a single transport attempt.
type outcomeClass int

const (
	classSuccess outcomeClass = iota
	classFatalAuth
	classFatalPermission
	classApplication
	classRetryableServer
	classRetryableNetwork
)

func (c outcomeClass) String() string {
	switch c {
	case classSuccess:
		return "success"
	case classFatalAuth:
		return "fatal_auth"
	case classFatalPermission:
		return "fatal_permission"
	case classApplication:
		return "application"
	case classRetryableServer:
		return "retryable_server"
	case classRetryableNetwork:
		return "retryable_network"
	default:
		return "unknown"
	}
}

func (c outcomeClass) retryable() bool {
	return c == classRetryableServer || c == classRetryableNetwork
}

// retryContext is the ephemeral per-call state: attempt count, budget, and
// lifecycle state. It never outlives one call and never carries attempts
// across calls.
type retryContext struct {
	attempt     int // 1-based once the first attempt starts
	maxAttempts int
	state       callState
}

func newRetryContext(maxAttempts int) *retryContext {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &retryContext{maxAttempts: maxAttempts, state: stateAttempting}
}

// begin marks the start of the next attempt and returns its 1-based index.
func (rc *retryContext) begin() int {
	rc.attempt++
	return rc.attempt
}

// observe applies one attempt's classification and returns the next state.
// Retryable classes move to backoff while budget remains, otherwise to
// exhausted; fatal classes terminate immediately.
func (rc *retryContext) observe(class outcomeClass) callState {
	switch {
	case class == classSuccess:
		rc.state = stateSucceeded
	case !class.retryable():
		rc.state = stateFailedFatal
	case rc.attempt >= rc.maxAttempts:
		rc.state = stateFailedExhausted
	default:
		rc.state = stateBackoff
	}
	return rc.state
}

// resume returns from backoff to the attempting state.
func (rc *retryContext) resume() {
	rc.state = stateAttempting
}
