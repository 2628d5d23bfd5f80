package finding

import (
	"fmt"
	"strings"
)

// defaultReason keys the per-state fallback entry used when the external
// record carries no reason at all.
const defaultReason = "default"

// resolutions maps lowercased (external state, external reason) pairs onto
// the internal state machine. The reason vocabularies of the three alert
// kinds are disjoint in practice, so one merged table is safe.
var resolutions = map[string]map[string]State{
	"open": {
		defaultReason: StateNew,
	},
	"fixed": {
		defaultReason:    StateResolved,
		"false positive": StateClosed,
		"won't fix":      StateOpen,
		"used in tests":  StateClosed,
	},
	"closed": {
		defaultReason: StateClosed,
	},
	"dismissed": {
		defaultReason: StateClosed,
		// code-scanning dismissal reasons
		"false positive": StateClosed,
		"won't fix":      StateOpen,
		"used in tests":  StateClosed,
		// dependabot dismissal reasons
		"fix_started":    StateOpen,
		"inaccurate":     StateClosed,
		"not_used":       StateClosed,
		"no_bandwidth":   StateOpen,
		"tolerable_risk": StateClosed,
	},
	"resolved": {
		defaultReason: StateResolved,
		// secret-scanning resolutions
		"false_positive": StateClosed,
		"wont_fix":       StateOpen,
		"revoked":        StateResolved,
		"used_in_tests":  StateClosed,
		"pattern_edited": StateClosed,
	},
}

// ResolveState maps an external alert lifecycle onto the internal state
// machine. An absent reason falls back to the state's default entry. A state
// or reason outside the table returns ErrUnknownResolution: guessing here
// would misclassify severity-bearing findings, so the caller must surface
// the error instead of defaulting.
func ResolveState(kind Kind, externalState, externalReason string) (State, error) {
	byReason, ok := resolutions[strings.ToLower(externalState)]
	if !ok {
		return 0, fmt.Errorf("%w: %s alert state %q", ErrUnknownResolution, kind, externalState)
	}

	reason := strings.ToLower(externalReason)
	if reason == "" {
		reason = defaultReason
	}

	state, ok := byReason[reason]
	if !ok {
		return 0, fmt.Errorf("%w: %s alert state %q reason %q", ErrUnknownResolution, kind, externalState, externalReason)
	}
	return state, nil
}
