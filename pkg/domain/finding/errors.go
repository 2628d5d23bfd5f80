package finding

import (
	"fmt"

	"github.com/secinv/ghsync/pkg/domain/shared"
)

// Domain errors for finding.
var (
	ErrFindingNotFound = fmt.Errorf("%w: finding not found", shared.ErrNotFound)

	ErrInvalidKind  = fmt.Errorf("%w: invalid finding kind", shared.ErrValidation)
	ErrInvalidState = fmt.Errorf("%w: invalid finding state", shared.ErrValidation)

	// ErrUnknownResolution reports an external (state, reason) pair missing
	// from the resolution table. Never swallowed: the record fails loudly
	// while the rest of its page continues.
	ErrUnknownResolution = fmt.Errorf("%w: unknown alert resolution", shared.ErrValidation)
)
