package account

import (
	"fmt"

	"github.com/secinv/ghsync/pkg/domain/shared"
)

// Account domain errors
var (
	ErrUserNotFound  = fmt.Errorf("%w: user not found", shared.ErrNotFound)
	ErrTeamNotFound  = fmt.Errorf("%w: team not found", shared.ErrNotFound)
	ErrLoginRequired = fmt.Errorf("%w: login is required", shared.ErrValidation)
)
