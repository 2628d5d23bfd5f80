package integration

import (
	"fmt"

	"github.com/secinv/ghsync/pkg/domain/shared"
)

// Domain errors for integration.
var (
	ErrIntegrationNotFound = fmt.Errorf("%w: integration not found", shared.ErrNotFound)
	ErrNameExists          = fmt.Errorf("%w: integration name already exists", shared.ErrConflict)

	ErrInvalidAction        = fmt.Errorf("%w: invalid integration action", shared.ErrValidation)
	ErrOrganisationRequired = fmt.Errorf("%w: organisation is required", shared.ErrValidation)
	ErrCredentialsRequired  = fmt.Errorf("%w: app private key is required", shared.ErrValidation)
)
