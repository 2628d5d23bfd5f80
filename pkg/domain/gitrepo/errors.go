package gitrepo

import (
	"fmt"

	"github.com/secinv/ghsync/pkg/domain/shared"
)

// Domain errors for gitrepo.
var (
	ErrRepositoryNotFound = fmt.Errorf("%w: repository not found", shared.ErrNotFound)
	ErrInvalidType        = fmt.Errorf("%w: invalid repository type", shared.ErrValidation)
)
