package uld

import appErrors "uld-tracker/pkg/errors"

var (
	ErrULDNotFound      = appErrors.NewAppError(appErrors.CodeNotFound, "ULD not found", appErrors.ErrNotFound)
	ErrULDAlreadyExists = appErrors.NewAppError(appErrors.CodeConflict, "ULD already exists", appErrors.ErrAlreadyExists)
)
