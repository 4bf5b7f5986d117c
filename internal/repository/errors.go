package repository

import (
	"fmt"

	apperrors "classboard/pkg/errors"
)

func storeError(op string, err error) error {
	return apperrors.NewStoreError(fmt.Sprintf("failed to %s", op), err)
}

func duplicateError(kind, id string) error {
	return apperrors.NewConflictError(
		fmt.Sprintf("%s %q already exists", kind, id),
		map[string]interface{}{kind + "_id": id},
	)
}

func notFoundError(kind, id string) error {
	return apperrors.NewNotFoundError(fmt.Sprintf("%s %q not found", kind, id))
}
