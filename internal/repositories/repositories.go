// Package repositories holds the gorm-backed persistence for the terminology
// catalog, the audit trail and problem lists.
package repositories

import (
	"errors"
	"strings"

	"fhirfly-backend/internal/apperrors"

	"gorm.io/gorm"
)

// likePattern builds an ILIKE substring pattern with wildcards in the term escaped.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}

// notFound converts gorm's missing-row error into the resource's not-found error.
func notFound(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NewNotFoundError(resource)
	}
	return err
}

// conflict converts a foreign key violation into a conflict error. It relies on
// gorm.Config.TranslateError being set.
func conflict(err error, message string) error {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return apperrors.NewConflictError(message)
	}
	return err
}
