package repository

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// IsRetryableConflict reports whether err is a transient transaction failure
// (serialization failure or deadlock) that a caller may retry.
func IsRetryableConflict(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}
