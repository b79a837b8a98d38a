package repository

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// invalidTextRepresentation is raised by Postgres when a value does not parse as the column type.
const invalidTextRepresentation pq.ErrorCode = "22P02"

// noRowsOnMalformedID reports a lookup by a malformed uuid as a missing row.
func noRowsOnMalformedID(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == invalidTextRepresentation {
		return sql.ErrNoRows
	}
	return err
}
