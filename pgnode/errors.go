package pgnode

import (
	"context"
	"errors"

	"github.com/Dorico-Dynamics/txova-go-redlock/apperrors"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes this adapter distinguishes. Grounded in the
// teacher's postgres.mapSQLState, trimmed to the classes that matter for a
// single-statement acquire/release: anything transient gets
// apperrors.CodeConnection so the retry controller's backoff absorbs it,
// anything that means "the server took too long" gets CodeTimeout.
const (
	sqlStateConnectionExceptionClass = "08"
	sqlStateSerializationFailure      = "40001"
	sqlStateDeadlockDetected          = "40P01"
	sqlStateQueryCanceled             = "57014"
)

// classifyPgError maps a driver error from TryAcquire/Release's single
// statement to a node-adapter transport code. pgx.ErrNoRows is handled by
// the caller before this is reached; everything else is either a
// *pgconn.PgError with a SQLSTATE, or a lower-level network/context error.
func classifyPgError(err error) apperrors.Code {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateSerializationFailure, sqlStateDeadlockDetected:
			return apperrors.CodeConnection
		case sqlStateQueryCanceled:
			return apperrors.CodeTimeout
		}
		if len(pgErr.Code) >= 2 && pgErr.Code[:2] == sqlStateConnectionExceptionClass {
			return apperrors.CodeConnection
		}
		return apperrors.CodeInternal
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.CodeTimeout
	}
	return apperrors.CodeConnection
}
