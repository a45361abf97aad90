package errors

import (
	"context"
	stderrs "errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE classes the run ledger can hit. The ledger sets a short
// lock_timeout, so 55P03 is the common transient case
var sqlStateCodes = map[string]ErrorCode{
	"23505": ErrorCodeValidation, // unique_violation
	"23503": ErrorCodeValidation, // foreign_key_violation (item for an unknown run)
	"23502": ErrorCodeValidation, // not_null_violation
	"23514": ErrorCodeValidation, // check_violation
	"22001": ErrorCodeInvalidArgument,
	"22P02": ErrorCodeInvalidArgument, // bad uuid text
	"40001": ErrorCodeDB,
	"40P01": ErrorCodeDB,
	"55P03": ErrorCodeDB,
	"25006": ErrorCodeUnavailable, // read-only replica
	"57P03": ErrorCodeUnavailable, // server starting up
}

// retryableStates are contention errors where the same statement may pass
var retryableStates = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
}

// retryableText covers errors pgx reports without a PgError, mostly on commit
var retryableText = []string{
	"commit unexpectedly resulted in rollback",
	"deadlock detected",
	"could not serialize access",
	"serialization failure",
	"canceling statement due to statement timeout",
	"canceling statement due to lock timeout",
	"terminating connection due to administrator command",
}

// DBErrorCode maps a Postgres error to an ErrorCode.
// ok is false when err carries no *pgconn.PgError
func DBErrorCode(err error) (ErrorCode, bool) {
	var pgErr *pgconn.PgError
	if !stderrs.As(err, &pgErr) {
		return ErrorCodeUnknown, false
	}
	if code, ok := sqlStateCodes[pgErr.Code]; ok {
		return code, true
	}
	return ErrorCodeDB, true
}

// FromPostgres wraps err with msg and the mapped code; nil stays nil
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	code, _ := DBErrorCode(err)
	if code == ErrorCodeUnknown {
		code = ErrorCodeDB
	}
	return Wrap(err, code, msg)
}

// IsRetryable reports whether a database error is transient contention.
// Local cancellation and deadlines are never retryable
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}
	root := Root(err)
	var pgErr *pgconn.PgError
	if stderrs.As(root, &pgErr) {
		return retryableStates[pgErr.Code]
	}
	s := strings.ToLower(root.Error())
	for _, frag := range retryableText {
		if strings.Contains(s, frag) {
			return true
		}
	}
	return false
}
