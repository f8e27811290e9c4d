package postgres

import "math"

// PostgreSQL Error Codes
const (
	// PgErrorCodeUniqueViolation is the PostgreSQL error code for unique constraint violations
	PgErrorCodeUniqueViolation = "23505"
	// PgErrorCodeForeignKeyViolation is the PostgreSQL error code for foreign key violations
	PgErrorCodeForeignKeyViolation = "23503"
	// PgErrorCodeCheckViolation is the PostgreSQL error code for check constraint violations
	PgErrorCodeCheckViolation = "23514"
)

// maxLimit is the largest page size sent as a LIMIT; anything above means no limit
const maxLimit = math.MaxInt32

// Error Messages - Transaction Operations
const (
	ErrMsgFailedToBeginTransaction  = "failed to begin transaction"
	ErrMsgFailedToCommitTransaction = "failed to commit transaction"
)
