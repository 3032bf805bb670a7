package service

import dErrors "examreg/pkg/domain-errors"

// Outcome codes reported for registration attempts; they match the codes
// clients see in response bodies.
const (
	OutcomeOK                     = "OK"
	OutcomeExamNotOpen            = "EXAM_NOT_OPEN"
	OutcomeAmountMismatch         = "AMOUNT_MISMATCH"
	OutcomeInsufficientAttendance = "INSUFFICIENT_ATTENDANCE"
	OutcomeAlreadyRegistered      = "ALREADY_REGISTERED"
	OutcomeTransactionTimeout     = "TRANSACTION_TIMEOUT"
	OutcomeStorageUnavailable     = "STORAGE_UNAVAILABLE"
	OutcomeBadRequest             = "BAD_REQUEST"
	OutcomeInternal               = "INTERNAL_ERROR"
)

// OutcomeCode returns the client-facing code for err; nil is OK.
func OutcomeCode(err error) string {
	if err == nil {
		return OutcomeOK
	}
	return dErrors.PublicCode(dErrors.CodeOf(err))
}
