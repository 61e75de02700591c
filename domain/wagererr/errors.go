package wagererr

import (
	"errors"
	"fmt"
)

// Kind groups error codes by how a caller should react to them
type Kind string

const (
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindStateConflict Kind = "state_conflict"
	KindExternal      Kind = "external"
	KindUnauthorized  Kind = "unauthorized"
	KindRateLimited   Kind = "rate_limited"
	KindInternal      Kind = "internal"
)

// Code is a stable reason code surfaced to API clients
type Code string

const (
	// Validation
	CodeInvalidAmount    Code = "INVALID_AMOUNT"
	CodeInvalidWallet    Code = "INVALID_WALLET"
	CodeInvalidSignature Code = "INVALID_SIGNATURE"
	CodeInvalidTag       Code = "INVALID_TAG"
	CodeInvalidParty     Code = "INVALID_PARTY"
	CodeInvalidPayload   Code = "INVALID_PAYLOAD"
	CodeUnknownStatus    Code = "UNKNOWN_STATUS"
	CodeSelfJoin         Code = "SELF_JOIN"
	CodeInvalidWinner    Code = "INVALID_WINNER"
	CodeNotParty         Code = "NOT_PARTY"
	CodeUnknownDepositor Code = "UNKNOWN_DEPOSITOR"
	CodeProfileMissing   Code = "PROFILE_INCOMPLETE"

	// Not found
	CodeNotFound       Code = "NOT_FOUND"
	CodePlayerNotFound Code = "PLAYER_NOT_FOUND"

	// State conflicts
	CodeInvalidState           Code = "INVALID_STATE"
	CodeAlreadyJoined          Code = "ALREADY_JOINED"
	CodeDuplicateOutstanding   Code = "DUPLICATE_OUTSTANDING_WAGER"
	CodeDepositAlreadyRecorded Code = "DEPOSIT_ALREADY_RECORDED"
	CodeWinnerConflict         Code = "WINNER_CONFLICT"
	CodeAlreadyPaid            Code = "ALREADY_PAID"
	CodeNotYetEligible         Code = "NOT_YET_ELIGIBLE"
	CodeMatchesPlayed          Code = "MATCHES_PLAYED"

	// External
	CodeOracleUnavailable Code = "ORACLE_UNAVAILABLE"

	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeRateLimited  Code = "RATE_LIMITED"
	CodeInternal     Code = "INTERNAL"
)

var codeKinds = map[Code]Kind{
	CodeInvalidAmount:          KindValidation,
	CodeInvalidWallet:          KindValidation,
	CodeInvalidSignature:       KindValidation,
	CodeInvalidTag:             KindValidation,
	CodeInvalidParty:           KindValidation,
	CodeInvalidPayload:         KindValidation,
	CodeUnknownStatus:          KindValidation,
	CodeSelfJoin:               KindValidation,
	CodeInvalidWinner:          KindValidation,
	CodeNotParty:               KindValidation,
	CodeUnknownDepositor:       KindValidation,
	CodeProfileMissing:         KindExternal,
	CodeNotFound:               KindNotFound,
	CodePlayerNotFound:         KindNotFound,
	CodeInvalidState:           KindStateConflict,
	CodeAlreadyJoined:          KindStateConflict,
	CodeDuplicateOutstanding:   KindStateConflict,
	CodeDepositAlreadyRecorded: KindStateConflict,
	CodeWinnerConflict:         KindStateConflict,
	CodeAlreadyPaid:            KindStateConflict,
	CodeNotYetEligible:         KindStateConflict,
	CodeMatchesPlayed:          KindStateConflict,
	CodeOracleUnavailable:      KindExternal,
	CodeUnauthorized:           KindUnauthorized,
	CodeRateLimited:            KindRateLimited,
	CodeInternal:               KindInternal,
}

// Error is a typed domain failure carrying a reason code
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same code, so errors.Is works against the sentinels below
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Kind returns the category for the error's code
func (e *Error) Kind() Kind {
	if k, ok := codeKinds[e.Code]; ok {
		return k
	}
	return KindInternal
}

// New creates an error with the given code and message
func New(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error with the given code around an underlying cause
func Wrap(code Code, err error, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// Sentinels for errors.Is comparisons
var (
	ErrNotFound               = &Error{Code: CodeNotFound, Message: "wager not found"}
	ErrInvalidState           = &Error{Code: CodeInvalidState, Message: "invalid wager state"}
	ErrWinnerConflict         = &Error{Code: CodeWinnerConflict, Message: "winner already recorded"}
	ErrAlreadyPaid            = &Error{Code: CodeAlreadyPaid, Message: "settlement already recorded"}
	ErrDuplicateOutstanding   = &Error{Code: CodeDuplicateOutstanding, Message: "party already has an outstanding wager"}
	ErrDepositAlreadyRecorded = &Error{Code: CodeDepositAlreadyRecorded, Message: "deposit already recorded"}
	ErrPlayerNotFound         = &Error{Code: CodePlayerNotFound, Message: "player not found"}
	ErrOracleUnavailable      = &Error{Code: CodeOracleUnavailable, Message: "match oracle unavailable"}
	ErrProfileIncomplete      = &Error{Code: CodeProfileMissing, Message: "player profile incomplete"}
	ErrRateLimited            = &Error{Code: CodeRateLimited, Message: "too many requests"}
)

// CodeOf extracts the reason code from err, or CodeInternal for untyped errors.
// A nil error has no code.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// KindOf extracts the error kind from err, or KindInternal for untyped errors.
// A nil error has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind()
	}
	return KindInternal
}

// HasCode reports whether err carries the given code anywhere in its chain
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}
