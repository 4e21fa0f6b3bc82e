package apperr

import (
	"errors"
	"slices"
)

// Code identifies a provider or store failure.
type Code string

const (
	CodeUserNotFound         Code = "auth/user-not-found"
	CodeWrongPassword        Code = "auth/wrong-password"
	CodeInvalidEmail         Code = "auth/invalid-email"
	CodeUserDisabled         Code = "auth/user-disabled"
	CodeEmailAlreadyInUse    Code = "auth/email-already-in-use"
	CodeWeakPassword         Code = "auth/weak-password"
	CodeTooManyRequests      Code = "auth/too-many-requests"
	CodeNetworkRequestFailed Code = "auth/network-request-failed"
	CodeRequiresRecentLogin  Code = "auth/requires-recent-login"
	CodeOperationNotAllowed  Code = "auth/operation-not-allowed"

	CodePermissionDenied   Code = "permission-denied"
	CodeNotFound           Code = "not-found"
	CodeAlreadyExists      Code = "already-exists"
	CodeResourceExhausted  Code = "resource-exhausted"
	CodeFailedPrecondition Code = "failed-precondition"
	CodeAborted            Code = "aborted"
	CodeOutOfRange         Code = "out-of-range"
	CodeUnimplemented      Code = "unimplemented"
	CodeInternal           Code = "internal"
	CodeUnavailable        Code = "unavailable"
	CodeDataLoss           Code = "data-loss"
)

// GenericMessage is shown for errors without a known code.
const GenericMessage = "An unexpected error occurred. Please try again."

var messages = map[Code]string{
	CodeUserNotFound:         "No account found with this email address.",
	CodeWrongPassword:        "Incorrect password. Please try again.",
	CodeInvalidEmail:         "Please enter a valid email address.",
	CodeUserDisabled:         "This account has been disabled. Please contact support.",
	CodeEmailAlreadyInUse:    "An account with this email already exists.",
	CodeWeakPassword:         "Password is too weak. Please choose a stronger password.",
	CodeTooManyRequests:      "Too many failed attempts. Please try again later.",
	CodeNetworkRequestFailed: "Network error. Please check your connection and try again.",
	CodeRequiresRecentLogin:  "Please log in again to continue.",
	CodeOperationNotAllowed:  "This sign-in method is not enabled.",

	CodePermissionDenied:   "You don't have permission to perform this action.",
	CodeNotFound:           "The requested data was not found.",
	CodeAlreadyExists:      "This item already exists.",
	CodeResourceExhausted:  "Service is temporarily overloaded. Please try again later.",
	CodeFailedPrecondition: "Operation failed due to a conflict. Please refresh and try again.",
	CodeAborted:            "Operation was cancelled. Please try again.",
	CodeOutOfRange:         "Invalid data provided.",
	CodeUnimplemented:      "This feature is not yet available.",
	CodeInternal:           "An internal error occurred. Please try again.",
	CodeUnavailable:        "Service is temporarily unavailable. Please try again later.",
	CodeDataLoss:           "Data corruption detected. Please contact support.",
}

// Message maps err to the text shown to the user. Validation errors keep
// their own message; coded errors use the fixed table; everything else,
// including unknown codes, gets GenericMessage.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var v *ValidationError
	if errors.As(err, &v) {
		return v.Message
	}
	if code := CodeOf(err); code != "" {
		if msg, ok := messages[code]; ok {
			return msg
		}
	}
	if errors.Is(err, ErrNotFound) {
		return messages[CodeNotFound]
	}
	return GenericMessage
}

var retryable = []Code{
	CodeNetworkRequestFailed,
	CodeTooManyRequests,
	CodeUnavailable,
	CodeInternal,
	CodeResourceExhausted,
	CodeAborted,
}

var permanent = []Code{
	CodeUserNotFound,
	CodeWrongPassword,
	CodeInvalidEmail,
	CodePermissionDenied,
	CodeNotFound,
}

// IsRetryable reports whether err carries a transient code.
func IsRetryable(err error) bool {
	return slices.Contains(retryable, CodeOf(err))
}

// IsNetwork reports whether err is a connectivity failure.
func IsNetwork(err error) bool {
	code := CodeOf(err)
	return code == CodeNetworkRequestFailed || code == CodeUnavailable
}

func isPermanent(err error) bool {
	if IsValidation(err) || errors.Is(err, ErrNotFound) {
		return true
	}
	return slices.Contains(permanent, CodeOf(err))
}
