package domain

import "errors"

// Kind classifies an error so transports can map it to a status code.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

// Error is a user-facing failure. Message is safe to show to clients.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string { return e.Message }

// Validation builds a KindValidation error.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// ValidationFields builds a KindValidation error that carries per-field messages.
func ValidationFields(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// KindOf reports the Kind of err, defaulting to KindInternal for unknown errors.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

var (
	// ErrUserNotFound is returned when a referenced user does not exist.
	ErrUserNotFound = &Error{Kind: KindNotFound, Message: "User not found"}
	// ErrMissionNotFound is returned when a referenced mission does not exist.
	ErrMissionNotFound = &Error{Kind: KindNotFound, Message: "Mission not found"}
	// ErrSubmissionNotFound is returned when a submission is not part of the mission.
	ErrSubmissionNotFound = &Error{Kind: KindNotFound, Message: "Submission not found"}
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = &Error{Kind: KindNotFound, Message: "Quiz not found"}

	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken = &Error{Kind: KindConflict, Message: "User already exists with this email"}
	// ErrAlreadySubmitted is returned on a second submission for the same mission.
	ErrAlreadySubmitted = &Error{Kind: KindConflict, Message: "You have already submitted this mission"}
	// ErrAlreadyProcessed is returned when reviewing a submission that is no longer pending.
	ErrAlreadyProcessed = &Error{Kind: KindConflict, Message: "Submission already processed"}

	ErrMissionInactive = &Error{Kind: KindValidation, Message: "This mission is not active"}
	ErrQuizInactive    = &Error{Kind: KindValidation, Message: "This quiz is not active"}
	ErrNegativePoints  = &Error{Kind: KindValidation, Message: "Points awarded cannot be negative"}

	// ErrInvalidCredentials is deliberately identical for unknown email and wrong password.
	ErrInvalidCredentials = &Error{Kind: KindUnauthorized, Message: "Invalid credentials"}
	ErrInvalidToken       = &Error{Kind: KindUnauthorized, Message: "Not authorized, token failed"}
	ErrMissingToken       = &Error{Kind: KindUnauthorized, Message: "Not authorized, no token"}

	ErrStudentsOnly     = &Error{Kind: KindForbidden, Message: "Only students can submit missions"}
	ErrReviewersOnly    = &Error{Kind: KindForbidden, Message: "Only teachers and admins can perform this action"}
	ErrNotMissionOwner  = &Error{Kind: KindForbidden, Message: "Not authorized to delete this mission"}
	ErrRoleNotPermitted = &Error{Kind: KindForbidden, Message: "User role is not authorized to access this route"}
)
