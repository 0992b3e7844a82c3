package domain

import "errors"

var (
	// ErrValidation marks input that was rejected before any state changed.
	ErrValidation = errors.New("validation failed")
	// ErrPrecondition marks a domain rule that forbids the operation in the current state.
	ErrPrecondition = errors.New("precondition failed")
	// ErrNotFound marks a missing entity.
	ErrNotFound = errors.New("not found")
	// ErrForbidden marks an operation the acting user may not perform.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthenticated is returned when no valid session is present or credentials are wrong.
	ErrUnauthenticated = errors.New("not logged in")
	// ErrRemote marks a failed call to a remote collaborator.
	ErrRemote = errors.New("remote call failed")
)

var (
	ErrEmptyClubName    = validation("club name is required")
	ErrEmptyQuestTitle  = validation("quest title is required")
	ErrInvalidCount     = validation("quest count must be at least 1")
	ErrInvalidSubject   = validation("unknown subject")
	ErrInvalidLevel     = validation("unknown difficulty")
	ErrNoTargets        = validation("select at least one member")
	ErrMissingFields    = validation("all fields are required")
	ErrPasswordMismatch = validation("passwords do not match")
	ErrEmptyAnswer      = validation("answer is required")

	ErrAlreadyMember   = precondition("already a member of this club")
	ErrNoClub          = precondition("not in a club")
	ErrCreatorIsFixed  = precondition("the club creator's admin role cannot be changed")
	ErrNotInPlay       = precondition("no practice session running")
	ErrNoActiveQuest   = precondition("no quest running")
	ErrQuestCompleted  = precondition("quest already completed")
	ErrQuestUnfinished = precondition("quest is not finished yet")
	ErrNotClubMember   = precondition("not a member of this club")
	ErrUserNotFound    = notFound("user not found")
	ErrClubNotFound    = notFound("club not found")
	ErrQuestNotFound   = notFound("quest not found")
	ErrAdminOnly       = forbidden("only club admins can do this")

	ErrSessionNotFound  = &kindError{msg: "session not found", kind: ErrUnauthenticated}
	ErrSessionElsewhere = &kindError{msg: "session is held by another server, log in again", kind: ErrUnauthenticated}
)

// kindError is a sentinel that also matches its category via errors.Is.
type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Is(target error) bool { return target == e.kind }

// NewError returns an error with message msg that matches kind via errors.Is.
func NewError(kind error, msg string) error { return &kindError{msg: msg, kind: kind} }

func validation(msg string) error   { return &kindError{msg: msg, kind: ErrValidation} }
func precondition(msg string) error { return &kindError{msg: msg, kind: ErrPrecondition} }
func notFound(msg string) error     { return &kindError{msg: msg, kind: ErrNotFound} }
func forbidden(msg string) error    { return &kindError{msg: msg, kind: ErrForbidden} }
