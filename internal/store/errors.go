package store

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the store that the caller should show
// to a user wraps one of these and carries its message in a *Problem.
var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalid            = errors.New("invalid input")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactive           = errors.New("inactive user")
)

// Problem is a user-facing error: Detail is safe to return to clients.
type Problem struct {
	Kind   error
	Detail string
}

func (p *Problem) Error() string { return p.Detail }
func (p *Problem) Unwrap() error { return p.Kind }

func notFound(what string) error {
	return &Problem{Kind: ErrNotFound, Detail: what + " not found"}
}

func conflict(format string, args ...any) error {
	return &Problem{Kind: ErrConflict, Detail: fmt.Sprintf(format, args...)}
}

func invalid(format string, args ...any) error {
	return &Problem{Kind: ErrInvalid, Detail: fmt.Sprintf(format, args...)}
}

// Detail returns the client message for err, or "" if err is internal.
func Detail(err error) string {
	var p *Problem
	if errors.As(err, &p) {
		return p.Detail
	}
	return ""
}
