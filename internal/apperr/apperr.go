// Package apperr defines the error taxonomy shared by adapters, the session
// controller and the shells. Adapters wrap their causes with one of these
// sentinels so callers can branch with errors.Is.
package apperr

import "errors"

var (
	// ErrNotFound is returned when the selected path does not exist or is not a regular file.
	ErrNotFound = errors.New("file not found")
	// ErrMissingDependency is returned when an optional external binary or codec is unavailable.
	ErrMissingDependency = errors.New("missing dependency")
	// ErrReadFailure is returned when a decode or frame read could not produce data.
	ErrReadFailure = errors.New("read failure")
	// ErrWriteFailure is returned when an export target could not be written.
	ErrWriteFailure = errors.New("write failure")

	// ErrNoDocument is returned when a tool is invoked before any file was loaded.
	ErrNoDocument = errors.New("no document loaded")
	// ErrUnknownTool is returned when a tool id is not part of the current type's tool table.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidArgument is returned when tool arguments fail parsing or validation.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Title returns the short heading shells use when presenting err to the user.
func Title(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "Not Found"
	case errors.Is(err, ErrMissingDependency):
		return "Missing Library"
	case errors.Is(err, ErrReadFailure):
		return "Read Error"
	case errors.Is(err, ErrWriteFailure):
		return "Write Error"
	case errors.Is(err, ErrInvalidArgument):
		return "Invalid Input"
	default:
		return "Error"
	}
}
