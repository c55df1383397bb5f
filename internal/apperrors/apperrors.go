// package apperrors defines the error taxonomy shared by the service and
// repository layers. The transport layer maps these onto API result codes.
package apperrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound         = errors.New("resource not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrConflict         = errors.New("resource conflict")
	ErrInvalidFormData  = errors.New("one or more fields are invalid")

	ErrInvalidRequest = errors.New("invalid request body")

	ErrNothingToPublish    = errors.New("nothing to publish")
	ErrInvalidChangeNumber = errors.New("invalid change number")
	ErrEmptyChangeSet      = errors.New("changeset is empty")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrInvalidCloseType    = errors.New("invalid close type")
)

// ChangeNumberInUseError reports that another review request on the same
// repository already claims the change number.
type ChangeNumberInUseError struct {
	ChangeNum       int64
	ReviewRequestID int64
}

func (e *ChangeNumberInUseError) Error() string {
	return fmt.Sprintf("change number %d is already in use by review request %d",
		e.ChangeNum, e.ReviewRequestID)
}
func (e *ChangeNumberInUseError) Is(target error) bool { return target == ErrConflict }

// InvalidRepositoryError reports that the given repository path or ID did not
// resolve to a known repository.
type InvalidRepositoryError struct{ Repository string }

func (e *InvalidRepositoryError) Error() string {
	return fmt.Sprintf("repository '%s' does not exist", e.Repository)
}
func (e *InvalidRepositoryError) Is(target error) bool { return target == ErrNotFound }

// RepoFileNotFoundError reports that a file referenced by an uploaded diff is
// absent from the repository at the given revision.
type RepoFileNotFoundError struct {
	Path     string
	Revision string
}

func (e *RepoFileNotFoundError) Error() string {
	return fmt.Sprintf("file '%s' (revision %s) not found in repository", e.Path, e.Revision)
}
func (e *RepoFileNotFoundError) Is(target error) bool { return target == ErrNotFound }

// FieldErrors accumulates per-field validation failures so a caller sees
// every problem at once instead of only the first. It is an error itself and
// matches ErrInvalidFormData through errors.Is.
type FieldErrors map[string][]string

// Add appends a message to the named field.
func (f FieldErrors) Add(field, message string) {
	f[field] = append(f[field], message)
}

// Merge copies all messages from other into f.
func (f FieldErrors) Merge(other FieldErrors) {
	for field, messages := range other {
		f[field] = append(f[field], messages...)
	}
}

// Empty reports whether no field has failed.
func (f FieldErrors) Empty() bool { return len(f) == 0 }

func (f FieldErrors) Error() string {
	fields := make([]string, 0, len(f))
	for field := range f {
		fields = append(fields, field)
	}

	sort.Strings(fields)

	parts := make([]string, 0, len(f))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(f[field], "; ")))
	}

	return "invalid fields: " + strings.Join(parts, ", ")
}

func (f FieldErrors) Is(target error) bool { return target == ErrInvalidFormData }
