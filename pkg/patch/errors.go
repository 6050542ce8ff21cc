package patch

import "fmt"

// Error codes attached to *Error values.
const (
	CodeRangeConflict   = "RANGE_CONFLICT"
	CodeStaleContent    = "STALE_CONTENT"
	CodeApplyRejected   = "APPLY_REJECTED"
	CodeMissingBase     = "MISSING_BASE"
	CodeUnsupportedDiff = "UNSUPPORTED_DIFF"
	CodeInvalidDocument = "INVALID_DOCUMENT"
	CodePatchMismatch   = "PATCH_MISMATCH"
)

// Sentinels for errors.Is. They match any *Error carrying the same code.
var (
	ErrRangeConflict   = &Error{Code: CodeRangeConflict}
	ErrStaleContent    = &Error{Code: CodeStaleContent}
	ErrApplyRejected   = &Error{Code: CodeApplyRejected}
	ErrMissingBase     = &Error{Code: CodeMissingBase}
	ErrUnsupportedDiff = &Error{Code: CodeUnsupportedDiff}
	ErrInvalidDocument = &Error{Code: CodeInvalidDocument}
	ErrPatchMismatch   = &Error{Code: CodePatchMismatch}
)

// HunkStatus tracks how an update record was handled during replay.
type HunkStatus struct {
	Number int    `json:"number"`
	Status string `json:"status"`
}

// FailedHunk stores the record that could not be applied, rendered in the
// updates format.
type FailedHunk struct {
	Number        int      `json:"number"`
	RawPatchLines []string `json:"rawPatchLines"`
}

// Error represents a structured failure raised by the engine or by one of its
// collaborators. It satisfies the error interface so it can be returned
// directly from every helper in this package.
//
// Position, Expected and Actual are set for STALE_CONTENT failures. Excerpt
// holds numbered base lines around Position. Diagnostic carries output of an
// external tool, such as git's stderr for APPLY_REJECTED.
type Error struct {
	Message      string
	Code         string
	RelativePath string
	Position     int
	Expected     []string
	Actual       []string
	Excerpt      string
	Diagnostic   string
	HunkStatuses []HunkStatus
	FailedHunk   *FailedHunk
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return fmt.Sprintf("patch error (%s)", e.Code)
	}
	return "patch error"
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

func newError(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}
