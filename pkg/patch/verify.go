package patch

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

// VerifyPatch parses patchText as a git patch, applies it to base in memory
// and checks that the output equals want. It catches a synthesized patch
// that would not reproduce the replayed content before anything is staged.
func VerifyPatch(patchText, base, want string) error {
	if strings.TrimSpace(patchText) == "" {
		if base != want {
			return &Error{Code: CodePatchMismatch, Message: "empty patch for content that changed"}
		}
		return nil
	}

	files, _, err := gitdiff.Parse(strings.NewReader(patchText))
	if err != nil {
		return &Error{Code: CodePatchMismatch, Message: "synthesized patch does not parse", Diagnostic: err.Error()}
	}
	if len(files) != 1 {
		return &Error{Code: CodePatchMismatch, Message: fmt.Sprintf("synthesized patch touches %d files, want 1", len(files))}
	}

	var out bytes.Buffer
	if err := gitdiff.Apply(&out, strings.NewReader(base), files[0]); err != nil {
		return &Error{Code: CodePatchMismatch, Message: "synthesized patch does not apply to the base", Diagnostic: err.Error()}
	}
	if got := out.String(); got != want {
		return &Error{
			Code:       CodePatchMismatch,
			Message:    "synthesized patch does not reproduce the replayed content",
			Diagnostic: Synthesize("result", SplitLines(want), SplitLines(got), DefaultContext),
		}
	}
	return nil
}
