package stage

import (
	"fmt"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"

	"github.com/asynkron/hunkstage/pkg/patch"
)

// InspectDiff refuses diffs the updates format cannot express: more than
// one file, binary content, deletions, new files, renames and copies. An
// empty diff is accepted.
func InspectDiff(diff string) error {
	if strings.TrimSpace(diff) == "" {
		return nil
	}
	files, _, err := gitdiff.Parse(strings.NewReader(diff))
	if err != nil {
		return &patch.Error{Code: patch.CodeUnsupportedDiff, Message: "working diff could not be parsed", Diagnostic: err.Error()}
	}
	if len(files) > 1 {
		return unsupported("", "diff touches %d files, only one is supported", len(files))
	}
	if len(files) == 0 {
		return nil
	}

	f := files[0]
	name := f.NewName
	if name == "" {
		name = f.OldName
	}
	switch {
	case f.IsBinary:
		return unsupported(name, "%s is a binary file", name)
	case f.IsDelete:
		return unsupported(name, "%s is deleted in the working tree", name)
	case f.IsNew:
		return unsupported(name, "%s is a new file", name)
	case f.IsRename:
		return unsupported(name, "%s was renamed from %s", name, f.OldName)
	case f.IsCopy:
		return unsupported(name, "%s was copied from %s", name, f.OldName)
	}
	return nil
}

func unsupported(path, format string, args ...any) error {
	return &patch.Error{
		Code:         patch.CodeUnsupportedDiff,
		Message:      fmt.Sprintf(format, args...),
		RelativePath: path,
	}
}
