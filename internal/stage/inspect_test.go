package stage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/asynkron/hunkstage/pkg/patch"
)

func TestInspectDiff(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		diff    string
		refused bool
	}{
		{name: "empty", diff: ""},
		{name: "modification", diff: notesDiff},
		{
			name:    "deleted",
			diff:    "diff --git a/gone.txt b/gone.txt\ndeleted file mode 100644\nindex 3b18e51..0000000\n--- a/gone.txt\n+++ /dev/null\n@@ -1 +0,0 @@\n-a\n",
			refused: true,
		},
		{
			name:    "new",
			diff:    "diff --git a/new.txt b/new.txt\nnew file mode 100644\nindex 0000000..3b18e51\n--- /dev/null\n+++ b/new.txt\n@@ -0,0 +1 @@\n+a\n",
			refused: true,
		},
		{
			name:    "binary",
			diff:    "diff --git a/logo.png b/logo.png\nindex 3b18e51..a0d1c4c 100644\nBinary files a/logo.png and b/logo.png differ\n",
			refused: true,
		},
		{
			name:    "renamed",
			diff:    "diff --git a/old.txt b/new.txt\nsimilarity index 100%\nrename from old.txt\nrename to new.txt\n",
			refused: true,
		},
		{
			name:    "two files",
			diff:    notesDiff + "diff --git a/other.txt b/other.txt\nindex 3b18e51..a0d1c4c 100644\n--- a/other.txt\n+++ b/other.txt\n@@ -1 +1 @@\n-a\n+b\n",
			refused: true,
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := InspectDiff(tc.diff)
			if !tc.refused {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, patch.ErrUnsupportedDiff), "got %v", err)
		})
	}
}
