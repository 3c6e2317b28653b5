// # internal/history/git.go
package history

import (
	"bytes"
	"os/exec"
	"strings"
	"time"
)

// ResolveGitMetadata best-effort reads the HEAD commit of the analyzed
// codebase so snapshots can be correlated with revisions. Outside a git
// checkout both values are zero.
func ResolveGitMetadata(codebaseRoot string) (string, time.Time) {
	commitHash := runGit(codebaseRoot, "rev-parse", "--short=12", "HEAD")
	commitTimeRaw := runGit(codebaseRoot, "show", "-s", "--format=%cI", "HEAD")
	if commitHash == "" || commitTimeRaw == "" {
		return "", time.Time{}
	}

	commitTime, err := time.Parse(time.RFC3339, commitTimeRaw)
	if err != nil {
		return commitHash, time.Time{}
	}
	return commitHash, commitTime.UTC()
}

func runGit(codebaseRoot string, args ...string) string {
	cmd := exec.Command("git", append([]string{"-C", codebaseRoot}, args...)...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return ""
	}
	return strings.TrimSpace(stdout.String())
}
