package git

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// ErrNotRepository is returned when no enclosing repository exists.
var ErrNotRepository = errors.New("not a git repository")

// Revision identifies a checkout.
type Revision struct {
	Commit string
	// Branch is empty for a detached HEAD, which is how west checks out
	// manifest projects.
	Branch string
}

// Short returns the abbreviated commit.
func (r Revision) Short() string {
	if len(r.Commit) > 8 {
		return r.Commit[:8]
	}
	return r.Commit
}

func (r Revision) String() string {
	if r.Branch == "" {
		return r.Short()
	}
	return r.Branch + "@" + r.Short()
}

// HeadRevision resolves HEAD of the repository containing dir.
func HeadRevision(dir string) (Revision, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return Revision{}, fmt.Errorf("%s: %w", dir, ErrNotRepository)
	}
	if err != nil {
		return Revision{}, fmt.Errorf("open repository %s: %w", dir, err)
	}
	ref, err := repo.Head()
	if err != nil {
		return Revision{}, fmt.Errorf("resolve HEAD in %s: %w", dir, err)
	}
	rev := Revision{Commit: ref.Hash().String()}
	if ref.Name().IsBranch() {
		rev.Branch = ref.Name().Short()
	}
	return rev, nil
}

// ReadRepoHead returns the HEAD commit by reading .git/HEAD directly. It is
// the fallback for checkouts go-git cannot open (e.g. unsupported
// extensions in the repository config).
func ReadRepoHead(repoPath string) (string, error) {
	data, err := os.ReadFile(filepath.Join(repoPath, ".git", "HEAD"))
	if err != nil {
		return "", err
	}
	line := strings.TrimSpace(string(data))
	if ref, ok := strings.CutPrefix(line, "ref:"); ok {
		refPath := filepath.Join(repoPath, ".git", filepath.FromSlash(strings.TrimSpace(ref)))
		refData, err := os.ReadFile(refPath)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", strings.TrimSpace(ref), err)
		}
		return strings.TrimSpace(string(refData)), nil
	}
	return line, nil
}

// Describe returns a printable revision for dir, or "" when dir is not
// under version control.
func Describe(dir string) string {
	if rev, err := HeadRevision(dir); err == nil {
		return rev.String()
	}
	if commit, err := ReadRepoHead(dir); err == nil {
		return Revision{Commit: commit}.Short()
	}
	return ""
}
