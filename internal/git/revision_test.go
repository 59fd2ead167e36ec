package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) (string, plumbing.Hash) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "boot", "zephyr"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "boot", "zephyr", "prj.conf"), []byte("CONFIG_MAIN_STACK_SIZE=10240\n"), 0o600))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("boot/zephyr/prj.conf")
	require.NoError(t, err)
	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Unix(1700000000, 0)},
	})
	require.NoError(t, err)
	return dir, hash
}

func TestHeadRevisionFromSubdirectory(t *testing.T) {
	dir, hash := initRepo(t)

	rev, err := HeadRevision(filepath.Join(dir, "boot", "zephyr"))
	require.NoError(t, err)
	assert.Equal(t, hash.String(), rev.Commit)
	assert.Equal(t, "master", rev.Branch)
	assert.Equal(t, "master@"+hash.String()[:8], rev.String())
	assert.Equal(t, rev.String(), Describe(dir))
}

func TestHeadRevisionOutsideRepository(t *testing.T) {
	dir := t.TempDir()
	_, err := HeadRevision(dir)
	require.ErrorIs(t, err, ErrNotRepository)
	assert.Empty(t, Describe(dir))
}

func TestReadRepoHeadDetached(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o750))
	commit := "0123456789abcdef0123456789abcdef01234567"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "HEAD"), []byte(commit+"\n"), 0o600))

	got, err := ReadRepoHead(dir)
	require.NoError(t, err)
	assert.Equal(t, commit, got)
	assert.Equal(t, "01234567", Revision{Commit: got}.Short())
}
