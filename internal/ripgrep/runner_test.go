//go:build unix

package ripgrep

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greptide/internal/domain"
)

// writeStub writes an executable shell script standing in for rg
func writeStub(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rg")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755))
	return path
}

func query(exe string) domain.SearchQuery {
	return domain.SearchQuery{Pattern: "hello", Root: "/tmp", Executable: exe}
}

func TestSearchParsesMatches(t *testing.T) {
	stub := writeStub(t, `printf '%s\n' '`+matchLine+`'`)

	rs, err := NewRunner().Search(context.Background(), query(stub))
	require.NoError(t, err)
	require.Len(t, rs.Matches, 1)
	assert.Equal(t, "/root/a.md", rs.Matches[0].Path)
}

func TestSearchNoMatchesIsSuccess(t *testing.T) {
	// rg exits 1 with no output when nothing matched
	stub := writeStub(t, `exit 1`)

	rs, err := NewRunner().Search(context.Background(), query(stub))
	require.NoError(t, err)
	assert.True(t, rs.Empty())
}

func TestSearchRealFailure(t *testing.T) {
	stub := writeStub(t, `echo 'oh no' >&2; exit 2`)

	_, err := NewRunner().Search(context.Background(), query(stub))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExecution)
}

func TestSearchMissingExecutable(t *testing.T) {
	_, err := NewRunner().Search(context.Background(), query(filepath.Join(t.TempDir(), "nope")))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExecution)
}

func TestSearchCancellation(t *testing.T) {
	// exec so the kill signal reaches the sleeping process itself
	stub := writeStub(t, `exec sleep 30`)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := NewRunner().Search(ctx, query(stub))
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled), "cancellation must surface as context.Canceled, got %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled search did not return")
	}
}

func TestSearchMalformedOutputIsParseFailure(t *testing.T) {
	stub := writeStub(t, `echo 'not json at all'`)

	_, err := NewRunner().Search(context.Background(), query(stub))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
}

func TestBuildArgs(t *testing.T) {
	args, err := BuildArgs(domain.SearchQuery{Pattern: "foo", Root: "/src"})
	require.NoError(t, err)
	assert.Equal(t, []string{"foo", "/src", "--json"}, args)
}

func TestBuildArgsExtraArgsSplitShellStyle(t *testing.T) {
	args, err := BuildArgs(domain.SearchQuery{
		Pattern:   "foo",
		Root:      "/src",
		ExtraArgs: `-i --glob '*.go'`,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"foo", "/src", "--json", "-i", "--glob", "*.go"}, args)
}

func TestBuildArgsBadExtraArgs(t *testing.T) {
	_, err := BuildArgs(domain.SearchQuery{
		Pattern:   "foo",
		Root:      "/src",
		ExtraArgs: `--glob 'unterminated`,
	})
	require.Error(t, err)
}
