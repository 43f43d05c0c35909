package ripgrep

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strings"

	"github.com/google/shlex"
	"golang.org/x/sync/errgroup"

	"greptide/internal/domain"
)

// Error taxonomy for a single invocation. Cancellation is reported as
// context.Canceled and is never one of these.
var (
	// ErrExecution means the executable was missing, unreadable, or exited
	// for a reason other than "no matches".
	ErrExecution = errors.New("ripgrep execution failed")

	// ErrParse means the process exited cleanly but emitted a line that is
	// not valid JSON. Fatal for that run, no partial recovery.
	ErrParse = errors.New("ripgrep output parse failed")
)

// Runner invokes the search executable for one query
type Runner interface {
	Search(ctx context.Context, query domain.SearchQuery) (domain.ResultSet, error)
}

// execRunner is the concrete implementation backed by os/exec
type execRunner struct{}

// NewRunner creates a new process-backed runner
func NewRunner() Runner {
	return &execRunner{}
}

// Search runs the executable and returns its parsed matches. A "no matches"
// exit (status 1, empty output) is a successful empty result, not an error.
func (r *execRunner) Search(ctx context.Context, query domain.SearchQuery) (domain.ResultSet, error) {
	args, err := BuildArgs(query)
	if err != nil {
		return domain.ResultSet{}, fmt.Errorf("%w: %v", ErrExecution, err)
	}

	cmd := exec.CommandContext(ctx, query.Executable, args...)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return domain.ResultSet{}, fmt.Errorf("%w: %v", ErrExecution, err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return domain.ResultSet{}, fmt.Errorf("%w: %v", ErrExecution, err)
	}

	if err := cmd.Start(); err != nil {
		return domain.ResultSet{}, fmt.Errorf("%w: %v", ErrExecution, err)
	}

	// Drain both pipes before Wait so a chatty process can't block
	var stdout, stderr bytes.Buffer
	var g errgroup.Group
	g.Go(func() error {
		_, err := io.Copy(&stdout, stdoutPipe)
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(&stderr, stderrPipe)
		return err
	})
	copyErr := g.Wait()
	waitErr := cmd.Wait()

	// Cancellation wins over whatever state the killed process exited in
	if ctx.Err() != nil {
		return domain.ResultSet{}, context.Canceled
	}
	if copyErr != nil {
		return domain.ResultSet{}, fmt.Errorf("%w: reading output: %v", ErrExecution, copyErr)
	}

	raw := stdout.String()
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) && exitErr.ExitCode() == 1 && strings.TrimSpace(raw) == "" {
			// rg exits 1 when nothing matched
			return domain.ResultSet{}, nil
		}
		log.Printf("ripgrep failed for %q: %v, stderr: %s", query.Pattern, waitErr, firstLine(stderr.String()))
		return domain.ResultSet{}, fmt.Errorf("%w: %v", ErrExecution, waitErr)
	}

	return Parse(raw)
}

// BuildArgs constructs the argument list: pattern, root, the machine-readable
// output flag, then any user-configured extras split shell-style.
func BuildArgs(query domain.SearchQuery) ([]string, error) {
	args := []string{query.Pattern, query.Root, "--json"}
	if extra := strings.TrimSpace(query.ExtraArgs); extra != "" {
		split, err := shlex.Split(extra)
		if err != nil {
			return nil, fmt.Errorf("bad extra arguments %q: %w", extra, err)
		}
		args = append(args, split...)
	}
	return args, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
