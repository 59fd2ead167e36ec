package toolchain

import (
	"context"
	"os/exec"
	"strings"
	"sync"
)

// FakeResult is the scripted outcome of a matched command.
type FakeResult struct {
	Output []byte
	Code   int
}

// FakeRunner records every command and replays scripted results. Unscripted
// commands succeed with no output.
type FakeRunner struct {
	mu      sync.Mutex
	calls   []Command
	scripts map[string]FakeResult

	// OnRun runs before the scripted result is returned, e.g. to create the
	// file a real tool would have written. A non-nil error is returned as is.
	OnRun func(Command) error
	// Missing lists tools LookPath reports as absent.
	Missing map[string]bool
}

// NewFakeRunner returns an empty recording runner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{scripts: map[string]FakeResult{}, Missing: map[string]bool{}}
}

// Script registers a result for commands whose rendered line starts with
// prefix. The longest matching prefix wins.
func (f *FakeRunner) Script(prefix string, res FakeResult) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts[prefix] = res
	return f
}

// Fail scripts a non-zero exit for commands starting with prefix.
func (f *FakeRunner) Fail(prefix string, code int) *FakeRunner {
	return f.Script(prefix, FakeResult{Code: code})
}

func (f *FakeRunner) Run(_ context.Context, c Command) error {
	_, err := f.invoke(c)
	return err
}

func (f *FakeRunner) Output(_ context.Context, c Command) ([]byte, error) {
	return f.invoke(c)
}

func (f *FakeRunner) LookPath(name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Missing[name] {
		return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
	}
	return "/usr/bin/" + name, nil
}

func (f *FakeRunner) invoke(c Command) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	res, _ := f.match(c.String())
	hook := f.OnRun
	f.mu.Unlock()

	if hook != nil {
		if err := hook(c); err != nil {
			return nil, err
		}
	}
	if res.Code != 0 {
		return res.Output, &ExitError{Tool: c.Name, Args: c.Args, Code: res.Code}
	}
	return res.Output, nil
}

func (f *FakeRunner) match(line string) (FakeResult, bool) {
	best := -1
	var out FakeResult
	for prefix, res := range f.scripts {
		if strings.HasPrefix(line, prefix) && len(prefix) > best {
			best = len(prefix)
			out = res
		}
	}
	return out, best >= 0
}

// Calls returns a copy of the recorded commands in invocation order.
func (f *FakeRunner) Calls() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Command, len(f.calls))
	copy(out, f.calls)
	return out
}

// Lines returns the recorded command lines.
func (f *FakeRunner) Lines() []string {
	calls := f.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.String()
	}
	return out
}

// Count reports how many recorded commands start with prefix.
func (f *FakeRunner) Count(prefix string) int {
	n := 0
	for _, line := range f.Lines() {
		if strings.HasPrefix(line, prefix) {
			n++
		}
	}
	return n
}
