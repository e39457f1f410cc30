package probe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/quantmind-br/pyprobe/internal/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// importingRunner simulates interpreters where the module imports cleanly.
// available maps command -> resolved path; anything else is "not found".
func importingRunner(available map[string]string) *helpers.MockCommandRunner {
	return &helpers.MockCommandRunner{
		ResolvePathFunc: func(name string) (string, error) {
			if path, ok := available[name]; ok {
				return path, nil
			}
			return "", errors.New("not found")
		},
		RunCommandWithOutputFunc: func(_ context.Context, name string, args ...string) (string, string, error) {
			if len(args) >= 2 && args[1] == detailSnippet {
				return name + "\n/site-packages/mod/__init__.py\n", "", nil
			}
			return Sentinel + "\n", "", nil
		},
	}
}

func TestProbeInvalidInput(t *testing.T) {
	p := New(&helpers.MockCommandRunner{}, time.Second, nil)
	ctx := context.Background()

	t.Run("empty candidate list", func(t *testing.T) {
		_, err := p.Probe(ctx, nil, "json")
		assert.ErrorIs(t, err, ErrNoCandidates)
	})

	t.Run("empty module name", func(t *testing.T) {
		_, err := p.Probe(ctx, []Candidate{{Name: "system", Command: "python3"}}, "")
		assert.ErrorIs(t, err, ErrEmptyModule)

		_, err = p.Probe(ctx, []Candidate{{Name: "system", Command: "python3"}}, "   ")
		assert.ErrorIs(t, err, ErrEmptyModule)
	})

	t.Run("parallel validates too", func(t *testing.T) {
		_, err := p.ProbeParallel(ctx, nil, "json", 4)
		assert.ErrorIs(t, err, ErrNoCandidates)
	})
}

func TestProbeMissingInterpreter(t *testing.T) {
	runner := &helpers.MockCommandRunner{
		ResolvePathFunc: func(name string) (string, error) {
			return "", errors.New("executable file not found in $PATH")
		},
		RunCommandWithOutputFunc: func(_ context.Context, name string, args ...string) (string, string, error) {
			t.Fatal("no process should be spawned for an unresolvable candidate")
			return "", "", nil
		},
	}
	p := New(runner, time.Second, nil)

	report, err := p.Probe(context.Background(), []Candidate{
		{Name: "override", Command: "/usr/bin/does-not-exist"},
	}, "json")
	require.NoError(t, err)
	require.Len(t, report.Results, 1)

	res := report.Results[0]
	assert.False(t, res.Found)
	assert.False(t, res.OK)
	assert.Contains(t, res.Diagnostic, "not found")
	assert.Empty(t, res.Interpreter)
	assert.Empty(t, res.ModulePath)

	_, ok := report.Selected()
	assert.False(t, ok)
}

func TestProbeSuccess(t *testing.T) {
	runner := importingRunner(map[string]string{"python3": "/usr/bin/python3"})
	p := New(runner, time.Second, nil)

	report, err := p.Probe(context.Background(), []Candidate{
		{Name: "override", Command: "/usr/bin/does-not-exist"},
		{Name: "system", Command: "python3"},
	}, "json")
	require.NoError(t, err)
	require.Len(t, report.Results, 2)

	assert.False(t, report.Results[0].OK)
	assert.True(t, report.Results[1].OK)
	assert.Empty(t, report.Results[1].Diagnostic)
	assert.Equal(t, "/usr/bin/python3", report.Results[1].Interpreter)
	assert.Equal(t, "/site-packages/mod/__init__.py", report.Results[1].ModulePath)

	selected, ok := report.Selected()
	require.True(t, ok)
	assert.Equal(t, "system", selected.Candidate.Name)
	assert.Equal(t, 1, report.FoundCount())
}

func TestProbeFirstSuccessWins(t *testing.T) {
	runner := importingRunner(map[string]string{
		"python3.11": "/usr/bin/python3.11",
		"python3.12": "/usr/bin/python3.12",
		"python3":    "/usr/bin/python3",
	})
	p := New(runner, time.Second, nil)

	report, err := p.Probe(context.Background(), []Candidate{
		{Name: "a", Command: "python3.11"},
		{Name: "b", Command: "python3.12"},
		{Name: "c", Command: "python3"},
	}, "json")
	require.NoError(t, err)

	assert.Equal(t, 3, report.FoundCount())
	selected, ok := report.Selected()
	require.True(t, ok)
	assert.Equal(t, "a", selected.Candidate.Name)
}

func TestProbeImportFailure(t *testing.T) {
	t.Run("non-zero exit with stderr", func(t *testing.T) {
		runner := &helpers.MockCommandRunner{
			ResolvePathFunc: func(name string) (string, error) { return name, nil },
			RunCommandWithOutputFunc: func(_ context.Context, name string, args ...string) (string, string, error) {
				return "", "ModuleNotFoundError: No module named 'nope'\n", errors.New("exit status 1")
			},
		}
		p := New(runner, time.Second, nil)

		report, err := p.Probe(context.Background(), []Candidate{{Name: "system", Command: "python3"}}, "nope")
		require.NoError(t, err)

		res := report.Results[0]
		assert.True(t, res.Found)
		assert.False(t, res.OK)
		assert.Contains(t, res.Diagnostic, "ModuleNotFoundError")
	})

	t.Run("zero exit without sentinel", func(t *testing.T) {
		runner := &helpers.MockCommandRunner{
			ResolvePathFunc: func(name string) (string, error) { return name, nil },
			RunCommandWithOutputFunc: func(_ context.Context, name string, args ...string) (string, string, error) {
				return "something unrelated\n", "", nil
			},
		}
		p := New(runner, time.Second, nil)

		report, err := p.Probe(context.Background(), []Candidate{{Name: "system", Command: "python3"}}, "json")
		require.NoError(t, err)

		res := report.Results[0]
		assert.False(t, res.OK)
		assert.Equal(t, "no confirmation from interpreter", res.Diagnostic)
	})

	t.Run("stderr truncated to bound", func(t *testing.T) {
		long := strings.Repeat("x", 5000)
		runner := &helpers.MockCommandRunner{
			ResolvePathFunc: func(name string) (string, error) { return name, nil },
			RunCommandWithOutputFunc: func(_ context.Context, name string, args ...string) (string, string, error) {
				return "", long, errors.New("exit status 1")
			},
		}
		p := New(runner, time.Second, nil)

		report, err := p.Probe(context.Background(), []Candidate{{Name: "system", Command: "python3"}}, "json")
		require.NoError(t, err)
		assert.Len(t, report.Results[0].Diagnostic, 200)
	})
}

func TestProbeTimeout(t *testing.T) {
	runner := &helpers.MockCommandRunner{
		ResolvePathFunc: func(name string) (string, error) { return name, nil },
		RunCommandWithOutputFunc: func(ctx context.Context, name string, args ...string) (string, string, error) {
			<-ctx.Done()
			return "", "", ctx.Err()
		},
	}
	p := New(runner, 20*time.Millisecond, nil)

	start := time.Now()
	report, err := p.Probe(context.Background(), []Candidate{{Name: "slow", Command: "python3"}}, "json")
	elapsed := time.Since(start)

	require.NoError(t, err)
	res := report.Results[0]
	assert.True(t, res.Found)
	assert.False(t, res.OK)
	assert.Contains(t, res.Diagnostic, "timed out")
	assert.Less(t, elapsed, 2*time.Second, "timed-out candidate must not hang the scan")
}

func TestProbeCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var probed atomic.Int32
	runner := &helpers.MockCommandRunner{
		ResolvePathFunc: func(name string) (string, error) { return name, nil },
		RunCommandWithOutputFunc: func(_ context.Context, name string, args ...string) (string, string, error) {
			if probed.Add(1) == 1 {
				cancel()
			}
			return Sentinel + "\n", "", nil
		},
	}
	p := New(runner, time.Second, nil)

	candidates := []Candidate{
		{Name: "a", Command: "py-a"},
		{Name: "b", Command: "py-b"},
		{Name: "c", Command: "py-c"},
	}
	report, err := p.Probe(ctx, candidates, "json")
	require.NoError(t, err, "cancellation yields a partial report, not an error")
	assert.Less(t, len(report.Results), len(candidates))
}

func TestProbeDetailFailureKeepsSuccess(t *testing.T) {
	calls := 0
	runner := &helpers.MockCommandRunner{
		ResolvePathFunc: func(name string) (string, error) { return name, nil },
		RunCommandWithOutputFunc: func(_ context.Context, name string, args ...string) (string, string, error) {
			calls++
			if len(args) >= 2 && args[1] == detailSnippet {
				return "", "boom", errors.New("exit status 1")
			}
			return Sentinel + "\n", "", nil
		},
	}
	p := New(runner, time.Second, nil)

	report, err := p.Probe(context.Background(), []Candidate{{Name: "system", Command: "python3"}}, "json")
	require.NoError(t, err)

	res := report.Results[0]
	assert.True(t, res.OK, "metadata failure must not downgrade success")
	assert.Empty(t, res.Interpreter)
	assert.Equal(t, 2, calls)
}

func TestProbeParallelPreservesOrder(t *testing.T) {
	// Earlier candidates finish last; selection must still follow input order.
	runner := &helpers.MockCommandRunner{
		ResolvePathFunc: func(name string) (string, error) { return name, nil },
		RunCommandWithOutputFunc: func(_ context.Context, name string, args ...string) (string, string, error) {
			if name == "py-0" {
				time.Sleep(50 * time.Millisecond)
			}
			if len(args) >= 2 && args[1] == detailSnippet {
				return name + "\n\n", "", nil
			}
			return Sentinel + "\n", "", nil
		},
	}
	p := New(runner, time.Second, nil)

	var candidates []Candidate
	for i := 0; i < 4; i++ {
		name := fmt.Sprintf("py-%d", i)
		candidates = append(candidates, Candidate{Name: name, Command: name})
	}

	report, err := p.ProbeParallel(context.Background(), candidates, "json", 4)
	require.NoError(t, err)
	require.Len(t, report.Results, 4)

	for i, res := range report.Results {
		assert.Equal(t, fmt.Sprintf("py-%d", i), res.Candidate.Name, "result %d out of order", i)
	}

	selected, ok := report.Selected()
	require.True(t, ok)
	assert.Equal(t, "py-0", selected.Candidate.Name)
}

func TestProbeOnResultCallback(t *testing.T) {
	runner := importingRunner(map[string]string{"python3": "/usr/bin/python3"})
	p := New(runner, time.Second, nil)

	var seen int
	p.OnResult = func(Result) { seen++ }

	_, err := p.Probe(context.Background(), []Candidate{
		{Name: "missing", Command: "nope"},
		{Name: "system", Command: "python3"},
	}, "json")
	require.NoError(t, err)
	assert.Equal(t, 2, seen)
}

func TestProbeIdempotent(t *testing.T) {
	runner := importingRunner(map[string]string{"python3": "/usr/bin/python3"})
	p := New(runner, time.Second, nil)
	candidates := []Candidate{
		{Name: "missing", Command: "nope"},
		{Name: "system", Command: "python3"},
	}

	first, err := p.Probe(context.Background(), candidates, "json")
	require.NoError(t, err)
	second, err := p.Probe(context.Background(), candidates, "json")
	require.NoError(t, err)

	selFirst, ok := first.Selected()
	require.True(t, ok)
	selSecond, ok := second.Selected()
	require.True(t, ok)
	assert.Equal(t, selFirst.Candidate, selSecond.Candidate)
}

func TestNewDefaults(t *testing.T) {
	p := New(nil, 0, nil)
	assert.NotNil(t, p.runner)
	assert.Equal(t, DefaultTimeout, p.timeout)
}
