package probe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/quantmind-br/pyprobe/internal/helpers"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Sentinel is printed by the import snippet so a successful import can be
// distinguished from a process that exited zero without confirming anything.
const Sentinel = "PYPROBE_OK"

// DefaultTimeout bounds each candidate's child process.
const DefaultTimeout = 10 * time.Second

// maxDiagnosticLen caps captured stderr kept in a Result.
const maxDiagnosticLen = 200

var (
	// ErrNoCandidates is returned when Probe is called with an empty candidate list
	ErrNoCandidates = errors.New("no candidates to probe")

	// ErrEmptyModule is returned when Probe is called with an empty module name
	ErrEmptyModule = errors.New("module name is empty")
)

// The module name is passed as argv[1], never interpolated into the snippet,
// so arbitrary module names cannot inject code into the child.
var importSnippet = fmt.Sprintf(
	"import importlib, sys\nimportlib.import_module(sys.argv[1])\nprint(%q)", Sentinel)

var detailSnippet = "import importlib, sys\n" +
	"mod = importlib.import_module(sys.argv[1])\n" +
	"print(sys.executable)\n" +
	"print(getattr(mod, '__file__', '') or '')"

// Prober scans candidate interpreters for a target importable module.
type Prober struct {
	runner  helpers.CommandRunner
	timeout time.Duration
	log     zerolog.Logger

	// OnResult, if set, is called after each candidate completes.
	// In parallel mode invocations are serialized but in completion order.
	OnResult func(Result)
}

// New creates a Prober. A nil runner defaults to the real command runner;
// a non-positive timeout defaults to DefaultTimeout.
func New(runner helpers.CommandRunner, timeout time.Duration, log *zerolog.Logger) *Prober {
	if runner == nil {
		runner = helpers.NewOSCommandRunner()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := zerolog.Nop()
	if log != nil {
		logger = *log
	}
	return &Prober{
		runner:  runner,
		timeout: timeout,
		log:     logger,
	}
}

// Probe runs each candidate in order, one at a time, and returns one Result
// per candidate. Per-candidate failures never abort the scan; the only
// errors Probe itself returns are ErrNoCandidates and ErrEmptyModule.
// If ctx is cancelled mid-scan, the partial report is returned without error.
func (p *Prober) Probe(ctx context.Context, candidates []Candidate, module string) (*Report, error) {
	if err := validateInput(candidates, module); err != nil {
		return nil, err
	}

	report := &Report{Module: module, Results: make([]Result, 0, len(candidates))}
	for _, cand := range candidates {
		if ctx.Err() != nil {
			break
		}
		res := p.probeOne(ctx, cand, module)
		report.Results = append(report.Results, res)
		if p.OnResult != nil {
			p.OnResult(res)
		}
	}
	return report, nil
}

// ProbeParallel probes candidates concurrently with at most workers child
// processes in flight. Results land at their candidate's original index, so
// Report.Selected still resolves by priority order, never completion order.
func (p *Prober) ProbeParallel(ctx context.Context, candidates []Candidate, module string, workers int) (*Report, error) {
	if err := validateInput(candidates, module); err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}

	results := make([]Result, len(candidates))
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(workers)
	for i, cand := range candidates {
		i, cand := i, cand
		g.Go(func() error {
			res := p.probeOne(ctx, cand, module)
			results[i] = res
			if p.OnResult != nil {
				mu.Lock()
				p.OnResult(res)
				mu.Unlock()
			}
			return nil
		})
	}
	// probeOne never returns an error, so Wait cannot fail
	_ = g.Wait()

	return &Report{Module: module, Results: results}, nil
}

// probeOne produces exactly one Result for a candidate. Every failure mode
// (missing executable, timeout, non-zero exit, missing sentinel) degrades to
// OK=false on this result only.
func (p *Prober) probeOne(ctx context.Context, cand Candidate, module string) (res Result) {
	res.Candidate = cand
	start := time.Now()
	defer func() { res.Duration = time.Since(start) }()

	path, err := p.runner.ResolvePath(cand.Command)
	if err != nil {
		res.Diagnostic = fmt.Sprintf("not found: %s", cand.Command)
		p.log.Debug().Str("candidate", cand.Name).Str("command", cand.Command).
			Msg("interpreter not found")
		return res
	}
	res.Found = true

	runCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	stdout, stderr, runErr := p.runner.RunCommandWithOutput(runCtx, path, "-c", importSnippet, module)
	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		res.Diagnostic = fmt.Sprintf("timed out after %s", p.timeout)
		p.log.Warn().Str("candidate", cand.Name).Dur("timeout", p.timeout).
			Msg("probe timed out")
		return res
	case errors.Is(ctx.Err(), context.Canceled):
		res.Diagnostic = "cancelled"
		return res
	case runErr != nil || !strings.Contains(stdout, Sentinel):
		res.Diagnostic = truncate(strings.TrimSpace(stderr), maxDiagnosticLen)
		if res.Diagnostic == "" {
			if runErr != nil {
				res.Diagnostic = truncate(runErr.Error(), maxDiagnosticLen)
			} else {
				res.Diagnostic = "no confirmation from interpreter"
			}
		}
		p.log.Debug().Str("candidate", cand.Name).Int("exit_code", p.runner.GetExitCode(runErr)).
			Str("diagnostic", res.Diagnostic).Msg("import failed")
		return res
	}

	res.OK = true
	p.attachDetails(ctx, path, module, &res)
	p.log.Info().Str("candidate", cand.Name).Str("interpreter", res.Interpreter).
		Msg("module importable")
	return res
}

// attachDetails fetches the interpreter's own executable path and the
// module's on-disk location. Best-effort: failure leaves the result OK.
func (p *Prober) attachDetails(ctx context.Context, path, module string, res *Result) {
	runCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	stdout, _, err := p.runner.RunCommandWithOutput(runCtx, path, "-c", detailSnippet, module)
	if err != nil {
		p.log.Debug().Err(err).Str("interpreter", path).Msg("detail probe failed")
		return
	}

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) >= 1 {
		res.Interpreter = strings.TrimSpace(lines[0])
	}
	if len(lines) >= 2 {
		res.ModulePath = strings.TrimSpace(lines[1])
	}
}

func validateInput(candidates []Candidate, module string) error {
	if len(candidates) == 0 {
		return ErrNoCandidates
	}
	if strings.TrimSpace(module) == "" {
		return ErrEmptyModule
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
