package probe

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// OverrideEnv names the environment variable whose value, when set, becomes
// the highest-priority candidate.
const OverrideEnv = "PYPROBE_PYTHON"

// venvPython is the interpreter location inside a virtualenv directory.
const venvPython = "bin/python"

// CandidateOptions feeds DefaultCandidates. Zero values fall back to the
// real environment, working directory, and filesystem, so tests can swap in
// a lookup map, a fixed cwd, and an afero MemMapFs.
type CandidateOptions struct {
	Env          func(string) string
	Cwd          string
	Fs           afero.Fs
	ConfigPython string
	Extra        []string
}

// DefaultCandidates builds the ordered candidate list:
// env override, config interpreter, active virtualenv, project venv/.venv,
// parent venv, any configured extras, and finally the bare system python3.
// Filesystem-derived entries are only included when the interpreter file
// exists; duplicates of an earlier command are dropped.
func DefaultCandidates(opts CandidateOptions) []Candidate {
	env := opts.Env
	if env == nil {
		env = os.Getenv
	}
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	cwd := opts.Cwd
	if cwd == "" {
		cwd, _ = os.Getwd()
	}

	var candidates []Candidate
	seen := make(map[string]bool)
	add := func(name, command string, source Source) {
		if command == "" || seen[command] {
			return
		}
		seen[command] = true
		candidates = append(candidates, Candidate{Name: name, Command: command, Source: source})
	}
	addIfExists := func(name, command string, source Source) {
		if ok, err := afero.Exists(fs, command); err != nil || !ok {
			return
		}
		add(name, command, source)
	}

	add("env override", env(OverrideEnv), SourceOverride)
	add("configured interpreter", opts.ConfigPython, SourceConfig)

	if venv := env("VIRTUAL_ENV"); venv != "" {
		add("active virtualenv", filepath.Join(venv, venvPython), SourceActiveVenv)
	}

	addIfExists("project venv", filepath.Join(cwd, "venv", venvPython), SourceProjectVenv)
	addIfExists("project .venv", filepath.Join(cwd, ".venv", venvPython), SourceProjectVenv)
	addIfExists("parent venv", filepath.Join(filepath.Dir(cwd), "venv", venvPython), SourceParentVenv)

	for _, extra := range opts.Extra {
		add("extra: "+extra, extra, SourceExtra)
	}

	add("system python3", "python3", SourceSystem)

	return candidates
}
