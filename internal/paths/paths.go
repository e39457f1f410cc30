package paths

import (
	"os"
	"path/filepath"

	"github.com/quantmind-br/pyprobe/internal/config"
)

// Resolver centralizes the standard pyprobe locations, computed from the
// user's HOME and the loaded configuration.
type Resolver struct {
	homeDir string
	cfg     *config.Config
}

// NewResolver creates a Resolver using the current user's HOME.
func NewResolver(cfg *config.Config) *Resolver {
	homeDir, _ := os.UserHomeDir()
	return &Resolver{
		homeDir: homeDir,
		cfg:     cfg,
	}
}

// NewResolverWithHome creates a Resolver with an explicit homeDir (useful for tests).
func NewResolverWithHome(cfg *config.Config, homeDir string) *Resolver {
	return &Resolver{
		homeDir: homeDir,
		cfg:     cfg,
	}
}

// HomeDir returns the resolved HOME directory.
func (r *Resolver) HomeDir() string {
	return r.homeDir
}

// ConfigDir returns ~/.config/pyprobe.
func (r *Resolver) ConfigDir() string {
	return filepath.Join(r.homeDir, ".config", "pyprobe")
}

// ConfigFile returns the expected config file location.
func (r *Resolver) ConfigFile() string {
	return filepath.Join(r.ConfigDir(), "config.toml")
}

// DataDir returns the pyprobe data directory.
// Defaults to ~/.local/share/pyprobe, honoring cfg.Paths.DataDir when set.
func (r *Resolver) DataDir() string {
	if r.cfg != nil && r.cfg.Paths.DataDir != "" {
		return r.cfg.Paths.DataDir
	}
	return filepath.Join(r.homeDir, ".local", "share", "pyprobe")
}

// LogFile returns the log file location.
// Defaults to <DataDir>/pyprobe.log, honoring cfg.Paths.LogFile when set.
func (r *Resolver) LogFile() string {
	if r.cfg != nil && r.cfg.Paths.LogFile != "" {
		return r.cfg.Paths.LogFile
	}
	return filepath.Join(r.DataDir(), "pyprobe.log")
}
