package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/quantmind-br/pyprobe/internal/config"
	"github.com/quantmind-br/pyprobe/internal/paths"
	"github.com/quantmind-br/pyprobe/internal/probe"
	"github.com/quantmind-br/pyprobe/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewDoctorCmd creates the doctor command
func NewDoctorCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the probing environment",
		Long:  `Check interpreter availability, environment variables, virtualenv locations, and pyprobe's own configuration and directories.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver := paths.NewResolver(cfg)

			ui.PrintHeader("Environment Diagnostics")
			fmt.Println()

			var issues []string
			var warnings []string

			// 1. Interpreter availability
			ui.PrintSubheader("Interpreters")
			if checkDependency("python3") {
				ui.PrintSuccess("python3: found in PATH")
			} else {
				ui.PrintFailure("python3: NOT FOUND in PATH")
				issues = append(issues, "python3 not found in PATH (system fallback candidate will always fail)")
			}

			// 2. Override and virtualenv environment variables
			ui.PrintSubheader("Environment")
			if override := os.Getenv(probe.OverrideEnv); override != "" {
				if checkDependency(override) {
					ui.PrintSuccess("%s: %s", probe.OverrideEnv, override)
				} else {
					ui.PrintFailure("%s: %s (not executable)", probe.OverrideEnv, override)
					issues = append(issues, fmt.Sprintf("%s points to a missing interpreter: %s", probe.OverrideEnv, override))
				}
			} else {
				ui.PrintInfo("%s: not set", probe.OverrideEnv)
			}

			if venv := os.Getenv("VIRTUAL_ENV"); venv != "" {
				python := filepath.Join(venv, "bin", "python")
				if _, err := os.Stat(python); err == nil {
					ui.PrintSuccess("VIRTUAL_ENV: %s", venv)
				} else {
					ui.PrintFailure("VIRTUAL_ENV: %s (no bin/python inside)", venv)
					warnings = append(warnings, fmt.Sprintf("active virtualenv has no interpreter: %s", venv))
				}
			} else {
				ui.PrintInfo("VIRTUAL_ENV: not set")
			}

			// 3. Conventional virtualenv locations
			ui.PrintSubheader("Virtualenv Locations")
			cwd, _ := os.Getwd()
			venvDirs := []string{
				filepath.Join(cwd, "venv"),
				filepath.Join(cwd, ".venv"),
				filepath.Join(filepath.Dir(cwd), "venv"),
			}
			foundVenv := false
			for _, dir := range venvDirs {
				python := filepath.Join(dir, "bin", "python")
				if _, err := os.Stat(python); err == nil {
					ui.PrintSuccess("%s", python)
					foundVenv = true
				} else {
					ui.PrintInfo("%s: not present", dir)
				}
			}
			if !foundVenv {
				warnings = append(warnings, "no conventional virtualenv found near the working directory")
			}

			// 4. Configuration and directories
			ui.PrintSubheader("Configuration")
			if _, err := os.Stat(resolver.ConfigFile()); err == nil {
				ui.PrintSuccess("Config file: %s", resolver.ConfigFile())
			} else {
				ui.PrintInfo("Config file: not present (using defaults)")
			}

			if checkDirectory(resolver.DataDir()) {
				ui.PrintSuccess("Data directory: %s", resolver.DataDir())
			} else {
				ui.PrintFailure("Data directory: NOT ACCESSIBLE (%s)", resolver.DataDir())
				issues = append(issues, fmt.Sprintf("data directory not accessible: %s", resolver.DataDir()))
			}

			fmt.Println()

			// Summary
			ui.PrintHeader("Summary")
			fmt.Println()

			if len(issues) == 0 {
				ui.PrintSuccess("All critical checks passed!")
			} else {
				ui.PrintFailure("Found %d issue(s):", len(issues))
				ui.PrintList(issues)
				fmt.Println()
			}

			if len(warnings) > 0 {
				ui.PrintWarning("Found %d warning(s)", len(warnings))
				ui.PrintList(warnings)
			}

			fmt.Println()

			if len(issues) > 0 {
				log.Warn().Int("issues", len(issues)).Msg("doctor found problems")
				return fmt.Errorf("environment check failed with %d issue(s)", len(issues))
			}

			return nil
		},
	}

	return cmd
}

// checkDependency checks if a command is available
func checkDependency(command string) bool {
	_, err := exec.LookPath(command)
	return err == nil
}

// checkDirectory checks if a directory exists (creating it if needed) and is writable
func checkDirectory(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return os.MkdirAll(path, 0755) == nil
		}
		return false
	}

	if !info.IsDir() {
		return false
	}

	testFile := filepath.Join(path, ".pyprobe-test")
	if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
		return false
	}
	os.Remove(testFile)

	return true
}
