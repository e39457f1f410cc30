package cmd

import (
	"github.com/quantmind-br/pyprobe/internal/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd(cfg *config.Config, log *zerolog.Logger, version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "pyprobe",
		Short:        "Find a Python interpreter that can import a module",
		Long:         `pyprobe scans a prioritized list of Python interpreters (env override, configured interpreter, virtualenvs, system python3) and reports which of them can import a target module.`,
		SilenceUsage: true,
	}

	// Add subcommands
	cmd.AddCommand(NewProbeCmd(cfg, log))
	cmd.AddCommand(NewCandidatesCmd(cfg, log))
	cmd.AddCommand(NewDoctorCmd(cfg, log))
	cmd.AddCommand(NewCompletionCmd(cfg, log))
	cmd.AddCommand(NewVersionCmd(version))

	return cmd
}
