package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/quantmind-br/pyprobe/internal/config"
	"github.com/quantmind-br/pyprobe/internal/helpers"
	"github.com/quantmind-br/pyprobe/internal/probe"
	"github.com/quantmind-br/pyprobe/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewCandidatesCmd creates the candidates command
func NewCandidatesCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "candidates",
		Short: "Show the candidate interpreter list without probing",
		Long:  `Resolve and display the ordered candidate list the probe would scan, without spawning any interpreter.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			candidates := probe.DefaultCandidates(probe.CandidateOptions{
				ConfigPython: cfg.Probe.Python,
				Extra:        cfg.Probe.ExtraCandidates,
			})
			log.Debug().Int("count", len(candidates)).Msg("resolved candidate list")

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(candidates)
			}

			ui.PrintHeader("Candidate Interpreters")
			fmt.Println()
			printCandidatesTable(cmd, candidates, helpers.NewOSCommandRunner())
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	return cmd
}

// printCandidatesTable renders the candidate list with an existence check
// per entry. No interpreter is executed.
func printCandidatesTable(cmd *cobra.Command, candidates []probe.Candidate, runner helpers.CommandRunner) {
	table := tablewriter.NewTable(cmd.OutOrStdout(),
		tablewriter.WithHeader([]string{"#", "Name", "Command", "Source", "Exists"}),
		tablewriter.WithAlignment(tw.MakeAlign(5, tw.AlignLeft)),
		tablewriter.WithSymbols(tw.NewSymbols(tw.StyleNone)),
	)

	for i, cand := range candidates {
		exists := ui.CrossMark
		if runner.CommandExists(cand.Command) {
			exists = ui.CheckMark
		}

		table.Append(
			fmt.Sprintf("%d", i+1),
			cand.Name,
			cand.Command,
			ui.ColorizeSource(string(cand.Source)),
			exists,
		)
	}

	table.Render()
}
