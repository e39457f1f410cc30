package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/quantmind-br/pyprobe/internal/config"
	"github.com/quantmind-br/pyprobe/internal/helpers"
	"github.com/quantmind-br/pyprobe/internal/probe"
	"github.com/quantmind-br/pyprobe/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewProbeCmd creates the probe command
func NewProbeCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var (
		moduleFlag string
		timeout    time.Duration
		jsonOutput bool
		parallel   bool
		workers    int
		choose     bool
		showTable  bool
	)

	cmd := &cobra.Command{
		Use:   "probe [module]",
		Short: "Scan candidate interpreters for an importable module",
		Long: `Probe each candidate Python interpreter, in priority order, for the ability
to import the given module. Every candidate gets a status line; the first
success becomes the selected interpreter. Exits non-zero when no candidate
can import the module.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			module := resolveModule(args, moduleFlag, cfg)
			if module == "" {
				return fmt.Errorf("module name required (argument, --module, or probe.module in config)")
			}

			candidates := probe.DefaultCandidates(probe.CandidateOptions{
				ConfigPython: cfg.Probe.Python,
				Extra:        cfg.Probe.ExtraCandidates,
			})

			if timeout <= 0 {
				timeout = cfg.Probe.Timeout
			}
			if workers <= 0 {
				workers = cfg.Probe.Workers
			}

			prober := probe.New(helpers.NewOSCommandRunner(), timeout, log)

			var bar *ui.ProgressBar
			if !jsonOutput && len(candidates) > 1 {
				bar = ui.NewProgressBar(int64(len(candidates)), "Probing interpreters")
				prober.OnResult = func(probe.Result) { bar.Add(1) }
			}

			ctx := cmd.Context()
			var (
				report *probe.Report
				err    error
			)
			if parallel {
				report, err = prober.ProbeParallel(ctx, candidates, module, workers)
			} else {
				report, err = prober.Probe(ctx, candidates, module)
			}
			if bar != nil {
				bar.Finish()
				bar.Clear()
			}
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else if showTable {
				printReportTable(cmd, report)
				printSummary(report)
			} else {
				printReport(report)
				printSummary(report)
			}

			if choose && !jsonOutput {
				if err := chooseInterpreter(report); err != nil {
					return err
				}
			}

			if _, ok := report.Selected(); !ok {
				return fmt.Errorf("module %q not importable in any of %d candidate environment(s)", module, len(report.Results))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&moduleFlag, "module", "m", "", "module to import (overrides config)")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 0, "per-candidate timeout (default from config)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output the full report in JSON format")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "probe candidates concurrently")
	cmd.Flags().IntVar(&workers, "workers", 0, "max concurrent probes with --parallel (default from config)")
	cmd.Flags().BoolVar(&choose, "choose", false, "interactively pick among successful candidates")
	cmd.Flags().BoolVar(&showTable, "table", false, "show results as a table")

	return cmd
}

// resolveModule picks the target module: positional argument, then flag,
// then the configured default.
func resolveModule(args []string, flag string, cfg *config.Config) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	if flag != "" {
		return flag
	}
	return cfg.Probe.Module
}

// printReport prints one status line per candidate in probe order.
func printReport(report *probe.Report) {
	ui.PrintHeader(fmt.Sprintf("Probing for module %q", report.Module))
	fmt.Println()

	for _, res := range report.Results {
		switch {
		case res.OK && res.Interpreter != "":
			ui.PrintSuccess("%s: found (%s)", res.Candidate.Name, res.Interpreter)
			if res.ModulePath != "" {
				fmt.Printf("    module: %s\n", res.ModulePath)
			}
		case res.OK:
			ui.PrintSuccess("%s: found", res.Candidate.Name)
		default:
			ui.PrintFailure("%s: %s", res.Candidate.Name, res.Diagnostic)
		}
	}
}

// printReportTable renders the report with tablewriter.
func printReportTable(cmd *cobra.Command, report *probe.Report) {
	table := tablewriter.NewTable(cmd.OutOrStdout(),
		tablewriter.WithHeader([]string{"Candidate", "Command", "Source", "Status", "Details"}),
		tablewriter.WithAlignment(tw.MakeAlign(5, tw.AlignLeft)),
		tablewriter.WithSymbols(tw.NewSymbols(tw.StyleLight)),
	)

	for _, res := range report.Results {
		status := ui.CrossMark
		details := res.Diagnostic
		if res.OK {
			status = ui.CheckMark
			details = res.Interpreter
		}
		if len(details) > 60 {
			details = details[:57] + "..."
		}

		table.Append(
			res.Candidate.Name,
			res.Candidate.Command,
			ui.ColorizeSource(string(res.Candidate.Source)),
			status,
			details,
		)
	}

	table.Render()
}

// printSummary prints the found count and the selected interpreter.
func printSummary(report *probe.Report) {
	ui.PrintHeader("Summary")
	fmt.Println()

	ui.PrintInfo("Module %q found in %d of %d environment(s)", report.Module, report.FoundCount(), len(report.Results))

	if selected, ok := report.Selected(); ok {
		value := selected.Candidate.Command
		if selected.Interpreter != "" {
			value = selected.Interpreter
		}
		ui.PrintKeyValue("Selected", fmt.Sprintf("%s (%s)", value, selected.Candidate.Name))
	} else {
		ui.PrintWarning("No interpreter can import %q", report.Module)
	}
}

// chooseInterpreter lets the user pick among all successful candidates.
func chooseInterpreter(report *probe.Report) error {
	var items []string
	for _, res := range report.Results {
		if res.OK {
			label := res.Candidate.Command
			if res.Interpreter != "" {
				label = res.Interpreter
			}
			items = append(items, fmt.Sprintf("%s (%s)", label, res.Candidate.Name))
		}
	}
	if len(items) < 2 {
		return nil
	}

	_, picked, err := ui.SelectPromptWithSearch("Pick an interpreter", items)
	if err != nil {
		return err
	}
	ui.PrintKeyValue("Picked", picked)
	return nil
}
