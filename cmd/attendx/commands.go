package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"attendx/internal/app"
	"attendx/internal/config"
	"attendx/pkg/contracts"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "attendx",
		Short: "Count colour-coded attendance in spreadsheet workbooks",
		Long: `attendx classifies the fill colour of every attendance cell, writes a
copy of each workbook with per-student counts and keeps a summary workbook
with one sheet per week and a trend chart.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"Config file (default: $ATTENDX_CONFIG, attendx.yaml or configs/attendx.yaml)")

	cmd.AddCommand(
		newWatchCmd(opts),
		newProcessCmd(opts),
		newDetectCmd(opts),
		newTrendCmd(opts),
		newExportCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// application loads the configuration and wires the app. Logs go to the
// command's stderr and the app logger becomes the slog default.
func (o *rootOptions) application(cmd *cobra.Command) (*app.Application, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	a, err := app.New(cfg, app.Options{Console: cmd.ErrOrStderr()})
	if err != nil {
		return nil, err
	}
	slog.SetDefault(a.Logger)
	return a, nil
}

func withApplication(opts *rootOptions, cmd *cobra.Command, fn func(ctx context.Context, a *app.Application) error) error {
	a, err := opts.application(cmd)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())
	return fn(cmd.Context(), a)
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Poll the inbox and process new or modified workbooks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApplication(opts, cmd, func(ctx context.Context, a *app.Application) error {
				return a.Watch(ctx)
			})
		},
	}
}

func newProcessCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "process <workbook>",
		Short: "Process a single workbook once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := app.ResolvePath(args[0])
			if err != nil {
				return err
			}
			return withApplication(opts, cmd, func(ctx context.Context, a *app.Application) error {
				report, err := a.Process(ctx, path)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "artifact: %s\n", report.Artifact)
				fmt.Fprintf(out, "students: %d, transitions: %d\n",
					report.Result.Students(), len(report.Result.Transitions))
				if report.Aggregated {
					fmt.Fprintf(out, "summary: class %s week %s (%d rows replaced)\n",
						report.Key.Class, report.Key.Week, report.Ingest.Replaced)
				} else {
					fmt.Fprintln(out, "summary: skipped, file name has no class and week")
				}
				return nil
			})
		},
	}
}

func newDetectCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "detect [dir]",
		Short: "Write transition reports for every workbook in a directory",
		Long: `detect looks for same-day colour transitions (by default yellow>red and
green>red) and writes transitions_<name>.txt for every workbook that has any.
The summary workbook is not touched. Without an argument the inbox is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				var err error
				if dir, err = app.ResolvePath(args[0]); err != nil {
					return err
				}
			}
			return withApplication(opts, cmd, func(ctx context.Context, a *app.Application) error {
				results, err := a.Detect(ctx, dir)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				failed := 0
				for _, r := range results {
					switch {
					case r.Err != nil:
						failed++
						fmt.Fprintf(out, "%s: error: %v\n", r.File, r.Err)
					case r.Report == "":
						fmt.Fprintf(out, "%s: no transitions\n", r.File)
					default:
						fmt.Fprintf(out, "%s: %d transitions -> %s\n", r.File, len(r.Transitions), filepath.Base(r.Report))
					}
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d files failed", failed, len(results))
				}
				return nil
			})
		},
	}
}

func newTrendCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Print per-week label totals from the summary workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApplication(opts, cmd, func(ctx context.Context, a *app.Application) error {
				trend, err := a.Trend(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(trend)
				}

				totals := make(map[string]map[string]int)
				for _, p := range trend.Points {
					if totals[p.Week] == nil {
						totals[p.Week] = make(map[string]int)
					}
					totals[p.Week][p.Label.String()] += p.Total
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprint(tw, "week")
				for _, l := range trend.Labels {
					fmt.Fprintf(tw, "\t%s", l)
				}
				fmt.Fprintln(tw)
				for _, week := range trend.Weeks {
					fmt.Fprint(tw, week)
					for _, l := range trend.Labels {
						fmt.Fprintf(tw, "\t%d", totals[week][l.String()])
					}
					fmt.Fprintln(tw)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the trend as JSON")
	return cmd
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export [dir]",
		Short: "Write the summary as CSV files (default: the outbox)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				var err error
				if dir, err = app.ResolvePath(args[0]); err != nil {
					return err
				}
			}
			return withApplication(opts, cmd, func(ctx context.Context, a *app.Application) error {
				paths, err := a.Export(ctx, dir)
				if err != nil {
					return err
				}
				for _, p := range paths {
					fmt.Fprintln(cmd.OutOrStdout(), p)
				}
				return nil
			})
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), contracts.GetFullVersionString())
		},
	}
}
