package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/pump-selector/internal/model"
	"github.com/sells-group/pump-selector/internal/pipeline"
)

var (
	statsDays   int
	statsRecent int
	statsJSON   bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarise selection history, problem reports, and orders",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initPipeline(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		st, err := env.Pipeline.Stats(cmd.Context(), time.Duration(statsDays)*24*time.Hour, statsRecent)
		if err != nil {
			return err
		}
		if statsJSON {
			return printJSON(cmd.OutOrStdout(), st)
		}
		return writeStats(cmd.OutOrStdout(), st)
	},
}

var problemCmd = &cobra.Command{
	Use:   "problem",
	Short: "Record and list pump problem reports",
}

var problemReport model.ProblemReport

var problemReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Record a pump problem report",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initPipeline(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		r := problemReport
		if err := env.Pipeline.ReportProblem(cmd.Context(), &r); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), r)
	},
}

var problemListLimit int

var problemListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent problem reports",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initPipeline(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		problems, err := env.Store.ListProblems(cmd.Context(), problemListLimit)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), problems)
	},
}

func writeStats(w io.Writer, st *model.Statistics) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "selections\t%d\n", st.TotalSelections) //nolint:errcheck
	fmt.Fprintf(tw, "problems\t%d\n", st.TotalProblems)     //nolint:errcheck
	fmt.Fprintf(tw, "orders\t%d\n", st.TotalOrders)         //nolint:errcheck

	sections := []struct {
		title  string
		counts map[string]int
	}{
		{"mode", st.ModeDistribution},
		{"purpose", st.PurposeDistribution},
		{"result type", st.ResultTypeDistribution},
		{"problem pump type", st.ProblemTypeDistribution},
		{"activity since " + st.Since.Format("2006-01-02"), st.ActivityByDate},
	}
	for _, s := range sections {
		if len(s.counts) == 0 {
			continue
		}
		fmt.Fprintf(tw, "\n%s\t\n", s.title) //nolint:errcheck
		keys := make([]string, 0, len(s.counts))
		for k := range s.counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(tw, "  %s\t%d\n", k, s.counts[k]) //nolint:errcheck
		}
	}
	return tw.Flush()
}

func init() {
	statsCmd.Flags().IntVar(&statsDays, "days", int(pipeline.DefaultStatsWindow/(24*time.Hour)), "days of daily activity to report")
	statsCmd.Flags().IntVar(&statsRecent, "recent", pipeline.DefaultStatsRecent, "recent selections and problems to include with --json")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print the full statistics as JSON")

	f := problemReportCmd.Flags()
	f.StringVar(&problemReport.PumpType, "pump-type", "", "pump type the problem concerns (required)")
	f.StringVar(&problemReport.Problem, "problem", "", "problem description (required)")
	f.StringVar(&problemReport.Model, "model", "", "pump model")
	f.StringVar(&problemReport.CustomerName, "customer", "", "customer name")
	f.StringVar(&problemReport.CustomerPhone, "phone", "", "customer phone")
	f.StringVar(&problemReport.SelectionID, "selection", "", "related selection id")
	_ = problemReportCmd.MarkFlagRequired("pump-type")
	_ = problemReportCmd.MarkFlagRequired("problem")

	problemListCmd.Flags().IntVar(&problemListLimit, "limit", 0, "maximum reports to list (0 uses the store default)")

	problemCmd.AddCommand(problemReportCmd, problemListCmd)
	rootCmd.AddCommand(statsCmd, problemCmd)
}
