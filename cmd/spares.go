package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/pump-selector/internal/model"
	"github.com/sells-group/pump-selector/internal/spares"
	"github.com/sells-group/pump-selector/internal/store"
)

var sparesCmd = &cobra.Command{
	Use:   "spares",
	Short: "Browse spares tables and place orders",
}

var sparesShowCmd = &cobra.Command{
	Use:   "show <pump-type>",
	Short: "Print the spares table for a pump type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		t, err := env.Pipeline.Spares().Table(args[0])
		if err != nil {
			return err
		}
		return writeSparesTable(cmd, t)
	},
}

var sparesTypesCmd = &cobra.Command{
	Use:   "types",
	Short: "List pump types and their spares categories",
	RunE: func(cmd *cobra.Command, _ []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PUMP TYPE\tCATEGORY") //nolint:errcheck
		for _, pt := range spares.PumpTypes() {
			fmt.Fprintf(tw, "%s\t%s\n", pt, spares.CategoryFor(pt)) //nolint:errcheck
		}
		return tw.Flush()
	},
}

var sparesOrderFile string

var sparesOrderCmd = &cobra.Command{
	Use:   "order",
	Short: "Place a spares order from a JSON request file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		data, err := os.ReadFile(sparesOrderFile) //nolint:gosec // operator-supplied path
		if err != nil {
			return eris.Wrap(err, "read order")
		}
		var req spares.OrderRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return eris.Wrap(err, "parse order")
		}

		env, err := initPipeline(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		o, err := env.Pipeline.PlaceOrder(cmd.Context(), req)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), o)
	},
}

var sparesOrdersSelection string

var sparesOrdersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List spares orders",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initPipeline(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		orders, err := env.Store.ListOrders(cmd.Context(), store.OrderFilter{SelectionID: sparesOrdersSelection})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), orders)
	},
}

func writeSparesTable(cmd *cobra.Command, t *model.SparesTable) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s (%s)\n", t.Title, t.Source) //nolint:errcheck
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, h := range t.Headers {
		if i > 0 {
			fmt.Fprint(tw, "\t") //nolint:errcheck
		}
		fmt.Fprint(tw, h) //nolint:errcheck
	}
	fmt.Fprintln(tw) //nolint:errcheck
	for _, row := range t.Rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(tw, "\t") //nolint:errcheck
			}
			if p, ok := t.Prices[cell]; ok && i > 0 {
				cell = fmt.Sprintf("%s (%s)", cell, p.StringFixed(2))
			}
			fmt.Fprint(tw, cell) //nolint:errcheck
		}
		fmt.Fprintln(tw) //nolint:errcheck
	}
	return tw.Flush()
}

func init() {
	sparesOrderCmd.Flags().StringVar(&sparesOrderFile, "file", "", "path to order request JSON (required)")
	_ = sparesOrderCmd.MarkFlagRequired("file")
	sparesOrdersCmd.Flags().StringVar(&sparesOrdersSelection, "selection", "", "only orders linked to this selection id")
	sparesCmd.AddCommand(sparesShowCmd, sparesTypesCmd, sparesOrderCmd, sparesOrdersCmd)
	rootCmd.AddCommand(sparesCmd)
}
