package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/pump-selector/internal/model"
)

var (
	selectAnswers []string
	selectFile    string
	selectNoSave  bool
)

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Match questionnaire answers against the active dataset",
	Example: `  pump-selector select --answer purpose=Domestic --answer location=House \
    --answer source=home --answer delivery=floor1 --answer usage=500L-30min \
    --answer phase=220 --answer quality=Clean`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		answers, err := loadAnswers(selectFile, selectAnswers)
		if err != nil {
			return err
		}

		env, err := initPipeline(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		if selectNoSave {
			return printJSON(cmd.OutOrStdout(), env.Pipeline.Selector().Submit(ctx, answers))
		}
		res, rec, err := env.Pipeline.Submit(ctx, answers)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"selection_id": rec.ID,
			"result":       res,
		})
	},
}

var selectHistoryLimit int

var selectHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent selections",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initPipeline(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		recs, err := env.Store.ListSelections(cmd.Context(), selectHistoryLimit)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), recs)
	},
}

// loadAnswers merges answers from a JSON object file and key=value flags.
// Flags override the file.
func loadAnswers(path string, pairs []string) (model.Answers, error) {
	answers := model.Answers{}
	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
		if err != nil {
			return nil, eris.Wrapf(err, "read answers %s", path)
		}
		if err := json.Unmarshal(data, &answers); err != nil {
			return nil, eris.Wrapf(err, "parse answers %s", path)
		}
	}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, eris.Errorf("answer %q must be key=value", p)
		}
		answers[k] = strings.TrimSpace(v)
	}
	if len(answers) == 0 {
		return nil, eris.New("no answers given (use --answer or --file)")
	}
	return answers, nil
}

func init() {
	selectCmd.Flags().StringArrayVar(&selectAnswers, "answer", nil, "questionnaire answer as key=value (repeatable)")
	selectCmd.Flags().StringVar(&selectFile, "file", "", "JSON object of answers")
	selectCmd.Flags().BoolVar(&selectNoSave, "dry-run", false, "match without recording the selection")
	selectHistoryCmd.Flags().IntVar(&selectHistoryLimit, "limit", 20, "number of selections to show")
	selectCmd.AddCommand(selectHistoryCmd)
	rootCmd.AddCommand(selectCmd)
}
