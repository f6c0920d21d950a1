package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/pump-selector/internal/catalog"
	"github.com/sells-group/pump-selector/internal/fetcher"
	"github.com/sells-group/pump-selector/internal/model"
	"github.com/sells-group/pump-selector/internal/store"
)

var (
	datasetAssign []string
	datasetRole   string
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Manage uploaded catalog datasets",
}

var datasetImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a JSON, CSV, or XLSX catalog file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		roles, err := parseRoles(datasetAssign)
		if err != nil {
			return err
		}

		env, err := initPipeline(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		_, data, err := fetcher.ReadFile(args[0])
		if err != nil {
			return err
		}
		f, err := env.Pipeline.Import(ctx, args[0], data, roles...)
		if err != nil {
			return eris.Wrap(err, "import dataset")
		}
		return printJSON(cmd.OutOrStdout(), f.WithoutData())
	},
}

var datasetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored datasets",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initPipeline(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		files, err := env.Store.ListFiles(cmd.Context())
		if err != nil {
			return err
		}
		return writeFileTable(cmd.OutOrStdout(), files)
	},
}

var datasetAssignCmd = &cobra.Command{
	Use:   "assign <id>",
	Short: "Make a dataset the active one for a role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return changeRole(cmd, args[0], true)
	},
}

var datasetUnassignCmd = &cobra.Command{
	Use:   "unassign <id>",
	Short: "Clear a dataset's role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return changeRole(cmd, args[0], false)
	},
}

var datasetDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Pipeline.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		zap.L().Info("dataset deleted", zap.String("id", args[0]))
		return nil
	},
}

var datasetClassifyCmd = &cobra.Command{
	Use:   "classify <file>",
	Short: "Report how a catalog file would be classified, without storing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClassify(cmd, args[0])
	},
}

func changeRole(cmd *cobra.Command, id string, assign bool) error {
	roles, err := parseRoles([]string{datasetRole})
	if err != nil {
		return err
	}
	if len(roles) != 1 {
		return eris.Wrapf(store.ErrInvalidRole, "--role takes exactly one role, got %q", datasetRole)
	}
	env, err := initPipeline(cmd.Context(), "cli")
	if err != nil {
		return err
	}
	defer env.Close()

	if assign {
		err = env.Pipeline.Assign(cmd.Context(), id, roles[0])
	} else {
		err = env.Pipeline.Unassign(cmd.Context(), id, roles[0])
	}
	if err != nil {
		return err
	}
	f, err := env.Store.GetFile(cmd.Context(), id)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), f.WithoutData())
}

type classifyReport struct {
	File     string            `json:"file"`
	Format   fetcher.Format    `json:"format"`
	Kind     model.DatasetKind `json:"kind"`
	Rows     int               `json:"rows"`
	Columns  int               `json:"columns"`
	Headers  []string          `json:"headers"`
	Labelled bool              `json:"labelled"`
}

func runClassify(cmd *cobra.Command, path string) error {
	ds, format, err := catalog.LoadFile(cmd.Context(), path)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), classifyReport{
		File:     path,
		Format:   format,
		Kind:     catalog.Classify(ds),
		Rows:     ds.Len(),
		Columns:  len(ds.Columns),
		Headers:  ds.Headers(),
		Labelled: ds.Labelled(),
	})
}

func parseRoles(values []string) ([]model.DatasetRole, error) {
	var roles []model.DatasetRole
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			role := model.DatasetRole(part)
			if !role.Valid() {
				return nil, eris.Wrapf(store.ErrInvalidRole, "%q (want selection or spares)", part)
			}
			roles = append(roles, role)
		}
	}
	return roles, nil
}

func writeFileTable(w io.Writer, files []model.DatasetFile) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tKIND\tROWS\tSELECTION\tSPARES\tUPDATED") //nolint:errcheck
	for _, f := range files {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n", //nolint:errcheck
			f.ID, f.FileName, f.FileType, f.Kind, f.RowCount,
			mark(f.ForSelection), mark(f.ForSpares),
			f.UpdatedAt.Format("2006-01-02 15:04"),
		)
	}
	return tw.Flush()
}

func mark(b bool) string {
	if b {
		return "*"
	}
	return ""
}

func init() {
	datasetImportCmd.Flags().StringSliceVar(&datasetAssign, "assign", nil, "assign the imported file to roles (selection, spares)")
	for _, c := range []*cobra.Command{datasetAssignCmd, datasetUnassignCmd} {
		c.Flags().StringVar(&datasetRole, "role", "", "dataset role: selection or spares (required)")
		_ = c.MarkFlagRequired("role")
	}
	datasetCmd.AddCommand(datasetImportCmd, datasetListCmd, datasetAssignCmd, datasetUnassignCmd, datasetDeleteCmd, datasetClassifyCmd)
	rootCmd.AddCommand(datasetCmd)
}

