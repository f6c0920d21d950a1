package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/pump-selector/internal/mirror"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize dataset files with the cloud mirror",
}

var syncPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload every local dataset file to the mirror",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initPipeline(cmd.Context(), "sync")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := mirror.PushAll(cmd.Context(), env.Mirror, env.Store, cfg.Mirror.Concurrency)
		if err != nil {
			return err
		}
		zap.L().Info("sync push complete",
			zap.Int("pushed", res.Pushed),
			zap.Int("failed", res.Failed),
		)
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var syncPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Merge the mirror's dataset files into the local store",
	Long:  `Merge the mirror's dataset files into the local store. Remote files win
when their updated_at is newer; role assignments stay local.

A running serve process keeps the datasets it loaded. It picks up pulled
files on restart, or when a file is assigned through
POST /api/datasets/{id}/assign.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initPipeline(cmd.Context(), "sync")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := mirror.Pull(cmd.Context(), env.Mirror, env.Store)
		if err != nil {
			return err
		}
		if res.Added+res.Updated > 0 {
			zap.L().Info("sync pull stored remote files; restart serve or reassign a dataset to load them",
				zap.Int("added", res.Added),
				zap.Int("updated", res.Updated),
			)
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	syncCmd.AddCommand(syncPushCmd, syncPullCmd)
	rootCmd.AddCommand(syncCmd)
}
