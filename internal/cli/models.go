package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/seqtag"
	"github.com/happyhackingspace/seqtag/crf"
	"github.com/happyhackingspace/seqtag/internal/modelstore"
)

func (c *CLI) newModelsCommand() *cobra.Command {
	var dbPath string

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "Manage the SQLite model registry",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}
	modelsCmd.PersistentFlags().StringVar(&dbPath, "db", "models.db", "Path to the registry database")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored models",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := modelstore.Open(dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			infos, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Println("No models stored.")
				return nil
			}
			fmt.Printf("%-24s %10s %8s  %s\n", "name", "features", "labels", "created")
			for _, info := range infos {
				fmt.Printf("%-24s %10d %8d  %s\n",
					info.Name, info.NumFeatures, info.NumLabels,
					info.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}

	saveCmd := &cobra.Command{
		Use:     "save <name> <modelfile>",
		Short:   "Store a model file in the registry under a name",
		Args:    cobra.ExactArgs(2),
		Example: `  seqtag models save ner-en model.json --db models.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, modelPath := args[0], args[1]

			tagger, err := seqtag.Load(modelPath)
			if err != nil {
				return err
			}
			snap, err := tagger.Model().Export()
			if err != nil {
				return err
			}

			store, err := modelstore.Open(dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Save(cmd.Context(), name, snap); err != nil {
				return err
			}
			slog.Info("Model stored", "name", name, "db", dbPath)
			return nil
		},
	}

	loadCmd := &cobra.Command{
		Use:     "load <name> <modelfile>",
		Short:   "Write a stored model out to a model file",
		Args:    cobra.ExactArgs(2),
		Example: `  seqtag models load ner-en model.json --db models.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, modelPath := args[0], args[1]

			store, err := modelstore.Open(dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			snap, err := store.Load(cmd.Context(), name)
			if err != nil {
				return err
			}
			model := crf.NewModel()
			if err := model.ImportSnapshot(snap); err != nil {
				return err
			}
			tagger, err := seqtag.FromModel(model)
			if err != nil {
				return err
			}
			if err := tagger.Save(modelPath); err != nil {
				return err
			}
			slog.Info("Model written", "name", name, "path", modelPath)
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a stored model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := modelstore.Open(dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			slog.Info("Model deleted", "name", args[0])
			return nil
		},
	}

	modelsCmd.AddCommand(listCmd, saveCmd, loadCmd, deleteCmd)
	return modelsCmd
}
