package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/seqtag"
	"github.com/happyhackingspace/seqtag/crf"
	"github.com/happyhackingspace/seqtag/internal/corpus"
)

func (c *CLI) newEvaluateCommand() *cobra.Command {
	var dataFile string
	var cvFolds int
	var configFile string

	cmd := &cobra.Command{
		Use:     "evaluate",
		Short:   "Evaluate tagging accuracy via cross-validation",
		Example: `  seqtag evaluate --data corpus.txt --cv 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			trainer := crf.DefaultTrainerConfig()
			if configFile != "" {
				if err := loadTrainConfig(configFile, &trainer); err != nil {
					return err
				}
			}

			examples, err := corpus.ReadFile(dataFile)
			if err != nil {
				return err
			}
			slog.Info("Evaluating", "folds", cvFolds, "data", dataFile, "sequences", len(examples))

			start := time.Now()
			result, err := seqtag.Evaluate(examples, &seqtag.EvalConfig{
				Folds:   cvFolds,
				Trainer: trainer,
			})
			if err != nil {
				return err
			}
			slog.Debug("Evaluation completed", "duration", time.Since(start))

			fmt.Printf("Token accuracy: %.1f%% (%d/%d)\n",
				result.TokenAccuracy*100, result.TokenCorrect, result.TokenTotal)
			fmt.Printf("Sequence accuracy: %.1f%% (%d/%d)\n",
				result.SequenceAccuracy*100, result.SequenceCorrect, result.SequenceTotal)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataFile, "data", "corpus.txt", "Path to the labeled corpus file")
	cmd.Flags().IntVar(&cvFolds, "cv", 10, "Number of cross-validation folds")
	cmd.Flags().StringVar(&configFile, "config", "", "Path to a YAML training config file")
	return cmd
}
