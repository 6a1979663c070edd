package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/happyhackingspace/seqtag"
	"github.com/happyhackingspace/seqtag/crf"
	"github.com/happyhackingspace/seqtag/internal/corpus"
)

// trainFileConfig mirrors the trainer hyperparameters in a YAML config
// file; absent fields keep their defaults.
type trainFileConfig struct {
	LearningRate   *float64 `yaml:"learning_rate"`
	MaxIterations  *int     `yaml:"max_iterations"`
	Regularization *float64 `yaml:"regularization"`
	Tolerance      *float64 `yaml:"tolerance"`
}

func loadTrainConfig(path string, trainer *crf.TrainerConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var fc trainFileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if fc.LearningRate != nil {
		trainer.LearningRate = *fc.LearningRate
	}
	if fc.MaxIterations != nil {
		trainer.MaxIterations = *fc.MaxIterations
	}
	if fc.Regularization != nil {
		trainer.Regularization = *fc.Regularization
	}
	if fc.Tolerance != nil {
		trainer.Tolerance = *fc.Tolerance
	}
	return nil
}

func (c *CLI) newTrainCommand() *cobra.Command {
	var dataFile string
	var configFile string
	trainer := crf.DefaultTrainerConfig()

	cmd := &cobra.Command{
		Use:   "train <modelfile>",
		Short: "Train a model on a labeled corpus",
		Args:  cobra.ExactArgs(1),
		Example: `  seqtag train model.json --data corpus.txt
  seqtag train model.json --data corpus.txt --config train.yaml
  seqtag train model.json --data corpus.txt --iterations 500 -v`,
		RunE: func(cmd *cobra.Command, args []string) error {
			modelPath := args[0]

			// Explicit flags win over the config file.
			if configFile != "" {
				fromFile := trainer
				if err := loadTrainConfig(configFile, &fromFile); err != nil {
					return err
				}
				if !cmd.Flags().Changed("learning-rate") {
					trainer.LearningRate = fromFile.LearningRate
				}
				if !cmd.Flags().Changed("iterations") {
					trainer.MaxIterations = fromFile.MaxIterations
				}
				if !cmd.Flags().Changed("l2") {
					trainer.Regularization = fromFile.Regularization
				}
				if !cmd.Flags().Changed("tolerance") {
					trainer.Tolerance = fromFile.Tolerance
				}
			}

			examples, err := corpus.ReadFile(dataFile)
			if err != nil {
				return err
			}
			slog.Info("Training CRF", "data", dataFile, "sequences", len(examples), "output", modelPath)

			trainer.Progress = func(iter int, ll float64) {
				if iter%10 == 0 {
					slog.Info("Training progress", "iteration", iter, "log_likelihood", ll)
				}
			}

			start := time.Now()
			tagger, err := seqtag.Train(examples, &seqtag.TrainConfig{Trainer: trainer})
			if err != nil {
				return err
			}
			slog.Debug("Training completed", "duration", time.Since(start))

			if err := tagger.Save(modelPath); err != nil {
				return err
			}
			slog.Info("Model saved", "path", modelPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataFile, "data", "corpus.txt", "Path to the labeled corpus file")
	cmd.Flags().StringVar(&configFile, "config", "", "Path to a YAML training config file")
	cmd.Flags().Float64Var(&trainer.LearningRate, "learning-rate", trainer.LearningRate, "Gradient ascent learning rate")
	cmd.Flags().IntVar(&trainer.MaxIterations, "iterations", trainer.MaxIterations, "Iteration cap")
	cmd.Flags().Float64Var(&trainer.Regularization, "l2", trainer.Regularization, "L2 regularization coefficient")
	cmd.Flags().Float64Var(&trainer.Tolerance, "tolerance", trainer.Tolerance, "Log-likelihood convergence tolerance")
	return cmd
}
