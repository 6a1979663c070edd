package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/seqtag"
	"github.com/happyhackingspace/seqtag/internal/corpus"
)

func (c *CLI) newTagCommand() *cobra.Command {
	var modelPath string
	var proba bool

	cmd := &cobra.Command{
		Use:   "tag [corpusfile]",
		Short: "Label feature sequences from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		Example: `  seqtag tag input.txt --model model.json
  cat input.txt | seqtag tag
  seqtag tag input.txt --proba`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var sequences [][][]string
			var err error
			if len(args) == 1 {
				sequences, err = corpus.ReadUnlabeledFile(args[0])
			} else {
				sequences, err = corpus.ReadUnlabeled(os.Stdin)
			}
			if err != nil {
				return err
			}
			slog.Debug("Corpus read", "sequences", len(sequences))

			tagger, err := loadTagger(modelPath)
			if err != nil {
				return err
			}

			start := time.Now()
			out := json.NewEncoder(os.Stdout)
			for _, features := range sequences {
				if proba {
					marginals, err := tagger.TagMarginals(features)
					if err != nil {
						return err
					}
					if err := out.Encode(marginals); err != nil {
						return err
					}
					continue
				}
				labels, err := tagger.Tag(features)
				if err != nil {
					return err
				}
				if err := out.Encode(labels); err != nil {
					return err
				}
			}
			slog.Debug("Tagging completed", "sequences", len(sequences), "duration", time.Since(start))
			return nil
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "", "Path to model file (default: auto-detect model.json)")
	cmd.Flags().BoolVar(&proba, "proba", false, "Output per-position label probabilities instead of the best path")
	return cmd
}

func loadTagger(modelPath string) (*seqtag.Tagger, error) {
	if modelPath != "" {
		slog.Debug("Loading model", "path", modelPath)
		return seqtag.Load(modelPath)
	}
	tagger, err := seqtag.New()
	if err != nil {
		return nil, fmt.Errorf("no model found; train one with 'seqtag train' or pass --model: %w", err)
	}
	return tagger, nil
}
