package cli

import (
	"context"
	"fmt"
	"os"

	"codeduel/internal/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewSeedCmd bulk-loads questions from a YAML list.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Add questions from a YAML file to the pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := runSeed(cmd.Context(), *configPath, file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %d question(s)\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "config/questions.yaml", "YAML list of questions")
	return cmd
}

func readQuestions(path string) ([]domain.NewQuestion, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var batch []domain.NewQuestion
	if err := yaml.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return batch, nil
}

func runSeed(ctx context.Context, configPath, file string) (int, error) {
	batch, err := readQuestions(file)
	if err != nil {
		return 0, err
	}
	rt, err := buildRuntime(ctx, configPath)
	if err != nil {
		return 0, err
	}
	defer rt.Close()
	return rt.questionService().AddAll(ctx, batch)
}
