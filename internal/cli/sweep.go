package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewSweepCmd finalizes every due contest once and exits.
func NewSweepCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Finalize expired contests once",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := runSweep(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "finalized %d contest(s)\n", n)
			return nil
		},
	}
}

func runSweep(ctx context.Context, configPath string) (int, error) {
	rt, err := buildRuntime(ctx, configPath)
	if err != nil {
		return 0, err
	}
	defer rt.Close()
	return rt.finalizer(rt.contestService()).RunOnce(ctx)
}
