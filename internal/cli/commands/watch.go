package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/schemadoc/internal/engine"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-validate whenever a local source changes",
		Long: `Validate once, then watch the local schema and documentation files and
validate again after every change. URLs are fetched on each run but not
watched. Stop with Ctrl+C.`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
	cmd.Flags().Duration("debounce", engine.DefaultDebounce, "Quiet period after a change before validating")
	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cc := NewCommandContext(cmd)
	if err := cc.Cfg.ValidateSources(); err != nil {
		return err
	}
	debounce, _ := cmd.Flags().GetDuration("debounce")

	eng, cleanup, err := cc.NewEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	return eng.Watch(cmd.Context(), debounce, func(context.Context) error {
		err := cc.validate(cmd, eng)
		if errors.Is(err, ErrViolations) {
			return nil
		}
		return err
	})
}
