package commands

import (
	"github.com/spf13/cobra"
	"go.vellum.sh/vellum/internal/app"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Recompile the project on every source change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			kind, _ := cmd.Flags().GetString("kind")

			return c.app.Watch(cmd.Context(), dir, app.WatchOptions{
				Kind: kind,
			})
		},
	}
	cmd.Flags().StringP("kind", "k", "", "Recipe kind to compute (defaults to the document fingerprint)")
	return cmd
}
