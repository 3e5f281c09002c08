package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tanq16/coursekeep/internal/outline"
	"github.com/tanq16/coursekeep/internal/output"
)

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [MANIFEST] [SECTION]",
		Short: "Delete the downloaded videos of a fully downloaded section",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			a := loadApp(ctx, args[0])
			sectionID := args[1]
			err := a.Loop.Call(ctx, func() error {
				row, ok := a.Outline.Row(sectionID)
				if !ok {
					return fmt.Errorf("unknown section %s", sectionID)
				}
				action := row.DeleteAction(outline.Trailing)
				if action == nil {
					return outline.ErrNotDownloaded
				}
				return action.Run(ctx)
			})
			if err != nil {
				output.PrintError(fmt.Sprintf("Error: %v", err))
				os.Exit(1)
			}
			output.PrintSuccess(fmt.Sprintf("Deleted downloads of %s", sectionID))
		},
	}
}
