package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tanq16/coursekeep/internal/output"
)

func newOutlineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "outline [MANIFEST]",
		Short: "Show the sections of a course and their download state",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			a := loadApp(ctx, args[0])
			err := a.Loop.Call(ctx, func() error {
				output.RenderOutline(os.Stdout, a.Outline.Header, a.Outline.Sections())
				return nil
			})
			if err != nil {
				output.PrintError(fmt.Sprintf("Error rendering outline: %v", err))
				os.Exit(1)
			}
		},
	}
}
