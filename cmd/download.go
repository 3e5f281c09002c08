package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tanq16/coursekeep/internal/events"
	"github.com/tanq16/coursekeep/internal/output"
)

func newDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download [MANIFEST] [SECTION...]",
		Short: "Download the videos of a course",
		Long: `Download every section of a course, or only the named sections.

Videos already on disk are skipped; interrupted downloads resume from their
temporary .part file.

Examples:
  coursekeep download course.yaml
  coursekeep download course.yaml week-1 week-2 --workers 4`,
		Args: cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			a := loadApp(ctx, args[0])

			manager := output.NewManager()
			var sub *events.Subscription
			a.Loop.Call(ctx, func() error {
				sub = a.Downloads.Subscribe(manager.HandleDownload)
				return nil
			})
			manager.StartDisplay()
			if err := a.Download(ctx, args[1:]...); err != nil {
				manager.StopDisplay()
				output.PrintError(fmt.Sprintf("Error: %v", err))
				os.Exit(1)
			}
			a.Wait()
			a.Loop.Call(ctx, func() error {
				sub.Cancel()
				return nil
			})
			manager.StopDisplay()
			if manager.Failures() > 0 {
				output.PrintError("Encountered failed download(s)")
				os.Exit(1)
			}
		},
	}
}
