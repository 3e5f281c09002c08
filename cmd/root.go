package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tanq16/coursekeep/internal/app"
	"github.com/tanq16/coursekeep/internal/config"
	"github.com/tanq16/coursekeep/internal/course"
	"github.com/tanq16/coursekeep/internal/output"
	"github.com/tanq16/coursekeep/internal/utils"
)

var (
	configPath  string
	debug       bool
	workers     int
	connections int
	timeout     time.Duration
	downloadDir string
	cfg         *config.Config
)

var CourseKeepVersion = "dev"

var rootCmd = &cobra.Command{
	Use:     "coursekeep",
	Short:   "coursekeep keeps offline copies of course videos",
	Version: CourseKeepVersion,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		utils.InitLogger(debug)
		loaded, err := config.Load(configPath)
		if err != nil {
			output.PrintError(fmt.Sprintf("Error loading config: %v", err))
			os.Exit(1)
		}
		if !debug {
			utils.SetLogLevel(loaded.Log.Level)
		}
		flags := cmd.Flags()
		if flags.Changed("workers") {
			loaded.Workers = max(workers, 1)
		}
		if flags.Changed("connections") {
			loaded.Connections = max(connections, 1)
		}
		if flags.Changed("timeout") {
			loaded.Timeout = timeout
		}
		if flags.Changed("dir") {
			loaded.DownloadDir = downloadDir
		}
		cfg = loaded
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default is ./coursekeep.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().IntVarP(&workers, "workers", "w", 2, "Number of videos to download in parallel")
	rootCmd.PersistentFlags().IntVarP(&connections, "connections", "c", 4, "Number of connections per video download")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 3*time.Minute, "Connection timeout (eg. 5s, 10m)")
	rootCmd.PersistentFlags().StringVarP(&downloadDir, "dir", "d", ".", "Directory holding downloaded courses")

	rootCmd.AddCommand(newOutlineCmd())
	rootCmd.AddCommand(newDownloadCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newPullCmd())
	rootCmd.AddCommand(newCleanCmd())
}

// loadApp loads a manifest, wires it and starts its event loop on ctx.
func loadApp(ctx context.Context, manifestPath string) *app.Context {
	c, err := course.LoadManifest(manifestPath)
	if err != nil {
		output.PrintError(fmt.Sprintf("Error loading manifest: %v", err))
		os.Exit(1)
	}
	a, err := app.New(ctx, cfg, c)
	if err != nil {
		output.PrintError(fmt.Sprintf("Error preparing course: %v", err))
		os.Exit(1)
	}
	go a.Loop.Run(ctx)
	return a
}
