package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tanq16/coursekeep/internal/output"
	"github.com/tanq16/coursekeep/internal/repo"
)

func newPullCmd() *cobra.Command {
	var outputPath string
	var token string
	var sshKey string
	var depth int

	cmd := &cobra.Command{
		Use:   "pull [REPO_URL]",
		Short: "Clone or update a repository of course manifests",
		Long: `Clone a repository of course manifests, or pull it when it was cloned before.

Authentication:
  - --token (or access_token in the config) for GitHub, GitLab and Bitbucket
  - --ssh-key for SSH remotes`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if token == "" {
				token = cfg.AccessToken
			}
			dir, err := repo.Pull(cmd.Context(), repo.Options{
				URL:      args[0],
				Dir:      outputPath,
				Token:    token,
				SSHKey:   sshKey,
				Depth:    depth,
				Progress: func(line string) { fmt.Println("  " + output.FDebug(line)) },
			})
			if err != nil {
				output.PrintError(fmt.Sprintf("Error: %v", err))
				os.Exit(1)
			}
			output.PrintSuccess(fmt.Sprintf("Manifests ready in %s", dir))
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output directory path")
	cmd.Flags().StringVar(&token, "token", "", "Access token for HTTPS remotes")
	cmd.Flags().StringVar(&sshKey, "ssh-key", "", "Path to an SSH private key")
	cmd.Flags().IntVar(&depth, "depth", 1, "Clone depth (0 for full history)")
	return cmd
}
