package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"github.com/rs/zerolog/log"
)

type Options struct {
	URL      string
	Dir      string
	Token    string
	SSHKey   string
	Depth    int
	Progress func(string)
}

type progressWriter struct {
	fn func(string)
}

func (p *progressWriter) Write(data []byte) (int, error) {
	if msg := strings.TrimSpace(string(data)); msg != "" && p.fn != nil {
		p.fn(msg)
	}
	return len(data), nil
}

// Pull clones a manifest repository into opts.Dir, or pulls it when the
// directory already holds a clone. It returns the directory used.
func Pull(ctx context.Context, opts Options) (string, error) {
	dir := opts.Dir
	if dir == "" {
		name, err := Name(opts.URL)
		if err != nil {
			return "", err
		}
		dir = name
	}
	auth, err := authMethod(opts.URL, opts.Token, opts.SSHKey)
	if err != nil {
		return "", err
	}
	progress := &progressWriter{fn: opts.Progress}

	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		r, err := git.PlainOpen(dir)
		if err != nil {
			return "", fmt.Errorf("error opening %s: %w", dir, err)
		}
		wt, err := r.Worktree()
		if err != nil {
			return "", fmt.Errorf("error reading worktree: %w", err)
		}
		err = wt.PullContext(ctx, &git.PullOptions{Auth: auth, Progress: progress, Depth: opts.Depth})
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			log.Info().Str("op", "repo/git").Msgf("%s already up to date", dir)
			return dir, nil
		}
		if err != nil {
			return "", fmt.Errorf("git pull failed: %w", err)
		}
		log.Info().Str("op", "repo/git").Msgf("pulled %s", dir)
		return dir, nil
	}

	if err := os.MkdirAll(filepath.Dir(dir), 0755); err != nil {
		return "", fmt.Errorf("error creating output directory: %w", err)
	}
	_, err = git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:      opts.URL,
		Auth:     auth,
		Depth:    opts.Depth,
		Progress: progress,
	})
	if err != nil {
		return "", fmt.Errorf("git clone failed: %w", err)
	}
	log.Info().Str("op", "repo/git").Msgf("cloned %s into %s", opts.URL, dir)
	return dir, nil
}

// Name is the last path element of a repository URL without ".git".
func Name(url string) (string, error) {
	url = strings.TrimSpace(url)
	url = strings.TrimSuffix(url, "/")
	url = strings.TrimSuffix(url, ".git")
	i := strings.LastIndexAny(url, "/:")
	if i < 0 || i == len(url)-1 {
		return "", fmt.Errorf("invalid repository URL %q", url)
	}
	return url[i+1:], nil
}

// authMethod returns nil for anonymous access.
func authMethod(repoURL, token, sshKey string) (transport.AuthMethod, error) {
	if token != "" {
		switch {
		case strings.Contains(repoURL, "github.com"), strings.Contains(repoURL, "gitlab.com"):
			return &http.BasicAuth{Username: "oauth2", Password: token}, nil
		case strings.Contains(repoURL, "bitbucket.org"):
			return &http.BasicAuth{Username: "x-token-auth", Password: token}, nil
		default:
			return &http.TokenAuth{Token: token}, nil
		}
	}
	if sshKey != "" {
		keys, err := ssh.NewPublicKeysFromFile("git", sshKey, "")
		if err != nil {
			return nil, fmt.Errorf("couldn't load SSH key: %w", err)
		}
		return keys, nil
	}
	log.Debug().Str("op", "repo/git").Msg("no authentication configured")
	return nil, nil
}
