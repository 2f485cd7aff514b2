package source

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/memory"
)

// GitGistFetcher clones the gist repository into memory and reads the
// first file of its tree. Tree entries are sorted by name, so the pick is
// deterministic.
type GitGistFetcher struct {
	baseURL string
	token   string
	timeout time.Duration
}

// NewGitGistFetcher creates a clone-based fetcher. baseURL may also be a
// local directory holding <id>.git repositories.
func NewGitGistFetcher(baseURL, token string, timeout time.Duration) *GitGistFetcher {
	return &GitGistFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		timeout: timeout,
	}
}

// Transport implements GistFetcher.
func (f *GitGistFetcher) Transport() string { return "git" }

// Fetch implements GistFetcher.
func (f *GitGistFetcher) Fetch(ctx context.Context, id string) (GistFile, error) {
	if !validGistID(id) {
		return GistFile{}, fmt.Errorf("%w: %q", ErrInvalidGistID, id)
	}

	ctx, cancel := gistTimeout(ctx, f.timeout)
	defer cancel()

	remote := f.baseURL + "/" + id + ".git"
	opts := &gogit.CloneOptions{URL: remote}
	if strings.HasPrefix(remote, "http://") || strings.HasPrefix(remote, "https://") {
		opts.Depth = 1
		if f.token != "" {
			opts.Auth = &http.BasicAuth{Username: "git", Password: f.token}
		}
	}

	fs := memfs.New()
	repo, err := gogit.CloneContext(ctx, memory.NewStorage(), fs, opts)
	if err != nil {
		return GistFile{}, fmt.Errorf("failed to clone gist: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return GistFile{}, fmt.Errorf("failed to get HEAD: %w", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return GistFile{}, fmt.Errorf("failed to get commit: %w", err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return GistFile{}, fmt.Errorf("failed to get tree: %w", err)
	}

	for _, entry := range tree.Entries {
		if !entry.Mode.IsFile() {
			continue
		}
		file, err := fs.Open(entry.Name)
		if err != nil {
			return GistFile{}, fmt.Errorf("failed to open %q: %w", entry.Name, err)
		}
		defer file.Close()

		body, err := io.ReadAll(io.LimitReader(file, maxGistBytes))
		if err != nil {
			return GistFile{}, fmt.Errorf("failed to read %q: %w", entry.Name, err)
		}
		return GistFile{Name: entry.Name, Content: string(body)}, nil
	}
	return GistFile{}, ErrNoFiles
}
