package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"patternweb/playground/pkg/config"
	"patternweb/playground/pkg/telemetry/tracing"
)

// maxGistBytes bounds gist metadata and file bodies.
const maxGistBytes = 8 << 20

var (
	// ErrNoFiles is returned when a gist has no usable files.
	ErrNoFiles = errors.New("gist has no files")

	// ErrNoRawURL is returned when the selected file carries no raw_url.
	ErrNoRawURL = errors.New("gist file has no raw_url")

	// ErrInvalidGistID is returned for empty or malformed ids.
	ErrInvalidGistID = errors.New("invalid gist id")
)

// GistFile is the file picked out of a gist.
type GistFile struct {
	Name    string
	Content string
}

// GistFetcher retrieves the first file of a gist.
type GistFetcher interface {
	Fetch(ctx context.Context, id string) (GistFile, error)

	// Transport names the fetch mechanism for logs and traces.
	Transport() string
}

// NewGistFetcher builds the fetcher selected by cfg.Transport.
func NewGistFetcher(cfg config.GistConfig) GistFetcher {
	if cfg.Transport == "git" {
		return NewGitGistFetcher(cfg.GitBaseURL, cfg.Token, cfg.Timeout)
	}
	return NewAPIGistFetcher(cfg.APIBaseURL, cfg.Token, &http.Client{Timeout: cfg.Timeout})
}

func validGistID(id string) bool {
	if id == "" || len(id) > 128 {
		return false
	}
	for _, r := range id {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

// APIGistFetcher reads gist metadata from the REST API and then downloads
// the raw content of the first listed file.
type APIGistFetcher struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewAPIGistFetcher creates a REST fetcher. A nil client uses a client with
// the default gist timeout.
func NewAPIGistFetcher(baseURL, token string, client *http.Client) *APIGistFetcher {
	if client == nil {
		client = &http.Client{Timeout: config.DefaultGistTimeout}
	}
	return &APIGistFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  client,
	}
}

// Transport implements GistFetcher.
func (f *APIGistFetcher) Transport() string { return "api" }

// Fetch implements GistFetcher. The first entry of the files object in
// document order is used; the API does not promise any ordering.
func (f *APIGistFetcher) Fetch(ctx context.Context, id string) (GistFile, error) {
	if !validGistID(id) {
		return GistFile{}, fmt.Errorf("%w: %q", ErrInvalidGistID, id)
	}

	meta, err := f.get(ctx, f.baseURL+"/gists/"+url.PathEscape(id), true)
	if err != nil {
		return GistFile{}, fmt.Errorf("failed to fetch gist metadata: %w", err)
	}

	files := gjson.GetBytes(meta, "files")
	if !files.IsObject() {
		return GistFile{}, ErrNoFiles
	}

	var name string
	var first gjson.Result
	files.ForEach(func(key, value gjson.Result) bool {
		name, first = key.String(), value
		return false
	})
	if !first.Exists() {
		return GistFile{}, ErrNoFiles
	}

	rawURL := first.Get("raw_url").String()
	if rawURL == "" {
		return GistFile{}, fmt.Errorf("%w: %s", ErrNoRawURL, name)
	}

	body, err := f.get(ctx, rawURL, false)
	if err != nil {
		return GistFile{}, fmt.Errorf("failed to fetch gist file %q: %w", name, err)
	}
	return GistFile{Name: name, Content: string(body)}, nil
}

func (f *APIGistFetcher) get(ctx context.Context, target string, api bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	if api {
		req.Header.Set("Accept", "application/vnd.github+json")
		if f.token != "" {
			req.Header.Set("Authorization", "Bearer "+f.token)
		}
	}
	tracing.Inject(ctx, req.Header)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxGistBytes))
}

// gistTimeout bounds a fetch when the caller has no deadline.
func gistTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
