// Package github provides a fetcher for standards published as markdown
// in GitHub repositories (OWASP, CIS, and similar community frameworks).
package github

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/vigil-cli/internal/core/domain"
	"github.com/custodia-labs/vigil-cli/internal/core/ports/driven"
)

// Ensure Fetcher implements the interface.
var _ driven.Fetcher = (*Fetcher)(nil)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// maxFileSize skips blobs above 1MB; standards documents are text.
	maxFileSize = 1024 * 1024
)

// defaultFilePatterns selects the markdown files standards are written in.
var defaultFilePatterns = []string{"*.md", "*.markdown"}

// Config holds configuration for the GitHub fetcher.
type Config struct {
	// Repos maps a standard source name to the "owner/repo" that
	// publishes it, e.g. "OWASP Top 10" -> "OWASP/Top10". Sources
	// without a mapping are skipped by this fetcher.
	Repos map[string]string

	// Token is an optional access token. Anonymous access works but is
	// limited to 60 requests/hour.
	Token string

	// FilePatterns filters repository files (default: *.md, *.markdown).
	FilePatterns []string
}

// Fetcher retrieves standards documents from GitHub repositories.
type Fetcher struct {
	gh       *gh.Client
	limiter  *rateLimiter
	repos    map[string]string
	patterns []string
}

// NewFetcher creates a new GitHub fetcher.
func NewFetcher(ctx context.Context, cfg Config) *Fetcher {
	var httpClient *http.Client
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(ctx, ts)
		httpClient.Timeout = DefaultTimeout
	} else {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	patterns := cfg.FilePatterns
	if len(patterns) == 0 {
		patterns = defaultFilePatterns
	}

	return &Fetcher{
		gh:       gh.NewClient(httpClient),
		limiter:  newRateLimiter(),
		repos:    cfg.Repos,
		patterns: patterns,
	}
}

// Name identifies the fetcher.
func (f *Fetcher) Name() string {
	return "github"
}

// Fetch retrieves markdown documents from the repository mapped to the
// source. Sources without a repository mapping yield no documents.
func (f *Fetcher) Fetch(ctx context.Context, source domain.StandardSource, limit int) ([]domain.FetchedDocument, error) {
	spec, ok := f.repos[source.Name]
	if !ok {
		return nil, nil
	}

	owner, repo, err := splitRepoSpec(spec)
	if err != nil {
		return nil, err
	}

	branch, err := f.defaultBranch(ctx, owner, repo)
	if err != nil {
		return nil, err
	}

	tree, err := f.tree(ctx, owner, repo, branch)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var docs []domain.FetchedDocument
	for _, entry := range tree.Entries {
		if limit > 0 && len(docs) >= limit {
			break
		}
		if entry.GetType() != "blob" {
			continue
		}
		path := entry.GetPath()
		if !matchesPatterns(path, f.patterns) {
			continue
		}
		if entry.GetSize() > maxFileSize {
			continue
		}

		content, err := f.blobContent(ctx, owner, repo, entry.GetSHA())
		if err != nil {
			// Skip files we can't read
			continue
		}

		docs = append(docs, domain.FetchedDocument{
			Title:     fmt.Sprintf("%s - %s", source.Name, path),
			SourceURL: fmt.Sprintf("https://github.com/%s/%s/blob/%s/%s", owner, repo, branch, path),
			Text:      content,
			Source:    f.Name(),
			FetchedAt: now,
		})
	}

	return docs, nil
}

// defaultBranch looks up the repository's default branch.
func (f *Fetcher) defaultBranch(ctx context.Context, owner, repo string) (string, error) {
	if err := f.limiter.wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	repository, resp, err := f.gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return "", f.wrapError(err, "get repo")
	}
	f.updateRateLimit(resp)

	return repository.GetDefaultBranch(), nil
}

// tree fetches the entire repository tree recursively. One API call
// returns every file path.
func (f *Fetcher) tree(ctx context.Context, owner, repo, branch string) (*gh.Tree, error) {
	if err := f.limiter.wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	tree, resp, err := f.gh.Git.GetTree(ctx, owner, repo, branch, true)
	if err != nil {
		return nil, f.wrapError(err, "get tree")
	}
	f.updateRateLimit(resp)

	return tree, nil
}

// blobContent fetches and decodes a blob by SHA.
func (f *Fetcher) blobContent(ctx context.Context, owner, repo, sha string) (string, error) {
	if err := f.limiter.wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	blob, resp, err := f.gh.Git.GetBlob(ctx, owner, repo, sha)
	if err != nil {
		return "", f.wrapError(err, "get blob")
	}
	f.updateRateLimit(resp)

	if blob.GetEncoding() == "base64" {
		decoded, err := decodeBase64Blob(blob.GetContent())
		if err != nil {
			return "", fmt.Errorf("decode blob %s: %w", sha, err)
		}
		return decoded, nil
	}
	return blob.GetContent(), nil
}

// updateRateLimit feeds GitHub's response headers to the limiter.
func (f *Fetcher) updateRateLimit(resp *gh.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	f.limiter.updateFromResponse(resp.Response)
}

// wrapError converts go-github errors to domain error types.
func (f *Fetcher) wrapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return fmt.Errorf("github %s: %w", operation, domain.ErrRateLimited)
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("github %s: %s: %w", operation, ghErr.Message, domain.ErrNotFound)
	}

	return fmt.Errorf("github %s: %w", operation, err)
}

// decodeBase64Blob decodes blob content. The API returns base64 with
// embedded newlines, which the decoder rejects.
func decodeBase64Blob(content string) (string, error) {
	cleaned := strings.ReplaceAll(content, "\n", "")
	decoded, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// splitRepoSpec splits "owner/repo" into its parts.
func splitRepoSpec(spec string) (owner, repo string, err error) {
	parts := strings.SplitN(spec, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository %q, want owner/repo: %w", spec, domain.ErrInvalidInput)
	}
	return parts[0], parts[1], nil
}

// matchesPatterns checks if a path matches any of the glob patterns.
func matchesPatterns(path string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, filepath.Base(path))
		if err == nil && matched {
			return true
		}
	}
	return false
}
