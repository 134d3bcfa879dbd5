package release

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	githubRepo       = "Pure-D/serve-d"
	defaultAPIURL    = "https://api.github.com/repos/" + githubRepo + "/releases/latest"
	defaultUserAgent = "serve-d-launcher"

	// maxResponseBytes caps the metadata response size (10 MB).
	maxResponseBytes = 10 << 20
)

// Release is the published release the launcher installs from.
type Release struct {
	TagName string  `json:"tag_name"`
	Assets  []Asset `json:"assets"`
}

// Asset describes one downloadable file attached to a release. The download
// URL for the server archive is reconstructed from the tag rather than
// selected from this list, so assets are metadata only.
type Asset struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	Size               int64  `json:"size"`
	DownloadCount      int64  `json:"download_count"`
	BrowserDownloadURL string `json:"browser_download_url"`
	CreatedAt          string `json:"created_at"`
}

// Client fetches release metadata from the GitHub API.
type Client struct {
	httpClient *http.Client
	apiURL     string
	userAgent  string
}

// Option configures a Client during construction.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client, useful for tests or timeouts.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithAPIURL overrides the metadata endpoint, primarily for test servers.
func WithAPIURL(u string) Option {
	return func(cl *Client) {
		if u != "" {
			cl.apiURL = strings.TrimRight(u, "/")
		}
	}
}

// NewClient creates a Client pointed at the serve-d releases endpoint.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		apiURL:     defaultAPIURL,
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Latest fetches the most recent release tag and its asset descriptors.
// A network failure, non-200 status or undecodable body is fatal for the
// current bootstrap cycle; there is no retry and no stale fallback.
func (c *Client) Latest(ctx context.Context) (*Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("release: build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("release: fetch metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release: metadata request returned HTTP %d", resp.StatusCode)
	}

	var rel Release
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&rel); err != nil {
		return nil, fmt.Errorf("release: decode metadata: %w", err)
	}

	if rel.TagName == "" {
		return nil, fmt.Errorf("release: metadata missing tag name")
	}

	return &rel, nil
}
