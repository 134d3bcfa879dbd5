// Package installer fetches a serve-d release archive and unpacks it into
// the working directory.
package installer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dlang-community/serve-d-launcher/internal/platform"
)

const defaultDownloadBase = "https://github.com/Pure-D/serve-d/releases/download"

// ProgressFunc receives the count of downloaded bytes and the expected
// total (-1 when the server does not announce a length).
type ProgressFunc func(downloaded, total int64)

// DownloadError reports a non-200 response while fetching the archive.
type DownloadError struct {
	URL    string
	Status int
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("installer: fetching archive failed with HTTP %d (%s)", e.Status, e.URL)
}

// Installer downloads and unpacks release archives. Downloads are single
// attempt; a failed or partial install leaves the directory as-is for the
// next bootstrap cycle to reconcile.
type Installer struct {
	httpClient   *http.Client
	downloadBase string
	progress     ProgressFunc
}

// Option configures an Installer during construction.
type Option func(*Installer)

// WithHTTPClient sets a custom HTTP client, useful for tests or timeouts.
func WithHTTPClient(c *http.Client) Option {
	return func(i *Installer) {
		if c != nil {
			i.httpClient = c
		}
	}
}

// WithDownloadBase overrides the release download base URL, primarily for
// test servers.
func WithDownloadBase(base string) Option {
	return func(i *Installer) {
		if base != "" {
			i.downloadBase = strings.TrimRight(base, "/")
		}
	}
}

// WithProgress registers a download progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(i *Installer) {
		i.progress = fn
	}
}

// New creates an Installer.
func New(opts ...Option) *Installer {
	i := &Installer{
		httpClient:   http.DefaultClient,
		downloadBase: defaultDownloadBase,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// DownloadURL builds the deterministic archive URL for a release tag and
// platform. The tag appears twice: once as the release path segment and
// once inside the archive filename, both verbatim.
func (i *Installer) DownloadURL(tag string, arch platform.Arch, osToken platform.OS) string {
	return fmt.Sprintf("%s/%s/serve-d_%s-%s-%s.%s",
		i.downloadBase, tag, tag, arch, osToken, FormatFor(osToken).Ext())
}

// Install downloads the archive for (tag, arch, os) and unpacks it into
// dir. Any failure is fatal for the current bootstrap cycle.
func (i *Installer) Install(ctx context.Context, tag string, arch platform.Arch, osToken platform.OS, dir string) error {
	url := i.DownloadURL(tag, arch, osToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("installer: build request: %w", err)
	}

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("installer: download archive: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &DownloadError{URL: url, Status: resp.StatusCode}
	}

	body := i.wrapProgress(resp.Body, resp.ContentLength)
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("installer: read archive body: %w", err)
	}

	return FormatFor(osToken).Unpack(data, dir)
}

func (i *Installer) wrapProgress(r io.Reader, total int64) io.Reader {
	if i.progress == nil {
		return r
	}
	return &progressReader{r: r, total: total, report: i.progress}
}

type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	report ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		p.report(p.read, p.total)
	}
	return n, err
}
