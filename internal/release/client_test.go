package release

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLatest(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "application/vnd.github+json" {
			t.Errorf("Accept header = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"tag_name": "v0.7.4",
			"assets": [
				{
					"id": 101,
					"name": "serve-d_v0.7.4-x86_64-linux.tar.xz",
					"size": 4096,
					"download_count": 12,
					"browser_download_url": "https://example.com/a.tar.xz",
					"created_at": "2023-01-15T10:00:00Z"
				}
			]
		}`))
	}))
	defer srv.Close()

	client := NewClient(WithAPIURL(srv.URL))
	rel, err := client.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}

	if rel.TagName != "v0.7.4" {
		t.Errorf("TagName = %q, want %q", rel.TagName, "v0.7.4")
	}
	if len(rel.Assets) != 1 {
		t.Fatalf("len(Assets) = %d, want 1", len(rel.Assets))
	}
	asset := rel.Assets[0]
	if asset.ID != 101 || asset.Size != 4096 || asset.DownloadCount != 12 {
		t.Errorf("asset fields = %+v", asset)
	}
}

func TestLatestNonOKStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(WithAPIURL(srv.URL))
	if _, err := client.Latest(context.Background()); err == nil {
		t.Fatal("expected error for HTTP 403")
	}
}

func TestLatestMalformedBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	client := NewClient(WithAPIURL(srv.URL))
	if _, err := client.Latest(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestLatestMissingTag(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"assets": []}`))
	}))
	defer srv.Close()

	client := NewClient(WithAPIURL(srv.URL))
	if _, err := client.Latest(context.Background()); err == nil {
		t.Fatal("expected error for missing tag name")
	}
}

func TestLatestConnectionRefused(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(WithAPIURL(srv.URL))
	if _, err := client.Latest(context.Background()); err == nil {
		t.Fatal("expected error for unreachable server")
	}
}
