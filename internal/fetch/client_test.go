package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testClient(efetchURL, oaURL string) *Client {
	c := NewClient(efetchURL, oaURL, time.Millisecond, nil)
	return c
}

func TestArticleXML_StripsPrefix(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte("<article/>"))
	}))
	defer srv.Close()

	c := testClient(srv.URL, "")
	src, err := c.ArticleXML(context.Background(), "PMC176545")
	if err != nil {
		t.Fatalf("ArticleXML failed: %v", err)
	}
	if src != "<article/>" {
		t.Errorf("unexpected body %q", src)
	}
	if !strings.Contains(gotQuery, "id=176545") {
		t.Errorf("expected PMC prefix stripped, got query %q", gotQuery)
	}
	if !strings.Contains(gotQuery, "db=pmc") {
		t.Errorf("expected db=pmc, got query %q", gotQuery)
	}
}

func TestGet_RetriesTransientFailures(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("<article/>"))
	}))
	defer srv.Close()

	c := testClient(srv.URL, "")
	if _, err := c.ArticleXML(context.Background(), "PMC1"); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestGet_DoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient(srv.URL, "")
	if _, err := c.ArticleXML(context.Background(), "PMC1"); err == nil {
		t.Fatal("expected error for 404")
	}
	if attempts != 1 {
		t.Errorf("404 must not be retried, got %d attempts", attempts)
	}
}

func TestPackageURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") != "PMC176545" {
			t.Errorf("unexpected id %q", r.URL.Query().Get("id"))
		}
		w.Write([]byte(`<OA><records><record>
			<link format="pdf" href="ftp://ftp.ncbi.nlm.nih.gov/pub/pmc/a.pdf"/>
			<link format="tgz" href="ftp://ftp.ncbi.nlm.nih.gov/pub/pmc/a.tar.gz"/>
		</record></records></OA>`))
	}))
	defer srv.Close()

	c := testClient("", srv.URL)
	got, err := c.PackageURL(context.Background(), "PMC176545")
	if err != nil {
		t.Fatalf("PackageURL failed: %v", err)
	}
	if got != "https://ftp.ncbi.nlm.nih.gov/pub/pmc/a.tar.gz" {
		t.Errorf("expected https mirror of tgz link, got %q", got)
	}
}

func TestPackageURL_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<OA><error code="idIsNotOpenAccess">not OA</error></OA>`))
	}))
	defer srv.Close()

	c := testClient("", srv.URL)
	if _, err := c.PackageURL(context.Background(), "PMC5"); err == nil || !strings.Contains(err.Error(), "idIsNotOpenAccess") {
		t.Errorf("expected service error surfaced, got %v", err)
	}
}

func TestPackageURL_NoTgzLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<OA><records><record><link format="pdf" href="x.pdf"/></record></records></OA>`))
	}))
	defer srv.Close()

	c := testClient("", srv.URL)
	if _, err := c.PackageURL(context.Background(), "PMC5"); err == nil {
		t.Error("expected error when no tgz link listed")
	}
}

func TestHTTPSMirror(t *testing.T) {
	in := "ftp://ftp.ncbi.nlm.nih.gov/pub/pmc/x.tar.gz"
	if got := httpsMirror(in); got != "https://ftp.ncbi.nlm.nih.gov/pub/pmc/x.tar.gz" {
		t.Errorf("unexpected rewrite %q", got)
	}
	keep := "https://example.org/x.tar.gz"
	if got := httpsMirror(keep); got != keep {
		t.Errorf("non-ftp link must pass through, got %q", got)
	}
}

func TestBackoff_Bounds(t *testing.T) {
	for attempt := range 6 {
		d := Backoff(attempt)
		if d < time.Second || d > 45*time.Second {
			t.Errorf("Backoff(%d) = %v out of bounds", attempt, d)
		}
	}
}

func TestPace_EnforcesInterval(t *testing.T) {
	c := NewClient("", "", 20*time.Millisecond, nil)
	ctx := context.Background()

	start := time.Now()
	for range 3 {
		if err := c.pace(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("expected pacing to take at least 40ms, got %v", elapsed)
	}
}
