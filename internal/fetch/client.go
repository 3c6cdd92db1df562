// Package fetch talks to the NCBI efetch and OA services. It owns the rate
// limiting and retry policy; the parser core never performs I/O.
package fetch

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	defaultEFetchURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"
	defaultOAURL     = "https://www.ncbi.nlm.nih.gov/pmc/utils/oa/oa.fcgi"
)

// Client fetches article XML and OA package archives with polite pacing.
type Client struct {
	httpClient  *http.Client
	efetchURL   string
	oaURL       string
	minInterval time.Duration
	log         *slog.Logger

	mu   sync.Mutex
	last time.Time
}

func NewClient(efetchURL, oaURL string, minInterval time.Duration, log *slog.Logger) *Client {
	if efetchURL == "" {
		efetchURL = defaultEFetchURL
	}
	if oaURL == "" {
		oaURL = defaultOAURL
	}
	if minInterval <= 0 {
		minInterval = 350 * time.Millisecond
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		efetchURL:   efetchURL,
		oaURL:       oaURL,
		minInterval: minInterval,
		log:         log,
	}
}

// ArticleXML fetches the full-text JATS XML for one PMCID.
func (c *Client) ArticleXML(ctx context.Context, pmcid string) (string, error) {
	params := url.Values{}
	params.Set("db", "pmc")
	params.Set("id", strings.TrimPrefix(pmcid, "PMC"))
	params.Set("rettype", "xml")

	body, err := c.get(ctx, c.efetchURL+"?"+params.Encode())
	if err != nil {
		return "", fmt.Errorf("fetch article %s: %w", pmcid, err)
	}
	return string(body), nil
}

// oaResponse is the subset of the OA service reply we care about.
type oaResponse struct {
	Records []struct {
		Links []struct {
			Format string `xml:"format,attr"`
			Href   string `xml:"href,attr"`
		} `xml:"link"`
	} `xml:"records>record"`
	Error struct {
		Code string `xml:"code,attr"`
	} `xml:"error"`
}

// PackageURL resolves the tgz download link for one PMCID via the OA
// service. PMC publishes ftp:// links; they are rewritten to their HTTPS
// mirror.
func (c *Client) PackageURL(ctx context.Context, pmcid string) (string, error) {
	params := url.Values{}
	params.Set("id", pmcid)

	body, err := c.get(ctx, c.oaURL+"?"+params.Encode())
	if err != nil {
		return "", fmt.Errorf("query oa service for %s: %w", pmcid, err)
	}

	var resp oaResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("parse oa response for %s: %w", pmcid, err)
	}
	if resp.Error.Code != "" {
		return "", fmt.Errorf("oa service: %s for %s", resp.Error.Code, pmcid)
	}
	for _, rec := range resp.Records {
		for _, link := range rec.Links {
			if link.Format == "tgz" {
				return httpsMirror(link.Href), nil
			}
		}
	}
	return "", fmt.Errorf("no tgz package listed for %s", pmcid)
}

// Package downloads the OA archive and returns its byte stream. The caller
// owns closing it.
func (c *Client) Package(ctx context.Context, packageURL string) (io.ReadCloser, error) {
	if err := c.pace(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, packageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download package: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("package download returned %s", resp.Status)
	}
	return resp.Body, nil
}

// get performs a paced GET with bounded retries on transient failures.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if attempt > 0 {
			c.log.Warn("retrying fetch", "url", rawURL, "attempt", attempt, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(Backoff(attempt - 1)):
			}
		}
		if err := c.pace(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("User-Agent", "pmcharvest/1.0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK && readErr == nil:
			return body, nil
		case readErr != nil:
			lastErr = readErr
		case retryableStatus(resp.StatusCode):
			lastErr = fmt.Errorf("server returned %s", resp.Status)
		default:
			return nil, fmt.Errorf("server returned %s", resp.Status)
		}
	}
	return nil, lastErr
}

// pace enforces the minimum interval between requests.
func (c *Client) pace(ctx context.Context) error {
	c.mu.Lock()
	wait := c.minInterval - time.Since(c.last)
	if wait > 0 {
		c.last = c.last.Add(c.minInterval)
	} else {
		c.last = time.Now()
	}
	c.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func httpsMirror(href string) string {
	if strings.HasPrefix(href, "ftp://ftp.ncbi.nlm.nih.gov/") {
		return "https://ftp.ncbi.nlm.nih.gov/" + strings.TrimPrefix(href, "ftp://ftp.ncbi.nlm.nih.gov/")
	}
	return href
}
