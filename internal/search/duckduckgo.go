package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	ddgEndpoint    = "https://html.duckduckgo.com/html/"
	ddgUserAgent   = "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_7_2) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	ddgTimeout     = 30 * time.Second
	ddgMaxBodySize = 1 << 20
)

// DuckDuckGo scrapes the DuckDuckGo HTML endpoint. One instance rate-limits
// its own requests to stay under the endpoint's informal quota.
type DuckDuckGo struct {
	client   *http.Client
	limiter  *rate.Limiter
	endpoint string // overridable for tests; default ddgEndpoint
}

// NewDuckDuckGo creates a backend limited to one query per second.
func NewDuckDuckGo() *DuckDuckGo {
	return &DuckDuckGo{
		client:  &http.Client{Timeout: ddgTimeout},
		limiter: rate.NewLimiter(rate.Limit(1), 1),
	}
}

// NewDuckDuckGoWithClient creates a backend using the supplied HTTP client,
// useful for tests and timeout overrides.
func NewDuckDuckGoWithClient(client *http.Client) *DuckDuckGo {
	return &DuckDuckGo{
		client:  client,
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
}

// SetEndpoint is a test hook; d keeps scraping the same markup shape.
func (d *DuckDuckGo) SetEndpoint(endpoint string) { d.endpoint = endpoint }

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

// Search issues one query under the given strategy. Region maps to the kl
// parameter, safe search to kp (-1 moderate, -2 off).
func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults int, st Strategy) ([]Hit, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("q", query)
	if st.Region != "" {
		q.Set("kl", st.Region)
	}
	switch st.SafeSearch {
	case "off":
		q.Set("kp", "-2")
	default:
		q.Set("kp", "-1")
	}

	endpoint := d.endpoint
	if endpoint == "" {
		endpoint = ddgEndpoint
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", ddgUserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, ddgMaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo returned %d", resp.StatusCode)
	}

	return extractDDGHits(string(body), maxResults), nil
}

var (
	ddgLinkRe    = regexp.MustCompile(`<a[^>]*class="[^"]*result__a[^"]*"[^>]*href="([^"]+)"[^>]*>([\s\S]*?)</a>`)
	ddgSnippetRe = regexp.MustCompile(`<a class="result__snippet[^"]*".*?>([\s\S]*?)</a>`)
	htmlTagRe    = regexp.MustCompile(`<[^>]+>`)
)

// extractDDGHits pulls result links and snippets out of the DDG HTML page.
func extractDDGHits(page string, maxResults int) []Hit {
	linkMatches := ddgLinkRe.FindAllStringSubmatch(page, maxResults+5)
	if len(linkMatches) == 0 {
		return nil
	}
	snippetMatches := ddgSnippetRe.FindAllStringSubmatch(page, maxResults+5)

	var hits []Hit
	for i := 0; i < len(linkMatches) && i < maxResults; i++ {
		rawURL := unwrapDDGRedirect(linkMatches[i][1])
		title := strings.TrimSpace(htmlTagRe.ReplaceAllString(linkMatches[i][2], ""))

		snippet := ""
		if i < len(snippetMatches) {
			snippet = strings.TrimSpace(htmlTagRe.ReplaceAllString(snippetMatches[i][1], ""))
		}

		hits = append(hits, Hit{Title: title, URL: rawURL, Snippet: snippet})
	}
	return hits
}

// unwrapDDGRedirect extracts the real URL from DDG's uddg= redirect wrapper.
func unwrapDDGRedirect(rawURL string) string {
	if !strings.Contains(rawURL, "uddg=") {
		return rawURL
	}
	u, err := url.QueryUnescape(rawURL)
	if err != nil {
		return rawURL
	}
	idx := strings.Index(u, "uddg=")
	if idx == -1 {
		return rawURL
	}
	extracted := u[idx+5:]
	// uddg value may carry trailing &params
	if ampIdx := strings.Index(extracted, "&"); ampIdx != -1 {
		extracted = extracted[:ampIdx]
	}
	return extracted
}
