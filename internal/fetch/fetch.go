// Package fetch retrieves a single web page and reduces it to visible text.
package fetch

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

const (
	defaultTimeout = 5 * time.Second
	fetchUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// Raw body read limit. Pages are truncated to maxLen chars after text
	// extraction, so reading far past this only wastes memory.
	maxBodyBytes = 2 << 20
)

// Skipped element subtrees: boilerplate that never carries page content.
var skipElements = map[string]bool{
	"script":   true,
	"style":    true,
	"nav":      true,
	"footer":   true,
	"header":   true,
	"noscript": true,
}

// Fetcher downloads pages with a short timeout and a desktop browser UA.
type Fetcher struct {
	client *http.Client
}

// New creates a Fetcher with the default 5-second timeout.
func New() *Fetcher {
	return &Fetcher{client: &http.Client{Timeout: defaultTimeout}}
}

// NewWithClient creates a Fetcher using the supplied HTTP client.
func NewWithClient(client *http.Client) *Fetcher {
	return &Fetcher{client: client}
}

// Fetch GETs the URL and returns its visible text, truncated to maxLen
// characters with a trailing "...". Every failure — network, status, decode,
// parse — is logged and collapses to an empty string so callers can
// substitute snippet text instead.
func (f *Fetcher) Fetch(ctx context.Context, url string, maxLen int) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		slog.Warn("fetch: bad url", "url", url, "error", err)
		return ""
	}
	req.Header.Set("User-Agent", fetchUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		slog.Warn("fetch: request failed", "url", url, "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("fetch: non-200 status", "url", url, "status", resp.StatusCode)
		return ""
	}

	// Decode using the detected encoding (Content-Type header, BOM, or
	// in-document meta), so GBK/Big5 pages survive the trip.
	body := io.LimitReader(resp.Body, maxBodyBytes)
	decoded, err := charset.NewReader(body, resp.Header.Get("Content-Type"))
	if err != nil {
		slog.Warn("fetch: charset detection failed", "url", url, "error", err)
		return ""
	}

	doc, err := html.Parse(decoded)
	if err != nil {
		slog.Warn("fetch: html parse failed", "url", url, "error", err)
		return ""
	}

	text := extractText(doc)
	return truncate(text, maxLen)
}

// extractText walks the DOM, skipping non-content subtrees, and joins text
// nodes line by line with blank lines collapsed.
func extractText(doc *html.Node) string {
	var lines []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				lines = append(lines, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(lines, "\n")
}

// truncate cuts s to at most maxLen runes plus a trailing ellipsis. Page
// text is mostly CJK, so byte slicing would undershoot the limit threefold
// and could split a character.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
