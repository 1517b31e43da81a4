package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

const ddgSamplePage = `<html><body>
<div class="result">
<a rel="nofollow" class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Ftaishan&amp;rut=abc">泰山<b>传说</b></a>
<a class="result__snippet" href="https://example.com/taishan">泰山是五岳之首…</a>
</div>
<div class="result">
<a rel="nofollow" class="result__a" href="https://example.org/direct">Direct result</a>
<a class="result__snippet" href="https://example.org/direct">direct snippet</a>
</div>
</body></html>`

func TestExtractDDGHits(t *testing.T) {
	hits := extractDDGHits(ddgSamplePage, 10)

	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].URL != "https://example.com/taishan" {
		t.Errorf("redirect not unwrapped: %q", hits[0].URL)
	}
	if hits[0].Title != "泰山传说" {
		t.Errorf("tags not stripped from title: %q", hits[0].Title)
	}
	if hits[0].Snippet != "泰山是五岳之首…" {
		t.Errorf("unexpected snippet: %q", hits[0].Snippet)
	}
	if hits[1].URL != "https://example.org/direct" {
		t.Errorf("plain URL mangled: %q", hits[1].URL)
	}
}

func TestExtractDDGHits_RespectsMaxResults(t *testing.T) {
	if hits := extractDDGHits(ddgSamplePage, 1); len(hits) != 1 {
		t.Errorf("expected 1 hit, got %d", len(hits))
	}
}

func TestExtractDDGHits_EmptyPage(t *testing.T) {
	if hits := extractDDGHits("<html><body>no results</body></html>", 5); hits != nil {
		t.Errorf("expected nil for empty page, got %v", hits)
	}
}

func TestUnwrapDDGRedirect(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fpage&rut=x", "https://example.com/page"},
		{"https://example.com/plain", "https://example.com/plain"},
		{"//duckduckgo.com/l/?uddg=https%3A%2F%2Fa.cn%2F%E6%B3%B0%E5%B1%B1", "https://a.cn/泰山"},
	}
	for _, c := range cases {
		if got := unwrapDDGRedirect(c.in); got != c.want {
			t.Errorf("unwrapDDGRedirect(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDuckDuckGo_StrategyParameters(t *testing.T) {
	var query url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Write([]byte(ddgSamplePage))
	}))
	defer srv.Close()

	d := NewDuckDuckGoWithClient(srv.Client())
	d.SetEndpoint(srv.URL)

	hits, err := d.Search(context.Background(), "泰山 传说", 5, Strategy{Region: "cn-zh", SafeSearch: "off"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("expected hits from sample page")
	}
	if query.Get("q") != "泰山 传说" {
		t.Errorf("query param: %q", query.Get("q"))
	}
	if query.Get("kl") != "cn-zh" {
		t.Errorf("region param: %q", query.Get("kl"))
	}
	if query.Get("kp") != "-2" {
		t.Errorf("safesearch off should map to kp=-2, got %q", query.Get("kp"))
	}
}

func TestDuckDuckGo_UnscopedOmitsRegion(t *testing.T) {
	var query url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Write([]byte(ddgSamplePage))
	}))
	defer srv.Close()

	d := NewDuckDuckGoWithClient(srv.Client())
	d.SetEndpoint(srv.URL)

	if _, err := d.Search(context.Background(), "q", 5, Strategy{SafeSearch: "moderate"}); err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if query.Has("kl") {
		t.Errorf("unscoped strategy must not send kl, got %q", query.Get("kl"))
	}
	if query.Get("kp") != "-1" {
		t.Errorf("moderate should map to kp=-1, got %q", query.Get("kp"))
	}
}

func TestDuckDuckGo_Non200IsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	d := NewDuckDuckGoWithClient(srv.Client())
	d.SetEndpoint(srv.URL)

	if _, err := d.Search(context.Background(), "q", 5, Strategy{}); err == nil {
		t.Error("expected error on 429")
	}
}
