package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
)

func serve(t *testing.T, contentType, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_Truncation(t *testing.T) {
	long := strings.Repeat("abcde ", 200)
	srv := serve(t, "text/html; charset=utf-8", "<html><body><p>"+long+"</p></body></html>")

	f := New()
	const maxLen = 100
	got := f.Fetch(context.Background(), srv.URL, maxLen)

	if len(got) != maxLen+3 {
		t.Fatalf("expected length %d, got %d", maxLen+3, len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected trailing ellipsis, got %q", got[len(got)-10:])
	}
}

func TestFetch_TruncationCountsRunes(t *testing.T) {
	long := strings.Repeat("泰", 2000)
	srv := serve(t, "text/html; charset=utf-8", "<html><body><p>"+long+"</p></body></html>")

	const maxLen = 100
	got := New().Fetch(context.Background(), srv.URL, maxLen)

	if !utf8.ValidString(got) {
		t.Fatalf("output is not valid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != maxLen+3 {
		t.Fatalf("expected %d runes, got %d", maxLen+3, n)
	}
	if !strings.HasPrefix(got, strings.Repeat("泰", maxLen)) {
		t.Errorf("expected %d leading characters kept, got %q", maxLen, got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected trailing ellipsis, got %q", got)
	}
}

func TestFetch_NoTruncationUnderLimit(t *testing.T) {
	srv := serve(t, "text/html", "<html><body><p>short text</p></body></html>")

	got := New().Fetch(context.Background(), srv.URL, 1000)
	if got != "short text" {
		t.Errorf("expected %q, got %q", "short text", got)
	}
}

func TestFetch_StripsBoilerplate(t *testing.T) {
	page := `<html><head><title>t</title><style>.x{color:red}</style></head><body>
<script>var hidden = 1;</script>
<nav>nav links</nav>
<header>site header</header>
<p>first paragraph</p>

<p>second paragraph</p>
<footer>copyright</footer>
</body></html>`
	srv := serve(t, "text/html", page)

	got := New().Fetch(context.Background(), srv.URL, 10000)

	for _, banned := range []string{"hidden", "nav links", "site header", "copyright", "color:red"} {
		if strings.Contains(got, banned) {
			t.Errorf("boilerplate %q leaked into output:\n%s", banned, got)
		}
	}
	want := "first paragraph\nsecond paragraph"
	if !strings.Contains(got, want) {
		t.Errorf("expected %q in output, got:\n%s", want, got)
	}
	if strings.Contains(got, "\n\n") {
		t.Errorf("blank lines not collapsed:\n%q", got)
	}
}

func TestFetch_DetectsGBKEncoding(t *testing.T) {
	gbk, err := simplifiedchinese.GBK.NewEncoder().String("<html><body><p>泰山传说</p></body></html>")
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	srv := serve(t, "text/html; charset=gbk", gbk)

	got := New().Fetch(context.Background(), srv.URL, 10000)
	if !strings.Contains(got, "泰山传说") {
		t.Errorf("expected decoded GBK text, got %q", got)
	}
}

func TestFetch_ServerErrorReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if got := New().Fetch(context.Background(), srv.URL, 100); got != "" {
		t.Errorf("expected empty string on 500, got %q", got)
	}
}

func TestFetch_UnreachableReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	if got := New().Fetch(context.Background(), srv.URL, 100); got != "" {
		t.Errorf("expected empty string on connection error, got %q", got)
	}
}

func TestFetch_BadURLReturnsEmpty(t *testing.T) {
	if got := New().Fetch(context.Background(), "://not-a-url", 100); got != "" {
		t.Errorf("expected empty string on bad url, got %q", got)
	}
}

func TestFetch_SendsBrowserUserAgent(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	New().Fetch(context.Background(), srv.URL, 100)
	if !strings.Contains(ua, "Mozilla/5.0") {
		t.Errorf("expected desktop browser UA, got %q", ua)
	}
}
