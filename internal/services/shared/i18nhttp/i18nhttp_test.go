package i18nhttp

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResolveLocale(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name   string
		target string
		header string
		cookie string
		want   string
	}{
		{name: "query param", target: "/logs?lang=zh-CN", want: "zh-CN"},
		{name: "cookie", target: "/logs", cookie: "zh-CN", want: "zh-CN"},
		{name: "accept language", target: "/logs", header: "zh-CN,zh;q=0.9,en;q=0.8", want: "zh-CN"},
		{name: "fallback", target: "/logs", want: "en-US"},
		{name: "unknown param", target: "/logs?lang=xx", want: "en-US"},
	}
	for _, tc := range tcs {
		req := httptest.NewRequest(http.MethodGet, tc.target, nil)
		if tc.header != "" {
			req.Header.Set("Accept-Language", tc.header)
		}
		if tc.cookie != "" {
			req.AddCookie(&http.Cookie{Name: LangCookieName, Value: tc.cookie})
		}
		if got := ResolveLocale(req, ""); got != tc.want {
			t.Fatalf("%s: ResolveLocale = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestSupportedStartsWithBase(t *testing.T) {
	t.Parallel()

	tags := Supported()
	if len(tags) < 2 || tags[0].String() != "en-US" {
		t.Fatalf("Supported = %v", tags)
	}
}
