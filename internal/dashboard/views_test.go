package dashboard

import (
	"testing"
)

func TestMoney(t *testing.T) {
	cases := map[float64]string{
		0:         "?",
		950:       "950",
		1000:      "1,000",
		85000.4:   "85,000",
		1234567.6: "1,234,568",
	}
	for in, want := range cases {
		v := in
		if got := money(&v); got != want {
			t.Errorf("money(%v) = %q, want %q", in, got, want)
		}
	}
	if got := salaryRange(nil, nil); got != "" {
		t.Errorf("salaryRange(nil, nil) = %q", got)
	}
}

func TestSafeURL(t *testing.T) {
	for raw, want := range map[string]bool{
		"https://jobs.example.com/1": true,
		"http://example.com":         true,
		"javascript:alert(1)":        false,
		"//example.com/x":            false,
		"/relative":                  false,
		"":                           false,
	} {
		if got := safeURL(raw); got != want {
			t.Errorf("safeURL(%q) = %v", raw, got)
		}
	}
}

func TestPlainTextAndExcerpt(t *testing.T) {
	in := "<h2>About</h2><p>We build\n <em>fast</em> things.</p><style>p{}</style><ul><li>Go</li><li>SQL</li></ul>"
	if got := PlainText(in); got != "About We build fast things. Go SQL" {
		t.Errorf("PlainText = %q", got)
	}
	if got := PlainText("   "); got != "" {
		t.Errorf("PlainText(blank) = %q", got)
	}
	if got := Excerpt(in, 14); got != "About We build…" {
		t.Errorf("Excerpt = %q", got)
	}
	if got := Excerpt("short", 100); got != "short" {
		t.Errorf("Excerpt(short) = %q", got)
	}
}
