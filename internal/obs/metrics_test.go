package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                          "/",
		"/metrics":                  "/metrics",
		"/translations":             "/translations",
		"/translations/42":          "/translations/:id",
		"/translations/export":      "/translations/export",
		"/translations/42/extra":    "/translations/42/extra",
		"/translations?key=special": "/translations",
		"/translations/7?foo=bar":   "/translations/:id",
		"/login":                    "/login",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
