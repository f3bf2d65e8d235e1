package version

import "testing"

func TestUserAgent(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })
	Version = "1.2.3"

	if got := UserAgent("geosuggest", ""); got != "geosuggest/1.2.3" {
		t.Errorf("unexpected user agent %q", got)
	}
	if got := UserAgent("geosuggest", "ops@example.org"); got != "geosuggest/1.2.3 (ops@example.org)" {
		t.Errorf("unexpected user agent %q", got)
	}
}

func TestString(t *testing.T) {
	if String() == "" {
		t.Fatal("expected build metadata")
	}
}
