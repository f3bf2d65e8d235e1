package suggestion

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrMalformedTitle signals a title that cannot name an article.
var ErrMalformedTitle = errors.New("malformed article title")

// illegalTitleChars cannot appear in a MediaWiki page title.
const illegalTitleChars = "#<>[]{}|"

// Site identifies one wiki, e.g. https://en.wikipedia.org.
type Site struct {
	scheme string
	host   string
}

// ParseSite parses a site URL. Only the scheme and host are kept.
func ParseSite(raw string) (Site, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Site{}, fmt.Errorf("parse site url: %w", err)
	}
	if u.Host == "" {
		return Site{}, fmt.Errorf("site url %q has no host", raw)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return Site{}, fmt.Errorf("site url %q must use http or https", raw)
	}
	return Site{scheme: scheme, host: strings.ToLower(u.Host)}, nil
}

// MustParseSite is ParseSite that panics on error.
func MustParseSite(raw string) Site {
	s, err := ParseSite(raw)
	if err != nil {
		panic(err)
	}
	return s
}

// Host returns the lower-cased host.
func (s Site) Host() string { return s.host }

// String returns the site root URL.
func (s Site) String() string { return s.scheme + "://" + s.host }

// APIEndpoint returns the Action API URL of the site.
func (s Site) APIEndpoint() string { return s.String() + "/w/api.php" }

// ArticleKey returns the canonical article URL for title, which serves as the
// site-scoped identity of the article. The fragment is dropped.
func (s Site) ArticleKey(title string) (string, error) {
	if s.host == "" {
		return "", fmt.Errorf("%w: no site", ErrMalformedTitle)
	}
	dbTitle, err := DBKey(title)
	if err != nil {
		return "", err
	}
	return "https://" + s.host + "/wiki/" + dbTitle, nil
}

// DBKey converts a title to its database form: underscores instead of spaces,
// collapsed runs, first letter upper-cased.
func DBKey(title string) (string, error) {
	if i := strings.IndexByte(title, '#'); i >= 0 {
		title = title[:i]
	}
	words := strings.Fields(strings.ReplaceAll(title, "_", " "))
	if len(words) == 0 {
		return "", fmt.Errorf("%w: empty", ErrMalformedTitle)
	}
	key := strings.Join(words, "_")
	if !utf8.ValidString(key) {
		return "", fmt.Errorf("%w: invalid utf-8", ErrMalformedTitle)
	}
	for _, r := range key {
		if strings.ContainsRune(illegalTitleChars, r) || unicode.IsControl(r) {
			return "", fmt.Errorf("%w: illegal character %q", ErrMalformedTitle, r)
		}
	}
	first, size := utf8.DecodeRuneInString(key)
	return string(unicode.ToUpper(first)) + key[size:], nil
}
