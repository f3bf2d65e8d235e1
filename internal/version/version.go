// Package version holds build metadata injected via ldflags.
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String formats the build metadata for logs and the User-Agent header.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date)
}

// UserAgent returns a MediaWiki-etiquette User-Agent for product with contact.
func UserAgent(product, contact string) string {
	ua := product + "/" + Version
	if contact != "" {
		ua += " (" + contact + ")"
	}
	return ua
}
