// Package sanitize cleans every externally supplied string before it
// reaches the directory or the message log.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.StrictPolicy()

// Clean strips markup from raw and trims surrounding whitespace.
// An empty result means the input carried no usable content and must be
// treated as invalid by the caller.
func Clean(raw string) string {
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(raw)))
}
