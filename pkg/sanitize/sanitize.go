package sanitize

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

// strict removes every element and attribute, leaving escaped text only.
var strict = bluemonday.StrictPolicy()

// maxPasses bounds how many layers of entity encoding are peeled off.
const maxPasses = 8

// String strips markup and scripts from user supplied text. The result is plain
// text with entities decoded, so templates escape it exactly once. Decoding and
// stripping repeat until the text stops changing, so entity-encoded markup is
// removed as well.
func String(s string) string {
	if s == "" {
		return ""
	}
	for i := 0; i < maxPasses; i++ {
		next := html.UnescapeString(strict.Sanitize(s))
		if next == s {
			return next
		}
		s = next
	}
	// Still changing: keep the escaped form, which holds no live markup.
	return strict.Sanitize(s)
}
