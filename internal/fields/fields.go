// Package fields turns the packed field string of a collection note into
// display text.
package fields

import (
	"errors"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

// Separator delimits field values inside a note's packed field string (ASCII Unit Separator).
const Separator = "\x1f"

// ErrTooFewFields is returned for notes that cannot supply both a front and a back.
var ErrTooFewFields = errors.New("note has fewer than two fields")

var (
	soundMarker = regexp.MustCompile(`\[sound:([^\]]+)\]`)
	lineBreak   = regexp.MustCompile(`(?i)<br\s*/?>`)
)

// Split breaks a packed field string into its ordered values.
func Split(packed string) []string {
	return strings.Split(packed, Separator)
}

// FrontBack returns the first two fields of a packed string.
func FrontBack(packed string) (front, back string, err error) {
	parts := Split(packed)
	if len(parts) < 2 {
		return "", "", ErrTooFewFields
	}
	return parts[0], parts[1], nil
}

// ExtractSound removes the first [sound:<file>] marker from s and returns the
// remaining text along with the referenced file name. Only the marker itself
// is removed; ref is empty when s has no marker.
func ExtractSound(s string) (text, ref string) {
	loc := soundMarker.FindStringSubmatchIndex(s)
	if loc == nil {
		return s, ""
	}
	ref = s[loc[2]:loc[3]]
	text = s[:loc[0]] + s[loc[1]:]
	return text, ref
}

// Cleaner normalizes field text for display.
type Cleaner struct {
	policy *bluemonday.Policy
	nfc    bool
}

// NewCleaner returns a Cleaner. With stripHTML set, markup is removed and
// entities are decoded; with nfc set, text is converted to Unicode NFC.
// Both off leaves the text untouched apart from trimming.
func NewCleaner(stripHTML, nfc bool) *Cleaner {
	c := &Cleaner{nfc: nfc}
	if stripHTML {
		c.policy = bluemonday.StrictPolicy()
	}
	return c
}

// Clean applies the configured normalization and trims surrounding whitespace.
func (c *Cleaner) Clean(s string) string {
	if c != nil && c.policy != nil {
		s = lineBreak.ReplaceAllString(s, "\n")
		s = html.UnescapeString(c.policy.Sanitize(s))
	}
	if c != nil && c.nfc {
		s = norm.NFC.String(s)
	}
	return strings.TrimSpace(s)
}
