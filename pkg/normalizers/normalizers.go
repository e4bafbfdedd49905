// Package normalizers cleans up names before they are stored or looked up
package normalizers

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"

	"github.com/Ramsey-B/keizu/pkg/models"
)

// Normalizer is a function that normalizes a string value
type Normalizer func(string) string

// registry holds all registered normalizers
var registry = make(map[string]Normalizer)

func init() {
	Register("lowercase", Lowercase)
	Register("trim", Trim)
	Register("nfc", NFC)
	Register("fold_width", FoldWidth)
	Register("collapse_whitespace", CollapseWhitespace)
	Register("name", Name)
}

// Register adds a normalizer to the registry
func Register(name string, fn Normalizer) {
	registry[name] = fn
}

// Get retrieves a normalizer by name
func Get(name string) (Normalizer, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Apply applies a named normalizer to a value. Unknown names leave the value unchanged.
func Apply(value, normalizer string) string {
	fn, ok := registry[normalizer]
	if !ok {
		return value
	}
	return fn(value)
}

// ApplyChain applies multiple normalizers in sequence
func ApplyChain(value string, normalizers ...string) string {
	result := value
	for _, name := range normalizers {
		result = Apply(result, name)
	}
	return result
}

// Lowercase converts string to lowercase
func Lowercase(s string) string {
	return strings.ToLower(s)
}

// Trim removes leading and trailing whitespace
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// NFC composes combining sequences, so "が" typed as か+゙ equals the precomposed form.
func NFC(s string) string {
	return norm.NFC.String(s)
}

// FoldWidth maps full-width Latin letters and digits to ASCII and half-width katakana to
// full-width.
func FoldWidth(s string) string {
	return width.Fold.String(s)
}

// CollapseWhitespace replaces each run of whitespace, the ideographic space included, with a single
// ASCII space and trims the ends.
func CollapseWhitespace(s string) string {
	var result strings.Builder
	prevSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !prevSpace {
				result.WriteRune(' ')
				prevSpace = true
			}
			continue
		}
		result.WriteRune(r)
		prevSpace = false
	}
	return strings.TrimSpace(result.String())
}

// Name normalizes a personal or clan name. Case is kept.
func Name(s string) string {
	return ApplyChain(s, "nfc", "fold_width", "collapse_whitespace")
}

// SearchTerm normalizes a name used as a case-insensitive search needle.
func SearchTerm(s string) string {
	return ApplyChain(s, "name", "lowercase")
}

// Localized normalizes every language code and value of l. Entries left empty are dropped.
func Localized(l models.Localized) models.Localized {
	if l == nil {
		return nil
	}
	out := make(models.Localized, 0, len(l))
	for _, t := range l {
		out = out.Set(Trim(t.Lang), Name(t.Value))
	}
	return out
}
