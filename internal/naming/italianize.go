// Package naming turns the names a user types into the comic's Italian-sounding
// character names.
package naming

import (
	"math/rand/v2"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/phrazzld/madlib-comics/internal/domain"
)

// Fallback is returned for an empty name.
const Fallback = "Bebbo"

// Suffixes are the endings appended to a name stem.
var Suffixes = []string{"ini", "ello", "ona", "etto", "elli"}

var (
	trailingVowels = regexp.MustCompile(`(?i)[aeiou]+$`)
	nameFieldKey   = regexp.MustCompile(`(?i)name|friend|hero|uncle|bestie`)
)

// RandSource picks a uniformly distributed integer in [0, n).
type RandSource interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// Italianizer applies the name transform with a pluggable random source.
type Italianizer struct {
	src RandSource
}

// NewItalianizer returns an Italianizer drawing suffixes from src.
// A nil src uses the process-wide math/rand/v2 generator.
func NewItalianizer(src RandSource) *Italianizer {
	if src == nil {
		src = globalSource{}
	}
	return &Italianizer{src: src}
}

// Italianize strips trailing vowels from name, capitalises the first letter,
// lower-cases the rest and appends a randomly chosen suffix.
func (it *Italianizer) Italianize(name string) string {
	if name == "" {
		return Fallback
	}

	stem := trailingVowels.ReplaceAllString(name, "")
	suffix := Suffixes[it.src.IntN(len(Suffixes))]

	first, size := utf8.DecodeRuneInString(stem)
	if size == 0 {
		return suffix
	}
	return string(unicode.ToUpper(first)) + strings.ToLower(stem[size:]) + suffix
}

// IsNameField reports whether a question identifier asks for a person's name.
func IsNameField(key string) bool {
	return nameFieldKey.MatchString(key)
}

// ItalianizeNames returns a copy of fields with every name field italianized.
// Other fields are left untouched and entry order is kept.
func (it *Italianizer) ItalianizeNames(fields domain.FieldMap) domain.FieldMap {
	out := make(domain.FieldMap, len(fields))
	for i, f := range fields {
		if IsNameField(f.Key) {
			f.Value = it.Italianize(f.Value)
		}
		out[i] = f
	}
	return out
}
