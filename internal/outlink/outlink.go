// Package outlink renders outlink URL templates against a term.
//
// Templates use {name} placeholders; {{ and }} stand for literal braces.
// Resolution is pure and recomputed on every call.
package outlink

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/encukou/prekapavac/internal/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrTemplate is returned for templates that reference an unknown
// placeholder or have unbalanced braces.
var ErrTemplate = errors.New("invalid outlink template")

// Placeholders lists every accepted placeholder name.
var Placeholders = []string{"term", "en", "en_lower", "en_capitalized", "en_title", "jp", "num", "number"}

func values(term *models.Term) map[string]string {
	num := strconv.Itoa(term.Number)
	return map[string]string{
		"term":           term.TextEN,
		"en":             term.TextEN,
		"en_lower":       Lower(term.TextEN),
		"en_capitalized": Capitalize(term.TextEN),
		"en_title":       Title(term.TextEN),
		"jp":             term.TextJP,
		"num":            num,
		"number":         num,
	}
}

// Resolve fills template with the fields of term.
func Resolve(template string, term *models.Term) (string, error) {
	vals := values(term)

	var b strings.Builder
	b.Grow(len(template))
	for i := 0; i < len(template); {
		c := template[i]
		switch c {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				b.WriteByte('{')
				i += 2
				continue
			}
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("%w: unclosed '{' at offset %d", ErrTemplate, i)
			}
			name := template[i+1 : i+1+end]
			v, ok := vals[name]
			if !ok {
				return "", fmt.Errorf("%w: unknown placeholder {%s}", ErrTemplate, name)
			}
			b.WriteString(v)
			i += end + 2
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				b.WriteByte('}')
				i += 2
				continue
			}
			return "", fmt.Errorf("%w: single '}' at offset %d", ErrTemplate, i)
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), nil
}

// Validate checks template without a concrete term.
func Validate(template string) error {
	_, err := Resolve(template, &models.Term{})
	return err
}

// Lower lowercases s. Spaces and punctuation are kept as they are.
func Lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// Capitalize uppercases the first character of s and lowercases the rest.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return cases.Upper(language.Und).String(string(r)) + Lower(s[size:])
}

// Title uppercases the first letter of every word and lowercases the rest.
func Title(s string) string {
	return cases.Title(language.Und).String(s)
}
