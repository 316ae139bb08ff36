package locales

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

var (
	ErrLocaleCodeRequired = errors.New("locales: locale code is required")
	ErrInvalidLocale      = errors.New("locales: locale code is malformed")
)

// wellFormed matches BCP 47 shaped tags that may not be registered with the
// language package (private or reserved primary subtags such as "xx").
var wellFormed = regexp.MustCompile(`^[A-Za-z]{2,8}(-[A-Za-z0-9]{1,8})*$`)

// Locale is an immutable RFC 5646 locale identifier. Two locales are equal
// when their canonical codes are equal, so Locale can be used as a map key.
type Locale struct {
	code string
}

// Parse canonicalises the supplied RFC 5646 code.
func Parse(code string) (Locale, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return Locale{}, ErrLocaleCodeRequired
	}
	trimmed = strings.ReplaceAll(trimmed, "_", "-")

	if tag, err := language.Parse(trimmed); err == nil {
		return Locale{code: tag.String()}, nil
	}
	if !wellFormed.MatchString(trimmed) {
		return Locale{}, fmt.Errorf("%w: %q", ErrInvalidLocale, code)
	}
	return Locale{code: normalizeSubtags(trimmed)}, nil
}

// MustParse is Parse for fixtures and constants. It panics on malformed input.
func MustParse(code string) Locale {
	locale, err := Parse(code)
	if err != nil {
		panic(err)
	}
	return locale
}

// Code returns the canonical identifier.
func (l Locale) Code() string {
	return l.code
}

func (l Locale) String() string {
	return l.code
}

// IsZero reports whether the locale was never parsed.
func (l Locale) IsZero() bool {
	return l.code == ""
}

// Equal compares locales by identifier.
func (l Locale) Equal(other Locale) bool {
	return l.code == other.code
}

// normalizeSubtags applies the RFC 5646 casing conventions: language lower,
// four letter script title, two letter or three digit region upper.
func normalizeSubtags(tag string) string {
	parts := strings.Split(tag, "-")
	for i, part := range parts {
		lower := strings.ToLower(part)
		switch {
		case i == 0:
			parts[i] = lower
		case len(part) == 4 && isAlpha(part):
			parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
		case len(part) == 2 && isAlpha(part):
			parts[i] = strings.ToUpper(lower)
		default:
			parts[i] = lower
		}
	}
	return strings.Join(parts, "-")
}

func isAlpha(value string) bool {
	for _, r := range value {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

// Sort orders locales by code in place and returns the slice.
func Sort(list []Locale) []Locale {
	sort.Slice(list, func(i, j int) bool {
		return list[i].code < list[j].code
	})
	return list
}

// Codes maps locales to their identifiers, preserving order.
func Codes(list []Locale) []string {
	if len(list) == 0 {
		return nil
	}
	out := make([]string, len(list))
	for i, locale := range list {
		out[i] = locale.code
	}
	return out
}

// Unique removes duplicates while keeping the first occurrence order.
func Unique(list []Locale) []Locale {
	if len(list) < 2 {
		return list
	}
	seen := make(map[Locale]struct{}, len(list))
	out := make([]Locale, 0, len(list))
	for _, locale := range list {
		if locale.IsZero() {
			continue
		}
		if _, ok := seen[locale]; ok {
			continue
		}
		seen[locale] = struct{}{}
		out = append(out, locale)
	}
	return out
}
