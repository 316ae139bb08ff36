package locales

import "fmt"

// Requirements maps targeted locales to their required flag. Locales flagged
// true count toward default aggregates, locales flagged false are optional,
// and locales that are absent are not targeted at all.
type Requirements struct {
	flags map[Locale]bool
}

// NewRequirements canonicalises the raw code map persisted on a container.
// When two raw codes collapse to the same locale the required flag wins.
func NewRequirements(raw map[string]bool) (Requirements, error) {
	flags := make(map[Locale]bool, len(raw))
	for code, required := range raw {
		locale, err := Parse(code)
		if err != nil {
			return Requirements{}, fmt.Errorf("locales: targeted locale %q: %w", code, err)
		}
		flags[locale] = flags[locale] || required
	}
	return Requirements{flags: flags}, nil
}

// MustRequirements is NewRequirements for fixtures.
func MustRequirements(raw map[string]bool) Requirements {
	reqs, err := NewRequirements(raw)
	if err != nil {
		panic(err)
	}
	return reqs
}

// Required returns every targeted locale flagged as required, sorted by code.
func (r Requirements) Required() []Locale {
	return r.filter(func(required bool) bool { return required })
}

// Optional returns every targeted locale flagged as optional, sorted by code.
func (r Requirements) Optional() []Locale {
	return r.filter(func(required bool) bool { return !required })
}

// Targeted returns every targeted locale, sorted by code.
func (r Requirements) Targeted() []Locale {
	return r.filter(func(bool) bool { return true })
}

// IsTargeted reports whether the locale appears in the requirement map.
func (r Requirements) IsTargeted(locale Locale) bool {
	_, ok := r.flags[locale]
	return ok
}

// IsRequired reports whether the locale is targeted and required.
func (r Requirements) IsRequired(locale Locale) bool {
	return r.flags[locale]
}

// Len returns the number of targeted locales.
func (r Requirements) Len() int {
	return len(r.flags)
}

// Raw returns the persisted representation keyed by canonical code.
func (r Requirements) Raw() map[string]bool {
	out := make(map[string]bool, len(r.flags))
	for locale, required := range r.flags {
		out[locale.code] = required
	}
	return out
}

func (r Requirements) filter(keep func(required bool) bool) []Locale {
	out := make([]Locale, 0, len(r.flags))
	for locale, required := range r.flags {
		if keep(required) {
			out = append(out, locale)
		}
	}
	return Sort(out)
}
