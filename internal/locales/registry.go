package locales

import "sync"

// RequirementSource is anything that carries a locale requirement map, such as
// an article or a commit.
type RequirementSource interface {
	LocaleRequirements() Requirements
}

// Registry resolves locale identifiers and memoises the canonical values.
type Registry struct {
	mu     sync.RWMutex
	byCode map[string]Locale
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byCode: make(map[string]Locale),
	}
}

// Resolve parses each code, returning the locales in input order. The first
// malformed code aborts resolution.
func (r *Registry) Resolve(codes ...string) ([]Locale, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	out := make([]Locale, 0, len(codes))
	for _, code := range codes {
		locale, err := r.lookup(code)
		if err != nil {
			return nil, err
		}
		out = append(out, locale)
	}
	return out, nil
}

// MustResolve is Resolve for fixtures.
func (r *Registry) MustResolve(codes ...string) []Locale {
	out, err := r.Resolve(codes...)
	if err != nil {
		panic(err)
	}
	return out
}

// RequiredLocales returns the default locale scope for the source, computed
// from its requirements on every call. Values come from the registry cache.
func (r *Registry) RequiredLocales(source RequirementSource) []Locale {
	if source == nil {
		return nil
	}
	required := source.LocaleRequirements().Required()
	out := make([]Locale, 0, len(required))
	for _, locale := range required {
		if cached, err := r.lookup(locale.Code()); err == nil {
			locale = cached
		}
		out = append(out, locale)
	}
	return out
}

// Len reports how many distinct raw codes were resolved.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byCode)
}

func (r *Registry) lookup(code string) (Locale, error) {
	r.mu.RLock()
	locale, ok := r.byCode[code]
	r.mu.RUnlock()
	if ok {
		return locale, nil
	}

	locale, err := Parse(code)
	if err != nil {
		return Locale{}, err
	}

	r.mu.Lock()
	r.byCode[code] = locale
	r.mu.Unlock()
	return locale, nil
}
