package stats

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/goliatone/go-l10n/internal/locales"
)

// DocumentVersion is the schema version written by Serialize.
const DocumentVersion = 1

// Field names a counter inside a state bucket.
type Field string

const (
	FieldTranslationsCount Field = "translations_count"
	FieldWordsCount        Field = "words_count"
)

// Tally is a pair of translation and word counts.
type Tally struct {
	Translations int
	Words        int
}

// Add returns the element-wise sum.
func (t Tally) Add(other Tally) Tally {
	return Tally{
		Translations: t.Translations + other.Translations,
		Words:        t.Words + other.Words,
	}
}

// Field returns the named counter.
func (t Tally) Field(field Field) (int, bool) {
	switch field {
	case FieldTranslationsCount:
		return t.Translations, true
	case FieldWordsCount:
		return t.Words, true
	default:
		return 0, false
	}
}

type bucket struct {
	// total sums the locales that were required when the snapshot was built.
	total   Tally
	locales map[string]Tally
}

// Snapshot is the computed statistics of one container. It is immutable once
// built; a recompute installs a new value instead of mutating this one.
// States without translations are absent and read as zero.
type Snapshot struct {
	stringsTotal int
	states       map[State]*bucket
}

// Empty returns the snapshot of a container without active keys.
func Empty() *Snapshot {
	return &Snapshot{states: map[State]*bucket{}}
}

// StringsTotal is the number of distinct active keys.
func (s *Snapshot) StringsTotal() int {
	if s == nil {
		return 0
	}
	return s.stringsTotal
}

// IsEmpty reports whether no translation was counted at all.
func (s *Snapshot) IsEmpty() bool {
	return s == nil || len(s.states) == 0
}

// HasState reports whether any translation was counted under state.
func (s *Snapshot) HasState(state State) bool {
	if s == nil {
		return false
	}
	_, ok := s.states[state]
	return ok
}

// Total returns the aggregate over the required locales.
func (s *Snapshot) Total(state State) Tally {
	if b := s.bucket(state); b != nil {
		return b.total
	}
	return Tally{}
}

// LocaleTally returns the counts for a single locale.
func (s *Snapshot) LocaleTally(state State, locale locales.Locale) Tally {
	if b := s.bucket(state); b != nil {
		return b.locales[locale.Code()]
	}
	return Tally{}
}

// Sum adds the per-locale counts of state over scope. Repeated and zero
// locales are ignored; locales without translations contribute nothing.
func (s *Snapshot) Sum(state State, scope []locales.Locale) Tally {
	b := s.bucket(state)
	if b == nil {
		return Tally{}
	}
	var sum Tally
	for _, locale := range locales.Unique(scope) {
		if locale.IsZero() {
			continue
		}
		sum = sum.Add(b.locales[locale.Code()])
	}
	return sum
}

// LocaleCodes lists every locale with at least one counted translation.
func (s *Snapshot) LocaleCodes() []string {
	if s == nil {
		return nil
	}
	seen := map[string]struct{}{}
	for _, b := range s.states {
		for code := range b.locales {
			seen[code] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// FetchStat returns the named field of the state aggregate, or def when the
// state or field is absent.
func (s *Snapshot) FetchStat(state State, field Field, def int) int {
	b := s.bucket(state)
	if b == nil {
		return def
	}
	value, ok := b.total.Field(field)
	if !ok {
		return def
	}
	return value
}

// FetchStat is the nil-tolerant form of Snapshot.FetchStat.
func FetchStat(s *Snapshot, state State, field Field, def int) int {
	return s.FetchStat(state, field, def)
}

func (s *Snapshot) bucket(state State) *bucket {
	if s == nil {
		return nil
	}
	return s.states[state]
}

// Equal compares the serialized contents of two snapshots.
func (s *Snapshot) Equal(other *Snapshot) bool {
	left, lerr := s.Serialize()
	right, rerr := other.Serialize()
	return lerr == nil && rerr == nil && bytes.Equal(left, right)
}

// Document is the persisted snapshot schema. Reporting consumers read it
// directly, so field names are part of the contract.
type Document struct {
	Version      int                      `json:"version"`
	StringsTotal int                      `json:"strings_total"`
	States       map[State]BucketDocument `json:"states"`
}

// BucketDocument holds one state's aggregate and per-locale counts.
type BucketDocument struct {
	TranslationsCount int                      `json:"translations_count"`
	WordsCount        int                      `json:"words_count"`
	Locales           map[string]TallyDocument `json:"locales,omitempty"`
}

// TallyDocument is the serialized Tally.
type TallyDocument struct {
	TranslationsCount int `json:"translations_count"`
	WordsCount        int `json:"words_count"`
}

// Document returns the structured form of the snapshot.
func (s *Snapshot) Document() Document {
	doc := Document{
		Version: DocumentVersion,
		States:  map[State]BucketDocument{},
	}
	if s == nil {
		return doc
	}
	doc.StringsTotal = s.stringsTotal
	for state, b := range s.states {
		entry := BucketDocument{
			TranslationsCount: b.total.Translations,
			WordsCount:        b.total.Words,
		}
		if len(b.locales) > 0 {
			entry.Locales = make(map[string]TallyDocument, len(b.locales))
			for code, tally := range b.locales {
				entry.Locales[code] = TallyDocument{
					TranslationsCount: tally.Translations,
					WordsCount:        tally.Words,
				}
			}
		}
		doc.States[state] = entry
	}
	return doc
}

// Serialize encodes the snapshot. Map keys are emitted in sorted order, so
// equal snapshots always produce identical bytes.
func (s *Snapshot) Serialize() ([]byte, error) {
	return json.Marshal(s.Document())
}

// Deserialize validates and decodes a payload written by Serialize.
func Deserialize(data []byte) (*Snapshot, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrSnapshotInvalid)
	}
	if err := validateDocument(data); err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotInvalid, err)
	}
	return FromDocument(doc)
}

// FromDocument validates a structured document and builds the snapshot.
func FromDocument(doc Document) (*Snapshot, error) {
	if doc.Version != DocumentVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrSnapshotInvalid, doc.Version)
	}
	if doc.StringsTotal < 0 {
		return nil, fmt.Errorf("%w: negative strings_total", ErrSnapshotInvalid)
	}

	snapshot := Empty()
	snapshot.stringsTotal = doc.StringsTotal
	for state, entry := range doc.States {
		if _, ok := ParseState(string(state)); !ok {
			return nil, fmt.Errorf("%w: unknown state %q", ErrSnapshotInvalid, state)
		}
		if entry.TranslationsCount < 0 || entry.WordsCount < 0 {
			return nil, fmt.Errorf("%w: negative counts for %s", ErrSnapshotInvalid, state)
		}
		b := &bucket{
			total:   Tally{Translations: entry.TranslationsCount, Words: entry.WordsCount},
			locales: make(map[string]Tally, len(entry.Locales)),
		}
		for code, tally := range entry.Locales {
			if strings.TrimSpace(code) == "" {
				return nil, fmt.Errorf("%w: empty locale under %s", ErrSnapshotInvalid, state)
			}
			if tally.TranslationsCount < 0 || tally.WordsCount < 0 {
				return nil, fmt.Errorf("%w: negative counts for %s/%s", ErrSnapshotInvalid, state, code)
			}
			b.locales[code] = Tally{Translations: tally.TranslationsCount, Words: tally.WordsCount}
		}
		snapshot.states[state] = b
	}
	return snapshot, nil
}

type snapshotBuilder struct {
	snapshot *Snapshot
}

func newSnapshotBuilder() *snapshotBuilder {
	return &snapshotBuilder{snapshot: Empty()}
}

func (b *snapshotBuilder) add(state State, locale locales.Locale, words int, required bool) {
	entry, ok := b.snapshot.states[state]
	if !ok {
		entry = &bucket{locales: map[string]Tally{}}
		b.snapshot.states[state] = entry
	}
	tally := Tally{Translations: 1, Words: words}
	entry.locales[locale.Code()] = entry.locales[locale.Code()].Add(tally)
	if required {
		entry.total = entry.total.Add(tally)
	}
}

func (b *snapshotBuilder) build(stringsTotal int) *Snapshot {
	b.snapshot.stringsTotal = stringsTotal
	return b.snapshot
}
