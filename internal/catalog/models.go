package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Project groups keys that are shipped together. Commits inherit its locale
// requirements.
type Project struct {
	bun.BaseModel `bun:"table:projects,alias:p"`

	ID              uuid.UUID       `bun:",pk,type:uuid" json:"id"`
	Name            string          `bun:"name,notnull" json:"name"`
	BaseLocale      string          `bun:"base_locale,notnull" json:"base_locale"`
	TargetedLocales map[string]bool `bun:"targeted_locales,type:jsonb" json:"targeted_locales"`
	CreatedAt       time.Time       `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt       time.Time       `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// Article is a standalone document split into sections.
type Article struct {
	bun.BaseModel `bun:"table:articles,alias:a"`

	ID              uuid.UUID       `bun:",pk,type:uuid" json:"id"`
	ProjectID       uuid.UUID       `bun:"project_id,notnull,type:uuid" json:"project_id"`
	Name            string          `bun:"name,notnull" json:"name"`
	BaseLocale      string          `bun:"base_locale,notnull" json:"base_locale"`
	TargetedLocales map[string]bool `bun:"targeted_locales,type:jsonb" json:"targeted_locales"`
	CreatedAt       time.Time       `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt       time.Time       `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// Section is a block of an article. Keys of an inactive section are ignored by
// statistics.
type Section struct {
	bun.BaseModel `bun:"table:sections,alias:s"`

	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	ArticleID uuid.UUID `bun:"article_id,notnull,type:uuid" json:"article_id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Active    bool      `bun:"active,notnull" json:"active"`
	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// Key is one localizable string. Article keys have a section and an
// IndexInSection; a nil index means the key dropped out of the article.
// Commit keys are project keys linked through CommitKey.
type Key struct {
	bun.BaseModel `bun:"table:keys,alias:k"`

	ID             uuid.UUID  `bun:",pk,type:uuid" json:"id"`
	ProjectID      uuid.UUID  `bun:"project_id,notnull,type:uuid" json:"project_id"`
	SectionID      *uuid.UUID `bun:"section_id,type:uuid" json:"section_id,omitempty"`
	Name           string     `bun:"name,notnull" json:"name"`
	BaseLocale     string     `bun:"base_locale,notnull" json:"base_locale"`
	SourceCopy     string     `bun:"source_copy,notnull" json:"source_copy"`
	IndexInSection *int       `bun:"index_in_section" json:"index_in_section,omitempty"`
	CreatedAt      time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt      time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// Translation is the rendering of a key in one locale. The row whose Locale
// equals SourceLocale carries the original text.
type Translation struct {
	bun.BaseModel `bun:"table:translations,alias:t"`

	ID           uuid.UUID `bun:",pk,type:uuid" json:"id"`
	KeyID        uuid.UUID `bun:"key_id,notnull,type:uuid" json:"key_id"`
	Locale       string    `bun:"locale,notnull" json:"locale"`
	SourceLocale string    `bun:"source_locale,notnull" json:"source_locale"`
	SourceCopy   string    `bun:"source_copy,notnull" json:"source_copy"`
	Copy         *string   `bun:"copy" json:"copy,omitempty"`
	Approved     *bool     `bun:"approved" json:"approved,omitempty"`
	WordsCount   int       `bun:"words_count,notnull" json:"words_count"`
	CreatedAt    time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// Commit is a revision of a project whose keys are tracked for translation.
type Commit struct {
	bun.BaseModel `bun:"table:commits,alias:c"`

	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	ProjectID uuid.UUID `bun:"project_id,notnull,type:uuid" json:"project_id"`
	Revision  string    `bun:"revision,notnull" json:"revision"`
	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// CommitKey links a key to a commit at a position.
type CommitKey struct {
	bun.BaseModel `bun:"table:commit_keys,alias:ck"`

	ID       uuid.UUID `bun:",pk,type:uuid" json:"id"`
	CommitID uuid.UUID `bun:"commit_id,notnull,type:uuid" json:"commit_id"`
	KeyID    uuid.UUID `bun:"key_id,notnull,type:uuid" json:"key_id"`
	Position int       `bun:"position,notnull" json:"position"`
}

// Models lists the bun models owned by this package in creation order.
func Models() []any {
	return []any{
		(*Project)(nil),
		(*Article)(nil),
		(*Section)(nil),
		(*Key)(nil),
		(*Translation)(nil),
		(*Commit)(nil),
		(*CommitKey)(nil),
	}
}
