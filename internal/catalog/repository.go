package catalog

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/google/uuid"
)

// Repository persists the catalog records that feed statistics.
type Repository interface {
	CreateProject(ctx context.Context, project *Project) (*Project, error)
	GetProject(ctx context.Context, id uuid.UUID) (*Project, error)
	UpdateProject(ctx context.Context, project *Project) (*Project, error)

	CreateArticle(ctx context.Context, article *Article) (*Article, error)
	GetArticle(ctx context.Context, id uuid.UUID) (*Article, error)
	UpdateArticle(ctx context.Context, article *Article) (*Article, error)
	ListArticles(ctx context.Context, projectID uuid.UUID) ([]*Article, error)

	CreateSection(ctx context.Context, section *Section) (*Section, error)
	GetSection(ctx context.Context, id uuid.UUID) (*Section, error)
	UpdateSection(ctx context.Context, section *Section) (*Section, error)
	ListSections(ctx context.Context, articleID uuid.UUID) ([]*Section, error)

	CreateKey(ctx context.Context, key *Key) (*Key, error)
	GetKey(ctx context.Context, id uuid.UUID) (*Key, error)
	UpdateKey(ctx context.Context, key *Key) (*Key, error)
	ListKeys(ctx context.Context, ids []uuid.UUID) ([]*Key, error)
	ListSectionKeys(ctx context.Context, sectionIDs []uuid.UUID) ([]*Key, error)

	CreateTranslation(ctx context.Context, translation *Translation) (*Translation, error)
	UpdateTranslation(ctx context.Context, translation *Translation) (*Translation, error)
	GetTranslation(ctx context.Context, keyID uuid.UUID, locale string) (*Translation, error)
	ListTranslations(ctx context.Context, keyIDs []uuid.UUID) ([]*Translation, error)

	CreateCommit(ctx context.Context, commit *Commit) (*Commit, error)
	GetCommit(ctx context.Context, id uuid.UUID) (*Commit, error)
	ListCommits(ctx context.Context, projectID uuid.UUID) ([]*Commit, error)
	ReplaceCommitKeys(ctx context.Context, commitID uuid.UUID, links []*CommitKey) error
	ListCommitKeys(ctx context.Context, commitID uuid.UUID) ([]*CommitKey, error)
	ListKeyCommits(ctx context.Context, keyID uuid.UUID) ([]*CommitKey, error)
}

// NotFoundError is returned when a catalog record cannot be located.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func cloneProject(src *Project) *Project {
	if src == nil {
		return nil
	}
	out := *src
	out.TargetedLocales = maps.Clone(src.TargetedLocales)
	return &out
}

func cloneArticle(src *Article) *Article {
	if src == nil {
		return nil
	}
	out := *src
	out.TargetedLocales = maps.Clone(src.TargetedLocales)
	return &out
}

func cloneSection(src *Section) *Section {
	if src == nil {
		return nil
	}
	out := *src
	return &out
}

func cloneKey(src *Key) *Key {
	if src == nil {
		return nil
	}
	out := *src
	if src.SectionID != nil {
		id := *src.SectionID
		out.SectionID = &id
	}
	out.IndexInSection = cloneInt(src.IndexInSection)
	return &out
}

func cloneTranslation(src *Translation) *Translation {
	if src == nil {
		return nil
	}
	out := *src
	if src.Copy != nil {
		copied := *src.Copy
		out.Copy = &copied
	}
	if src.Approved != nil {
		approved := *src.Approved
		out.Approved = &approved
	}
	return &out
}

func cloneCommit(src *Commit) *Commit {
	if src == nil {
		return nil
	}
	out := *src
	return &out
}

func cloneCommitKey(src *CommitKey) *CommitKey {
	if src == nil {
		return nil
	}
	out := *src
	return &out
}

func cloneInt(src *int) *int {
	if src == nil {
		return nil
	}
	v := *src
	return &v
}
