package catalog

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const catalogCacheNamespace = "catalog"

// BunRepository implements Repository on top of go-repository-bun. Commit key
// replacement runs in a transaction on the raw bun handle.
type BunRepository struct {
	db           *bun.DB
	projects     repository.Repository[*Project]
	articles     repository.Repository[*Article]
	sections     repository.Repository[*Section]
	keys         repository.Repository[*Key]
	translations repository.Repository[*Translation]
	commits      repository.Repository[*Commit]
	commitKeys   repository.Repository[*CommitKey]
	cacheService cache.CacheService
	cachePrefix  string
}

var _ Repository = (*BunRepository)(nil)

// NewBunRepository creates a catalog repository without caching.
func NewBunRepository(db *bun.DB) *BunRepository {
	return NewBunRepositoryWithCache(db, nil, nil)
}

// NewBunRepositoryWithCache creates a catalog repository whose project,
// article and commit reads are cached. Rows that change often are never
// cached.
func NewBunRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunRepository {
	r := &BunRepository{
		db:           db,
		projects:     newProjectRepository(db),
		articles:     newArticleRepository(db),
		sections:     newSectionRepository(db),
		keys:         newKeyRepository(db),
		translations: newTranslationRepository(db),
		commits:      newCommitRepository(db),
		commitKeys:   newCommitKeyRepository(db),
	}
	if cacheService != nil && serializer != nil {
		r.projects = repositorycache.New(r.projects, cacheService, serializer)
		r.articles = repositorycache.New(r.articles, cacheService, serializer)
		r.commits = repositorycache.New(r.commits, cacheService, serializer)
		r.cacheService = cacheService
		r.cachePrefix = catalogCacheNamespace + cache.KeySeparator
	}
	return r
}

// InvalidateCache drops cached project, article and commit reads.
func (r *BunRepository) InvalidateCache(ctx context.Context) error {
	if r.cacheService == nil || r.cachePrefix == "" {
		return nil
	}
	return r.cacheService.DeleteByPrefix(ctx, r.cachePrefix)
}

func (r *BunRepository) CreateProject(ctx context.Context, project *Project) (*Project, error) {
	record, err := r.projects.Create(ctx, project)
	if err != nil {
		return nil, mapRepositoryError(err, "project", project.ID.String())
	}
	return record, nil
}

func (r *BunRepository) GetProject(ctx context.Context, id uuid.UUID) (*Project, error) {
	record, err := r.projects.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "project", id.String())
	}
	return record, nil
}

func (r *BunRepository) UpdateProject(ctx context.Context, project *Project) (*Project, error) {
	record, err := r.projects.Update(ctx, project,
		repository.UpdateByID(project.ID.String()),
		repository.UpdateColumns("name", "base_locale", "targeted_locales", "updated_at"),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "project", project.ID.String())
	}
	if err := r.InvalidateCache(ctx); err != nil {
		return nil, err
	}
	return record, nil
}

func (r *BunRepository) CreateArticle(ctx context.Context, article *Article) (*Article, error) {
	record, err := r.articles.Create(ctx, article)
	if err != nil {
		return nil, mapRepositoryError(err, "article", article.ID.String())
	}
	return record, nil
}

func (r *BunRepository) GetArticle(ctx context.Context, id uuid.UUID) (*Article, error) {
	record, err := r.articles.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "article", id.String())
	}
	return record, nil
}

func (r *BunRepository) UpdateArticle(ctx context.Context, article *Article) (*Article, error) {
	record, err := r.articles.Update(ctx, article,
		repository.UpdateByID(article.ID.String()),
		repository.UpdateColumns("name", "base_locale", "targeted_locales", "updated_at"),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "article", article.ID.String())
	}
	if err := r.InvalidateCache(ctx); err != nil {
		return nil, err
	}
	return record, nil
}

func (r *BunRepository) ListArticles(ctx context.Context, projectID uuid.UUID) ([]*Article, error) {
	records, _, err := r.articles.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.project_id = ?", projectID).Order("id ASC")
	}))
	return records, err
}

func (r *BunRepository) CreateSection(ctx context.Context, section *Section) (*Section, error) {
	record, err := r.sections.Create(ctx, section)
	if err != nil {
		return nil, mapRepositoryError(err, "section", section.ID.String())
	}
	return record, nil
}

func (r *BunRepository) GetSection(ctx context.Context, id uuid.UUID) (*Section, error) {
	record, err := r.sections.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "section", id.String())
	}
	return record, nil
}

func (r *BunRepository) UpdateSection(ctx context.Context, section *Section) (*Section, error) {
	record, err := r.sections.Update(ctx, section,
		repository.UpdateByID(section.ID.String()),
		repository.UpdateColumns("name", "active", "updated_at"),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "section", section.ID.String())
	}
	return record, nil
}

func (r *BunRepository) ListSections(ctx context.Context, articleID uuid.UUID) ([]*Section, error) {
	records, _, err := r.sections.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.article_id = ?", articleID).Order("id ASC")
	}))
	return records, err
}

func (r *BunRepository) CreateKey(ctx context.Context, key *Key) (*Key, error) {
	record, err := r.keys.Create(ctx, key)
	if err != nil {
		return nil, mapRepositoryError(err, "key", key.ID.String())
	}
	return record, nil
}

func (r *BunRepository) GetKey(ctx context.Context, id uuid.UUID) (*Key, error) {
	record, err := r.keys.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "key", id.String())
	}
	return record, nil
}

func (r *BunRepository) UpdateKey(ctx context.Context, key *Key) (*Key, error) {
	record, err := r.keys.Update(ctx, key,
		repository.UpdateByID(key.ID.String()),
		repository.UpdateColumns("name", "section_id", "source_copy", "index_in_section", "updated_at"),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "key", key.ID.String())
	}
	return record, nil
}

func (r *BunRepository) ListKeys(ctx context.Context, ids []uuid.UUID) ([]*Key, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	records, _, err := r.keys.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.id IN (?)", bun.In(ids))
	}))
	return records, err
}

func (r *BunRepository) ListSectionKeys(ctx context.Context, sectionIDs []uuid.UUID) ([]*Key, error) {
	if len(sectionIDs) == 0 {
		return nil, nil
	}
	records, _, err := r.keys.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.section_id IN (?)", bun.In(sectionIDs)).Order("id ASC")
	}))
	return records, err
}

func (r *BunRepository) CreateTranslation(ctx context.Context, translation *Translation) (*Translation, error) {
	record, err := r.translations.Create(ctx, translation)
	if err != nil {
		return nil, mapRepositoryError(err, "translation", translation.ID.String())
	}
	return record, nil
}

func (r *BunRepository) UpdateTranslation(ctx context.Context, translation *Translation) (*Translation, error) {
	record, err := r.translations.Update(ctx, translation,
		repository.UpdateByID(translation.ID.String()),
		repository.UpdateColumns("source_copy", "copy", "approved", "words_count", "updated_at"),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "translation", translation.ID.String())
	}
	return record, nil
}

func (r *BunRepository) GetTranslation(ctx context.Context, keyID uuid.UUID, locale string) (*Translation, error) {
	records, _, err := r.translations.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.key_id = ?", keyID).Where("?TableAlias.locale = ?", locale)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: "translation", Key: keyID.String() + "/" + locale}
	}
	return records[0], nil
}

func (r *BunRepository) ListTranslations(ctx context.Context, keyIDs []uuid.UUID) ([]*Translation, error) {
	if len(keyIDs) == 0 {
		return nil, nil
	}
	records, _, err := r.translations.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.key_id IN (?)", bun.In(keyIDs))
	}))
	return records, err
}

func (r *BunRepository) CreateCommit(ctx context.Context, commit *Commit) (*Commit, error) {
	record, err := r.commits.Create(ctx, commit)
	if err != nil {
		return nil, mapRepositoryError(err, "commit", commit.ID.String())
	}
	return record, nil
}

func (r *BunRepository) GetCommit(ctx context.Context, id uuid.UUID) (*Commit, error) {
	record, err := r.commits.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "commit", id.String())
	}
	return record, nil
}

func (r *BunRepository) ListCommits(ctx context.Context, projectID uuid.UUID) ([]*Commit, error) {
	records, _, err := r.commits.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.project_id = ?", projectID).Order("id ASC")
	}))
	return records, err
}

func (r *BunRepository) ReplaceCommitKeys(ctx context.Context, commitID uuid.UUID, links []*CommitKey) error {
	if r.db == nil {
		return fmt.Errorf("catalog repository: database not configured")
	}
	if _, err := r.GetCommit(ctx, commitID); err != nil {
		return err
	}
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*CommitKey)(nil)).
			Where("?TableAlias.commit_id = ?", commitID).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete commit keys: %w", err)
		}
		if len(links) == 0 {
			return nil
		}
		if _, err := tx.NewInsert().Model(&links).Exec(ctx); err != nil {
			return fmt.Errorf("insert commit keys: %w", err)
		}
		return nil
	})
}

func (r *BunRepository) ListCommitKeys(ctx context.Context, commitID uuid.UUID) ([]*CommitKey, error) {
	records, _, err := r.commitKeys.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.commit_id = ?", commitID).Order("position ASC")
	}))
	return records, err
}

func (r *BunRepository) ListKeyCommits(ctx context.Context, keyID uuid.UUID) ([]*CommitKey, error) {
	records, _, err := r.commitKeys.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.key_id = ?", keyID).Order("commit_id ASC")
	}))
	return records, err
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Resource: resource, Key: key}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}

func newProjectRepository(db *bun.DB) repository.Repository[*Project] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Project]{
		NewRecord:          func() *Project { return &Project{} },
		GetID:              func(record *Project) uuid.UUID { return record.ID },
		SetID:              func(record *Project, id uuid.UUID) { record.ID = id },
		GetIdentifier:      func() string { return "name" },
		GetIdentifierValue: func(record *Project) string { return record.Name },
	})
}

func newArticleRepository(db *bun.DB) repository.Repository[*Article] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Article]{
		NewRecord:          func() *Article { return &Article{} },
		GetID:              func(record *Article) uuid.UUID { return record.ID },
		SetID:              func(record *Article, id uuid.UUID) { record.ID = id },
		GetIdentifier:      func() string { return "name" },
		GetIdentifierValue: func(record *Article) string { return record.Name },
	})
}

func newSectionRepository(db *bun.DB) repository.Repository[*Section] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Section]{
		NewRecord:          func() *Section { return &Section{} },
		GetID:              func(record *Section) uuid.UUID { return record.ID },
		SetID:              func(record *Section, id uuid.UUID) { record.ID = id },
		GetIdentifier:      func() string { return "name" },
		GetIdentifierValue: func(record *Section) string { return record.Name },
	})
}

func newKeyRepository(db *bun.DB) repository.Repository[*Key] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Key]{
		NewRecord:          func() *Key { return &Key{} },
		GetID:              func(record *Key) uuid.UUID { return record.ID },
		SetID:              func(record *Key, id uuid.UUID) { record.ID = id },
		GetIdentifier:      func() string { return "name" },
		GetIdentifierValue: func(record *Key) string { return record.Name },
	})
}

func newTranslationRepository(db *bun.DB) repository.Repository[*Translation] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Translation]{
		NewRecord:          func() *Translation { return &Translation{} },
		GetID:              func(record *Translation) uuid.UUID { return record.ID },
		SetID:              func(record *Translation, id uuid.UUID) { record.ID = id },
		GetIdentifier:      func() string { return "id" },
		GetIdentifierValue: func(record *Translation) string { return record.ID.String() },
	})
}

func newCommitRepository(db *bun.DB) repository.Repository[*Commit] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Commit]{
		NewRecord:          func() *Commit { return &Commit{} },
		GetID:              func(record *Commit) uuid.UUID { return record.ID },
		SetID:              func(record *Commit, id uuid.UUID) { record.ID = id },
		GetIdentifier:      func() string { return "revision" },
		GetIdentifierValue: func(record *Commit) string { return record.Revision },
	})
}

func newCommitKeyRepository(db *bun.DB) repository.Repository[*CommitKey] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*CommitKey]{
		NewRecord:          func() *CommitKey { return &CommitKey{} },
		GetID:              func(record *CommitKey) uuid.UUID { return record.ID },
		SetID:              func(record *CommitKey, id uuid.UUID) { record.ID = id },
		GetIdentifier:      func() string { return "id" },
		GetIdentifierValue: func(record *CommitKey) string { return record.ID.String() },
	})
}
