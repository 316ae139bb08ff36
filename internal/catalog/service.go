package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-l10n/internal/locales"
	"github.com/goliatone/go-l10n/internal/logging"
	"github.com/goliatone/go-l10n/internal/stats"
	"github.com/goliatone/go-l10n/pkg/interfaces"
)

var (
	ErrRepositoryRequired   = errors.New("catalog: repository required")
	ErrNameRequired         = errors.New("catalog: name is required")
	ErrRevisionRequired     = errors.New("catalog: revision is required")
	ErrProjectRequired      = errors.New("catalog: project id is required")
	ErrKeyOwnerRequired     = errors.New("catalog: key requires a project or a section")
	ErrKeyProjectMismatch   = errors.New("catalog: key belongs to a different project")
	ErrBaseTranslation      = errors.New("catalog: base locale translations hold the source text")
	ErrNothingToReview      = errors.New("catalog: translation has no copy to review")
	ErrUnsupportedContainer = errors.New("catalog: unsupported container kind")
	ErrNegativeIndex        = errors.New("catalog: index must not be negative")
)

// StatsNotifier receives every mutation that can change statistics. Calls
// are synchronous; an error means the container's statistics are stale.
type StatsNotifier interface {
	Register(ctx context.Context, ref stats.ContainerRef) error
	OnTranslationChanged(ctx context.Context, container stats.Container, change stats.TranslationChange) error
	OnActiveKeySetChanged(ctx context.Context, container stats.Container) error
	OnLocaleRequirementsChanged(ctx context.Context, container stats.Container) error
}

// Service manages the catalog and keeps statistics current.
type Service interface {
	CreateProject(ctx context.Context, input CreateProjectInput) (*Project, error)
	SetProjectLocales(ctx context.Context, projectID uuid.UUID, targeted map[string]bool) (*Project, error)
	CreateArticle(ctx context.Context, input CreateArticleInput) (*Article, error)
	SetArticleLocales(ctx context.Context, articleID uuid.UUID, targeted map[string]bool) (*Article, error)
	AddSection(ctx context.Context, input AddSectionInput) (*Section, error)
	SetSectionActive(ctx context.Context, sectionID uuid.UUID, active bool) (*Section, error)
	AddKey(ctx context.Context, input AddKeyInput) (*Key, error)
	SetKeyPosition(ctx context.Context, keyID uuid.UUID, index *int) (*Key, error)
	CreateCommit(ctx context.Context, input CreateCommitInput) (*Commit, error)
	SetCommitKeys(ctx context.Context, commitID uuid.UUID, keyIDs []uuid.UUID) error
	UpsertTranslation(ctx context.Context, input UpsertTranslationInput) (*Translation, error)
	ReviewTranslation(ctx context.Context, input ReviewTranslationInput) (*Translation, error)
	Container(ctx context.Context, ref stats.ContainerRef) (stats.Container, error)
	Containers(ctx context.Context, projectID uuid.UUID) ([]stats.Container, error)
}

// CreateProjectInput describes a new project.
type CreateProjectInput struct {
	Name            string
	BaseLocale      string
	TargetedLocales map[string]bool
}

// CreateArticleInput describes a new article.
type CreateArticleInput struct {
	ProjectID       uuid.UUID
	Name            string
	BaseLocale      string
	TargetedLocales map[string]bool
}

// AddSectionInput describes a new article section. Active defaults to true.
type AddSectionInput struct {
	ArticleID uuid.UUID
	Name      string
	Active    *bool
}

// AddKeyInput describes a new key. Article keys set SectionID and Index;
// commit keys only set ProjectID and are linked with SetCommitKeys.
type AddKeyInput struct {
	ProjectID  uuid.UUID
	SectionID  *uuid.UUID
	Name       string
	SourceCopy string
	Index      *int
}

// CreateCommitInput describes a new commit.
type CreateCommitInput struct {
	ProjectID uuid.UUID
	Revision  string
}

// UpsertTranslationInput sets the copy of a key in one locale. A nil Copy
// clears the translation.
type UpsertTranslationInput struct {
	KeyID  uuid.UUID
	Locale string
	Copy   *string
}

// ReviewTranslationInput records a reviewer verdict.
type ReviewTranslationInput struct {
	KeyID    uuid.UUID
	Locale   string
	Approved bool
}

// IDGenerator produces record identifiers.
type IDGenerator func() uuid.UUID

// ServiceOption configures the service.
type ServiceOption func(*service)

// WithNotifier routes mutations to the stats store.
func WithNotifier(notifier StatsNotifier) ServiceOption {
	return func(s *service) {
		if notifier != nil {
			s.notifier = notifier
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIDGenerator overrides record ID generation.
func WithIDGenerator(generator IDGenerator) ServiceOption {
	return func(s *service) {
		if generator != nil {
			s.id = generator
		}
	}
}

// WithNow overrides the time source.
func WithNow(now func() time.Time) ServiceOption {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

type service struct {
	repo     Repository
	notifier StatsNotifier
	logger   interfaces.Logger
	id       IDGenerator
	now      func() time.Time
}

// NewService constructs a catalog service.
func NewService(repo Repository, opts ...ServiceOption) Service {
	if repo == nil {
		panic(ErrRepositoryRequired)
	}
	s := &service{
		repo:     repo,
		notifier: noopNotifier{},
		logger:   logging.NoOp(),
		id:       uuid.New,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) CreateProject(ctx context.Context, input CreateProjectInput) (*Project, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	baseLocale, targeted, err := normalizeLocales(input.BaseLocale, input.TargetedLocales)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	return s.repo.CreateProject(ctx, &Project{
		ID:              s.id(),
		Name:            name,
		BaseLocale:      baseLocale,
		TargetedLocales: targeted,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
}

func (s *service) SetProjectLocales(ctx context.Context, projectID uuid.UUID, targeted map[string]bool) (*Project, error) {
	project, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	_, normalized, err := normalizeLocales(project.BaseLocale, targeted)
	if err != nil {
		return nil, err
	}
	project.TargetedLocales = normalized
	project.UpdatedAt = s.now().UTC()
	updated, err := s.repo.UpdateProject(ctx, project)
	if err != nil {
		return nil, err
	}

	commits, err := s.repo.ListCommits(ctx, projectID)
	if err != nil {
		return updated, err
	}
	var errs []error
	for _, commit := range commits {
		if err := s.notifier.OnLocaleRequirementsChanged(ctx, NewCommitContainer(s.repo, commit, updated)); err != nil {
			errs = append(errs, err)
		}
	}
	return updated, errors.Join(errs...)
}

func (s *service) CreateArticle(ctx context.Context, input CreateArticleInput) (*Article, error) {
	if input.ProjectID == uuid.Nil {
		return nil, ErrProjectRequired
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	project, err := s.repo.GetProject(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}
	base := input.BaseLocale
	if strings.TrimSpace(base) == "" {
		base = project.BaseLocale
	}
	baseLocale, targeted, err := normalizeLocales(base, input.TargetedLocales)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	article, err := s.repo.CreateArticle(ctx, &Article{
		ID:              s.id(),
		ProjectID:       project.ID,
		Name:            name,
		BaseLocale:      baseLocale,
		TargetedLocales: targeted,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return nil, err
	}
	if err := s.notifier.Register(ctx, stats.ContainerRef{Kind: stats.KindArticle, ID: article.ID}); err != nil {
		return article, err
	}
	return article, nil
}

func (s *service) SetArticleLocales(ctx context.Context, articleID uuid.UUID, targeted map[string]bool) (*Article, error) {
	article, err := s.repo.GetArticle(ctx, articleID)
	if err != nil {
		return nil, err
	}
	_, normalized, err := normalizeLocales(article.BaseLocale, targeted)
	if err != nil {
		return nil, err
	}
	article.TargetedLocales = normalized
	article.UpdatedAt = s.now().UTC()
	updated, err := s.repo.UpdateArticle(ctx, article)
	if err != nil {
		return nil, err
	}
	return updated, s.notifier.OnLocaleRequirementsChanged(ctx, NewArticleContainer(s.repo, updated))
}

func (s *service) AddSection(ctx context.Context, input AddSectionInput) (*Section, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	article, err := s.repo.GetArticle(ctx, input.ArticleID)
	if err != nil {
		return nil, err
	}
	active := true
	if input.Active != nil {
		active = *input.Active
	}
	now := s.now().UTC()
	return s.repo.CreateSection(ctx, &Section{
		ID:        s.id(),
		ArticleID: article.ID,
		Name:      name,
		Active:    active,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *service) SetSectionActive(ctx context.Context, sectionID uuid.UUID, active bool) (*Section, error) {
	section, err := s.repo.GetSection(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	if section.Active == active {
		return section, nil
	}
	section.Active = active
	section.UpdatedAt = s.now().UTC()
	updated, err := s.repo.UpdateSection(ctx, section)
	if err != nil {
		return nil, err
	}
	article, err := s.repo.GetArticle(ctx, updated.ArticleID)
	if err != nil {
		return updated, err
	}
	return updated, s.notifier.OnActiveKeySetChanged(ctx, NewArticleContainer(s.repo, article))
}

// AddKey creates the key, its base translation and an empty translation for
// every targeted locale of the owning article or project.
func (s *service) AddKey(ctx context.Context, input AddKeyInput) (*Key, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if input.Index != nil && *input.Index < 0 {
		return nil, ErrNegativeIndex
	}

	var (
		article    *Article
		projectID  = input.ProjectID
		baseLocale string
		targeted   map[string]bool
	)
	switch {
	case input.SectionID != nil:
		section, err := s.repo.GetSection(ctx, *input.SectionID)
		if err != nil {
			return nil, err
		}
		if article, err = s.repo.GetArticle(ctx, section.ArticleID); err != nil {
			return nil, err
		}
		if projectID != uuid.Nil && projectID != article.ProjectID {
			return nil, ErrKeyProjectMismatch
		}
		projectID = article.ProjectID
		baseLocale, targeted = article.BaseLocale, article.TargetedLocales
	case projectID != uuid.Nil:
		project, err := s.repo.GetProject(ctx, projectID)
		if err != nil {
			return nil, err
		}
		baseLocale, targeted = project.BaseLocale, project.TargetedLocales
	default:
		return nil, ErrKeyOwnerRequired
	}

	now := s.now().UTC()
	key := &Key{
		ID:             s.id(),
		ProjectID:      projectID,
		SectionID:      input.SectionID,
		Name:           name,
		BaseLocale:     baseLocale,
		SourceCopy:     input.SourceCopy,
		IndexInSection: cloneInt(input.Index),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if input.SectionID == nil {
		key.IndexInSection = nil
	}
	created, err := s.repo.CreateKey(ctx, key)
	if err != nil {
		return nil, err
	}

	approved := true
	source := input.SourceCopy
	words := CountWords(source)
	rows := []*Translation{{
		ID:           s.id(),
		KeyID:        created.ID,
		Locale:       baseLocale,
		SourceLocale: baseLocale,
		SourceCopy:   source,
		Copy:         &source,
		Approved:     &approved,
		WordsCount:   words,
		CreatedAt:    now,
		UpdatedAt:    now,
	}}
	for _, locale := range requirementsFrom(targeted).Targeted() {
		if locale.Code() == baseLocale {
			continue
		}
		rows = append(rows, &Translation{
			ID:           s.id(),
			KeyID:        created.ID,
			Locale:       locale.Code(),
			SourceLocale: baseLocale,
			SourceCopy:   source,
			WordsCount:   words,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	for i, row := range rows {
		if _, err := s.repo.CreateTranslation(ctx, row); err != nil {
			// The key already exists; the article must count the rows that
			// were stored.
			s.logger.Warn("catalog.key.translations_incomplete",
				"key_id", created.ID, "stored", i, "expected", len(rows), "error", err)
			return created, errors.Join(err, s.notifyKeyAdded(ctx, article))
		}
	}

	s.logger.Debug("catalog.key.created", "key_id", created.ID, "translations", len(rows))
	return created, s.notifyKeyAdded(ctx, article)
}

func (s *service) notifyKeyAdded(ctx context.Context, article *Article) error {
	if article == nil {
		return nil
	}
	return s.notifier.OnActiveKeySetChanged(ctx, NewArticleContainer(s.repo, article))
}

func (s *service) SetKeyPosition(ctx context.Context, keyID uuid.UUID, index *int) (*Key, error) {
	if index != nil && *index < 0 {
		return nil, ErrNegativeIndex
	}
	key, err := s.repo.GetKey(ctx, keyID)
	if err != nil {
		return nil, err
	}
	if key.SectionID == nil {
		return nil, ErrKeyOwnerRequired
	}
	key.IndexInSection = cloneInt(index)
	key.UpdatedAt = s.now().UTC()
	updated, err := s.repo.UpdateKey(ctx, key)
	if err != nil {
		return nil, err
	}
	article, err := s.articleForSection(ctx, *updated.SectionID)
	if err != nil {
		return updated, err
	}
	return updated, s.notifier.OnActiveKeySetChanged(ctx, NewArticleContainer(s.repo, article))
}

func (s *service) CreateCommit(ctx context.Context, input CreateCommitInput) (*Commit, error) {
	if input.ProjectID == uuid.Nil {
		return nil, ErrProjectRequired
	}
	revision := strings.TrimSpace(input.Revision)
	if revision == "" {
		return nil, ErrRevisionRequired
	}
	if _, err := s.repo.GetProject(ctx, input.ProjectID); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	commit, err := s.repo.CreateCommit(ctx, &Commit{
		ID:        s.id(),
		ProjectID: input.ProjectID,
		Revision:  revision,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, err
	}
	if err := s.notifier.Register(ctx, stats.ContainerRef{Kind: stats.KindCommit, ID: commit.ID}); err != nil {
		return commit, err
	}
	return commit, nil
}

// SetCommitKeys replaces the keys of a commit, in order. Repeated IDs are
// linked once.
func (s *service) SetCommitKeys(ctx context.Context, commitID uuid.UUID, keyIDs []uuid.UUID) error {
	commit, err := s.repo.GetCommit(ctx, commitID)
	if err != nil {
		return err
	}
	project, err := s.repo.GetProject(ctx, commit.ProjectID)
	if err != nil {
		return err
	}

	unique := make([]uuid.UUID, 0, len(keyIDs))
	seen := make(map[uuid.UUID]struct{}, len(keyIDs))
	for _, id := range keyIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	keys, err := s.repo.ListKeys(ctx, unique)
	if err != nil {
		return err
	}
	found := make(map[uuid.UUID]*Key, len(keys))
	for _, key := range keys {
		found[key.ID] = key
	}

	links := make([]*CommitKey, 0, len(unique))
	for position, id := range unique {
		key, ok := found[id]
		if !ok {
			return &NotFoundError{Resource: "key", Key: id.String()}
		}
		if key.ProjectID != commit.ProjectID {
			return ErrKeyProjectMismatch
		}
		links = append(links, &CommitKey{
			ID:       s.id(),
			CommitID: commit.ID,
			KeyID:    id,
			Position: position,
		})
	}
	if err := s.repo.ReplaceCommitKeys(ctx, commit.ID, links); err != nil {
		return err
	}
	return s.notifier.OnActiveKeySetChanged(ctx, NewCommitContainer(s.repo, commit, project))
}

// UpsertTranslation stores new copy. Changing the copy clears any earlier
// review verdict.
func (s *service) UpsertTranslation(ctx context.Context, input UpsertTranslationInput) (*Translation, error) {
	key, locale, err := s.resolveTranslationTarget(ctx, input.KeyID, input.Locale)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	existing, err := s.repo.GetTranslation(ctx, key.ID, locale)
	var stored *Translation
	change := stats.TranslationChange{}
	switch {
	case err == nil:
		before := TranslationFacts(existing)
		change.Before = &before
		if !sameCopy(existing.Copy, input.Copy) {
			existing.Approved = nil
		}
		existing.Copy = cloneString(input.Copy)
		existing.UpdatedAt = now
		if stored, err = s.repo.UpdateTranslation(ctx, existing); err != nil {
			return nil, err
		}
	case IsNotFound(err):
		if stored, err = s.repo.CreateTranslation(ctx, &Translation{
			ID:           s.id(),
			KeyID:        key.ID,
			Locale:       locale,
			SourceLocale: key.BaseLocale,
			SourceCopy:   key.SourceCopy,
			Copy:         cloneString(input.Copy),
			WordsCount:   CountWords(key.SourceCopy),
			CreatedAt:    now,
			UpdatedAt:    now,
		}); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	after := TranslationFacts(stored)
	change.After = &after
	return stored, s.notifyTranslation(ctx, key, change)
}

func (s *service) ReviewTranslation(ctx context.Context, input ReviewTranslationInput) (*Translation, error) {
	key, locale, err := s.resolveTranslationTarget(ctx, input.KeyID, input.Locale)
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.GetTranslation(ctx, key.ID, locale)
	if err != nil {
		return nil, err
	}
	if existing.Copy == nil {
		return nil, ErrNothingToReview
	}

	before := TranslationFacts(existing)
	approved := input.Approved
	existing.Approved = &approved
	existing.UpdatedAt = s.now().UTC()
	stored, err := s.repo.UpdateTranslation(ctx, existing)
	if err != nil {
		return nil, err
	}
	after := TranslationFacts(stored)
	return stored, s.notifyTranslation(ctx, key, stats.TranslationChange{Before: &before, After: &after})
}

// Container resolves a reference to its stats view.
func (s *service) Container(ctx context.Context, ref stats.ContainerRef) (stats.Container, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	switch ref.Kind {
	case stats.KindArticle:
		article, err := s.repo.GetArticle(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		return NewArticleContainer(s.repo, article), nil
	case stats.KindCommit:
		commit, err := s.repo.GetCommit(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		project, err := s.repo.GetProject(ctx, commit.ProjectID)
		if err != nil {
			return nil, err
		}
		return NewCommitContainer(s.repo, commit, project), nil
	default:
		return nil, ErrUnsupportedContainer
	}
}

// Containers returns the stats view of every article of the project followed
// by every commit, each group ordered by id.
func (s *service) Containers(ctx context.Context, projectID uuid.UUID) ([]stats.Container, error) {
	if projectID == uuid.Nil {
		return nil, ErrProjectRequired
	}
	project, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	articles, err := s.repo.ListArticles(ctx, projectID)
	if err != nil {
		return nil, err
	}
	commits, err := s.repo.ListCommits(ctx, projectID)
	if err != nil {
		return nil, err
	}

	out := make([]stats.Container, 0, len(articles)+len(commits))
	for _, article := range articles {
		out = append(out, NewArticleContainer(s.repo, article))
	}
	for _, commit := range commits {
		out = append(out, NewCommitContainer(s.repo, commit, project))
	}
	return out, nil
}

func (s *service) resolveTranslationTarget(ctx context.Context, keyID uuid.UUID, code string) (*Key, string, error) {
	locale, err := locales.Parse(code)
	if err != nil {
		return nil, "", err
	}
	key, err := s.repo.GetKey(ctx, keyID)
	if err != nil {
		return nil, "", err
	}
	if base, err := locales.Parse(key.BaseLocale); err == nil && base == locale {
		return nil, "", ErrBaseTranslation
	}
	return key, locale.Code(), nil
}

// notifyTranslation signals every container that holds key: its article, and
// each commit that links it.
func (s *service) notifyTranslation(ctx context.Context, key *Key, change stats.TranslationChange) error {
	containers, err := s.containersForKey(ctx, key)
	if err != nil {
		return err
	}
	var errs []error
	for _, container := range containers {
		if err := s.notifier.OnTranslationChanged(ctx, container, change); err != nil {
			logging.WithContainer(s.logger, string(container.Ref().Kind), container.Ref().ID.String()).
				Warn("catalog.translation.notify_failed", "key_id", key.ID, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *service) containersForKey(ctx context.Context, key *Key) ([]stats.Container, error) {
	var out []stats.Container
	if key.SectionID != nil {
		article, err := s.articleForSection(ctx, *key.SectionID)
		if err != nil {
			return nil, err
		}
		out = append(out, NewArticleContainer(s.repo, article))
	}

	links, err := s.repo.ListKeyCommits(ctx, key.ID)
	if err != nil {
		return nil, err
	}
	projects := map[uuid.UUID]*Project{}
	for _, link := range links {
		commit, err := s.repo.GetCommit(ctx, link.CommitID)
		if err != nil {
			return nil, err
		}
		project, ok := projects[commit.ProjectID]
		if !ok {
			if project, err = s.repo.GetProject(ctx, commit.ProjectID); err != nil {
				return nil, err
			}
			projects[commit.ProjectID] = project
		}
		out = append(out, NewCommitContainer(s.repo, commit, project))
	}
	return out, nil
}

func (s *service) articleForSection(ctx context.Context, sectionID uuid.UUID) (*Article, error) {
	section, err := s.repo.GetSection(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	return s.repo.GetArticle(ctx, section.ArticleID)
}

// normalizeLocales canonicalises the base locale and drops it from the
// targeted map.
func normalizeLocales(base string, targeted map[string]bool) (string, map[string]bool, error) {
	baseLocale, err := locales.Parse(base)
	if err != nil {
		return "", nil, err
	}
	reqs, err := locales.NewRequirements(targeted)
	if err != nil {
		return "", nil, err
	}
	raw := reqs.Raw()
	delete(raw, baseLocale.Code())
	return baseLocale.Code(), raw, nil
}

func sameCopy(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func cloneString(src *string) *string {
	if src == nil {
		return nil
	}
	v := *src
	return &v
}

type noopNotifier struct{}

func (noopNotifier) Register(context.Context, stats.ContainerRef) error { return nil }

func (noopNotifier) OnTranslationChanged(context.Context, stats.Container, stats.TranslationChange) error {
	return nil
}

func (noopNotifier) OnActiveKeySetChanged(context.Context, stats.Container) error { return nil }

func (noopNotifier) OnLocaleRequirementsChanged(context.Context, stats.Container) error { return nil }
