package catalog

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type translationKey struct {
	keyID  uuid.UUID
	locale string
}

type memoryRepository struct {
	mu           sync.RWMutex
	projects     map[uuid.UUID]*Project
	articles     map[uuid.UUID]*Article
	sections     map[uuid.UUID]*Section
	keys         map[uuid.UUID]*Key
	translations map[translationKey]*Translation
	commits      map[uuid.UUID]*Commit
	commitKeys   map[uuid.UUID][]*CommitKey
}

// NewMemoryRepository constructs an in-memory catalog repository.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		projects:     make(map[uuid.UUID]*Project),
		articles:     make(map[uuid.UUID]*Article),
		sections:     make(map[uuid.UUID]*Section),
		keys:         make(map[uuid.UUID]*Key),
		translations: make(map[translationKey]*Translation),
		commits:      make(map[uuid.UUID]*Commit),
		commitKeys:   make(map[uuid.UUID][]*CommitKey),
	}
}

func (m *memoryRepository) CreateProject(_ context.Context, project *Project) (*Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[project.ID] = cloneProject(project)
	return cloneProject(project), nil
}

func (m *memoryRepository) GetProject(_ context.Context, id uuid.UUID) (*Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.projects[id]
	if !ok {
		return nil, &NotFoundError{Resource: "project", Key: id.String()}
	}
	return cloneProject(record), nil
}

func (m *memoryRepository) UpdateProject(_ context.Context, project *Project) (*Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[project.ID]; !ok {
		return nil, &NotFoundError{Resource: "project", Key: project.ID.String()}
	}
	m.projects[project.ID] = cloneProject(project)
	return cloneProject(project), nil
}

func (m *memoryRepository) CreateArticle(_ context.Context, article *Article) (*Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.articles[article.ID] = cloneArticle(article)
	return cloneArticle(article), nil
}

func (m *memoryRepository) GetArticle(_ context.Context, id uuid.UUID) (*Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.articles[id]
	if !ok {
		return nil, &NotFoundError{Resource: "article", Key: id.String()}
	}
	return cloneArticle(record), nil
}

func (m *memoryRepository) UpdateArticle(_ context.Context, article *Article) (*Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.articles[article.ID]; !ok {
		return nil, &NotFoundError{Resource: "article", Key: article.ID.String()}
	}
	m.articles[article.ID] = cloneArticle(article)
	return cloneArticle(article), nil
}

func (m *memoryRepository) ListArticles(_ context.Context, projectID uuid.UUID) ([]*Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Article
	for _, record := range m.articles {
		if record.ProjectID == projectID {
			out = append(out, cloneArticle(record))
		}
	}
	slices.SortFunc(out, func(a, b *Article) int { return strings.Compare(a.ID.String(), b.ID.String()) })
	return out, nil
}

func (m *memoryRepository) CreateSection(_ context.Context, section *Section) (*Section, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sections[section.ID] = cloneSection(section)
	return cloneSection(section), nil
}

func (m *memoryRepository) GetSection(_ context.Context, id uuid.UUID) (*Section, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.sections[id]
	if !ok {
		return nil, &NotFoundError{Resource: "section", Key: id.String()}
	}
	return cloneSection(record), nil
}

func (m *memoryRepository) UpdateSection(_ context.Context, section *Section) (*Section, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sections[section.ID]; !ok {
		return nil, &NotFoundError{Resource: "section", Key: section.ID.String()}
	}
	m.sections[section.ID] = cloneSection(section)
	return cloneSection(section), nil
}

func (m *memoryRepository) ListSections(_ context.Context, articleID uuid.UUID) ([]*Section, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Section
	for _, record := range m.sections {
		if record.ArticleID == articleID {
			out = append(out, cloneSection(record))
		}
	}
	slices.SortFunc(out, func(a, b *Section) int { return strings.Compare(a.ID.String(), b.ID.String()) })
	return out, nil
}

func (m *memoryRepository) CreateKey(_ context.Context, key *Key) (*Key, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key.ID] = cloneKey(key)
	return cloneKey(key), nil
}

func (m *memoryRepository) GetKey(_ context.Context, id uuid.UUID) (*Key, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.keys[id]
	if !ok {
		return nil, &NotFoundError{Resource: "key", Key: id.String()}
	}
	return cloneKey(record), nil
}

func (m *memoryRepository) UpdateKey(_ context.Context, key *Key) (*Key, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[key.ID]; !ok {
		return nil, &NotFoundError{Resource: "key", Key: key.ID.String()}
	}
	m.keys[key.ID] = cloneKey(key)
	return cloneKey(key), nil
}

func (m *memoryRepository) ListKeys(_ context.Context, ids []uuid.UUID) ([]*Key, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Key, 0, len(ids))
	for _, id := range ids {
		if record, ok := m.keys[id]; ok {
			out = append(out, cloneKey(record))
		}
	}
	return out, nil
}

func (m *memoryRepository) ListSectionKeys(_ context.Context, sectionIDs []uuid.UUID) ([]*Key, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Key
	for _, record := range m.keys {
		if record.SectionID != nil && slices.Contains(sectionIDs, *record.SectionID) {
			out = append(out, cloneKey(record))
		}
	}
	slices.SortFunc(out, func(a, b *Key) int { return strings.Compare(a.ID.String(), b.ID.String()) })
	return out, nil
}

func (m *memoryRepository) CreateTranslation(_ context.Context, translation *Translation) (*Translation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.translations[translationKey{translation.KeyID, translation.Locale}] = cloneTranslation(translation)
	return cloneTranslation(translation), nil
}

func (m *memoryRepository) UpdateTranslation(_ context.Context, translation *Translation) (*Translation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := translationKey{translation.KeyID, translation.Locale}
	if _, ok := m.translations[idx]; !ok {
		return nil, &NotFoundError{Resource: "translation", Key: translation.ID.String()}
	}
	m.translations[idx] = cloneTranslation(translation)
	return cloneTranslation(translation), nil
}

func (m *memoryRepository) GetTranslation(_ context.Context, keyID uuid.UUID, locale string) (*Translation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.translations[translationKey{keyID, locale}]
	if !ok {
		return nil, &NotFoundError{Resource: "translation", Key: keyID.String() + "/" + locale}
	}
	return cloneTranslation(record), nil
}

func (m *memoryRepository) ListTranslations(_ context.Context, keyIDs []uuid.UUID) ([]*Translation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Translation
	for idx, record := range m.translations {
		if slices.Contains(keyIDs, idx.keyID) {
			out = append(out, cloneTranslation(record))
		}
	}
	return out, nil
}

func (m *memoryRepository) CreateCommit(_ context.Context, commit *Commit) (*Commit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commits[commit.ID] = cloneCommit(commit)
	return cloneCommit(commit), nil
}

func (m *memoryRepository) GetCommit(_ context.Context, id uuid.UUID) (*Commit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.commits[id]
	if !ok {
		return nil, &NotFoundError{Resource: "commit", Key: id.String()}
	}
	return cloneCommit(record), nil
}

func (m *memoryRepository) ListCommits(_ context.Context, projectID uuid.UUID) ([]*Commit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Commit
	for _, record := range m.commits {
		if record.ProjectID == projectID {
			out = append(out, cloneCommit(record))
		}
	}
	slices.SortFunc(out, func(a, b *Commit) int { return strings.Compare(a.ID.String(), b.ID.String()) })
	return out, nil
}

func (m *memoryRepository) ReplaceCommitKeys(_ context.Context, commitID uuid.UUID, links []*CommitKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.commits[commitID]; !ok {
		return &NotFoundError{Resource: "commit", Key: commitID.String()}
	}
	stored := make([]*CommitKey, 0, len(links))
	for _, link := range links {
		stored = append(stored, cloneCommitKey(link))
	}
	m.commitKeys[commitID] = stored
	return nil
}

func (m *memoryRepository) ListCommitKeys(_ context.Context, commitID uuid.UUID) ([]*CommitKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	links := m.commitKeys[commitID]
	out := make([]*CommitKey, 0, len(links))
	for _, link := range links {
		out = append(out, cloneCommitKey(link))
	}
	slices.SortFunc(out, func(a, b *CommitKey) int { return a.Position - b.Position })
	return out, nil
}

func (m *memoryRepository) ListKeyCommits(_ context.Context, keyID uuid.UUID) ([]*CommitKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*CommitKey
	for _, links := range m.commitKeys {
		for _, link := range links {
			if link.KeyID == keyID {
				out = append(out, cloneCommitKey(link))
			}
		}
	}
	slices.SortFunc(out, func(a, b *CommitKey) int { return strings.Compare(a.CommitID.String(), b.CommitID.String()) })
	return out, nil
}
