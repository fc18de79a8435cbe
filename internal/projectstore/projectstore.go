// Package projectstore resolves projects and their document corpora: a
// MongoDB-backed Project record (team binding, settings, shared
// collections) and a filesystem-backed document source rooted at one
// directory per project, scanned the way a codebase file scanner walks
// a repository tree.
package projectstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"rlmengine/internal/apperr"
	"rlmengine/internal/domain"
	"rlmengine/internal/index"
	"rlmengine/internal/indexjob"
)

// maxDocumentBytes skips a file larger than this rather than loading it
// whole into the in-process index.
const maxDocumentBytes = 5 * 1024 * 1024

// skippedDirs are never descended into when scanning a project's upload
// root, mirroring the directories a code scan would also ignore.
var skippedDirs = map[string]struct{}{
	".git": {}, "node_modules": {}, "vendor": {}, ".idea": {}, ".vscode": {},
}

// supportedExtensions limits a scan to text documents the ranker and
// chunker can meaningfully tokenize.
var supportedExtensions = map[string]struct{}{
	".md": {}, ".mdx": {}, ".txt": {}, ".rst": {},
}

// Store resolves domain.Project records from MongoDB and their documents
// from the filesystem.
type Store struct {
	projects *mongo.Collection
	root     string
}

// NewStore builds a Store. root is the directory under which each
// project's documents live at root/<project_id>/...
func NewStore(db *mongo.Database, root string) *Store {
	return &Store{projects: db.Collection("projects"), root: root}
}

// Get resolves a project by its ID or slug.
func (s *Store) Get(ctx context.Context, idOrSlug string) (*domain.Project, error) {
	var p domain.Project
	err := s.projects.FindOne(ctx, bson.M{"$or": []bson.M{
		{"_id": idOrSlug}, {"slug": idOrSlug},
	}}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.New(apperr.KindNotFound, "project not found")
	}
	if err != nil {
		return nil, fmt.Errorf("projectstore: get project: %w", err)
	}
	return &p, nil
}

// ListByTeam returns every project owned by teamID, sorted by slug, for
// the cross-project fan-out tool.
func (s *Store) ListByTeam(ctx context.Context, teamID string) ([]domain.Project, error) {
	cursor, err := s.projects.Find(ctx, bson.M{"team_id": teamID})
	if err != nil {
		return nil, fmt.Errorf("projectstore: list by team: %w", err)
	}
	defer cursor.Close(ctx)

	var projects []domain.Project
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("projectstore: decode team projects: %w", err)
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].Slug < projects[j].Slug })
	return projects, nil
}

// projectDir returns the filesystem directory holding projectID's
// uploaded documents.
func (s *Store) projectDir(projectID string) string {
	return filepath.Join(s.root, projectID)
}

// Documents implements indexjob.DocumentSource: every supported file under
// the project's upload directory. Mode is accepted for interface
// conformance; both incremental and full scans currently re-walk the
// whole tree, since the filesystem itself carries no change log.
func (s *Store) Documents(ctx context.Context, projectID string, mode indexjob.Mode) ([]indexjob.Document, error) {
	files, err := s.scan(projectID)
	if err != nil {
		return nil, err
	}
	docs := make([]indexjob.Document, 0, len(files))
	for _, f := range files {
		content, err := os.ReadFile(f.absPath)
		if err != nil {
			return nil, fmt.Errorf("projectstore: read %s: %w", f.relPath, err)
		}
		docs = append(docs, indexjob.Document{ID: f.relPath, Path: f.relPath, Content: string(content)})
	}
	return docs, nil
}

// LoadIndex builds an index.DocumentIndex from every supported document
// under projectID's upload directory, suitable as an
// engine.NewHandlerContext index loader.
func (s *Store) LoadIndex(ctx context.Context, projectID string) (*index.DocumentIndex, error) {
	files, err := s.scan(projectID)
	if err != nil {
		return nil, err
	}
	docs := make(map[string]string, len(files))
	order := make([]string, 0, len(files))
	for _, f := range files {
		content, err := os.ReadFile(f.absPath)
		if err != nil {
			return nil, fmt.Errorf("projectstore: read %s: %w", f.relPath, err)
		}
		docs[f.relPath] = string(content)
		order = append(order, f.relPath)
	}
	return index.Build(docs, order), nil
}

type scannedFile struct {
	relPath string
	absPath string
}

// scan walks projectID's upload directory and returns every supported
// document in deterministic, sorted path order. A missing directory (a
// project with nothing uploaded yet) returns an empty result, not an
// error.
func (s *Store) scan(projectID string) ([]scannedFile, error) {
	root := s.projectDir(projectID)
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	var files []scannedFile
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if _, skip := skippedDirs[info.Name()]; skip && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if info.Size() > maxDocumentBytes {
			return nil
		}
		if _, ok := supportedExtensions[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, scannedFile{relPath: filepath.ToSlash(rel), absPath: path})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("projectstore: scan %s: %w", root, err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].relPath < files[j].relPath })
	return files, nil
}
