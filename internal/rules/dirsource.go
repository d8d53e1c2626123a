package rules

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"graphsentry/internal/security"
)

// DirSource discovers catalog documents on disk, for operator-authored
// content checked into a repository.
type DirSource struct {
	Root string
}

// Documents walks Root for ".yaml"/".yml" files, deriving each document's id
// from its path relative to Root with separators normalized to "/" and the
// extension stripped.
func (d DirSource) Documents(_ context.Context) ([]Document, error) {
	var paths []string
	err := filepath.WalkDir(d.Root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	docs := make([]Document, 0, len(paths))
	for _, path := range paths {
		id := idFromPath(d.Root, path)
		if !security.IsSafeIdentifier(id) {
			return nil, fmt.Errorf("rules: unsafe rule id derived from %q", path)
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{ID: id, Raw: raw})
	}
	return docs, nil
}

func idFromPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	ext := filepath.Ext(rel)
	return strings.TrimSuffix(rel, ext)
}
