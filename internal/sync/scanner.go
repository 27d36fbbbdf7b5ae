// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sync

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/kmsync/pkg/types"
)

// FileKind says which sync pipeline handles a vault file.
type FileKind string

const (
	KindThreads   FileKind = "threads"
	KindArchive   FileKind = "archive"
	KindKnowledge FileKind = "knowledge"
)

// Classify maps a vault path to its pipeline by path segment. Review
// reports sync like archives; anything unrecognized is treated as a
// knowledge note.
func Classify(path string) FileKind {
	switch {
	case strings.Contains(path, "线头追踪") || strings.HasSuffix(path, "THREADS.md"):
		return KindThreads
	case strings.Contains(path, "对话归档"):
		return KindArchive
	case strings.Contains(path, "复盘报告"):
		return KindArchive
	case strings.Contains(path, "知识沉淀"):
		return KindKnowledge
	default:
		return KindKnowledge
	}
}

// Scan collects the vault's syncable Markdown files: the archive,
// knowledge, and review trees plus the threads file. Files and
// directories whose names start with "_" or "." are skipped.
func Scan(vault types.VaultConfig) ([]string, error) {
	var paths []string

	for _, dir := range []string{vault.ArchiveDir, vault.KnowledgeDir, vault.ReviewDir} {
		found, err := scanDir(dir)
		if err != nil {
			return nil, err
		}
		paths = append(paths, found...)
	}

	if _, err := os.Stat(vault.ThreadsFile); err == nil {
		paths = append(paths, vault.ThreadsFile)
	}

	return paths, nil
}

func scanDir(dir string) ([]string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(name, ".md") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	return paths, nil
}
