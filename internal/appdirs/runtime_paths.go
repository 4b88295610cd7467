package appdirs

import (
	"path/filepath"
	"strings"
)

const (
	ShortsRootName  = "shorts"
	ScratchRootName = "scratch"
	dbFileName      = "shorts.db"
)

// ShortsRootFor is the stable, caller-visible location for finished clips.
func ShortsRootFor(paths Paths) string {
	return filepath.Join(normalizeOutputDir(paths.OutputDir), ShortsRootName)
}

// ScratchRootFor is the parent of per-request scratch directories. Everything
// under it is disposable.
func ScratchRootFor(paths Paths) string {
	return filepath.Join(normalizeCacheDir(paths.CacheDir), ScratchRootName)
}

func DBPathFor(paths Paths) string {
	return filepath.Join(normalizeCacheDir(paths.CacheDir), dbFileName)
}

func ResolveShortsRoot() (string, error) {
	paths, err := Resolve()
	if err != nil {
		return "", err
	}
	return ShortsRootFor(paths), nil
}

func ResolveScratchRoot() (string, error) {
	paths, err := Resolve()
	if err != nil {
		return "", err
	}
	return ScratchRootFor(paths), nil
}

func ResolveDBPath() (string, error) {
	paths, err := Resolve()
	if err != nil {
		return "", err
	}
	return DBPathFor(paths), nil
}

func normalizeOutputDir(outputDir string) string {
	cleaned := strings.TrimSpace(outputDir)
	if cleaned == "" {
		return "."
	}
	return filepath.Clean(cleaned)
}

func normalizeCacheDir(cacheDir string) string {
	cleaned := strings.TrimSpace(cacheDir)
	if cleaned == "" {
		return "cache"
	}
	return filepath.Clean(cleaned)
}
