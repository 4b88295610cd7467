package handler

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/boopesh07/VideoToShorts/internal/appdirs"
)

var appDirsResolver = appdirs.Resolve

// shortsRootCandidates lists the directories finished clips may live in.
// The resolved app layout comes first; the bare relative layout covers
// processes started from the repository root without a config.
func shortsRootCandidates() []string {
	candidates := make([]string, 0, 2)
	if dirs, err := appDirsResolver(); err == nil {
		candidates = append(candidates, appdirs.ShortsRootFor(dirs))
	}
	candidates = append(candidates, filepath.Join("output", appdirs.ShortsRootName))
	return uniquePaths(candidates...)
}

// resolveDownloadPath maps a requested download path onto a real file under
// a served root. Only the shorts root is served; scratch space and the
// database never are. Traversal outside a root is rejected.
func resolveDownloadPath(requested string) (string, bool) {
	requested = strings.TrimSpace(requested)
	requested = strings.TrimPrefix(requested, string(filepath.Separator))
	requested = strings.TrimPrefix(requested, "/")
	if hasParentTraversal(requested) {
		return "", false
	}
	requested = filepath.Clean(requested)
	if requested == "." {
		return "", false
	}
	requested = filepath.ToSlash(requested)

	relativePath := requested
	prefix := appdirs.ShortsRootName + "/"
	if strings.HasPrefix(requested, prefix) {
		relativePath = strings.TrimPrefix(requested, prefix)
	} else if requested == appdirs.ShortsRootName {
		return "", false
	}

	for _, rootDir := range shortsRootCandidates() {
		candidate := filepath.Clean(filepath.Join(rootDir, filepath.FromSlash(relativePath)))
		if !isPathWithinRoot(rootDir, candidate) {
			continue
		}
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

func uniquePaths(values ...string) []string {
	seen := make(map[string]struct{}, len(values))
	paths := make([]string, 0, len(values))
	for _, value := range values {
		cleaned := strings.TrimSpace(value)
		if cleaned == "" {
			continue
		}
		cleaned = filepath.Clean(cleaned)
		if _, exists := seen[cleaned]; exists {
			continue
		}
		seen[cleaned] = struct{}{}
		paths = append(paths, cleaned)
	}
	return paths
}

func isPathWithinRoot(root, candidate string) bool {
	root = filepath.Clean(root)
	candidate = filepath.Clean(candidate)

	rel, err := filepath.Rel(root, candidate)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func hasParentTraversal(path string) bool {
	normalized := strings.ReplaceAll(path, "\\", "/")
	parts := strings.Split(normalized, "/")
	for _, part := range parts {
		if part == ".." {
			return true
		}
	}
	return false
}
