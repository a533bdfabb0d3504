package review

import (
	"log/slog"
	"path"
	"strings"
)

// excludedNames are exact filenames (case-insensitive, path stripped) that
// carry no review value: lockfiles, manifests, generated artifacts, readmes.
var excludedNames = map[string]struct{}{
	"package-lock.json": {},
	"yarn.lock":         {},
	"pnpm-lock.yaml":    {},
	"composer.lock":     {},
	"cargo.lock":        {},
	"gemfile.lock":      {},
	"poetry.lock":       {},
	"go.sum":            {},
	"package.json":      {},
	"readme":            {},
	"readme.md":         {},
	"license":           {},
	"license.md":        {},
	"changelog.md":      {},
	".gitignore":        {},
	".gitattributes":    {},
}

// excludedExtensions are binary, media, document, and notebook formats.
var excludedExtensions = map[string]struct{}{
	"png": {}, "jpg": {}, "jpeg": {}, "gif": {}, "bmp": {}, "ico": {},
	"svg": {}, "webp": {}, "mp3": {}, "mp4": {}, "wav": {}, "avi": {},
	"mov": {}, "pdf": {}, "doc": {}, "docx": {}, "xls": {}, "xlsx": {},
	"ppt": {}, "pptx": {}, "zip": {}, "tar": {}, "gz": {}, "rar": {},
	"7z": {}, "jar": {}, "war": {}, "exe": {}, "dll": {}, "so": {},
	"dylib": {}, "bin": {}, "dat": {}, "db": {}, "sqlite": {},
	"woff": {}, "woff2": {}, "ttf": {}, "otf": {}, "eot": {},
	"ipynb": {}, "md": {}, "txt": {}, "csv": {}, "lock": {},
}

// Reviewable decides whether a changed file is eligible for review.
// Pure, total predicate: no failure mode.
func Reviewable(filename string) bool {
	base := strings.ToLower(path.Base(filename))
	if _, ok := excludedNames[base]; ok {
		return false
	}
	ext := extensionOf(base)
	if ext == "" {
		return false
	}
	_, excluded := excludedExtensions[ext]
	return !excluded
}

// FilterFiles returns the reviewable subset of files, preserving order, and
// traces each rejection for observability.
func FilterFiles(files []*ChangedFile, logger *slog.Logger) []*ChangedFile {
	if logger == nil {
		logger = slog.Default()
	}
	var kept []*ChangedFile
	for _, f := range files {
		if !Reviewable(f.Filename) {
			logger.Debug("file excluded from review", "file", f.Filename)
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

func extensionOf(base string) string {
	idx := strings.LastIndex(base, ".")
	if idx <= 0 || idx == len(base)-1 {
		// Leading-dot names like .env have no reviewable extension.
		return ""
	}
	return base[idx+1:]
}
