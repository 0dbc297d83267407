// Package fileutil holds small filesystem helpers shared by the CLI and the
// watch folder.
package fileutil

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var audioExtensions = map[string]struct{}{
	".mp3":  {},
	".flac": {},
	".wav":  {},
	".ogg":  {},
	".m4a":  {},
	".aac":  {},
	".aiff": {},
	".aif":  {},
	".wma":  {},
	".opus": {},
}

// IsAudioFile reports whether the path carries a recognized audio extension.
func IsAudioFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	_, ok := audioExtensions[ext]
	return ok
}

// NormalizePath cleans a path and folds it to NFC so macOS drag-and-drop
// names compare equal to their keyboard-typed spellings.
func NormalizePath(path string) string {
	return filepath.Clean(norm.NFC.String(path))
}
