package mirror

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// IgnoreFileName is the optional per-source exclusion file, gitignore syntax.
const IgnoreFileName = ".mirrorignore"

var defaultIgnoreLines = []string{
	MetadataDirName + "/",
	IgnoreFileName,

	// OS-specific
	".DS_Store",
	"Thumbs.db",
	"Icon",

	// General excludes
	"*.swp",
	"*.tmp",
	"*.partial",
}

// IgnoreList decides which relative paths stay invisible to the sync pass.
// Ignored paths are neither copied from the source nor deleted from the
// destination.
type IgnoreList struct {
	ignore *gitignore.GitIgnore
}

// NewIgnoreList compiles the built-in exclusions plus any patterns from the
// .mirrorignore file at the source root, if one exists.
func NewIgnoreList(sourceRoot string) *IgnoreList {
	lines := slices.Clone(defaultIgnoreLines)

	if data, err := os.ReadFile(filepath.Join(sourceRoot, IgnoreFileName)); err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			lines = append(lines, line)
		}
	}

	return &IgnoreList{ignore: gitignore.CompileIgnoreLines(lines...)}
}

func (l *IgnoreList) Match(relPath string, isDir bool) bool {
	if isDir {
		relPath += "/"
	}
	return l.ignore.MatchesPath(relPath)
}
