package config

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// GitignorePattern is one parsed line from a .gitignore/.ignore file.
type GitignorePattern struct {
	Raw       string
	Negate    bool
	Directory bool
	Absolute  bool
	compiled  *regexp.Regexp
}

// GitignoreParser compiles and matches .gitignore-style patterns, adapted
// from the teacher's internal/config/gitignore.go down to the semantics
// the file filter (C3) actually needs: later patterns override earlier
// ones, directory patterns match descendants, absolute patterns anchor to
// the scanned root.
type GitignoreParser struct {
	patterns []GitignorePattern
}

// NewGitignoreParser returns an empty parser.
func NewGitignoreParser() *GitignoreParser {
	return &GitignoreParser{}
}

// LoadFile loads patterns from a single ignore file. A missing file is not
// an error.
func (gp *GitignoreParser) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		gp.AddPattern(line)
	}
	return scanner.Err()
}

// AddPattern parses and appends a single pattern line.
func (gp *GitignoreParser) AddPattern(line string) {
	p := GitignorePattern{}

	if strings.HasPrefix(line, "!") {
		p.Negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.Directory = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		p.Absolute = true
		line = line[1:]
	}

	p.Raw = line
	p.compiled = regexp.MustCompile(globToRegex(line))
	gp.patterns = append(gp.patterns, p)
}

func globToRegex(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				b.WriteString(".*")
				i++
			} else {
				b.WriteString("[^/]*")
			}
		case '?':
			b.WriteString("[^/]")
		case '.', '+', '(', ')', '|', '^', '$', '{', '}':
			b.WriteString("\\")
			b.WriteRune(runes[i])
		default:
			b.WriteRune(runes[i])
		}
	}
	b.WriteString("$")
	return b.String()
}

// ShouldIgnore reports whether path (relative to the scanned root, forward
// slashes) is ignored, applying later patterns over earlier ones so a
// trailing negation ("!keep.txt") can re-admit a previously ignored path.
func (gp *GitignoreParser) ShouldIgnore(path string, isDir bool) bool {
	path = filepath.ToSlash(path)
	ignored := false

	for _, p := range gp.patterns {
		if gp.matches(p, path, isDir) {
			ignored = !p.Negate
		}
	}
	return ignored
}

func (gp *GitignoreParser) matches(p GitignorePattern, path string, isDir bool) bool {
	if p.Directory {
		if isDir && p.compiled.MatchString(path) {
			return true
		}
		// File/dir nested inside a matching directory component.
		parts := strings.Split(path, "/")
		for i := range parts {
			if p.compiled.MatchString(strings.Join(parts[:i+1], "/")) {
				return true
			}
		}
		return false
	}

	if p.Absolute {
		return p.compiled.MatchString(path)
	}

	if p.compiled.MatchString(path) {
		return true
	}
	parts := strings.Split(path, "/")
	for i := range parts {
		if p.compiled.MatchString(strings.Join(parts[i:], "/")) {
			return true
		}
	}
	return false
}
