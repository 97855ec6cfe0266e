package config

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/plinth-dev/plinth/internal/application/ports"
	"github.com/plinth-dev/plinth/internal/domain/values"
)

// skippedDirs are never descended into during discovery.
var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	".plinth":      true,
}

// SourceScanner discovers source units on the local filesystem.
type SourceScanner struct{}

// NewSourceScanner creates a new source scanner.
func NewSourceScanner() *SourceScanner {
	return &SourceScanner{}
}

// Discover returns every file under root whose slash-separated relative
// path matches one of the patterns. Patterns support "*", "?", character
// classes and "**" for any number of directories. Sorted, unique.
func (s *SourceScanner) Discover(ctx context.Context, root string, patterns []string) ([]values.UnitID, error) {
	for _, p := range patterns {
		if _, err := path.Match(strings.ReplaceAll(p, "**", "*"), ""); err != nil {
			return nil, fmt.Errorf("invalid source pattern %q: %w", p, err)
		}
	}

	seen := make(map[string]bool)
	var units []values.UnitID

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if p != root && skippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		for _, pattern := range patterns {
			if matchGlob(pattern, rel) && !seen[rel] {
				unit, err := values.NewUnitID(rel)
				if err != nil {
					return err
				}
				seen[rel] = true
				units = append(units, unit)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discovering sources in %s: %w", root, err)
	}

	sort.Slice(units, func(i, j int) bool { return units[i].Less(units[j]) })
	return units, nil
}

var (
	// importPattern matches `import "x";`, `import "x" as Y;` and
	// `import {A, B} from "x";` / `import * as Y from "x";`.
	importPattern  = regexp.MustCompile(`\bimport\s+(?:[^'";]*?\s+from\s+)?["']([^"']+)["']`)
	commentPattern = regexp.MustCompile(`(?s)/\*.*?\*/|//[^\n]*`)
)

// Fingerprint hashes the unit together with every file it imports,
// directly or transitively, so editing a dependency invalidates its
// importers. Imports are resolved the way solc does with the project root
// as base path: "./" and "../" against the importing file, anything else
// against the root. An import that cannot be read still contributes its
// name, so creating it later changes the fingerprint.
func (s *SourceScanner) Fingerprint(_ context.Context, root string, unit values.UnitID) (string, error) {
	// Security: Use os.OpenRoot so a unit cannot escape the project root
	r, err := os.OpenRoot(root)
	if err != nil {
		return "", fmt.Errorf("failed to open project root: %w", err)
	}
	defer func() { _ = r.Close() }()

	content, err := readSource(r, unit.String())
	if err != nil {
		return "", fmt.Errorf("failed to read unit %s: %w", unit, err)
	}

	digests := map[string]string{unit.String(): digest(content)}
	queue := importsOf(unit.String(), content)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if _, seen := digests[name]; seen {
			continue
		}
		data, err := readSource(r, name)
		if err != nil {
			digests[name] = "missing"
			continue
		}
		digests[name] = digest(data)
		queue = append(queue, importsOf(name, data)...)
	}

	if len(digests) == 1 {
		return "sha256:" + digests[unit.String()], nil
	}

	names := make([]string, 0, len(digests))
	for name := range digests {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		fmt.Fprintf(h, "%s\x00%s\n", name, digests[name])
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil)), nil
}

func readSource(r *os.Root, name string) ([]byte, error) {
	f, err := r.Open(filepath.FromSlash(name))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// importsOf returns the root-relative names imported by a source file.
func importsOf(name string, content []byte) []string {
	code := commentPattern.ReplaceAll(content, nil)
	var out []string
	for _, m := range importPattern.FindAllSubmatch(code, -1) {
		imp := string(m[1])
		if strings.HasPrefix(imp, "./") || strings.HasPrefix(imp, "../") {
			imp = path.Join(path.Dir(name), imp)
		} else {
			imp = path.Clean(imp)
		}
		out = append(out, imp)
	}
	return out
}

// matchGlob matches a slash-separated path against a pattern in which
// "**" as a whole segment matches zero or more segments.
func matchGlob(pattern, name string) bool {
	return matchSegments(strings.Split(pattern, "/"), strings.Split(name, "/"))
}

func matchSegments(pattern, name []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			rest := pattern[1:]
			for i := 0; i <= len(name); i++ {
				if matchSegments(rest, name[i:]) {
					return true
				}
			}
			return false
		}
		if len(name) == 0 {
			return false
		}
		ok, err := path.Match(pattern[0], name[0])
		if err != nil || !ok {
			return false
		}
		pattern, name = pattern[1:], name[1:]
	}
	return len(name) == 0
}

// Ensure interface compliance
var _ ports.UnitSource = (*SourceScanner)(nil)
