// Package typeset provides the built-in recipes and dependency scanner for
// typeset markup sources. Scanning is purely lexical: it recognizes the
// include forms without interpreting the language.
package typeset

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"go.vellum.sh/vellum/internal/core/domain"
	"go.vellum.sh/vellum/internal/core/ports"
)

var _ ports.DependencyScanner = (*Scanner)(nil)

// referencePattern matches `#import "path"` and `#include "path"` at the
// start of a line, ignoring leading whitespace.
var referencePattern = regexp.MustCompile(`^\s*#(import|include)\s+"([^"]+)"`)

// Scanner resolves source references against the referencing file's
// directory first, then each configured source root in order.
type Scanner struct {
	roots []string
}

// NewScanner creates a scanner with the given fallback source roots.
func NewScanner(roots ...string) *Scanner {
	return &Scanner{roots: roots}
}

// ScanDependencies extracts references from content. Unresolvable references
// become warning diagnostics rather than failures: the file may appear later.
func (s *Scanner) ScanDependencies(path string, content []byte) ([]domain.Reference, []domain.Diagnostic) {
	var refs []domain.Reference
	var diags []domain.Diagnostic

	dir := filepath.Dir(path)
	scanner := bufio.NewScanner(bytes.NewReader(content))
	line := 0
	for scanner.Scan() {
		line++
		match := referencePattern.FindSubmatch(scanner.Bytes())
		if match == nil {
			continue
		}

		kind := domain.EdgeImport
		if string(match[1]) == "include" {
			kind = domain.EdgeInclude
		}
		target := string(match[2])

		resolved, ok := s.resolve(dir, target)
		if !ok {
			diags = append(diags, domain.Diagnostic{
				Path:     path,
				Severity: domain.SeverityWarning,
				Message:  fmt.Sprintf("unresolved %s %q", match[1], target),
				Range: domain.Range{
					Start: domain.Position{Line: line, Column: 1},
					End:   domain.Position{Line: line, Column: len(scanner.Text()) + 1},
				},
			})
			continue
		}

		refs = append(refs, domain.Reference{
			Path: resolved,
			Kind: kind,
			Range: domain.Range{
				Start: domain.Position{Line: line, Column: 1},
				End:   domain.Position{Line: line, Column: len(scanner.Text()) + 1},
			},
		})
	}

	return refs, diags
}

func (s *Scanner) resolve(dir, target string) (string, bool) {
	if filepath.IsAbs(target) {
		if fileExists(target) {
			return filepath.Clean(target), true
		}
		return "", false
	}

	candidates := make([]string, 0, len(s.roots)+1)
	candidates = append(candidates, filepath.Join(dir, target))
	for _, root := range s.roots {
		candidates = append(candidates, filepath.Join(root, target))
	}

	for _, candidate := range candidates {
		if fileExists(candidate) {
			return filepath.Clean(candidate), true
		}
	}
	return "", false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
