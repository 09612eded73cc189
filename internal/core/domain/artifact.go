package domain

import "sort"

// Severity classifies a diagnostic.
type Severity uint8

const (
	// SeverityError marks a diagnostic that prevented the recipe from producing a usable artifact.
	SeverityError Severity = iota
	// SeverityWarning marks a diagnostic attached to a successfully produced artifact.
	SeverityWarning
	// SeverityInfo marks an informational note.
	SeverityInfo
)

// String returns the human-readable name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Position is a zero-based line/column location in a source file.
type Position struct {
	Line   int
	Column int
}

// Range is a half-open [Start, End) span in a source file.
type Range struct {
	Start Position
	End   Position
}

// Diagnostic is a message attached to a location in a source file, produced by
// a recipe execution.
type Diagnostic struct {
	Path     string
	Range    Range
	Severity Severity
	Message  string
}

// Artifact is an opaque derived value produced by a recipe: a parsed structure,
// a compiled document, a fingerprint. The core never inspects Value; it only
// caches and hands it back to callers.
type Artifact struct {
	Kind        RecipeKind
	Digest      uint64
	Value       any
	Diagnostics []Diagnostic
}

// HasErrors reports whether the artifact carries at least one error diagnostic.
func (a Artifact) HasErrors() bool {
	for _, d := range a.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// SortDiagnostics orders diagnostics by path, then by start position. Callers
// receive diagnostics in this order regardless of discovery order.
func SortDiagnostics(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		if diags[i].Path != diags[j].Path {
			return diags[i].Path < diags[j].Path
		}
		if diags[i].Range.Start.Line != diags[j].Range.Start.Line {
			return diags[i].Range.Start.Line < diags[j].Range.Start.Line
		}
		return diags[i].Range.Start.Column < diags[j].Range.Start.Column
	})
}
