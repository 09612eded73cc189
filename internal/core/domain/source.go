// Package domain contains the core domain models for the vellum compilation cache.
package domain

import "time"

// FileID is an arena index identifying a source file within a project's graph.
// IDs are never reused for the lifetime of the project, even after deletion.
type FileID int32

// InvalidFileID marks the absence of a file.
const InvalidFileID FileID = -1

// Revision is a monotonically increasing counter marking a version of a file's
// content. Revisions are assigned from a per-project clock and never reused.
type Revision uint64

// EdgeKind classifies a dependency edge between two source files.
type EdgeKind uint8

const (
	// EdgeImport is a module import: the importing file depends on the imported module's exports.
	EdgeImport EdgeKind = iota
	// EdgeInclude is a content include: the including file splices the target's content.
	EdgeInclude
	// EdgeResource is a non-source dependency such as an image or data file.
	EdgeResource
)

// String returns the human-readable name of the edge kind.
func (k EdgeKind) String() string {
	switch k {
	case EdgeImport:
		return "import"
	case EdgeInclude:
		return "include"
	case EdgeResource:
		return "resource"
	default:
		return "unknown"
	}
}

// SourceFile is a snapshot of a tracked file's content at a specific revision.
// Snapshots are immutable; an edit produces a new snapshot under a new revision.
type SourceFile struct {
	ID          FileID
	Path        InternedPath
	Content     []byte
	Revision    Revision
	Fingerprint uint64
}

// Reference is a dependency discovered in a source file, pointing at another path.
type Reference struct {
	Path  string
	Kind  EdgeKind
	Range Range
}

// DocumentEdit is an in-memory content change delivered by an editor transport.
type DocumentEdit struct {
	Path       string
	NewContent []byte
	Timestamp  time.Time
}

// FileEventKind classifies an external filesystem event.
type FileEventKind uint8

const (
	// FileCreated indicates a file appeared on disk.
	FileCreated FileEventKind = iota
	// FileModified indicates a file's content changed on disk.
	FileModified
	// FileRemoved indicates a file disappeared from disk.
	FileRemoved
)

// String returns the human-readable name of the event kind.
func (k FileEventKind) String() string {
	switch k {
	case FileCreated:
		return "created"
	case FileModified:
		return "modified"
	case FileRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// FileSystemEvent is a change notification originating from the OS-level watcher.
type FileSystemEvent struct {
	Path string
	Kind FileEventKind
}
