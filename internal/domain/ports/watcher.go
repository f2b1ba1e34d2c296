package ports

import (
	"context"
	"time"
)

// FileWatcher reports changes to a set of files
type FileWatcher interface {
	// Watch starts watching paths; the channel closes when the watcher stops
	Watch(ctx context.Context, paths ...string) (<-chan FileChangeEvent, error)
	Stop() error
}

// FileChangeEvent represents a file change event
type FileChangeEvent struct {
	Path      string
	Type      ChangeType
	Timestamp time.Time
}

// ChangeType represents the type of file change
type ChangeType int

const (
	// Modified indicates the file content changed
	Modified ChangeType = iota
	// Created indicates a missing file appeared
	Created
	// Deleted indicates the file was removed
	Deleted
)

// String returns the string representation of ChangeType
func (c ChangeType) String() string {
	switch c {
	case Modified:
		return "modified"
	case Created:
		return "created"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}
