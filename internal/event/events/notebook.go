// Package events defines the notebook host events and their payloads.
package events

import (
	"github.com/dshills/nbsense/internal/event"
	"github.com/dshills/nbsense/internal/notebook"
)

// Host lifecycle topics.
const (
	// TopicNotebookLoaded is published once the document and its metadata
	// are available.
	TopicNotebookLoaded event.Topic = "notebook.loaded"

	// TopicNotebookClosed is published when the document is torn down.
	TopicNotebookClosed event.Topic = "notebook.closed"

	// TopicAppInitialized is published once per application session.
	TopicAppInitialized event.Topic = "app.initialized"

	// TopicCellCreated is published for every cell added after load.
	TopicCellCreated event.Topic = "cell.created"

	// TopicCellDeleted is published when a cell is removed.
	TopicCellDeleted event.Topic = "cell.deleted"
)

// NotebookLoaded carries the loaded document.
type NotebookLoaded struct {
	Document notebook.Document
}

// NotebookClosed carries the document being closed.
type NotebookClosed struct {
	Document notebook.Document
}

// AppInitialized carries the document present at startup.
type AppInitialized struct {
	Document notebook.Document
}

// CellCreated carries a newly created cell.
type CellCreated struct {
	Cell notebook.Cell
}

// CellDeleted carries a removed cell.
type CellDeleted struct {
	Cell notebook.Cell
}
