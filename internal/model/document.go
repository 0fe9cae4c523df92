package model

// Document lifecycle states. Transitions are plain field writes; a failed
// document keeps its error text until reprocessed.
const (
	DocumentStatusQueued        = "queued"
	DocumentStatusProcessing    = "processing"
	DocumentStatusBuildingGraph = "building_graph"
	DocumentStatusProcessed     = "processed"
	DocumentStatusFailed        = "failed"
)

type Document struct {
	ID            string            `json:"document_id"`
	UserID        string            `json:"user_id"`
	Filename      string            `json:"filename"`
	StorageKey    string            `json:"storage_key"`
	ContentHash   string            `json:"content_hash"`
	Status        string            `json:"status"`
	Error         string            `json:"error,omitempty"`
	ChunkCount    int               `json:"chunk_count"`
	EntityCount   int               `json:"entity_count"`
	RelationCount int               `json:"relation_count"`
	Meta          map[string]string `json:"meta,omitempty"`
	Ctime         int64             `json:"ctime"`
	Mtime         int64             `json:"mtime"`
}
