package model

type ChunkMeta struct {
	Filename string `json:"filename"`
	Page     int    `json:"page"`
	Size     int    `json:"size"`
}

type Chunk struct {
	ID         string    `json:"chunk_id"`
	DocumentID string    `json:"document_id"`
	UserID     string    `json:"user_id"`
	Position   int       `json:"position"`
	Text       string    `json:"text"`
	Embedding  []float32 `json:"-"`
	Meta       ChunkMeta `json:"meta"`
	Ctime      int64     `json:"ctime"`
}

// Retrieval source markers attached to search results.
const (
	SourceKeyword = "keyword_search"
	SourceGraph   = "knowledge_graph"
	SourceVector  = "vector_search"
)

type ChunkSearchResult struct {
	ChunkID    string    `json:"chunk_id"`
	DocumentID string    `json:"document_id"`
	Text       string    `json:"text"`
	Score      float32   `json:"score"`
	SourceType string    `json:"source_type"`
	Meta       ChunkMeta `json:"metadata"`
}
