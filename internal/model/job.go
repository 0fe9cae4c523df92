package model

const (
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// Processing steps reported while a job runs.
const (
	JobStepQueued    = "queued"
	JobStepParsing   = "parsing"
	JobStepChunking  = "chunking"
	JobStepEmbedding = "embedding"
	JobStepGraph     = "building_graph"
	JobStepDone      = "done"
)

type Job struct {
	ID          string `json:"job_id"`
	DocumentID  string `json:"document_id"`
	UserID      string `json:"user_id"`
	Status      string `json:"status"`
	Step        string `json:"step"`
	ChunksDone  int    `json:"chunks_done"`
	ChunksTotal int    `json:"chunks_total"`
	Error       string `json:"error,omitempty"`
	Ctime       int64  `json:"ctime"`
	Mtime       int64  `json:"mtime"`
}
