package model

// Entity types the extraction prompt asks the model to use. Anything else
// the model returns is normalized to CONCEPT.
var EntityTypes = []string{"PERSON", "ORGANIZATION", "CONCEPT", "TECHNOLOGY", "LOCATION", "DATE"}

type Entity struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Mentions   []int  `json:"mentions"`
	Ctime      int64  `json:"ctime"`
}

type Relation struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	UserID     string `json:"user_id"`
	SourceID   string `json:"source"`
	TargetID   string `json:"target"`
	Type       string `json:"type"`
	Context    string `json:"context"`
	Ctime      int64  `json:"ctime"`
}

type GraphNode struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Type     string `json:"type"`
	Mentions []int  `json:"mentions"`
	Size     int    `json:"size"`
}

type GraphEdge struct {
	Source  string `json:"source"`
	Target  string `json:"target"`
	Label   string `json:"label"`
	Context string `json:"context"`
}
