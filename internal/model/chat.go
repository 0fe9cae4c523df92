package model

type ChatRecord struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	DocumentID string `json:"document_id"`
	SessionID  string `json:"session_id"`
	Query      string `json:"query"`
	Answer     string `json:"answer"`
	UsedGraph  bool   `json:"used_graph"`
	Ctime      int64  `json:"ctime"`
}
