package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/meshmind/meshmind/internal/model"
	"github.com/meshmind/meshmind/internal/pkg/dbutil"
)

type ChatHistoryRepo struct {
	db *sql.DB
}

func NewChatHistoryRepo(db *sql.DB) *ChatHistoryRepo {
	return &ChatHistoryRepo{db: db}
}

func (r *ChatHistoryRepo) Insert(ctx context.Context, record *model.ChatRecord) error {
	const query = `
		INSERT INTO chat_history (id, user_id, document_id, session_id, query, answer, used_graph, ctime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.UserID,
		record.DocumentID,
		record.SessionID,
		record.Query,
		record.Answer,
		record.UsedGraph,
		record.Ctime,
	)
	return err
}

func (r *ChatHistoryRepo) ListByDocument(ctx context.Context, userID, docID, sessionID string, limit int) ([]model.ChatRecord, error) {
	where := map[string]interface{}{
		"user_id":     userID,
		"document_id": docID,
		"_orderby":    "ctime desc",
		"_limit":      []uint{uint(limit)},
	}
	if sessionID != "" {
		where["session_id"] = sessionID
	}
	fields := []string{"id", "user_id", "document_id", "session_id", "query", "answer", "used_graph", "ctime"}
	sqlStr, args, err := builder.BuildSelect("chat_history", where, fields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []model.ChatRecord
	for rows.Next() {
		var record model.ChatRecord
		if err := rows.Scan(
			&record.ID,
			&record.UserID,
			&record.DocumentID,
			&record.SessionID,
			&record.Query,
			&record.Answer,
			&record.UsedGraph,
			&record.Ctime,
		); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *ChatHistoryRepo) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	const query = `DELETE FROM chat_history WHERE ctime < $1`
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
