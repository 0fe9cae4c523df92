package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/pgvector/pgvector-go"

	"github.com/meshmind/meshmind/internal/model"
)

type ChunkRepo struct {
	db *sql.DB
}

func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

func (r *ChunkRepo) Insert(ctx context.Context, chunk *model.Chunk) error {
	metaJSON, err := json.Marshal(chunk.Meta)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO chunks (id, document_id, user_id, position, text, embedding, meta_json, ctime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	var embedding interface{}
	if len(chunk.Embedding) > 0 {
		embedding = pgvector.NewVector(chunk.Embedding)
	}
	_, err = r.db.ExecContext(ctx, query,
		chunk.ID,
		chunk.DocumentID,
		chunk.UserID,
		chunk.Position,
		chunk.Text,
		embedding,
		string(metaJSON),
		chunk.Ctime,
	)
	return err
}

func (r *ChunkRepo) DeleteByDocument(ctx context.Context, docID string) error {
	const query = `DELETE FROM chunks WHERE document_id = $1`
	_, err := r.db.ExecContext(ctx, query, docID)
	return err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralizes ILIKE wildcards in a user-supplied term so the
// search stays a literal substring match.
func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

// SearchKeyword matches chunks whose text contains the query, case
// insensitive, scoped to a user and optionally a single document.
func (r *ChunkRepo) SearchKeyword(ctx context.Context, userID, docID, query string, limit int) ([]model.Chunk, error) {
	const q = `
		SELECT id, document_id, user_id, position, text, meta_json, ctime
		FROM chunks
		WHERE user_id = $1
			AND ($2 = '' OR document_id = $2)
			AND text ILIKE '%' || $3 || '%'
		ORDER BY position
		LIMIT $4
	`
	rows, err := r.db.QueryContext(ctx, q, userID, docID, escapeLike(query), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChunks(rows)
}

// SearchVector orders chunks by cosine distance to the query embedding.
func (r *ChunkRepo) SearchVector(ctx context.Context, userID, docID string, embedding []float32, limit int) ([]model.Chunk, error) {
	const q = `
		SELECT id, document_id, user_id, position, text, meta_json, ctime
		FROM chunks
		WHERE user_id = $1
			AND ($2 = '' OR document_id = $2)
			AND embedding IS NOT NULL
		ORDER BY embedding <=> $3
		LIMIT $4
	`
	rows, err := r.db.QueryContext(ctx, q, userID, docID, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChunks(rows)
}

func (r *ChunkRepo) ListByDocument(ctx context.Context, userID, docID string, limit int) ([]model.Chunk, error) {
	const q = `
		SELECT id, document_id, user_id, position, text, meta_json, ctime
		FROM chunks
		WHERE user_id = $1 AND document_id = $2
		ORDER BY position
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, q, userID, docID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChunks(rows)
}

func scanChunks(rows *sql.Rows) ([]model.Chunk, error) {
	var chunks []model.Chunk
	for rows.Next() {
		var chunk model.Chunk
		var metaJSON string
		if err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.UserID,
			&chunk.Position,
			&chunk.Text,
			&metaJSON,
			&chunk.Ctime,
		); err != nil {
			return nil, err
		}
		if metaJSON != "" {
			_ = json.Unmarshal([]byte(metaJSON), &chunk.Meta)
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}
