package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/didi/gendry/builder"

	"github.com/meshmind/meshmind/internal/model"
	"github.com/meshmind/meshmind/internal/pkg/dbutil"
	appErr "github.com/meshmind/meshmind/internal/pkg/errors"
)

type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

const documentColumns = `id, user_id, filename, storage_key, content_hash, status, error,
		chunk_count, entity_count, relation_count, meta_json, ctime, mtime`

func (r *DocumentRepo) Create(ctx context.Context, doc *model.Document) error {
	metaJSON := []byte("{}")
	if doc.Meta != nil {
		var err error
		metaJSON, err = json.Marshal(doc.Meta)
		if err != nil {
			return err
		}
	}
	const query = `
		INSERT INTO documents (id, user_id, filename, storage_key, content_hash, status, error,
			chunk_count, entity_count, relation_count, meta_json, ctime, mtime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.ExecContext(ctx, query,
		doc.ID,
		doc.UserID,
		doc.Filename,
		doc.StorageKey,
		doc.ContentHash,
		doc.Status,
		doc.Error,
		doc.ChunkCount,
		doc.EntityCount,
		doc.RelationCount,
		string(metaJSON),
		doc.Ctime,
		doc.Mtime,
	)
	return err
}

func (r *DocumentRepo) Get(ctx context.Context, userID, docID string) (*model.Document, error) {
	const query = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE id = $1 AND user_id = $2
	`
	row := r.db.QueryRowContext(ctx, query, docID, userID)
	doc, err := scanDocument(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (r *DocumentRepo) ListByUser(ctx context.Context, userID string) ([]model.Document, error) {
	where := map[string]interface{}{
		"user_id":  userID,
		"_orderby": "ctime desc",
	}
	fields := []string{"id", "user_id", "filename", "storage_key", "content_hash", "status", "error",
		"chunk_count", "entity_count", "relation_count", "meta_json", "ctime", "mtime"}
	sqlStr, args, err := builder.BuildSelect("documents", where, fields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []model.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

func (r *DocumentRepo) UpdateStatus(ctx context.Context, docID, status string, mtime int64) error {
	const query = `UPDATE documents SET status = $1, mtime = $2 WHERE id = $3`
	return r.execOne(ctx, query, status, mtime, docID)
}

func (r *DocumentRepo) MarkFailed(ctx context.Context, docID, errText string, mtime int64) error {
	const query = `UPDATE documents SET status = $1, error = $2, mtime = $3 WHERE id = $4`
	return r.execOne(ctx, query, model.DocumentStatusFailed, errText, mtime, docID)
}

func (r *DocumentRepo) MarkProcessed(ctx context.Context, docID string, chunkCount, entityCount, relationCount int, mtime int64) error {
	const query = `
		UPDATE documents
		SET status = $1,
			error = '',
			chunk_count = $2,
			entity_count = $3,
			relation_count = $4,
			mtime = $5
		WHERE id = $6
	`
	return r.execOne(ctx, query, model.DocumentStatusProcessed, chunkCount, entityCount, relationCount, mtime, docID)
}

func (r *DocumentRepo) execOne(ctx context.Context, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*model.Document, error) {
	var doc model.Document
	var metaJSON string
	if err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.Filename,
		&doc.StorageKey,
		&doc.ContentHash,
		&doc.Status,
		&doc.Error,
		&doc.ChunkCount,
		&doc.EntityCount,
		&doc.RelationCount,
		&metaJSON,
		&doc.Ctime,
		&doc.Mtime,
	); err != nil {
		return nil, err
	}
	if metaJSON != "" && metaJSON != "{}" {
		_ = json.Unmarshal([]byte(metaJSON), &doc.Meta)
	}
	return &doc, nil
}
