package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/meshmind/meshmind/internal/model"
)

type GraphRepo struct {
	db *sql.DB
}

func NewGraphRepo(db *sql.DB) *GraphRepo {
	return &GraphRepo{db: db}
}

// ReplaceForDocument swaps the whole graph of a document in one transaction,
// mirroring the delete-then-create rebuild the pipeline performs after each
// extraction run.
func (r *GraphRepo) ReplaceForDocument(ctx context.Context, docID, userID string, entities []model.Entity, relations []model.Relation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM graph_relations WHERE document_id = $1 AND user_id = $2`, docID, userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM graph_entities WHERE document_id = $1 AND user_id = $2`, docID, userID); err != nil {
		return err
	}

	const insertEntity = `
		INSERT INTO graph_entities (id, document_id, user_id, name, type, mentions_json, ctime)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, entity := range entities {
		mentionsJSON, err := json.Marshal(entity.Mentions)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, insertEntity,
			entity.ID, docID, userID, entity.Name, entity.Type, string(mentionsJSON), entity.Ctime); err != nil {
			return err
		}
	}

	const insertRelation = `
		INSERT INTO graph_relations (id, document_id, user_id, source_id, target_id, type, context, ctime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, relation := range relations {
		if _, err := tx.ExecContext(ctx, insertRelation,
			relation.ID, docID, userID, relation.SourceID, relation.TargetID,
			relation.Type, relation.Context, relation.Ctime); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *GraphRepo) ListEntities(ctx context.Context, userID, docID string, limit int) ([]model.Entity, error) {
	const query = `
		SELECT id, document_id, user_id, name, type, mentions_json, ctime
		FROM graph_entities
		WHERE document_id = $1 AND user_id = $2
		ORDER BY name
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, docID, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entities []model.Entity
	for rows.Next() {
		var entity model.Entity
		var mentionsJSON string
		if err := rows.Scan(
			&entity.ID,
			&entity.DocumentID,
			&entity.UserID,
			&entity.Name,
			&entity.Type,
			&mentionsJSON,
			&entity.Ctime,
		); err != nil {
			return nil, err
		}
		if mentionsJSON != "" {
			_ = json.Unmarshal([]byte(mentionsJSON), &entity.Mentions)
		}
		entities = append(entities, entity)
	}
	return entities, rows.Err()
}

func (r *GraphRepo) ListRelations(ctx context.Context, userID, docID string, limit int) ([]model.Relation, error) {
	const query = `
		SELECT id, document_id, user_id, source_id, target_id, type, context, ctime
		FROM graph_relations
		WHERE document_id = $1 AND user_id = $2
		ORDER BY ctime
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, docID, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var relations []model.Relation
	for rows.Next() {
		var relation model.Relation
		if err := rows.Scan(
			&relation.ID,
			&relation.DocumentID,
			&relation.UserID,
			&relation.SourceID,
			&relation.TargetID,
			&relation.Type,
			&relation.Context,
			&relation.Ctime,
		); err != nil {
			return nil, err
		}
		relations = append(relations, relation)
	}
	return relations, rows.Err()
}
