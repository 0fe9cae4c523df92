package dbutil

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestFinalizeRewritesLimitOffset(t *testing.T) {
	query := "SELECT id FROM documents WHERE user_id = ? ORDER BY ctime DESC LIMIT ?,?"
	args := []interface{}{"user-1", uint(10), uint(5)}

	got, gotArgs := Finalize(query, args)
	require.Equal(t, "SELECT id FROM documents WHERE user_id = $1 ORDER BY ctime DESC LIMIT $2 OFFSET $3", got)
	// gendry argument order is offset,count; postgres wants count,offset.
	require.Equal(t, []interface{}{"user-1", uint(5), uint(10)}, gotArgs)
}

func TestFinalizeSimpleLimit(t *testing.T) {
	query := "SELECT id FROM documents WHERE user_id = ? LIMIT ?"
	args := []interface{}{"user-1", uint(5)}

	got, gotArgs := Finalize(query, args)
	require.Equal(t, "SELECT id FROM documents WHERE user_id = $1 LIMIT $2", got)
	require.Equal(t, []interface{}{"user-1", uint(5)}, gotArgs)
}

func TestFinalizeNoLimit(t *testing.T) {
	query := "DELETE FROM documents WHERE id = ?"
	got, gotArgs := Finalize(query, []interface{}{"doc-1"})
	require.Equal(t, "DELETE FROM documents WHERE id = $1", got)
	require.Len(t, gotArgs, 1)
}

func TestIsConflict(t *testing.T) {
	require.True(t, IsConflict(&pq.Error{Code: "23505"}))
	require.False(t, IsConflict(&pq.Error{Code: "42P01"}))
	require.False(t, IsConflict(errors.New("plain error")))
	require.False(t, IsConflict(nil))
}
