package dbutil

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestFinalizeRebindsAndSwapsLimit(t *testing.T) {
	query, args := Finalize("SELECT a FROM t WHERE s=? ORDER BY c DESC LIMIT ?,?", []interface{}{"sid", uint(0), uint(20)})
	require.Equal(t, "SELECT a FROM t WHERE s=$1 ORDER BY c DESC LIMIT $2 OFFSET $3", query)
	require.Equal(t, []interface{}{"sid", uint(20), uint(0)}, args)
}

func TestFinalizeWithoutLimit(t *testing.T) {
	query, args := Finalize("INSERT INTO t (a,b) VALUES (?,?)", []interface{}{1, 2})
	require.Equal(t, "INSERT INTO t (a,b) VALUES ($1,$2)", query)
	require.Equal(t, []interface{}{1, 2}, args)
}

func TestIsConflict(t *testing.T) {
	require.True(t, IsConflict(&pq.Error{Code: "23505"}))
	require.True(t, IsConflict(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})))
	require.False(t, IsConflict(&pq.Error{Code: "42P01"}))
	require.False(t, IsConflict(errors.New("x")))
}

func TestFinalizeKeepsInput(t *testing.T) {
	in := []interface{}{"sid", uint(5), uint(10)}
	_, out := Finalize("SELECT a FROM t WHERE s=? LIMIT ?,?", in)
	require.Equal(t, []interface{}{"sid", uint(5), uint(10)}, in)
	require.Equal(t, []interface{}{"sid", uint(10), uint(5)}, out)
}

func TestPostgresPassesBuilderError(t *testing.T) {
	_, _, err := Postgres("", nil, errors.New("boom"))
	require.Error(t, err)
}
