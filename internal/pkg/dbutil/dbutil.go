package dbutil

import (
	"errors"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const pgUniqueViolation = "23505"

var mysqlLimit = regexp.MustCompile(`(?i)LIMIT\s+\?\s*,\s*\?`)

// Postgres adapts a gendry builder result for lib/pq. It passes builder
// errors through so call sites can wrap BuildSelect/BuildInsert directly.
func Postgres(query string, args []interface{}, err error) (string, []interface{}, error) {
	if err != nil {
		return "", nil, err
	}
	query, args = Finalize(query, args)
	return query, args, nil
}

// Finalize rewrites "LIMIT ?,?" (offset, count) into "LIMIT ? OFFSET ?"
// and rebinds placeholders to $n. The input slice is left untouched.
func Finalize(query string, args []interface{}) (string, []interface{}) {
	out := append([]interface{}(nil), args...)
	if loc := mysqlLimit.FindStringIndex(query); loc != nil {
		pos := strings.Count(query[:loc[0]], "?")
		if pos+1 < len(out) {
			out[pos], out[pos+1] = out[pos+1], out[pos]
			query = query[:loc[0]] + "LIMIT ? OFFSET ?" + query[loc[1]:]
		}
	}
	return sqlx.Rebind(sqlx.DOLLAR, query), out
}

func IsConflict(err error) bool {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}
