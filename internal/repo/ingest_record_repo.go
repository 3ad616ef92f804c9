package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/pdfchat/internal/model"
	"github.com/xxxsen/pdfchat/internal/pkg/dbutil"
	appErr "github.com/xxxsen/pdfchat/internal/pkg/errors"
)

var ingestRecordFields = []string{"id", "session_id", "file_name", "file_key", "pages", "words", "chunks", "ctime"}

type IngestRecordRepo struct {
	db *sql.DB
}

func NewIngestRecordRepo(db *sql.DB) *IngestRecordRepo {
	return &IngestRecordRepo{db: db}
}

func (r *IngestRecordRepo) Create(ctx context.Context, rec *model.IngestRecord) error {
	data := map[string]interface{}{
		"id":         rec.ID,
		"session_id": rec.SessionID,
		"file_name":  rec.FileName,
		"file_key":   rec.FileKey,
		"pages":      rec.Pages,
		"words":      rec.Words,
		"chunks":     rec.Chunks,
		"ctime":      rec.Ctime,
	}
	sqlStr, args, err := dbutil.Postgres(builder.BuildInsert("ingest_records", []map[string]interface{}{data}))
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.Wrap(appErr.ErrConflict, err)
		}
		return err
	}
	return nil
}

func (r *IngestRecordRepo) ListBySession(ctx context.Context, sessionID string, limit int) ([]model.IngestRecord, error) {
	where := map[string]interface{}{"session_id": sessionID, "_orderby": "ctime desc"}
	if limit > 0 {
		where["_limit"] = []uint{0, uint(limit)}
	}
	sqlStr, args, err := dbutil.Postgres(builder.BuildSelect("ingest_records", where, ingestRecordFields))
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	records := make([]model.IngestRecord, 0)
	for rows.Next() {
		var rec model.IngestRecord
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.FileName, &rec.FileKey, &rec.Pages, &rec.Words, &rec.Chunks, &rec.Ctime); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
