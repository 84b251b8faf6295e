package reports

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"

	"github.com/mimamori/mimamori/pkg/repository"
)

const fileColumns = `id, report_id, filename, content_type, size_bytes,
		storage_key, uploaded_by, uploaded_at`

func (r *repo) AttachFile(
	ctx context.Context,
	reportID uuid.UUID,
	filename, contentType, uploadedBy string,
	size int64,
	data io.Reader,
) (*ReportFile, error) {
	if _, err := r.Find(ctx, reportID); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("reports/%s/%s%s", reportID, uuid.New(), path.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := r.storage.Upload(ctx, key, data, contentType); err != nil {
		return nil, fmt.Errorf("upload attachment: %w", err)
	}

	insertQ := fmt.Sprintf(`
		INSERT INTO report_files(report_id, filename, content_type, size_bytes, storage_key, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s`, fileColumns)

	f, err := repository.QueryOne(ctx, r.db, insertQ, []any{
		reportID, filename, contentType, size, key, uploadedBy,
	}, scanFile)
	if err != nil {
		// orphaned blob: remove it so storage stays consistent
		if delErr := r.storage.Delete(ctx, key); delErr != nil {
			r.logger.Error("cleanup of orphaned attachment failed", "key", key, "error", delErr)
		}
		return nil, fmt.Errorf("insert report file: %w", err)
	}

	r.logger.Info("attachment uploaded",
		"id", f.ID,
		"report_id", reportID,
		"filename", filename,
		"size_bytes", size,
	)
	return &f, nil
}

func (r *repo) ListFiles(ctx context.Context, reportID uuid.UUID) ([]ReportFile, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM report_files
		WHERE report_id = $1
		ORDER BY uploaded_at DESC`, fileColumns)

	files, err := repository.QueryMany(ctx, r.db, q, []any{reportID}, scanFile)
	if err != nil {
		return nil, fmt.Errorf("query report files: %w", err)
	}
	return files, nil
}

func (r *repo) DownloadFile(ctx context.Context, fileID uuid.UUID) (*ReportFile, io.ReadCloser, error) {
	q := fmt.Sprintf(`SELECT %s FROM report_files WHERE id = $1`, fileColumns)

	f, err := repository.QueryOne(ctx, r.db, q, []any{fileID}, scanFile)
	if err != nil {
		return nil, nil, repository.MapError(err, ErrFileNotFound, ErrDuplicate)
	}

	body, err := r.storage.Download(ctx, f.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("download attachment %s: %w", fileID, err)
	}

	return &f, body, nil
}
