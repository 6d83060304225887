package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"freeradical-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const mediaColumns = `uuid, filename, original_filename, mime_type, file_size, width, height, storage_path,
cdn_url, uploaded_by, alt_text, sha256, created_at`

type UploadInput struct {
	Filename    string
	ContentType string
	AltText     string
	UploadedBy  string
	Data        []byte
}

func ListMedia(db *sqlx.DB, p *Pagination) ([]models.Media, error) {
	query, args := p.clause(`SELECT `+mediaColumns+` FROM media ORDER BY created_at DESC, uuid ASC`, nil)
	items := []models.Media{}
	err := db.Select(&items, db.Rebind(query), args...)
	return items, err
}

func GetMedia(db *sqlx.DB, id string) (models.Media, error) {
	var media models.Media
	err := db.Get(&media, db.Rebind(`SELECT `+mediaColumns+` FROM media WHERE uuid = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Media{}, ErrNotFound("Media not found")
	}
	return media, err
}

// SaveMedia stores the bytes in store and records them. Images get their
// pixel dimensions recorded.
func SaveMedia(ctx context.Context, db *sqlx.DB, store BlobStore, in UploadInput) (models.Media, error) {
	if len(in.Data) == 0 {
		return models.Media{}, ErrBadRequest("Uploaded file is empty")
	}
	original := filepath.Base(strings.TrimSpace(in.Filename))
	if original == "." || original == "/" || original == "" {
		return models.Media{}, ErrBadRequest("Uploaded file needs a name")
	}
	id := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(original))
	key := id + ext
	if stem := strings.TrimSuffix(original, filepath.Ext(original)); stem != "" {
		key = id + "-" + Slugify(stem) + ext
	}
	sum := sha256.Sum256(in.Data)
	media := models.Media{
		UUID:             id,
		Filename:         key,
		OriginalFilename: original,
		MimeType:         detectMime(in.ContentType, ext, in.Data),
		FileSize:         int64(len(in.Data)),
		UploadedBy:       in.UploadedBy,
		AltText:          trimString(in.AltText, 512),
		Sha256:           hex.EncodeToString(sum[:]),
		CreatedAt:        time.Now().UTC(),
	}
	if strings.HasPrefix(media.MimeType, "image/") {
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(in.Data)); err == nil {
			media.Width, media.Height = &cfg.Width, &cfg.Height
		}
	}
	media.StoragePath = store.Path(key)
	media.CDNURL = store.PublicURL(key)
	if media.CDNURL == "" {
		media.CDNURL = ContentURL(id)
	}

	if err := store.Put(ctx, key, media.MimeType, in.Data); err != nil {
		return models.Media{}, WrapError(err, "store media")
	}
	_, err := db.NamedExec(`
INSERT INTO media (uuid, filename, original_filename, mime_type, file_size, width, height, storage_path,
  cdn_url, uploaded_by, alt_text, sha256, created_at)
VALUES (:uuid, :filename, :original_filename, :mime_type, :file_size, :width, :height, :storage_path,
  :cdn_url, :uploaded_by, :alt_text, :sha256, :created_at)
`, media)
	if err != nil {
		_ = store.Delete(ctx, key)
		return models.Media{}, err
	}
	return media, nil
}

func ContentURL(id string) string {
	return "/api/media/" + id + "/content"
}

// OpenMedia returns the record and a reader over its bytes.
func OpenMedia(ctx context.Context, db *sqlx.DB, store BlobStore, id string) (models.Media, io.ReadCloser, error) {
	media, err := GetMedia(db, id)
	if err != nil {
		return models.Media{}, nil, err
	}
	body, err := store.Open(ctx, media.Filename)
	if errors.Is(err, ErrBlobNotFound) {
		return models.Media{}, nil, ErrNotFound("Media content missing")
	}
	if err != nil {
		return models.Media{}, nil, err
	}
	return media, body, nil
}

func DeleteMedia(ctx context.Context, db *sqlx.DB, store BlobStore, id string) (models.Media, error) {
	media, err := GetMedia(db, id)
	if err != nil {
		return models.Media{}, err
	}
	if _, err := db.Exec(db.Rebind(`DELETE FROM media WHERE uuid = ?`), id); err != nil {
		return models.Media{}, err
	}
	if err := store.Delete(ctx, media.Filename); err != nil {
		return media, WrapError(err, "delete media blob")
	}
	return media, nil
}

func detectMime(declared, ext string, data []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if byExt := mime.TypeByExtension(ext); byExt != "" {
		return strings.SplitN(byExt, ";", 2)[0]
	}
	return http.DetectContentType(data)
}
