package services

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"freeradical-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var pageStatuses = map[string]bool{
	"draft":     true,
	"published": true,
	"archived":  true,
	"scheduled": true,
}

const pageColumns = `uuid, page_title, page_url, page_name, content, meta_title, meta_description, meta_keywords,
og_title, og_description, og_image, status, created_at, updated_at`

type PageInput struct {
	Title           string `json:"page_title"`
	URL             string `json:"page_url"`
	Name            string `json:"page_name"`
	Content         string `json:"content"`
	MetaTitle       string `json:"meta_title"`
	MetaDescription string `json:"meta_description"`
	MetaKeywords    string `json:"meta_keywords"`
	OGTitle         string `json:"og_title"`
	OGDescription   string `json:"og_description"`
	OGImage         string `json:"og_image"`
	Status          string `json:"status"`
}

// PagePatch changes only its non-nil fields.
type PagePatch struct {
	Title           *string `json:"page_title"`
	URL             *string `json:"page_url"`
	Name            *string `json:"page_name"`
	Content         *string `json:"content"`
	MetaTitle       *string `json:"meta_title"`
	MetaDescription *string `json:"meta_description"`
	MetaKeywords    *string `json:"meta_keywords"`
	OGTitle         *string `json:"og_title"`
	OGDescription   *string `json:"og_description"`
	OGImage         *string `json:"og_image"`
	Status          *string `json:"status"`
}

func ListPages(db *sqlx.DB, p *Pagination) ([]models.Page, error) {
	query, args := p.clause(`SELECT `+pageColumns+` FROM pages ORDER BY created_at ASC, uuid ASC`, nil)
	pages := []models.Page{}
	err := db.Select(&pages, db.Rebind(query), args...)
	return pages, err
}

func GetPage(db *sqlx.DB, id string) (models.Page, error) {
	var page models.Page
	err := db.Get(&page, db.Rebind(`SELECT `+pageColumns+` FROM pages WHERE uuid = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Page{}, ErrNotFound("Page not found")
	}
	return page, err
}

func PageExists(db *sqlx.DB, id string) (bool, error) {
	var exists bool
	err := db.Get(&exists, db.Rebind(`SELECT EXISTS(SELECT 1 FROM pages WHERE uuid = ?)`), id)
	return exists, err
}

func CreatePage(db *sqlx.DB, in PageInput) (models.Page, error) {
	title, err := NormalizeRequired(in.Title, "page_title is required")
	if err != nil {
		return models.Page{}, err
	}
	url, err := NormalizeRequired(in.URL, "page_url is required")
	if err != nil {
		return models.Page{}, err
	}
	status := strings.ToLower(strings.TrimSpace(in.Status))
	if status == "" {
		status = "draft"
	}
	if !pageStatuses[status] {
		return models.Page{}, ErrBadRequest("Unknown page status: " + in.Status)
	}
	if err := ensureURLFree(db, url, ""); err != nil {
		return models.Page{}, err
	}
	now := time.Now().UTC()
	page := models.Page{
		UUID:            uuid.NewString(),
		Title:           title,
		URL:             url,
		Name:            strings.TrimSpace(in.Name),
		Content:         in.Content,
		MetaTitle:       in.MetaTitle,
		MetaDescription: in.MetaDescription,
		MetaKeywords:    in.MetaKeywords,
		OGTitle:         in.OGTitle,
		OGDescription:   in.OGDescription,
		OGImage:         in.OGImage,
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	_, err = db.NamedExec(`
INSERT INTO pages (uuid, page_title, page_url, page_name, content, meta_title, meta_description, meta_keywords,
  og_title, og_description, og_image, status, created_at, updated_at)
VALUES (:uuid, :page_title, :page_url, :page_name, :content, :meta_title, :meta_description, :meta_keywords,
  :og_title, :og_description, :og_image, :status, :created_at, :updated_at)
`, page)
	if isUniqueViolation(err) {
		return models.Page{}, errURLTaken
	}
	if err != nil {
		return models.Page{}, err
	}
	return page, nil
}

func UpdatePage(db *sqlx.DB, id string, patch PagePatch) (models.Page, error) {
	page, err := GetPage(db, id)
	if err != nil {
		return models.Page{}, err
	}
	if patch.Title != nil {
		if page.Title, err = NormalizeRequired(*patch.Title, "page_title cannot be empty"); err != nil {
			return models.Page{}, err
		}
	}
	if patch.URL != nil {
		url, err := NormalizeRequired(*patch.URL, "page_url cannot be empty")
		if err != nil {
			return models.Page{}, err
		}
		if url != page.URL {
			if err := ensureURLFree(db, url, page.UUID); err != nil {
				return models.Page{}, err
			}
		}
		page.URL = url
	}
	if patch.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*patch.Status))
		if !pageStatuses[status] {
			return models.Page{}, ErrBadRequest("Unknown page status: " + *patch.Status)
		}
		page.Status = status
	}
	assign(&page.Name, patch.Name)
	assign(&page.Content, patch.Content)
	assign(&page.MetaTitle, patch.MetaTitle)
	assign(&page.MetaDescription, patch.MetaDescription)
	assign(&page.MetaKeywords, patch.MetaKeywords)
	assign(&page.OGTitle, patch.OGTitle)
	assign(&page.OGDescription, patch.OGDescription)
	assign(&page.OGImage, patch.OGImage)
	page.UpdatedAt = time.Now().UTC()

	_, err = db.NamedExec(`
UPDATE pages SET page_title = :page_title, page_url = :page_url, page_name = :page_name, content = :content,
  meta_title = :meta_title, meta_description = :meta_description, meta_keywords = :meta_keywords,
  og_title = :og_title, og_description = :og_description, og_image = :og_image,
  status = :status, updated_at = :updated_at
WHERE uuid = :uuid
`, page)
	if isUniqueViolation(err) {
		return models.Page{}, errURLTaken
	}
	if err != nil {
		return models.Page{}, err
	}
	return page, nil
}

// DeletePage removes the page only; modules and categories that point at it
// are left for their own lifecycle.
func DeletePage(db *sqlx.DB, id string) (models.Page, error) {
	page, err := GetPage(db, id)
	if err != nil {
		return models.Page{}, err
	}
	if _, err := db.Exec(db.Rebind(`DELETE FROM pages WHERE uuid = ?`), id); err != nil {
		return models.Page{}, err
	}
	return page, nil
}

// errURLTaken covers both the pre-check and a concurrent insert that reaches
// the UNIQUE index first.
var errURLTaken = ErrConflict("A page with this URL already exists")

func ensureURLFree(db *sqlx.DB, url, exceptUUID string) error {
	var exists bool
	err := db.Get(&exists, db.Rebind(`SELECT EXISTS(SELECT 1 FROM pages WHERE page_url = ? AND uuid <> ?)`), url, exceptUUID)
	if err != nil {
		return err
	}
	if exists {
		return errURLTaken
	}
	return nil
}

func assign(dst *string, value *string) {
	if value != nil {
		*dst = *value
	}
}
