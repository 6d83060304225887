package services

import (
	"database/sql"
	"errors"
	"time"

	"freeradical-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type CategoryInput struct {
	PageUUID string `json:"page_uuid"`
	Title    string `json:"title"`
}

type CategoryPatch struct {
	PageUUID *string `json:"page_uuid"`
	Title    *string `json:"title"`
}

func ListCategories(db *sqlx.DB, pageUUID string) ([]models.Category, error) {
	query := `SELECT uuid, page_uuid, title, created_at FROM categories`
	args := []any{}
	if pageUUID != "" {
		query += ` WHERE page_uuid = ?`
		args = append(args, pageUUID)
	}
	items := []models.Category{}
	err := db.Select(&items, db.Rebind(query+` ORDER BY title ASC, uuid ASC`), args...)
	return items, err
}

func GetCategory(db *sqlx.DB, id string) (models.Category, error) {
	var category models.Category
	err := db.Get(&category, db.Rebind(`SELECT uuid, page_uuid, title, created_at FROM categories WHERE uuid = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Category{}, ErrNotFound("Category not found")
	}
	return category, err
}

func CreateCategory(db *sqlx.DB, in CategoryInput) (models.Category, error) {
	title, err := NormalizeRequired(in.Title, "title is required")
	if err != nil {
		return models.Category{}, err
	}
	pageUUID, err := NormalizeRequired(in.PageUUID, "page_uuid is required")
	if err != nil {
		return models.Category{}, err
	}
	if err := requirePage(db, pageUUID); err != nil {
		return models.Category{}, err
	}
	category := models.Category{
		UUID:      uuid.NewString(),
		PageUUID:  pageUUID,
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}
	_, err = db.NamedExec(`INSERT INTO categories (uuid, page_uuid, title, created_at) VALUES (:uuid, :page_uuid, :title, :created_at)`, category)
	if err != nil {
		return models.Category{}, err
	}
	return category, nil
}

func UpdateCategory(db *sqlx.DB, id string, patch CategoryPatch) (models.Category, error) {
	category, err := GetCategory(db, id)
	if err != nil {
		return models.Category{}, err
	}
	if patch.Title != nil {
		if category.Title, err = NormalizeRequired(*patch.Title, "title cannot be empty"); err != nil {
			return models.Category{}, err
		}
	}
	if patch.PageUUID != nil {
		if err := requirePage(db, *patch.PageUUID); err != nil {
			return models.Category{}, err
		}
		category.PageUUID = *patch.PageUUID
	}
	_, err = db.NamedExec(`UPDATE categories SET page_uuid = :page_uuid, title = :title WHERE uuid = :uuid`, category)
	if err != nil {
		return models.Category{}, err
	}
	return category, nil
}

func DeleteCategory(db *sqlx.DB, id string) error {
	res, err := db.Exec(db.Rebind(`DELETE FROM categories WHERE uuid = ?`), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound("Category not found")
	}
	return nil
}
