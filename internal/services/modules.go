package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"freeradical-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const moduleColumns = `uuid, page_uuid, title, content, field_type, field_config, validation_rules, created_at, updated_at`

type ModuleInput struct {
	PageUUID        string          `json:"page_uuid"`
	Title           string          `json:"title"`
	Content         string          `json:"content"`
	FieldType       string          `json:"field_type"`
	FieldConfig     json.RawMessage `json:"field_config"`
	ValidationRules json.RawMessage `json:"validation_rules"`
}

// ModulePatch changes only its non-nil fields. A JSON null field_config or
// validation_rules clears the stored blob.
type ModulePatch struct {
	PageUUID        *string         `json:"page_uuid"`
	Title           *string         `json:"title"`
	Content         *string         `json:"content"`
	FieldType       *string         `json:"field_type"`
	FieldConfig     json.RawMessage `json:"field_config"`
	ValidationRules json.RawMessage `json:"validation_rules"`
}

func ListModules(db *sqlx.DB, pageUUID string, p *Pagination) ([]models.Module, error) {
	query := `SELECT ` + moduleColumns + ` FROM modules`
	args := []any{}
	if pageUUID != "" {
		query += ` WHERE page_uuid = ?`
		args = append(args, pageUUID)
	}
	query, args = p.clause(query+` ORDER BY created_at ASC, uuid ASC`, args)
	items := []models.Module{}
	err := db.Select(&items, db.Rebind(query), args...)
	return items, err
}

func GetModule(db *sqlx.DB, id string) (models.Module, error) {
	var module models.Module
	err := db.Get(&module, db.Rebind(`SELECT `+moduleColumns+` FROM modules WHERE uuid = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Module{}, ErrNotFound("Module not found")
	}
	return module, err
}

func CreateModule(db *sqlx.DB, in ModuleInput) (models.Module, error) {
	title, err := NormalizeRequired(in.Title, "title is required")
	if err != nil {
		return models.Module{}, err
	}
	pageUUID, err := NormalizeRequired(in.PageUUID, "page_uuid is required")
	if err != nil {
		return models.Module{}, err
	}
	if err := requirePage(db, pageUUID); err != nil {
		return models.Module{}, err
	}
	now := time.Now().UTC()
	module := models.Module{
		UUID:      uuid.NewString(),
		PageUUID:  pageUUID,
		Title:     title,
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if fieldType := strings.TrimSpace(in.FieldType); fieldType != "" {
		module.FieldType = &fieldType
	}
	if module.FieldConfig, err = compactJSON(in.FieldConfig, "field_config"); err != nil {
		return models.Module{}, err
	}
	if module.ValidationRules, err = compactJSON(in.ValidationRules, "validation_rules"); err != nil {
		return models.Module{}, err
	}
	if err := checkModule(module); err != nil {
		return models.Module{}, err
	}
	_, err = db.NamedExec(`
INSERT INTO modules (uuid, page_uuid, title, content, field_type, field_config, validation_rules, created_at, updated_at)
VALUES (:uuid, :page_uuid, :title, :content, :field_type, :field_config, :validation_rules, :created_at, :updated_at)
`, module)
	if err != nil {
		return models.Module{}, err
	}
	return module, nil
}

func UpdateModule(db *sqlx.DB, id string, patch ModulePatch) (models.Module, error) {
	module, err := GetModule(db, id)
	if err != nil {
		return models.Module{}, err
	}
	if patch.PageUUID != nil {
		pageUUID, err := NormalizeRequired(*patch.PageUUID, "page_uuid cannot be empty")
		if err != nil {
			return models.Module{}, err
		}
		if err := requirePage(db, pageUUID); err != nil {
			return models.Module{}, err
		}
		module.PageUUID = pageUUID
	}
	if patch.Title != nil {
		if module.Title, err = NormalizeRequired(*patch.Title, "title cannot be empty"); err != nil {
			return models.Module{}, err
		}
	}
	assign(&module.Content, patch.Content)
	if patch.FieldType != nil {
		if fieldType := strings.TrimSpace(*patch.FieldType); fieldType != "" {
			module.FieldType = &fieldType
		} else {
			module.FieldType = nil
		}
	}
	if patch.FieldConfig != nil {
		if module.FieldConfig, err = compactJSON(patch.FieldConfig, "field_config"); err != nil {
			return models.Module{}, err
		}
	}
	if patch.ValidationRules != nil {
		if module.ValidationRules, err = compactJSON(patch.ValidationRules, "validation_rules"); err != nil {
			return models.Module{}, err
		}
	}
	if err := checkModule(module); err != nil {
		return models.Module{}, err
	}
	module.UpdatedAt = time.Now().UTC()
	_, err = db.NamedExec(`
UPDATE modules SET page_uuid = :page_uuid, title = :title, content = :content, field_type = :field_type,
  field_config = :field_config, validation_rules = :validation_rules, updated_at = :updated_at
WHERE uuid = :uuid
`, module)
	if err != nil {
		return models.Module{}, err
	}
	return module, nil
}

func DeleteModule(db *sqlx.DB, id string) (models.Module, error) {
	module, err := GetModule(db, id)
	if err != nil {
		return models.Module{}, err
	}
	if _, err := db.Exec(db.Rebind(`DELETE FROM modules WHERE uuid = ?`), id); err != nil {
		return models.Module{}, err
	}
	return module, nil
}

func checkModule(module models.Module) error {
	fieldType := deref(module.FieldType)
	if fieldType != "" && !fieldTypes[fieldType] {
		return ErrBadRequest("Unknown field_type: " + fieldType)
	}
	if module.FieldConfig != nil && !strings.HasPrefix(*module.FieldConfig, "{") {
		return ErrBadRequest("field_config must be a JSON object")
	}
	rules, err := ParseValidationRules(module.ValidationRules)
	if err != nil {
		return err
	}
	return ValidateContent(fieldType, rules, module.Content)
}

func requirePage(db *sqlx.DB, pageUUID string) error {
	exists, err := PageExists(db, pageUUID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrBadRequest("page_uuid does not reference an existing page")
	}
	return nil
}
