package services

import (
	"encoding/json"
	"strings"
	"time"

	"freeradical-go/internal/models"

	"github.com/jmoiron/sqlx"
)

var resourceTypes = map[string]bool{
	"page":     true,
	"module":   true,
	"media":    true,
	"category": true,
}

type RelationshipInput struct {
	SourceType       string          `json:"source_type"`
	SourceID         string          `json:"source_id"`
	TargetType       string          `json:"target_type"`
	TargetID         string          `json:"target_id"`
	RelationshipType string          `json:"relationship_type"`
	Metadata         json.RawMessage `json:"metadata"`
}

// Related is one edge seen from the resource that was asked about.
type Related struct {
	RelationshipID   int64           `json:"relationship_id"`
	RelationshipType string          `json:"relationship_type"`
	Direction        string          `json:"direction"`
	ResourceType     string          `json:"resource_type"`
	ResourceID       string          `json:"resource_id"`
	Title            string          `json:"title,omitempty"`
	Metadata         json.RawMessage `json:"metadata,omitempty"`
}

func CreateRelationship(db *sqlx.DB, in RelationshipInput) (models.Relationship, error) {
	rel := models.Relationship{CreatedAt: time.Now().UTC()}
	var err error
	fields := []struct {
		dst   *string
		value string
		name  string
	}{
		{&rel.SourceType, in.SourceType, "source_type"},
		{&rel.SourceID, in.SourceID, "source_id"},
		{&rel.TargetType, in.TargetType, "target_type"},
		{&rel.TargetID, in.TargetID, "target_id"},
		{&rel.RelationshipType, in.RelationshipType, "relationship_type"},
	}
	for _, f := range fields {
		if *f.dst, err = NormalizeRequired(f.value, f.name+" is required"); err != nil {
			return models.Relationship{}, err
		}
	}
	rel.SourceType = resourceType(rel.SourceType)
	rel.TargetType = resourceType(rel.TargetType)
	for _, t := range []string{rel.SourceType, rel.TargetType} {
		if !resourceTypes[t] {
			return models.Relationship{}, ErrBadRequest("Unknown resource type: " + t)
		}
	}
	if rel.Metadata, err = compactJSON(in.Metadata, "metadata"); err != nil {
		return models.Relationship{}, err
	}

	tx, err := db.Beginx()
	if err != nil {
		return models.Relationship{}, err
	}
	defer func() { _ = tx.Rollback() }()
	if rel.ID, err = nextID(tx, "relationships"); err != nil {
		return models.Relationship{}, err
	}
	if _, err := tx.NamedExec(`
INSERT INTO relationships (id, source_type, source_id, target_type, target_id, relationship_type, metadata, created_at)
VALUES (:id, :source_type, :source_id, :target_type, :target_id, :relationship_type, :metadata, :created_at)
`, rel); err != nil {
		return models.Relationship{}, err
	}
	return rel, tx.Commit()
}

func DeleteRelationship(db *sqlx.DB, id int64) error {
	res, err := db.Exec(db.Rebind(`DELETE FROM relationships WHERE id = ?`), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound("Relationship not found")
	}
	return nil
}

// RelatedTo lists every edge touching the resource, in creation order, with
// the other end's title resolved where it still exists.
func RelatedTo(db *sqlx.DB, kind, resourceID string) ([]Related, error) {
	kind = resourceType(kind)
	rows := []models.Relationship{}
	err := db.Select(&rows, db.Rebind(`
SELECT id, source_type, source_id, target_type, target_id, relationship_type, metadata, created_at
FROM relationships
WHERE (source_type = ? AND source_id = ?) OR (target_type = ? AND target_id = ?)
ORDER BY id ASC`), kind, resourceID, kind, resourceID)
	if err != nil {
		return nil, err
	}
	items := make([]Related, 0, len(rows))
	for _, row := range rows {
		item := Related{
			RelationshipID:   row.ID,
			RelationshipType: row.RelationshipType,
			Direction:        "outgoing",
			ResourceType:     row.TargetType,
			ResourceID:       row.TargetID,
		}
		if row.TargetType == kind && row.TargetID == resourceID {
			item.Direction = "incoming"
			item.ResourceType = row.SourceType
			item.ResourceID = row.SourceID
		}
		if row.Metadata != nil {
			item.Metadata = json.RawMessage(*row.Metadata)
		}
		item.Title = resourceTitle(db, item.ResourceType, item.ResourceID)
		items = append(items, item)
	}
	return items, nil
}

// resourceType lowercases t and accepts plural forms such as "pages".
func resourceType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	if singular := strings.TrimSuffix(t, "s"); singular != t && resourceTypes[singular] {
		return singular
	}
	if t == "categories" {
		return "category"
	}
	return t
}

func resourceTitle(db *sqlx.DB, kind, id string) string {
	var query string
	switch kind {
	case "page":
		query = `SELECT page_title FROM pages WHERE uuid = ?`
	case "module":
		query = `SELECT title FROM modules WHERE uuid = ?`
	case "media":
		query = `SELECT original_filename FROM media WHERE uuid = ?`
	case "category":
		query = `SELECT title FROM categories WHERE uuid = ?`
	default:
		return ""
	}
	var title string
	_ = db.Get(&title, db.Rebind(query), id)
	return title
}
