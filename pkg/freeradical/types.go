package freeradical

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type PageStatus string

const (
	PageDraft     PageStatus = "draft"
	PagePublished PageStatus = "published"
	PageArchived  PageStatus = "archived"
	PageScheduled PageStatus = "scheduled"
)

// Page is a CMS page. UUID is server assigned and distinct from the URL slug.
type Page struct {
	UUID            string     `json:"uuid"`
	Title           string     `json:"page_title"`
	URL             string     `json:"page_url"`
	Name            string     `json:"page_name,omitempty"`
	Content         string     `json:"content,omitempty"`
	MetaTitle       string     `json:"meta_title,omitempty"`
	MetaDescription string     `json:"meta_description,omitempty"`
	MetaKeywords    string     `json:"meta_keywords,omitempty"`
	OGTitle         string     `json:"og_title,omitempty"`
	OGDescription   string     `json:"og_description,omitempty"`
	OGImage         string     `json:"og_image,omitempty"`
	Status          PageStatus `json:"status,omitempty"`
	CreatedAt       *Timestamp `json:"created_at,omitempty"`
	UpdatedAt       *Timestamp `json:"updated_at,omitempty"`
}

// CreatePageInput carries every writable page field, so an exported Page
// re-creates the same page. Status defaults to draft on the server.
type CreatePageInput struct {
	Title           string     `json:"page_title"`
	URL             string     `json:"page_url"`
	Name            string     `json:"page_name,omitempty"`
	Content         string     `json:"content,omitempty"`
	MetaTitle       string     `json:"meta_title,omitempty"`
	MetaDescription string     `json:"meta_description,omitempty"`
	MetaKeywords    string     `json:"meta_keywords,omitempty"`
	OGTitle         string     `json:"og_title,omitempty"`
	OGDescription   string     `json:"og_description,omitempty"`
	OGImage         string     `json:"og_image,omitempty"`
	Status          PageStatus `json:"status,omitempty"`
}

// UpdatePageInput is a partial update: nil fields are not sent and stay
// unchanged on the server.
type UpdatePageInput struct {
	Title           *string     `json:"page_title,omitempty"`
	URL             *string     `json:"page_url,omitempty"`
	Name            *string     `json:"page_name,omitempty"`
	Content         *string     `json:"content,omitempty"`
	MetaTitle       *string     `json:"meta_title,omitempty"`
	MetaDescription *string     `json:"meta_description,omitempty"`
	MetaKeywords    *string     `json:"meta_keywords,omitempty"`
	OGTitle         *string     `json:"og_title,omitempty"`
	OGDescription   *string     `json:"og_description,omitempty"`
	OGImage         *string     `json:"og_image,omitempty"`
	Status          *PageStatus `json:"status,omitempty"`
}

type Media struct {
	UUID             string     `json:"uuid"`
	Filename         string     `json:"filename"`
	OriginalFilename string     `json:"original_filename"`
	MimeType         string     `json:"mime_type"`
	FileSize         int64      `json:"file_size"`
	Width            *int       `json:"width,omitempty"`
	Height           *int       `json:"height,omitempty"`
	StoragePath      string     `json:"storage_path"`
	CDNURL           string     `json:"cdn_url,omitempty"`
	UploadedBy       string     `json:"uploaded_by,omitempty"`
	AltText          string     `json:"alt_text,omitempty"`
	CreatedAt        *Timestamp `json:"created_at,omitempty"`
}

type EventName string

const (
	EventPageCreated   EventName = "page.created"
	EventPageUpdated   EventName = "page.updated"
	EventPageDeleted   EventName = "page.deleted"
	EventModuleCreated EventName = "module.created"
	EventModuleUpdated EventName = "module.updated"
	EventModuleDeleted EventName = "module.deleted"
	EventMediaUploaded EventName = "media.uploaded"
	EventMediaDeleted  EventName = "media.deleted"
	EventWebhookTest   EventName = "webhook.test"
)

// Webhook ID is zero until the server has created it.
type Webhook struct {
	ID     int64       `json:"id,omitempty"`
	URL    string      `json:"url"`
	Events []EventName `json:"events"`
	Secret string      `json:"secret,omitempty"`
	Active bool        `json:"active"`
}

type CreateWebhookInput struct {
	URL    string      `json:"url"`
	Events []EventName `json:"events"`
	Secret string      `json:"secret,omitempty"`
	Active *bool       `json:"active,omitempty"`
}

type UpdateWebhookInput struct {
	URL    *string      `json:"url,omitempty"`
	Events *[]EventName `json:"events,omitempty"`
	Secret *string      `json:"secret,omitempty"`
	Active *bool        `json:"active,omitempty"`
}

type WebhookLog struct {
	ID         int64      `json:"id"`
	WebhookID  int64      `json:"webhook_id"`
	Event      EventName  `json:"event"`
	StatusCode int        `json:"status_code"`
	Success    bool       `json:"success"`
	Error      string     `json:"error,omitempty"`
	DurationMS int64      `json:"duration_ms"`
	CreatedAt  *Timestamp `json:"created_at,omitempty"`
}

// Relationship is a directed edge between two typed resources. Metadata is
// server defined and carried verbatim.
type Relationship struct {
	ID               int64           `json:"id,omitempty"`
	SourceType       string          `json:"source_type"`
	SourceID         string          `json:"source_id"`
	TargetType       string          `json:"target_type"`
	TargetID         string          `json:"target_id"`
	RelationshipType string          `json:"relationship_type"`
	Metadata         json.RawMessage `json:"metadata,omitempty"`
}

type CreateRelationshipInput struct {
	SourceType       string          `json:"source_type"`
	SourceID         string          `json:"source_id"`
	TargetType       string          `json:"target_type"`
	TargetID         string          `json:"target_id"`
	RelationshipType string          `json:"relationship_type"`
	Metadata         json.RawMessage `json:"metadata,omitempty"`
}

type Category struct {
	UUID     string `json:"uuid"`
	PageUUID string `json:"page_uuid"`
	Title    string `json:"title"`
}

type CreateCategoryInput struct {
	PageUUID string `json:"page_uuid"`
	Title    string `json:"title"`
}

type UpdateCategoryInput struct {
	PageUUID *string `json:"page_uuid,omitempty"`
	Title    *string `json:"title,omitempty"`
}

type SearchResult struct {
	ResourceType string `json:"resource_type"`
	ID           string `json:"id"`
	Title        string `json:"title"`
	Snippet      string `json:"snippet"`
}

type SearchResponse struct {
	Results []SearchResult `json:"results"`
	Total   int            `json:"total"`
	Page    int            `json:"page"`
	PerPage int            `json:"per_page"`
}

// ID is an identifier the server may encode as a JSON string or number.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) Int64() (int64, error) {
	return strconv.ParseInt(string(id), 10, 64)
}

type User struct {
	ID        ID     `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type TopPage struct {
	PageURL string `json:"page_url"`
	Views   int64  `json:"views"`
}

type Referrer struct {
	Source string `json:"source"`
	Count  int64  `json:"count"`
}

type AnalyticsSummary struct {
	TotalViews     int64      `json:"total_views"`
	UniqueVisitors int64      `json:"unique_visitors"`
	TodayViews     int64      `json:"today_views"`
	TopPages       []TopPage  `json:"top_pages"`
	Referrers      []Referrer `json:"referrers"`
}

type VisitInput struct {
	Path     string `json:"path"`
	Referrer string `json:"referrer,omitempty"`
}
