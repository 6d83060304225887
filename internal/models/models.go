package models

import "time"

type User struct {
	ID           string     `db:"id"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	FirstName    string     `db:"first_name"`
	LastName     string     `db:"last_name"`
	Status       string     `db:"status"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	LastLoginAt  *time.Time `db:"last_login_at"`
}

type Page struct {
	UUID            string    `db:"uuid" json:"uuid"`
	Title           string    `db:"page_title" json:"page_title"`
	URL             string    `db:"page_url" json:"page_url"`
	Name            string    `db:"page_name" json:"page_name"`
	Content         string    `db:"content" json:"content"`
	MetaTitle       string    `db:"meta_title" json:"meta_title"`
	MetaDescription string    `db:"meta_description" json:"meta_description"`
	MetaKeywords    string    `db:"meta_keywords" json:"meta_keywords"`
	OGTitle         string    `db:"og_title" json:"og_title"`
	OGDescription   string    `db:"og_description" json:"og_description"`
	OGImage         string    `db:"og_image" json:"og_image"`
	Status          string    `db:"status" json:"status"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Module keeps field_config and validation_rules as stored JSON text.
type Module struct {
	UUID            string    `db:"uuid"`
	PageUUID        string    `db:"page_uuid"`
	Title           string    `db:"title"`
	Content         string    `db:"content"`
	FieldType       *string   `db:"field_type"`
	FieldConfig     *string   `db:"field_config"`
	ValidationRules *string   `db:"validation_rules"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

type Category struct {
	UUID      string    `db:"uuid" json:"uuid"`
	PageUUID  string    `db:"page_uuid" json:"page_uuid"`
	Title     string    `db:"title" json:"title"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Media struct {
	UUID             string    `db:"uuid" json:"uuid"`
	Filename         string    `db:"filename" json:"filename"`
	OriginalFilename string    `db:"original_filename" json:"original_filename"`
	MimeType         string    `db:"mime_type" json:"mime_type"`
	FileSize         int64     `db:"file_size" json:"file_size"`
	Width            *int      `db:"width" json:"width,omitempty"`
	Height           *int      `db:"height" json:"height,omitempty"`
	StoragePath      string    `db:"storage_path" json:"storage_path"`
	CDNURL           string    `db:"cdn_url" json:"cdn_url,omitempty"`
	UploadedBy       string    `db:"uploaded_by" json:"uploaded_by,omitempty"`
	AltText          string    `db:"alt_text" json:"alt_text,omitempty"`
	Sha256           string    `db:"sha256" json:"-"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// Webhook keeps its event list as a JSON array in Events.
type Webhook struct {
	ID        int64     `db:"id"`
	URL       string    `db:"url"`
	Events    string    `db:"events"`
	Secret    string    `db:"secret"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type WebhookLog struct {
	ID         int64     `db:"id" json:"id"`
	WebhookID  int64     `db:"webhook_id" json:"webhook_id"`
	Event      string    `db:"event" json:"event"`
	StatusCode int       `db:"status_code" json:"status_code"`
	Success    bool      `db:"success" json:"success"`
	Error      string    `db:"error" json:"error,omitempty"`
	DurationMS int64     `db:"duration_ms" json:"duration_ms"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type Relationship struct {
	ID               int64     `db:"id"`
	SourceType       string    `db:"source_type"`
	SourceID         string    `db:"source_id"`
	TargetType       string    `db:"target_type"`
	TargetID         string    `db:"target_id"`
	RelationshipType string    `db:"relationship_type"`
	Metadata         *string   `db:"metadata"`
	CreatedAt        time.Time `db:"created_at"`
}

type SiteVisit struct {
	ID        string    `db:"id"`
	IPAddress string    `db:"ip_address"`
	UserAgent string    `db:"user_agent"`
	Path      string    `db:"path"`
	Referrer  string    `db:"referrer"`
	CreatedAt time.Time `db:"created_at"`
}
