package services

import (
	"time"

	"freeradical-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const topLimit = 10

type TopPage struct {
	PageURL string `db:"page_url" json:"page_url"`
	Views   int64  `db:"views" json:"views"`
}

type Referrer struct {
	Source string `db:"source" json:"source"`
	Count  int64  `db:"count" json:"count"`
}

type AnalyticsSummary struct {
	TotalViews     int64      `json:"total_views"`
	UniqueVisitors int64      `json:"unique_visitors"`
	TodayViews     int64      `json:"today_views"`
	TopPages       []TopPage  `json:"top_pages"`
	Referrers      []Referrer `json:"referrers"`
}

func TrackVisit(db *sqlx.DB, ip, userAgent, path, referrer string) error {
	visit := models.SiteVisit{
		ID:        uuid.NewString(),
		IPAddress: trimString(ip, 64),
		UserAgent: trimString(userAgent, 512),
		Path:      trimString(path, 255),
		Referrer:  trimString(referrer, 512),
		CreatedAt: time.Now().UTC(),
	}
	_, err := db.NamedExec(`
INSERT INTO site_visits (id, ip_address, user_agent, path, referrer, created_at)
VALUES (:id, :ip_address, :user_agent, :path, :referrer, :created_at)
`, visit)
	return err
}

// Summarize aggregates site_visits; "today" starts at UTC midnight of now.
func Summarize(db *sqlx.DB, now time.Time) (AnalyticsSummary, error) {
	summary := AnalyticsSummary{TopPages: []TopPage{}, Referrers: []Referrer{}}
	if err := db.Get(&summary.TotalViews, `SELECT COUNT(*) FROM site_visits`); err != nil {
		return summary, err
	}
	if err := db.Get(&summary.UniqueVisitors, `SELECT COUNT(DISTINCT ip_address) FROM site_visits WHERE ip_address <> ''`); err != nil {
		return summary, err
	}
	midnight := now.UTC().Truncate(24 * time.Hour)
	if err := db.Get(&summary.TodayViews, db.Rebind(`SELECT COUNT(*) FROM site_visits WHERE created_at >= ?`), midnight); err != nil {
		return summary, err
	}
	if err := db.Select(&summary.TopPages, db.Rebind(`
SELECT path AS page_url, COUNT(*) AS views
FROM site_visits WHERE path <> ''
GROUP BY path ORDER BY views DESC, path ASC
LIMIT ?`), topLimit); err != nil {
		return summary, err
	}
	if err := db.Select(&summary.Referrers, db.Rebind(`
SELECT referrer AS source, COUNT(*) AS count
FROM site_visits WHERE referrer <> ''
GROUP BY referrer ORDER BY count DESC, referrer ASC
LIMIT ?`), topLimit); err != nil {
		return summary, err
	}
	return summary, nil
}
