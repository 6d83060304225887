package services

import (
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"
)

const snippetRunes = 160

var (
	searchable    = []string{"pages", "modules", "media"}
	tagPattern    = regexp.MustCompile(`<[^>]*>`)
	spacePattern  = regexp.MustCompile(`\s+`)
	searchQueries = map[string]string{
		"pages": `SELECT uuid AS id, page_title AS title, content AS body FROM pages
WHERE lower(page_title) LIKE ? OR lower(content) LIKE ? OR lower(meta_description) LIKE ?
ORDER BY page_title ASC`,
		"modules": `SELECT uuid AS id, title, content AS body FROM modules
WHERE lower(title) LIKE ? OR lower(content) LIKE ? OR lower(content) LIKE ?
ORDER BY title ASC`,
		"media": `SELECT uuid AS id, original_filename AS title, alt_text AS body FROM media
WHERE lower(original_filename) LIKE ? OR lower(alt_text) LIKE ? OR lower(filename) LIKE ?
ORDER BY original_filename ASC`,
	}
)

type SearchQuery struct {
	Term      string
	Resources []string
	Page      int
	PerPage   int
}

type SearchHit struct {
	ResourceType string `json:"resource_type"`
	ID           string `json:"id"`
	Title        string `json:"title"`
	Snippet      string `json:"snippet"`
}

type SearchResults struct {
	Results []SearchHit `json:"results"`
	Total   int         `json:"total"`
	Page    int         `json:"page"`
	PerPage int         `json:"per_page"`
}

// Search matches the term case-insensitively across the selected resource
// kinds, in the order pages, modules, media.
func Search(db *sqlx.DB, q SearchQuery) (SearchResults, error) {
	p := NewPagination(q.Page, q.PerPage)
	out := SearchResults{Results: []SearchHit{}, Page: p.Page, PerPage: p.PerPage}
	term := CleanSearchTerm(q.Term)
	if term == "" {
		return out, nil
	}
	kinds, err := searchKinds(q.Resources)
	if err != nil {
		return out, err
	}
	like := "%" + escapeLike(strings.ToLower(term)) + "%"
	hits := []SearchHit{}
	for _, kind := range kinds {
		rows := []struct {
			ID    string `db:"id"`
			Title string `db:"title"`
			Body  string `db:"body"`
		}{}
		query := strings.ReplaceAll(searchQueries[kind], "LIKE ?", `LIKE ? ESCAPE '\'`)
		if err := db.Select(&rows, db.Rebind(query), like, like, like); err != nil {
			return out, WrapError(err, "search "+kind)
		}
		for _, row := range rows {
			hits = append(hits, SearchHit{
				ResourceType: kind,
				ID:           row.ID,
				Title:        row.Title,
				Snippet:      Snippet(row.Body, term),
			})
		}
	}
	out.Total = len(hits)
	out.Results = window(hits, p)
	return out, nil
}

func searchKinds(resources []string) ([]string, error) {
	if len(resources) == 0 {
		return searchable, nil
	}
	wanted := map[string]bool{}
	for _, r := range resources {
		r = strings.ToLower(strings.TrimSpace(r))
		if r == "" {
			continue
		}
		if _, ok := searchQueries[r]; !ok {
			return nil, ErrBadRequest("Unknown search resource: " + r)
		}
		wanted[r] = true
	}
	if len(wanted) == 0 {
		return searchable, nil
	}
	kinds := []string{}
	for _, kind := range searchable {
		if wanted[kind] {
			kinds = append(kinds, kind)
		}
	}
	return kinds, nil
}

// Snippet strips markup and returns a window of body around the first match.
func Snippet(body, term string) string {
	text := strings.TrimSpace(spacePattern.ReplaceAllString(html.UnescapeString(tagPattern.ReplaceAllString(body, " ")), " "))
	if utf8.RuneCountInString(text) <= snippetRunes {
		return text
	}
	runes := []rune(text)
	start := 0
	if idx := runeIndex(runes, []rune(term)); idx >= 0 {
		start = idx - snippetRunes/4
		if start < 0 {
			start = 0
		}
	}
	end := start + snippetRunes
	if end > len(runes) {
		end = len(runes)
		start = end - snippetRunes
	}
	snippet := string(runes[start:end])
	if start > 0 {
		snippet = "…" + snippet
	}
	if end < len(runes) {
		snippet += "…"
	}
	return snippet
}

// runeIndex is a case-insensitive index in runes. Lowering can change a
// string's byte length, so byte offsets into a lowered copy are unusable.
func runeIndex(haystack, needle []rune) int {
	if len(needle) == 0 {
		return 0
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j, r := range needle {
			if unicode.ToLower(haystack[i+j]) != unicode.ToLower(r) {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func CleanSearchTerm(term string) string {
	return spacePattern.ReplaceAllString(strings.TrimSpace(term), " ")
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}
