package services

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

var fieldTypes = map[string]bool{
	"text":           true,
	"textarea":       true,
	"wysiwyg":        true,
	"json":           true,
	"number":         true,
	"boolean":        true,
	"date":           true,
	"datetime":       true,
	"file_reference": true,
	"page_reference": true,
	"select":         true,
	"multi_select":   true,
}

// ValidationRules mirrors the keys stored in modules.validation_rules.
// Unknown keys are ignored when enforcing.
type ValidationRules struct {
	Required      bool     `json:"required"`
	MinLength     *int     `json:"min_length"`
	MaxLength     *int     `json:"max_length"`
	Pattern       *string  `json:"pattern"`
	MinValue      *float64 `json:"min_value"`
	MaxValue      *float64 `json:"max_value"`
	AllowedValues []string `json:"allowed_values"`
}

func ParseValidationRules(stored *string) (ValidationRules, error) {
	var rules ValidationRules
	if stored == nil || strings.TrimSpace(*stored) == "" {
		return rules, nil
	}
	if err := json.Unmarshal([]byte(*stored), &rules); err != nil {
		return rules, ErrBadRequest("validation_rules must be a JSON object")
	}
	if rules.Pattern != nil {
		if _, err := regexp.Compile(*rules.Pattern); err != nil {
			return rules, ErrBadRequest("validation_rules.pattern is not a valid expression")
		}
	}
	return rules, nil
}

// ValidateContent applies rules to a module's content as interpreted by its
// field type.
func ValidateContent(fieldType string, rules ValidationRules, content string) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		if rules.Required {
			return ErrBadRequest("content is required")
		}
		return nil
	}
	length := utf8.RuneCountInString(content)
	if rules.MinLength != nil && length < *rules.MinLength {
		return ErrBadRequest(fmt.Sprintf("content must have at least %d characters", *rules.MinLength))
	}
	if rules.MaxLength != nil && length > *rules.MaxLength {
		return ErrBadRequest(fmt.Sprintf("content must have at most %d characters", *rules.MaxLength))
	}
	if rules.Pattern != nil {
		re, err := regexp.Compile(*rules.Pattern)
		if err != nil {
			return ErrBadRequest("validation_rules.pattern is not a valid expression")
		}
		if !re.MatchString(content) {
			return ErrBadRequest("content does not match the required pattern")
		}
	}

	switch fieldType {
	case "number":
		value, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return ErrBadRequest("content must be a number")
		}
		if rules.MinValue != nil && value < *rules.MinValue {
			return ErrBadRequest(fmt.Sprintf("content must be at least %v", *rules.MinValue))
		}
		if rules.MaxValue != nil && value > *rules.MaxValue {
			return ErrBadRequest(fmt.Sprintf("content must be at most %v", *rules.MaxValue))
		}
	case "boolean":
		if _, err := strconv.ParseBool(trimmed); err != nil {
			return ErrBadRequest("content must be true or false")
		}
	case "json":
		if !json.Valid([]byte(trimmed)) {
			return ErrBadRequest("content must be valid JSON")
		}
	case "date":
		if _, err := time.Parse("2006-01-02", trimmed); err != nil {
			return ErrBadRequest("content must be a date (YYYY-MM-DD)")
		}
	case "datetime":
		if _, err := time.Parse(time.RFC3339, trimmed); err != nil {
			return ErrBadRequest("content must be an RFC 3339 datetime")
		}
	}

	if len(rules.AllowedValues) > 0 {
		values := []string{trimmed}
		if fieldType == "multi_select" {
			values = splitChoices(trimmed)
		}
		allowed := map[string]bool{}
		for _, v := range rules.AllowedValues {
			allowed[v] = true
		}
		for _, v := range values {
			if !allowed[v] {
				return ErrBadRequest("content value " + strconv.Quote(v) + " is not allowed")
			}
		}
	}
	return nil
}

// splitChoices reads a multi_select value stored as a JSON array or a comma
// separated list.
func splitChoices(raw string) []string {
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err == nil {
		return items
	}
	parts := strings.Split(raw, ",")
	items = make([]string, 0, len(parts))
	for _, part := range parts {
		if value := strings.TrimSpace(part); value != "" {
			items = append(items, value)
		}
	}
	return items
}
