package freeradical

import (
	"net/url"
	"strconv"
	"strings"
)

// query keeps parameters in insertion order. Values are form-escaped except
// for commas, which list-valued parameters such as "resources" keep literal.
type query []queryParam

type queryParam struct {
	key   string
	value string
}

func (q query) add(key, value string) query {
	return append(q, queryParam{key: key, value: value})
}

func (q query) addInt(key string, value int) query {
	return q.add(key, strconv.Itoa(value))
}

func (q query) encode() string {
	parts := make([]string, 0, len(q))
	for _, p := range q {
		parts = append(parts, url.QueryEscape(p.key)+"="+strings.ReplaceAll(url.QueryEscape(p.value), "%2C", ","))
	}
	return strings.Join(parts, "&")
}

func (q query) appendTo(path string) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.encode()
}

// PaginationOptions select one page of a list. Zero fields are not sent.
type PaginationOptions struct {
	Page    int
	PerPage int
}

func (o *PaginationOptions) apply(q query) query {
	if o == nil {
		return q
	}
	if o.Page > 0 {
		q = q.addInt("page", o.Page)
	}
	if o.PerPage > 0 {
		q = q.addInt("per_page", o.PerPage)
	}
	return q
}
