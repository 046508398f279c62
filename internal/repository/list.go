package repository

import (
	"fmt"
	"strings"
)

// Page describes LIMIT/OFFSET pagination for list queries. A zero
// value disables pagination and returns every matching row.
type Page struct {
	Number int // 1-based page number
	Size   int // rows per page
}

// limitOffset returns the LIMIT/OFFSET clause for the page, or an
// empty string when pagination is disabled.
func (p Page) limitOffset() string {
	if p.Size <= 0 {
		return ""
	}
	n := p.Number
	if n < 1 {
		n = 1
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", p.Size, (n-1)*p.Size)
}

// Sort describes the ordering of a list query. Field names are
// whitelisted per repository; anything not on the whitelist falls back
// to the repository's default ordering so user input can never reach
// the SQL string.
type Sort struct {
	Field string
	Desc  bool
}

// orderBy builds an ORDER BY clause from the sort, restricted to the
// allowed column names. def is used when the requested field is not
// allowed or empty.
func (s Sort) orderBy(allowed map[string]string, def string) string {
	col, ok := allowed[strings.ToLower(strings.TrimSpace(s.Field))]
	if !ok {
		return " ORDER BY " + def
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	return " ORDER BY " + col + " " + dir
}
