package service

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/maxviazov/scorebook-stats-service/internal/repository"
)

const maxNameLen = 100

func normalizePage(p repository.Page) repository.Page {
	limit := p.Limit
	offset := p.Offset
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return repository.Page{Limit: limit, Offset: offset}
}

// normalizeName composes the string to NFC and collapses runs of whitespace,
// so "Alex  Kim" and "Alex Kim" are one player.
func normalizeName(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// nameKey is the case-insensitive identity of a normalized name.
func nameKey(name string) string {
	return cases.Fold().String(name)
}

func checkName(field, name string) []FieldError {
	switch {
	case name == "":
		return []FieldError{{Field: field, Message: "must not be empty"}}
	case utf8.RuneCountInString(name) > maxNameLen:
		return []FieldError{{Field: field, Message: "length must be <= 100"}}
	}
	return nil
}
