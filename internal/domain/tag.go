package domain

import (
	"regexp"
	"strings"
	"time"
)

type Tag struct {
	ID        int64
	Name      string
	Slug      string
	Color     string
	CreatedAt time.Time
}

var (
	colorPattern   = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	nonSlugPattern = regexp.MustCompile(`[^a-z0-9]+`)
)

const DefaultTagColor = "#64748b"

func IsValidColor(c string) bool {
	return colorPattern.MatchString(c)
}

// Slugify приводит строку к виду "my-team-1"
func Slugify(s string) string {
	slug := nonSlugPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	return strings.Trim(slug, "-")
}
