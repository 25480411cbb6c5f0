package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const fallbackSlug = "menu-item"

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and collapses every run of non-alphanumerics into one hyphen.
func Slugify(s string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return fallbackSlug
	}
	return slug
}

// uniqueSlug returns Slugify(base), suffixed -2, -3, ... until no other item owns it.
// currentID is the item being updated (0 on create); its own slug does not count as taken.
func uniqueSlug(ctx context.Context, st Store, base string, currentID int64) (string, error) {
	slug := Slugify(base)
	candidate := slug
	for suffix := 2; ; suffix++ {
		existing, err := st.GetMenuItemBySlug(ctx, candidate)
		if errors.Is(err, ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		if currentID != 0 && existing.ID == currentID {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", slug, suffix)
	}
}
