// Package types provides type definitions for structured data used throughout the ghostpen system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"sort"
	"strings"
)

// Platform identifies a social network a post targets.
type Platform string

// Supported platforms, in canonical order.
const (
	PlatformLinkedIn  Platform = "linkedin"
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformTelegram  Platform = "telegram"
)

// Platforms returns the supported platforms in canonical order.
func Platforms() []Platform {
	return []Platform{PlatformLinkedIn, PlatformInstagram, PlatformFacebook, PlatformTelegram}
}

// Valid reports whether p is one of the supported platforms.
func (p Platform) Valid() bool {
	switch p {
	case PlatformLinkedIn, PlatformInstagram, PlatformFacebook, PlatformTelegram:
		return true
	}
	return false
}

// ParsePlatform normalizes s and returns the matching platform.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unsupported platform %q (supported: linkedin, instagram, facebook, telegram)", s)
	}
	return p, nil
}

// OrderPlatforms returns the given platform keys with the supported platforms first
// in canonical order, followed by any unknown keys sorted alphabetically.
func OrderPlatforms(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		seen[k] = true
	}

	ordered := make([]string, 0, len(keys))
	for _, p := range Platforms() {
		if seen[string(p)] {
			ordered = append(ordered, string(p))
			delete(seen, string(p))
		}
	}

	rest := make([]string, 0, len(seen))
	for k := range seen {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	return append(ordered, rest...)
}
