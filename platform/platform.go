package platform

import (
	"fmt"
	"strings"
)

// Platform identifies one of the upstream mod platforms.
type Platform string

const (
	Modrinth   Platform = "modrinth"
	CurseForge Platform = "curseforge"
)

// All returns every known platform. New platforms must be added here and to
// the source registry; nothing else should enumerate platforms by hand.
func All() []Platform {
	return []Platform{Modrinth, CurseForge}
}

// Parse converts a user-supplied string into a Platform.
func Parse(s string) (Platform, error) {
	switch Platform(strings.ToLower(strings.TrimSpace(s))) {
	case Modrinth:
		return Modrinth, nil
	case CurseForge:
		return CurseForge, nil
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// FromProjectURL infers the platform from a project URL, or "" when the URL
// does not belong to any known platform.
func FromProjectURL(projectURL string) Platform {
	u := strings.ToLower(projectURL)
	switch {
	case strings.Contains(u, "modrinth.com"):
		return Modrinth
	case strings.Contains(u, "curseforge.com"):
		return CurseForge
	}
	return ""
}

func (p Platform) String() string { return string(p) }

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	return p == Modrinth || p == CurseForge
}
