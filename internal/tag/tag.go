// Package tag encodes sibling group identity and suspension markers as
// plain string labels. Labels are the only state that survives the host's
// synchronization protocol, so everything here must be a pure, stable
// transformation.
package tag

import (
	"encoding/hex"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// GroupPrefix marks membership labels: sibling::<name>.
	GroupPrefix = "sibling::"

	// SuspendPrefix marks sequencer suspension markers:
	// sibling-suspended::<name>. A marker means "this record is holding a
	// spot in the release queue for <name>" and is distinct from a
	// user-initiated suspension.
	SuspendPrefix = "sibling-suspended::"
)

var lower = cases.Lower(language.Und)

// ToLabel returns the membership label for a group name.
func ToLabel(name string) string {
	return GroupPrefix + name
}

// FromLabel extracts the group name from a membership label.
// Returns false for labels outside the sibling namespace.
func FromLabel(label string) (string, bool) {
	name, ok := strings.CutPrefix(label, GroupPrefix)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// SuspendLabel returns the suspension marker label for a group name.
func SuspendLabel(name string) string {
	return SuspendPrefix + name
}

// FromSuspendLabel extracts the group name from a suspension marker.
func FromSuspendLabel(label string) (string, bool) {
	name, ok := strings.CutPrefix(label, SuspendPrefix)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// Sanitize canonicalizes a raw user-supplied group name:
// runs of characters outside [alnum _ - :] become a single underscore,
// runs of two or more colons collapse to exactly "::" (one level of
// hierarchy separator), repeated underscores collapse, leading and
// trailing '_'/':' are trimmed, and the result is lower-cased.
// Returns false when nothing survives.
func Sanitize(raw string) (string, bool) {
	var b strings.Builder
	b.Grow(len(raw))

	prev := rune(0)
	for _, r := range raw {
		if isNameRune(r) {
			b.WriteRune(r)
			prev = r
			continue
		}
		if prev != '_' {
			b.WriteRune('_')
			prev = '_'
		}
	}

	s := collapseColons(b.String())
	s = collapseUnderscores(s)
	s = strings.Trim(s, "_:")
	s = lower.String(s)
	if s == "" {
		return "", false
	}
	return s, true
}

// GenerateName returns a short random group identifier: 8 hex characters,
// enough to make collisions negligible at realistic group counts.
func GenerateName() string {
	u := uuid.New()
	return hex.EncodeToString(u[:4])
}

func isNameRune(r rune) bool {
	if r == '_' || r == '-' || r == ':' {
		return true
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// collapseColons rewrites every run of two or more colons as "::".
// A single colon is left alone.
func collapseColons(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	run := 0
	for _, r := range s {
		if r == ':' {
			run++
			continue
		}
		b.WriteString(colonRun(run))
		run = 0
		b.WriteRune(r)
	}
	b.WriteString(colonRun(run))
	return b.String()
}

func colonRun(n int) string {
	switch {
	case n >= 2:
		return "::"
	case n == 1:
		return ":"
	}
	return ""
}

func collapseUnderscores(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prev := rune(0)
	for _, r := range s {
		if r == '_' && prev == '_' {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}
