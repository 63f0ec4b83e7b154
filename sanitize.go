package audiostash

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fallbackStem replaces a leaf name that sanitizes to nothing while its
// extension survives, so ".wav" still becomes a usable key.
const fallbackStem = "file"

// NFD leaves these letters intact, so they are mapped before decomposition.
var letterReplacer = strings.NewReplacer(
	"Đ", "D",
	"đ", "d",
	"Ď", "D",
	"ď", "d",
)

var safeKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._/-]+$`)

// SanitizeKey turns an arbitrary user supplied path into a storage object key
// made only of [A-Za-z0-9._/-]. Segments are sanitized one by one, empty
// segments are dropped and the extension of the last segment is kept as is.
//
// The result may be empty; callers decide what to do with an empty key.
func SanitizeKey(path string) string {
	parts := strings.Split(path, "/")
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}

	sanitized := make([]string, 0, len(parts))
	for i, part := range parts {
		if part == "" {
			continue
		}

		name, ext, hasExt := part, "", false
		if i == len(parts)-1 {
			name, ext, hasExt = splitExtension(part)
		}

		name = sanitizePart(name)
		if hasExt {
			if name == "" {
				name = fallbackStem
			}
			name = name + "." + ext
		}

		if name != "" {
			sanitized = append(sanitized, name)
		}
	}

	key := strings.Join(sanitized, "/")
	for strings.Contains(key, "//") {
		key = strings.ReplaceAll(key, "//", "/")
	}
	return key
}

// IsSafeKey reports whether key is non-empty and satisfies the storage
// backend's key charset.
func IsSafeKey(key string) bool {
	return safeKeyPattern.MatchString(key)
}

// splitExtension splits a leaf segment at its final dot. A dot in last
// position does not start an extension. A leading dot does, so a leaf like
// ".config" keeps "config" as its extension and gets the "file" stem.
func splitExtension(segment string) (name, ext string, ok bool) {
	idx := strings.LastIndex(segment, ".")
	if idx < 0 || idx == len(segment)-1 {
		return segment, "", false
	}
	return segment[:idx], segment[idx+1:], true
}

// sanitizePart strips diacritics from a single segment, replaces every
// character outside [A-Za-z0-9._-] with '_', collapses underscore runs and
// trims '_' and '.' from both ends.
func sanitizePart(s string) string {
	s = letterReplacer.Replace(s)

	// Chain keeps state between calls, so it is built per invocation.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	if stripped, _, err := transform.String(t, s); err == nil {
		s = stripped
	}

	var b strings.Builder
	b.Grow(len(s))

	lastUnderscore := false
	for _, r := range s {
		if !isSafeRune(r) {
			r = '_'
		}
		if r == '_' {
			if lastUnderscore {
				continue
			}
			lastUnderscore = true
		} else {
			lastUnderscore = false
		}
		b.WriteRune(r)
	}

	return strings.Trim(b.String(), "_.")
}

func isSafeRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.', r == '_', r == '-':
		return true
	}
	return false
}
