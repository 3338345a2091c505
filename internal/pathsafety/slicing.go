package pathsafety

import "unicode/utf8"

// findCharBoundaryBefore returns the nearest valid UTF-8 character boundary
// at or before offset. Ported from common.rs::find_char_boundary_before.
func findCharBoundaryBefore(s string, offset int) int {
	if offset >= len(s) {
		return len(s)
	}
	if offset <= 0 {
		return 0
	}
	for offset > 0 && !utf8.RuneStart(s[offset]) {
		offset--
	}
	return offset
}

// findCharBoundaryAfter returns the nearest valid UTF-8 character boundary
// at or after offset. Ported from common.rs::find_char_boundary_after.
func findCharBoundaryAfter(s string, offset int) int {
	if offset <= 0 {
		return 0
	}
	if offset >= len(s) {
		return len(s)
	}
	for offset < len(s) && !utf8.RuneStart(s[offset]) {
		offset++
	}
	return offset
}

// isCharBoundary reports whether offset lies on a UTF-8 rune boundary.
func isCharBoundary(s string, offset int) bool {
	if offset == 0 || offset == len(s) {
		return true
	}
	if offset < 0 || offset > len(s) {
		return false
	}
	return utf8.RuneStart(s[offset])
}

// SafeSlice returns source[start:end] bounds-checked, or nil if the range
// is invalid.
func SafeSlice(source []byte, start, end int) []byte {
	if start < 0 || start > end || end > len(source) {
		return nil
	}
	return source[start:end]
}

// ExtractSymbolContentSafe extracts source[byteStart:byteEnd] as a string,
// refusing to return corrupted data: it returns false if byteStart does not
// land on a UTF-8 character boundary, but snaps byteEnd back to the nearest
// boundary at or before the requested end rather than panicking or
// rejecting outright (spec 4.2). Ported from
// common.rs::extract_symbol_content_safe.
func ExtractSymbolContentSafe(source []byte, byteStart, byteEnd int) (string, bool) {
	if byteStart > byteEnd || byteEnd > len(source) || byteStart < 0 {
		return "", false
	}
	if !utf8.Valid(source) {
		return "", false
	}
	s := string(source)
	if !isCharBoundary(s, byteStart) {
		return "", false
	}
	adjustedEnd := findCharBoundaryBefore(s, byteEnd)
	if adjustedEnd < byteStart {
		return "", false
	}
	return s[byteStart:adjustedEnd], true
}

// ExtractContextSafe widens the [byteStart, byteEnd) window by contextBytes
// on each side and snaps both endpoints to valid UTF-8 boundaries. Ported
// from common.rs::extract_context_safe.
func ExtractContextSafe(source []byte, byteStart, byteEnd, contextBytes int) (string, bool) {
	if byteStart > byteEnd || byteEnd > len(source) || byteStart < 0 {
		return "", false
	}
	if !utf8.Valid(source) {
		return "", false
	}
	s := string(source)

	contextStart := byteStart - contextBytes
	if contextStart < 0 {
		contextStart = 0
	}
	contextEnd := byteEnd + contextBytes
	if contextEnd > len(source) {
		contextEnd = len(source)
	}

	adjustedStart := findCharBoundaryAfter(s, contextStart)
	adjustedEnd := findCharBoundaryBefore(s, contextEnd)
	if adjustedStart > adjustedEnd {
		return "", false
	}
	return s[adjustedStart:adjustedEnd], true
}
