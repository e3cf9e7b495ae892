// Package text provides text-scanning and transformation utilities for
// notification content: hashtag extraction, markdown-lite link resolution,
// and token substitution. All functions are pure and safe for concurrent use.
package text

import "strings"

// Substring is a single hashtag match within a larger body of content.
type Substring struct {
	// Offset is the index of the leading '#' in the content.
	Offset int
	// Length is the length of the match including the '#'.
	Length int
	// Content is the matched text including the '#'.
	Content string
}

// Character classes for hashtag scanning. These are tuned constants, not a
// formal grammar; the boundary tests pin their observable behavior.
const (
	// hashtagChars are the characters a hashtag may contain after the '#'.
	// A second '#' terminates the match.
	hashtagChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_"

	// charsAllowedBeforeHashtag are the characters that may directly precede
	// a '#' for it to start a hashtag. '/' is included so that hashtags can
	// follow path separators, which is also what makes the URL check below
	// reachable.
	charsAllowedBeforeHashtag = " \t\n\r.,;:!?'\"()[]{}<>#/"

	// urlChars is the broader set used when walking backward from a
	// candidate '#' to decide whether it sits inside a URL-looking block.
	urlChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-._~:/?&=%+@"
)

// ExtractHashtag returns the first hashtag found at or after start, or nil if
// there is none. A negative start is treated as zero. A '#' starts a hashtag
// only when it is the first character of the content, or its preceding
// character is in charsAllowedBeforeHashtag and the '#' is neither inside a
// URL-looking block nor inside an open anchor tag. A lone '#' with no
// following hashtag characters is not a match.
func ExtractHashtag(content string, start int) *Substring {
	if content == "" {
		return nil
	}
	if start < 0 {
		start = 0
	}
	if start >= len(content) {
		return nil
	}

	pos := start
	for {
		rel := strings.IndexByte(content[pos:], '#')
		if rel < 0 {
			return nil
		}
		idx := pos + rel

		if isHashtagStart(content, idx) {
			end := idx + 1
			for end < len(content) && strings.IndexByte(hashtagChars, content[end]) >= 0 {
				end++
			}
			// A bare '#' is not a hashtag.
			if end > idx+1 {
				return &Substring{Offset: idx, Length: end - idx, Content: content[idx:end]}
			}
		}

		pos = idx + 1
	}
}

// ExtractAllHashtags returns the distinct hashtag texts found in content, in
// order of first occurrence. Duplicates within the same content collapse to
// one entry.
func ExtractAllHashtags(content string) []string {
	if !strings.ContainsRune(content, '#') {
		return nil
	}

	var tags []string
	seen := make(map[string]bool)
	pos := 0
	for {
		match := ExtractHashtag(content, pos)
		if match == nil {
			return tags
		}
		if !seen[match.Content] {
			seen[match.Content] = true
			tags = append(tags, match.Content)
		}
		pos = match.Offset + match.Length
	}
}

func isHashtagStart(content string, idx int) bool {
	if idx == 0 {
		return true
	}
	if strings.IndexByte(charsAllowedBeforeHashtag, content[idx-1]) < 0 {
		return false
	}
	return !insideURL(content, idx) && !insideAnchorTag(content, idx)
}

// insideURL reports whether the '#' at idx sits inside a URL-looking block.
// It walks backward over URL characters; an earlier '#' in the walk means the
// block is not a URL (an embedded hash breaks the heuristic). Otherwise the
// accumulated block is a URL when, lower-cased, it contains "://" or "www.".
func insideURL(content string, idx int) bool {
	i := idx - 1
	for i >= 0 {
		c := content[i]
		if c == '#' {
			return false
		}
		if strings.IndexByte(urlChars, c) < 0 {
			break
		}
		i--
	}
	block := strings.ToLower(content[i+1 : idx])
	return strings.Contains(block, "://") || strings.Contains(block, "www.")
}

// insideAnchorTag reports whether the '#' at idx appears after an opening
// anchor marker with no closing marker in between.
func insideAnchorTag(content string, idx int) bool {
	prefix := strings.ToLower(content[:idx])
	open := strings.LastIndex(prefix, "<a")
	if open < 0 {
		return false
	}
	closing := strings.LastIndex(prefix, "</a")
	return closing < open
}
