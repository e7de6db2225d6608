// Package encoding provides shared text escaping utilities.
package encoding

import (
	"strings"
)

// EscapeXMLText escapes the basic XML entities for text content.
func EscapeXMLText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// EscapeXMLAttr escapes text for use in XML attributes.
// Includes quote escaping in addition to basic XML entities.
func EscapeXMLAttr(s string) string {
	s = EscapeXMLText(s)
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}

// EscapeMarkup escapes plain prose for embedding in recipe markup step
// text. Component markers are always escaped; dashes, brackets, and
// line-leading characters only where they would start a comment, a
// metadata entry, a section header, or a text step.
func EscapeMarkup(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	lineStart := true
	prevDash := false
	runes := []rune(s)
	for i, r := range runes {
		switch r {
		case '\\', '@', '#', '~':
			sb.WriteByte('\\')
			sb.WriteRune(r)
			prevDash = false
		case '-':
			if prevDash {
				sb.WriteString(`\-`)
				prevDash = false
			} else {
				sb.WriteByte('-')
				prevDash = true
			}
		case '[':
			if i+1 < len(runes) && runes[i+1] == '-' {
				sb.WriteByte('\\')
			}
			sb.WriteByte('[')
			prevDash = false
		case '>', '=':
			if lineStart {
				sb.WriteByte('\\')
			}
			sb.WriteRune(r)
			prevDash = false
		default:
			sb.WriteRune(r)
			prevDash = false
		}
		lineStart = r == '\n'
	}
	return sb.String()
}

// EscapeMarkupName escapes text for the slots inside a braced
// component: the name, the quantity, and the unit. Braces, markers,
// the alias separator, and the unit separator are escaped everywhere;
// modifier characters only in leading position, where the parser would
// otherwise consume them as flags.
func EscapeMarkupName(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	prevDash := false
	for i, r := range s {
		switch r {
		case '\\', '@', '#', '~', '{', '}', '|', '%':
			sb.WriteByte('\\')
			sb.WriteRune(r)
			prevDash = false
		case '&', '?', '+':
			if i == 0 {
				sb.WriteByte('\\')
			}
			sb.WriteRune(r)
			prevDash = false
		case '-':
			if i == 0 || prevDash {
				sb.WriteString(`\-`)
				prevDash = false
			} else {
				sb.WriteByte('-')
				prevDash = true
			}
		default:
			sb.WriteRune(r)
			prevDash = false
		}
	}
	return sb.String()
}
