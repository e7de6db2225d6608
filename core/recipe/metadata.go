package recipe

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Entry is one raw metadata line, preserved verbatim for round-tripping.
type Entry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Metadata holds the ordered raw metadata of a recipe plus the parsed
// representations of recognized keys. Raw entries round-trip unchanged
// whether or not their key was recognized.
type Metadata struct {
	// Entries holds every raw key/value pair in source order.
	Entries []Entry `json:"entries,omitempty"`

	// Special holds the parsed values of recognized keys.
	Special Special `json:"special"`
}

// Add appends a raw entry.
func (m *Metadata) Add(key, value string) {
	m.Entries = append(m.Entries, Entry{Key: key, Value: value})
}

// Get returns the last raw value written under key, matched exactly.
func (m *Metadata) Get(key string) (string, bool) {
	for i := len(m.Entries) - 1; i >= 0; i-- {
		if m.Entries[i].Key == key {
			return m.Entries[i].Value, true
		}
	}
	return "", false
}

// Map flattens the entries into a last-wins map of raw keys to values.
func (m *Metadata) Map() map[string]string {
	out := make(map[string]string, len(m.Entries))
	for _, e := range m.Entries {
		out[e.Key] = e.Value
	}
	return out
}

// Special holds the parsed values for recognized metadata keys. A field
// stays at its zero value until the analyzer sees the matching key with a
// parseable value.
type Special struct {
	// Servings is the declared serving count.
	Servings *int32 `json:"servings,omitempty"`

	// Time is the declared time: one total or a prep/cook composition.
	Time *RecipeTime `json:"time,omitempty"`

	// Tags holds the validated tag slugs.
	Tags []string `json:"tags,omitempty"`

	// Emoji is the recipe's pictographic marker.
	Emoji string `json:"emoji,omitempty"`

	// Author is who wrote the recipe.
	Author *NameAndURL `json:"author,omitempty"`

	// Source is where the recipe came from.
	Source *NameAndURL `json:"source,omitempty"`
}

// SpecialKey identifies a recognized metadata key.
type SpecialKey uint8

const (
	// KeyServings is the declared serving count.
	KeyServings SpecialKey = iota
	// KeyTime is the total time.
	KeyTime
	// KeyPrepTime is the preparation part of a composed time.
	KeyPrepTime
	// KeyCookTime is the cooking part of a composed time.
	KeyCookTime
	// KeyTags is the comma-separated tag list.
	KeyTags
	// KeyEmoji is the pictographic marker.
	KeyEmoji
	// KeyAuthor is the author attribution.
	KeyAuthor
	// KeySource is the source attribution.
	KeySource
)

func (k SpecialKey) String() string {
	switch k {
	case KeyServings:
		return "servings"
	case KeyTime:
		return "time"
	case KeyPrepTime:
		return "prep time"
	case KeyCookTime:
		return "cook time"
	case KeyTags:
		return "tags"
	case KeyEmoji:
		return "emoji"
	case KeyAuthor:
		return "author"
	case KeySource:
		return "source"
	}
	return fmt.Sprintf("key(%d)", uint8(k))
}

// CanonicalKey recognizes a raw metadata key. Recognition is
// case-insensitive and treats underscores as spaces; the raw key is
// untouched.
func CanonicalKey(raw string) (SpecialKey, bool) {
	switch normalizeKey(raw) {
	case "servings":
		return KeyServings, true
	case "time", "duration":
		return KeyTime, true
	case "prep time":
		return KeyPrepTime, true
	case "cook time":
		return KeyCookTime, true
	case "tags":
		return KeyTags, true
	case "emoji":
		return KeyEmoji, true
	case "author":
		return KeyAuthor, true
	case "source":
		return KeySource, true
	}
	return 0, false
}

func normalizeKey(raw string) string {
	norm := strings.ToLower(strings.TrimSpace(raw))
	norm = strings.ReplaceAll(norm, "_", " ")
	return strings.Join(strings.Fields(norm), " ")
}

// ParseServings reads a servings value: one positive integer, or several
// separated by `|`. Deciding whether several amounts conflict is the
// caller's concern.
func ParseServings(value string) ([]int32, error) {
	parts := strings.Split(value, "|")
	out := make([]int32, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		n, err := strconv.ParseInt(part, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid servings %q", part)
		}
		if n <= 0 {
			return nil, fmt.Errorf("servings must be positive, got %d", n)
		}
		out = append(out, int32(n))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty servings value")
	}
	return out, nil
}

// tagPattern: lowercase word runs of letters and digits, starting with a
// letter, joined by single dashes.
var tagPattern = regexp.MustCompile(`^\p{Ll}[\p{Ll}\d]*(-[\p{Ll}\d]+)*$`)

// IsValidTag reports whether tag is a well-formed slug: 1 to 32
// characters, lowercase letters and digits in dash-joined runs, starting
// with a letter.
func IsValidTag(tag string) bool {
	n := utf8.RuneCountInString(tag)
	return n >= 1 && n <= 32 && tagPattern.MatchString(tag)
}

// ParseTags splits a comma-separated tag list into valid slugs and the
// entries that failed validation. Empty segments are dropped.
func ParseTags(value string) (valid, invalid []string) {
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if IsValidTag(part) {
			valid = append(valid, part)
		} else {
			invalid = append(invalid, part)
		}
	}
	return valid, invalid
}

// NameAndURL is an attribution: a display name, a URL, or both, written
// `Name <https://...>`.
type NameAndURL struct {
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
}

// IsEmpty reports whether neither part is set.
func (n NameAndURL) IsEmpty() bool {
	return n.Name == "" && n.URL == ""
}

func (n NameAndURL) String() string {
	switch {
	case n.Name != "" && n.URL != "":
		return n.Name + " <" + n.URL + ">"
	case n.URL != "":
		return n.URL
	default:
		return n.Name
	}
}

// ParseNameAndURL reads an attribution value. A bare value becomes a name,
// or a URL when it parses as an absolute http(s) one; `Name <url>` yields
// both. A malformed URL inside angle brackets is an error.
func ParseNameAndURL(value string) (NameAndURL, error) {
	s := strings.TrimSpace(value)
	if i := strings.LastIndexByte(s, '<'); i >= 0 && strings.HasSuffix(s, ">") {
		name := strings.TrimSpace(s[:i])
		raw := strings.TrimSpace(s[i+1 : len(s)-1])
		u, ok := parseHTTPURL(raw)
		if !ok {
			return NameAndURL{}, fmt.Errorf("invalid url %q", raw)
		}
		return NameAndURL{Name: name, URL: u}, nil
	}
	if u, ok := parseHTTPURL(s); ok {
		return NameAndURL{URL: u}, nil
	}
	return NameAndURL{Name: s}, nil
}

func parseHTTPURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	return u.String(), true
}

// IsEmoji reports whether s is a single pictographic symbol, allowing
// joiner sequences like a flag or a skin-tone variant.
func IsEmoji(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > 8 {
		return false
	}
	pictographic := false
	for _, r := range s {
		switch {
		case r == '‍' || r == '️':
			// zero-width joiner, emoji presentation selector
		case r >= 0x1F3FB && r <= 0x1F3FF:
			// skin tone modifiers
		case unicode.In(r, unicode.So, unicode.Sk):
			pictographic = true
		default:
			return false
		}
	}
	return pictographic
}
