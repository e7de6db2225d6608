package recipe

import (
	"reflect"
	"testing"
)

func TestCanonicalKey(t *testing.T) {
	tests := []struct {
		raw  string
		want SpecialKey
		ok   bool
	}{
		{"servings", KeyServings, true},
		{"Servings", KeyServings, true},
		{"  SERVINGS ", KeyServings, true},
		{"time", KeyTime, true},
		{"duration", KeyTime, true},
		{"prep time", KeyPrepTime, true},
		{"prep_time", KeyPrepTime, true},
		{"Prep  Time", KeyPrepTime, true},
		{"cook time", KeyCookTime, true},
		{"tags", KeyTags, true},
		{"emoji", KeyEmoji, true},
		{"author", KeyAuthor, true},
		{"source", KeySource, true},
		{"description", 0, false},
		{"serving", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := CanonicalKey(tt.raw)
			if ok != tt.ok {
				t.Fatalf("CanonicalKey(%q) ok = %v, want %v", tt.raw, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("CanonicalKey(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	var m Metadata
	m.Add("Servings", "4")
	m.Add("my key", "my value")
	m.Add("my key", "overridden")

	want := []Entry{
		{Key: "Servings", Value: "4"},
		{Key: "my key", Value: "my value"},
		{Key: "my key", Value: "overridden"},
	}
	if !reflect.DeepEqual(m.Entries, want) {
		t.Errorf("Entries = %#v, want %#v", m.Entries, want)
	}

	if v, ok := m.Get("my key"); !ok || v != "overridden" {
		t.Errorf("Get(my key) = %q, %v", v, ok)
	}
	if _, ok := m.Get("servings"); ok {
		t.Error("Get must match raw keys exactly")
	}

	flat := m.Map()
	if len(flat) != 2 || flat["Servings"] != "4" || flat["my key"] != "overridden" {
		t.Errorf("Map() = %#v", flat)
	}
}

func TestParseServings(t *testing.T) {
	tests := []struct {
		in      string
		want    []int32
		wantErr bool
	}{
		{"4", []int32{4}, false},
		{" 12 ", []int32{12}, false},
		{"4 | 6", []int32{4, 6}, false},
		{"4|4", []int32{4, 4}, false},
		{"", nil, true},
		{"four", nil, true},
		{"0", nil, true},
		{"-2", nil, true},
		{"4 people", nil, true},
		{"4|", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseServings(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseServings(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseServings(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsValidTag(t *testing.T) {
	valid := []string{"vegan", "low-carb", "dinner2", "a", "q1-b2-c3"}
	for _, tag := range valid {
		if !IsValidTag(tag) {
			t.Errorf("IsValidTag(%q) = false, want true", tag)
		}
	}
	invalid := []string{"", "Vegan", "low carb", "-start", "end-", "double--dash", "1digit", "this-tag-is-way-too-long-to-be-a-slug"}
	for _, tag := range invalid {
		if IsValidTag(tag) {
			t.Errorf("IsValidTag(%q) = true, want false", tag)
		}
	}
}

func TestParseTags(t *testing.T) {
	valid, invalid := ParseTags("vegan, , Quick Dinner, low-carb,weeknight")
	if want := []string{"vegan", "low-carb", "weeknight"}; !reflect.DeepEqual(valid, want) {
		t.Errorf("valid = %v, want %v", valid, want)
	}
	if want := []string{"Quick Dinner"}; !reflect.DeepEqual(invalid, want) {
		t.Errorf("invalid = %v, want %v", invalid, want)
	}
}

func TestParseNameAndURL(t *testing.T) {
	tests := []struct {
		in      string
		want    NameAndURL
		wantErr bool
	}{
		{"Jane Doe", NameAndURL{Name: "Jane Doe"}, false},
		{"https://example.com/recipes", NameAndURL{URL: "https://example.com/recipes"}, false},
		{"Jane Doe <https://example.com>", NameAndURL{Name: "Jane Doe", URL: "https://example.com"}, false},
		{"  Jane  <http://example.com/p?q=1>  ", NameAndURL{Name: "Jane", URL: "http://example.com/p?q=1"}, false},
		{"Jane <not a url>", NameAndURL{}, true},
		{"Jane <ftp://example.com>", NameAndURL{}, true},
		// not absolute http(s), so the whole value is a name
		{"example.com/recipes", NameAndURL{Name: "example.com/recipes"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseNameAndURL(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseNameAndURL(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseNameAndURL(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNameAndURLString(t *testing.T) {
	tests := []struct {
		in   NameAndURL
		want string
	}{
		{NameAndURL{Name: "Jane"}, "Jane"},
		{NameAndURL{URL: "https://example.com"}, "https://example.com"},
		{NameAndURL{Name: "Jane", URL: "https://example.com"}, "Jane <https://example.com>"},
	}
	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestIsEmoji(t *testing.T) {
	yes := []string{"🍕", "⭐", "🥘", "👩‍🍳", "🇮🇹", " 🍰 "}
	for _, s := range yes {
		if !IsEmoji(s) {
			t.Errorf("IsEmoji(%q) = false, want true", s)
		}
	}
	no := []string{"", "pizza", "p", "1", "🍕 pizza", "two 🍕🍕 words"}
	for _, s := range no {
		if IsEmoji(s) {
			t.Errorf("IsEmoji(%q) = true, want false", s)
		}
	}
}
