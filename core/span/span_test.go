package span

import "testing"

func TestNewNormalizesReversedBounds(t *testing.T) {
	s := New(10, 4)
	if s.Start != 4 || s.End != 10 {
		t.Errorf("New(10, 4) = %v, want 4..10", s)
	}
}

func TestSpanBasics(t *testing.T) {
	s := New(2, 6)
	if got := s.Len(); got != 4 {
		t.Errorf("Len() = %d, want 4", got)
	}
	if s.IsEmpty() {
		t.Error("IsEmpty() = true for non-empty span")
	}
	if !s.Contains(2) || !s.Contains(5) {
		t.Error("Contains should include start and last byte")
	}
	if s.Contains(6) {
		t.Error("Contains(6) = true, span end is exclusive")
	}
	if !Point(3).IsEmpty() {
		t.Error("Point span should be empty")
	}
}

func TestUnion(t *testing.T) {
	tests := []struct {
		name string
		a, b Span
		want Span
	}{
		{"disjoint", New(0, 2), New(5, 8), New(0, 8)},
		{"overlapping", New(0, 5), New(3, 8), New(0, 8)},
		{"contained", New(0, 10), New(3, 4), New(0, 10)},
		{"empty left", Point(0), New(3, 4), New(3, 4)},
		{"empty right", New(3, 4), Point(9), New(3, 4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Union(tt.b); got != tt.want {
				t.Errorf("Union(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestTextClampsOutOfRange(t *testing.T) {
	src := "hello"
	if got := New(1, 4).Text(src); got != "ell" {
		t.Errorf("Text = %q, want %q", got, "ell")
	}
	if got := New(3, 42).Text(src); got != "lo" {
		t.Errorf("Text past end = %q, want %q", got, "lo")
	}
	if got := New(9, 12).Text(src); got != "" {
		t.Errorf("Text fully past end = %q, want empty", got)
	}
}

func TestIndexPositions(t *testing.T) {
	src := "one\ntwo\r\nthree"
	ix := NewIndex(src)

	tests := []struct {
		offset int
		want   Position
	}{
		{0, Position{Line: 1, Column: 1}},
		{2, Position{Line: 1, Column: 3}},
		{4, Position{Line: 2, Column: 1}},
		{9, Position{Line: 3, Column: 1}},
		{14, Position{Line: 3, Column: 6}},
		{99, Position{Line: 3, Column: 6}}, // clamped to end
	}
	for _, tt := range tests {
		if got := ix.Position(tt.offset); got != tt.want {
			t.Errorf("Position(%d) = %v, want %v", tt.offset, got, tt.want)
		}
	}

	if got := ix.LineCount(); got != 3 {
		t.Errorf("LineCount() = %d, want 3", got)
	}
}

func TestIndexLineStripsLineEndings(t *testing.T) {
	ix := NewIndex("one\ntwo\r\nthree")
	if got := ix.Line(1); got != "one" {
		t.Errorf("Line(1) = %q, want %q", got, "one")
	}
	if got := ix.Line(2); got != "two" {
		t.Errorf("Line(2) = %q, want %q", got, "two")
	}
	if got := ix.Line(3); got != "three" {
		t.Errorf("Line(3) = %q, want %q", got, "three")
	}
	if got := ix.Line(4); got != "" {
		t.Errorf("Line(4) = %q, want empty", got)
	}
}

func TestIndexEmptySource(t *testing.T) {
	ix := NewIndex("")
	if got := ix.Position(0); got != (Position{Line: 1, Column: 1}) {
		t.Errorf("Position(0) on empty source = %v", got)
	}
	if got := ix.LineCount(); got != 1 {
		t.Errorf("LineCount() = %d, want 1", got)
	}
}
