package strutil

import "testing"

func TestWordCount(t *testing.T) {
	cases := []struct {
		s    string
		all  bool
		want int
	}{
		{"hello world", true, 2},
		{"hello * world", false, 2},
		{"hello * world", true, 3},
		{"[hi|hey] there", false, 1},
		{"", true, 0},
	}
	for _, c := range cases {
		if got := WordCount(c.s, c.all); got != c.want {
			t.Errorf("WordCount(%q, %v) = %d, want %d", c.s, c.all, got, c.want)
		}
	}
}

func TestStripNasties(t *testing.T) {
	got := StripNasties("hello, world! 123?")
	want := "hello world 123"
	if got != want {
		t.Errorf("StripNasties = %q, want %q", got, want)
	}
}

func TestCollapseWhitespace(t *testing.T) {
	got := CollapseWhitespace("  hello   world  \n\t")
	if got != "hello world" {
		t.Errorf("CollapseWhitespace = %q", got)
	}
}

func TestSplitArgs(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{`foo bar`, []string{"foo", "bar"}},
		{`foo "bar baz"`, []string{"foo", "bar baz"}},
		{`foo "unterminated`, []string{"foo", "unterminated"}},
		{``, nil},
	}
	for _, c := range cases {
		got := SplitArgs(c.in)
		if len(got) != len(c.want) {
			t.Fatalf("SplitArgs(%q) = %#v, want %#v", c.in, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("SplitArgs(%q)[%d] = %q, want %q", c.in, i, got[i], c.want[i])
			}
		}
	}
}
