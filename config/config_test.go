package config

import (
	"bytes"
	"testing"
)

func TestBuilderDefaults(t *testing.T) {
	c := NewBuilder().Build()
	if c.Depth != DefaultDepth {
		t.Errorf("Depth = %d, want %d", c.Depth, DefaultDepth)
	}
	if c.HistorySize != DefaultHistorySize {
		t.Errorf("HistorySize = %d, want %d", c.HistorySize, DefaultHistorySize)
	}
	if c.Concat != DefaultConcat {
		t.Errorf("Concat = %v, want %v", c.Concat, DefaultConcat)
	}
}

func TestErrorMessageOverride(t *testing.T) {
	c := NewBuilder().AddErrorMessage(ErrReplyNotFound, "nope").Build()
	if got := c.ErrorMessage(ErrReplyNotFound); got != "nope" {
		t.Errorf("ErrorMessage override = %q, want %q", got, "nope")
	}
	if got := c.ErrorMessage(ErrDeepRecursion); got != DefaultErrorMessages[ErrDeepRecursion] {
		t.Errorf("ErrorMessage fallback = %q", got)
	}
}

func TestConcatModeString(t *testing.T) {
	cases := map[ConcatMode]string{
		ConcatNone:    "none",
		ConcatNewline: "newline",
		ConcatSpace:   "space",
	}
	for mode, want := range cases {
		if got := mode.String(); got != want {
			t.Errorf("%v.String() = %q, want %q", mode, got, want)
		}
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	c := NewBuilder().Strict(true).UTF8(true).Depth(10).Build()
	var buf bytes.Buffer
	if err := ToYAML(&buf, c); err != nil {
		t.Fatalf("ToYAML: %v", err)
	}
	got, err := FromYAML(&buf)
	if err != nil {
		t.Fatalf("FromYAML: %v", err)
	}
	if got.Strict != c.Strict || got.UTF8 != c.UTF8 || got.Depth != c.Depth {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, c)
	}
}

func TestUnicodePunctuationRegexpCached(t *testing.T) {
	c := NewBuilder().Build()
	first := c.UnicodePunctuationRegexp()
	second := c.UnicodePunctuationRegexp()
	if first != second {
		t.Errorf("UnicodePunctuationRegexp should cache the compiled pattern")
	}
}
