// Package morpheme defines the plug-in point for Korean morpheme
// separation. The real analyzer (a statistical or dictionary-based
// tagger) is out of scope for this module; this package only defines
// the interface the parser and reply engine call through, plus a
// trivial default that leaves text unchanged so the engine works
// correctly with separation turned off.
package morpheme

import "strings"

// Preprocessor analyzes a UTF-8 string and returns a (possibly
// morpheme-separated) UTF-8 string. It's called on every "+" trigger
// pattern at parse time and on every user message at reply time when
// config.Separation is active.
type Preprocessor interface {
	Analyze(input string) (string, error)
}

// Identity is a Preprocessor that returns its input unchanged. It's
// the right choice whenever MorphemeMode is NoneSeparation, and a
// reasonable placeholder in tests that don't care about Korean text.
type Identity struct{}

func (Identity) Analyze(input string) (string, error) {
	return input, nil
}

// WhitespaceSplitter is a minimal stand-in for a real morpheme
// analyzer: it normalizes internal whitespace but performs no actual
// linguistic segmentation. It exists so callers that want "some"
// preprocessor wired in during development don't need to write their
// own Identity implementation, without this module claiming to
// perform real morpheme analysis.
type WhitespaceSplitter struct{}

func (WhitespaceSplitter) Analyze(input string) (string, error) {
	return strings.Join(strings.Fields(input), " "), nil
}
