// Package config carries every tunable of the interpreter: parser
// strictness, character-set mode, line-continuation style, morpheme
// preprocessing, recursion depth, the pluggable session manager, and
// the error-message overrides. Config values are assembled with a
// fluent Builder, mirroring the Java engine this package was ported
// from, and can be loaded from or saved to YAML with gopkg.in/yaml.v2
// for deployment-time tuning.
package config

import (
	"io"
	"regexp"

	"gopkg.in/yaml.v2"
)

// ConcatMode controls how "^" continuation lines are joined to the
// line above them.
type ConcatMode int

const (
	ConcatNone ConcatMode = iota
	ConcatNewline
	ConcatSpace
)

func (m ConcatMode) String() string {
	switch m {
	case ConcatNewline:
		return "newline"
	case ConcatSpace:
		return "space"
	default:
		return "none"
	}
}

// MorphemeMode selects whether Korean morpheme separation runs over
// triggers and user input before matching.
type MorphemeMode int

const (
	NoneSeparation MorphemeMode = iota
	Separation
)

// ErrorKey names one of the nine built-in failure conditions that can
// be reported as a configurable string instead of a Go error.
type ErrorKey string

const (
	ErrDeepRecursion         ErrorKey = "deepRecursion"
	ErrRepliesNotSorted      ErrorKey = "repliesNotSorted"
	ErrDefaultTopicNotFound  ErrorKey = "defaultTopicNotFound"
	ErrReplyNotMatched       ErrorKey = "replyNotMatched"
	ErrReplyNotFound         ErrorKey = "replyNotFound"
	ErrObjectNotFound        ErrorKey = "objectNotFound"
	ErrCannotDivideByZero    ErrorKey = "cannotDivideByZero"
	ErrCannotMathVariable    ErrorKey = "cannotMathVariable"
	ErrCannotMathValue       ErrorKey = "cannotMathValue"
)

// DefaultErrorMessages mirror the built-in strings used when
// ThrowExceptions is false and no override was supplied.
var DefaultErrorMessages = map[ErrorKey]string{
	ErrDeepRecursion:        "ERR: Deep Recursion Detected",
	ErrRepliesNotSorted:     "ERR: Replies Not Sorted",
	ErrDefaultTopicNotFound: "ERR: No default topic 'random' was found",
	ErrReplyNotMatched:      "ERR: No Reply Matched",
	ErrReplyNotFound:        "ERR: No Reply Found",
	ErrObjectNotFound:       "[ERR: Object Not Found]",
	ErrCannotDivideByZero:   "[ERR: Cannot Divide By Zero]",
	ErrCannotMathVariable:   "[ERR: Math Can't Operate on Non-Numeric Variable]",
	ErrCannotMathValue:      "[ERR: Math Can't Operate on Non-Numeric Value]",
}

const (
	DefaultConcat             = ConcatNone
	DefaultMorpheme           = NoneSeparation
	DefaultDepth              = 50
	DefaultHistorySize        = 9
	DefaultUnicodePunctuation = `[.,!?;:]`
	RSVersion                 = 2.0
)

// Config is the full set of engine tunables. Every tunable field is
// exported so a loaded YAML document maps onto them directly; use Builder to
// assemble one in code.
type Config struct {
	ThrowExceptions    bool              `yaml:"throwExceptions"`
	Strict             bool              `yaml:"strict"`
	UTF8               bool              `yaml:"utf8"`
	UnicodePunctuation string            `yaml:"unicodePunctuation"`
	ForceCase          bool              `yaml:"forceCase"`
	Concat             ConcatMode        `yaml:"concat"`
	Morpheme           MorphemeMode      `yaml:"morpheme"`
	Depth              int               `yaml:"depth"`
	HistorySize        int               `yaml:"historySize"`
	ErrorMessages      map[ErrorKey]string `yaml:"errorMessages"`

	unicodePunctuationRegexp *regexp.Regexp
}

// UnicodePunctuationRegexp lazily compiles and caches the configured
// unicode-punctuation pattern.
func (c *Config) UnicodePunctuationRegexp() *regexp.Regexp {
	if c.unicodePunctuationRegexp == nil {
		pat := c.UnicodePunctuation
		if pat == "" {
			pat = DefaultUnicodePunctuation
		}
		c.unicodePunctuationRegexp = regexp.MustCompile(pat)
	}
	return c.unicodePunctuationRegexp
}

// ErrorMessage returns the configured string for key, falling back to
// the built-in default.
func (c *Config) ErrorMessage(key ErrorKey) string {
	if c.ErrorMessages != nil {
		if s, ok := c.ErrorMessages[key]; ok {
			return s
		}
	}
	return DefaultErrorMessages[key]
}

// Basic returns a strict, ASCII-mode configuration with every other
// knob at its default.
func Basic() *Config {
	return NewBuilder().Strict(true).Build()
}

// UTF8Config returns Basic with UTF-8 trigger matching turned on.
func UTF8Config() *Config {
	return NewBuilder().Strict(true).UTF8(true).Build()
}

// Builder assembles a Config fluently.
type Builder struct {
	c *Config
}

// NewBuilder starts from the documented defaults.
func NewBuilder() *Builder {
	return &Builder{c: &Config{
		Concat:             DefaultConcat,
		Morpheme:           DefaultMorpheme,
		Depth:              DefaultDepth,
		HistorySize:        DefaultHistorySize,
		UnicodePunctuation: DefaultUnicodePunctuation,
		ErrorMessages:      map[ErrorKey]string{},
	}}
}

func (b *Builder) ThrowExceptions(v bool) *Builder { b.c.ThrowExceptions = v; return b }
func (b *Builder) Strict(v bool) *Builder          { b.c.Strict = v; return b }
func (b *Builder) UTF8(v bool) *Builder            { b.c.UTF8 = v; return b }
func (b *Builder) UnicodePunctuation(pat string) *Builder {
	b.c.UnicodePunctuation = pat
	return b
}
func (b *Builder) ForceCase(v bool) *Builder       { b.c.ForceCase = v; return b }
func (b *Builder) Concat(m ConcatMode) *Builder    { b.c.Concat = m; return b }
func (b *Builder) Morpheme(m MorphemeMode) *Builder { b.c.Morpheme = m; return b }
func (b *Builder) Depth(n int) *Builder            { b.c.Depth = n; return b }
func (b *Builder) HistorySize(n int) *Builder      { b.c.HistorySize = n; return b }
func (b *Builder) AddErrorMessage(key ErrorKey, msg string) *Builder {
	b.c.ErrorMessages[key] = msg
	return b
}

// Build returns the assembled Config.
func (b *Builder) Build() *Config {
	return b.c
}

// FromYAML reads a Config from r, starting from the documented
// defaults for any field the document omits.
func FromYAML(r io.Reader) (*Config, error) {
	c := NewBuilder().Build()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return nil, err
	}
	return c, nil
}

// ToYAML writes c to w.
func ToYAML(w io.Writer, c *Config) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(c)
}
