// Package patterns holds the fixed set of regular expressions used by
// every stage of the interpreter: parsing, sorting, and reply
// generation. Compiling them once at init time avoids paying
// regexp.Compile's cost on every trigger match.
package patterns

import "regexp"

var (
	Weight       = regexp.MustCompile(`\{weight=(\d+)\}`)
	Inherits     = regexp.MustCompile(`\{inherits=(\d+)\}`)
	TopicSetter  = regexp.MustCompile(`\{topic=(.+?)\}`)
	Set          = regexp.MustCompile(`<set (.+?)=(.+?)>`)
	Random       = regexp.MustCompile(`(?s)\{random\}(.+?)\{/random\}`)
	Call         = regexp.MustCompile(`(?s)<call>(.+?)</call>`)
	Redirect     = regexp.MustCompile(`\{@(.+?)\}`)
	Condition    = regexp.MustCompile(`^(.+?)\s+(==|eq|!=|ne|<>|<=|<|>=|>)\s+(.+?)$`)
	AnyTag       = regexp.MustCompile(`<([^<>]+?)>`)
	Optional     = regexp.MustCompile(`\[(.+?)\]`)
	ArrayRef     = regexp.MustCompile(`\(@([A-Za-z0-9_]+)\)`)
	BotVar       = regexp.MustCompile(`<bot (.+?)>`)
	UserVar      = regexp.MustCompile(`<get (.+?)>`)
	EnvVar       = regexp.MustCompile(`<env (.+?)>`)
	Placeholder  = regexp.MustCompile(`\\x00(\d+)\\x00`)
	ZeroWidth    = regexp.MustCompile(`^\*$|^\*\s+\*$`)
	StarTag      = regexp.MustCompile(`<star(\d*)>`)
	BotStarTag   = regexp.MustCompile(`<botstar(\d*)>`)
	InputTag     = regexp.MustCompile(`<input([1-9])>`)
	ReplyTag     = regexp.MustCompile(`<reply([1-9])>`)
	Nasties      = regexp.MustCompile(`[^a-zA-Z0-9 ]`)
	WhitespaceUp = regexp.MustCompile(`\s+`)

	// StringFormat matches the string-format tag blocks: person,
	// formal, sentence, uppercase, lowercase.
	StringFormat = regexp.MustCompile(`(?s)\{(person|formal|sentence|uppercase|lowercase)\}(.+?)\{/(person|formal|sentence|uppercase|lowercase)\}`)
)
