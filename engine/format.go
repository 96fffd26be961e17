package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/korea/kivescript/config"
	"github.com/korea/kivescript/strutil"
)

var wordBoundary = regexp.MustCompile(`\W`)

// substitute applies the substitutions in subs (in the order given by
// keys) to message, using boundary-aware whole-word matching. Each
// match is first turned into a numeric placeholder so that an earlier
// key's value can't accidentally be re-substituted by a later key's
// pattern; the placeholders are resolved to their final values
// afterward.
func substitute(message string, keys []string, subs map[string]string, maxIterations int) string {
	placeholders := make([]string, 0, len(keys))
	for i, key := range keys {
		value := subs[key]
		placeholder := fmt.Sprintf(`\x00%d\x00`, i)
		placeholders = append(placeholders, value)

		esc := regexp.QuoteMeta(key)
		message = replaceBoundary(message, esc, placeholder)
	}

	for i := 0; i < maxIterations; i++ {
		replaced := false
		message = patternsPlaceholder.ReplaceAllStringFunc(message, func(m string) string {
			sub := patternsPlaceholder.FindStringSubmatch(m)
			idx, err := strconv.Atoi(sub[1])
			if err != nil || idx < 0 || idx >= len(placeholders) {
				return m
			}
			replaced = true
			return placeholders[idx]
		})
		if !replaced {
			break
		}
	}
	return message
}

var patternsPlaceholder = regexp.MustCompile(`\\x00(\d+)\\x00`)

// replaceBoundary replaces every whole-word occurrence of pattern in
// s with replacement: matches at the start/end of the string or
// surrounded by non-word characters on both sides.
func replaceBoundary(s, pattern, replacement string) string {
	exact := regexp.MustCompile(`^` + pattern + `$`)
	start := regexp.MustCompile(`^` + pattern + `(\W)`)
	middle := regexp.MustCompile(`(\W)` + pattern + `(\W)`)
	end := regexp.MustCompile(`(\W)` + pattern + `$`)

	if exact.MatchString(s) {
		return replacement
	}
	s = start.ReplaceAllString(s, replacement+"$1")
	s = middle.ReplaceAllStringFunc(s, func(m string) string {
		sub := middle.FindStringSubmatch(m)
		return sub[1] + replacement + sub[2]
	})
	s = end.ReplaceAllString(s, "$1"+replacement)
	return s
}

// formatMessage normalizes a user message (or, when botReply is
// true, the bot's previous reply for %Previous matching) before
// pattern matching: optional morpheme separation, lowercasing,
// substitution, character-class stripping, and whitespace collapse.
func (e *Engine) formatMessage(username, message string, botReply bool) string {
	if e.cfg.Morpheme == config.Separation {
		if analyzed, err := e.preprocessor.Analyze(message); err == nil {
			message = analyzed
		}
	}
	message = strings.ToLower(message)
	message = substitute(message, e.sorted.SubKeys, e.root.Begin.Subs, e.cfg.Depth)

	if e.cfg.UTF8 {
		message = e.cfg.UnicodePunctuationRegexp().ReplaceAllString(message, "")
		message = utf8Meta.ReplaceAllString(message, "")
		if botReply {
			message = utf8BotSymbols.ReplaceAllString(message, "")
		}
	} else {
		message = strutil.StripNasties(message)
	}
	message = strutil.CollapseWhitespace(message)
	return message
}

var (
	utf8Meta       = regexp.MustCompile(`[\\{}<>]`)
	utf8BotSymbols = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
)
