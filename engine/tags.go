package engine

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/korea/kivescript/config"
	"github.com/korea/kivescript/patterns"
	"github.com/korea/kivescript/session"
	"github.com/korea/kivescript/strutil"
)

// triggerRegexp compiles a trigger (or %Previous) pattern into an
// anchored regular expression, expanding wildcards, optionals, array
// references, and bot/user/history tags along the way.
func (e *Engine) triggerRegexp(username, pattern string) (*regexp.Regexp, error) {
	p := pattern

	zeroWidth := patterns.ZeroWidth.MatchString(strings.TrimSpace(p))

	p = patterns.Weight.ReplaceAllString(p, "")
	p = regexp.MustCompile(`\|+`).ReplaceAllString(p, "|")
	p = regexp.MustCompile(`\|(?:\(|\)|\[|\])`).ReplaceAllStringFunc(p, func(m string) string { return m[1:] })
	p = regexp.MustCompile(`(?:\(|\)|\[|\])\|`).ReplaceAllStringFunc(p, func(m string) string { return m[:1] })

	p = e.expandArrayRefs(p)
	p = e.expandBotVars(p)
	p = e.expandUserVars(username, p)
	p = e.expandHistoryTags(username, p)

	p = strings.ReplaceAll(p, `\_`, "\x00ESCUNDER\x00")
	starToken := `(.+?)`
	if zeroWidth {
		starToken = `(.*?)`
	}
	p = strings.ReplaceAll(p, "*", starToken)
	p = strings.ReplaceAll(p, "#", `(\d+?)`)
	p = strings.ReplaceAll(p, "_", "\x00UNDER\x00")
	p = expandOptionals(p, e.cfg.Depth)
	p = strings.ReplaceAll(p, "\x00UNDER\x00", `([^\s\d]+?)`)
	p = strings.ReplaceAll(p, "\x00ESCUNDER\x00", "_")

	return regexp.Compile("^" + p + "$")
}

func (e *Engine) expandArrayRefs(p string) string {
	return patterns.ArrayRef.ReplaceAllStringFunc(p, func(m string) string {
		name := patterns.ArrayRef.FindStringSubmatch(m)[1]
		items := e.root.Begin.Arrays[name]
		if len(items) == 0 {
			return ""
		}
		quoted := make([]string, len(items))
		for i, it := range items {
			quoted[i] = regexp.QuoteMeta(it)
		}
		return "(?:" + strings.Join(quoted, "|") + ")"
	})
}

func (e *Engine) expandBotVars(p string) string {
	return patterns.BotVar.ReplaceAllStringFunc(p, func(m string) string {
		name := patterns.BotVar.FindStringSubmatch(m)[1]
		v := e.GetVariable(name)
		if v == session.Undefined {
			v = ""
		}
		return regexp.QuoteMeta(strutil.StripNasties(strings.ToLower(v)))
	})
}

func (e *Engine) expandUserVars(username, p string) string {
	return patterns.UserVar.ReplaceAllStringFunc(p, func(m string) string {
		name := patterns.UserVar.FindStringSubmatch(m)[1]
		v := e.sessions.Get(username, name)
		return regexp.QuoteMeta(strings.ToLower(v))
	})
}

func (e *Engine) expandHistoryTags(username, p string) string {
	hist := e.sessions.GetHistory(username)
	p = patterns.InputTag.ReplaceAllStringFunc(p, func(m string) string {
		n, _ := strconv.Atoi(patterns.InputTag.FindStringSubmatch(m)[1])
		return regexp.QuoteMeta(hist.InputAt(n))
	})
	p = patterns.ReplyTag.ReplaceAllStringFunc(p, func(m string) string {
		n, _ := strconv.Atoi(patterns.ReplyTag.FindStringSubmatch(m)[1])
		return regexp.QuoteMeta(hist.ReplyAt(n))
	})
	return p
}

// expandOptionals turns each [alt1|alt2] group into a non-capturing,
// optionally-bounded alternation. Bounded by maxIterations to satisfy
// the "every tag-expanding loop has a giveup counter" contract.
func expandOptionals(p string, maxIterations int) string {
	for i := 0; i < maxIterations && patterns.Optional.MatchString(p); i++ {
		p = patterns.Optional.ReplaceAllStringFunc(p, func(m string) string {
			inner := patterns.Optional.FindStringSubmatch(m)[1]
			alts := strings.Split(inner, "|")
			for i := range alts {
				alts[i] = strings.TrimSpace(alts[i])
			}
			return `(?:\s|\b)*(?:` + strings.Join(alts, "|") + `)?(?:\s|\b)*`
		})
	}
	return p
}

// processTags runs the full tag-expansion pipeline over reply text:
// array refs, legacy shortcuts, star/history/id substitution,
// {random}, string-format blocks, then the iterative innermost-tag
// evaluator for bot/env/set/get/math tags, then topic-setter and
// inline redirects, then <call> dispatch.
func (e *Engine) processTags(ctx context.Context, username, message, reply string, stars, botstars *Stars, step int) (string, error) {
	reply = e.expandArrayRandom(reply)
	reply = expandLegacyShortcuts(reply, stars)
	reply = patterns.Weight.ReplaceAllString(reply, "")
	reply = e.substituteStarsAndHistory(username, reply, stars, botstars)
	reply = e.evalRandom(reply)
	reply = e.evalStringFormats(reply, stars)

	reply = strings.ReplaceAll(reply, "<call>", "{__call__}")
	reply = strings.ReplaceAll(reply, "</call>", "{/__call__}")

	var err error
	reply, err = e.evalInnerTags(ctx, username, reply, step)
	if err != nil {
		return "", err
	}

	reply = strings.ReplaceAll(reply, "{__call__}", "<call>")
	reply = strings.ReplaceAll(reply, "{/__call__}", "</call>")

	reply = e.applyTopicSetter(username, reply)

	reply, err = e.applyInlineRedirect(ctx, username, message, reply, step)
	if err != nil {
		return "", err
	}

	reply, err = e.evalCalls(ctx, username, reply)
	if err != nil {
		return "", err
	}
	return strutil.CollapseWhitespace(reply), nil
}

// applyBeginTags is the reduced tag pass used for the __begin__ reply:
// only {topic=X} and <set k=v> take effect; everything else is left
// untouched for the outer processTags call to handle once the real
// reply has been substituted into {ok}.
func (e *Engine) applyBeginTags(username, reply string) string {
	reply = patterns.Set.ReplaceAllStringFunc(reply, func(m string) string {
		sub := patterns.Set.FindStringSubmatch(m)
		e.sessions.Set(username, sub[1], sub[2])
		return ""
	})
	reply = e.applyTopicSetter(username, reply)
	return reply
}

func (e *Engine) applyTopicSetter(username, reply string) string {
	return patterns.TopicSetter.ReplaceAllStringFunc(reply, func(m string) string {
		sub := patterns.TopicSetter.FindStringSubmatch(m)
		e.sessions.Set(username, "topic", sub[1])
		return ""
	})
}

func (e *Engine) applyInlineRedirect(ctx context.Context, username, message, reply string, step int) (string, error) {
	for {
		loc := patterns.Redirect.FindStringSubmatchIndex(reply)
		if loc == nil {
			return reply, nil
		}
		target := reply[loc[2]:loc[3]]
		result, err := e.getReply(ctx, username, strings.ToLower(target), false, step+1)
		if err != nil {
			return "", err
		}
		reply = reply[:loc[0]] + result + reply[loc[1]:]
	}
}

func (e *Engine) expandArrayRandom(reply string) string {
	return patterns.ArrayRef.ReplaceAllStringFunc(reply, func(m string) string {
		name := patterns.ArrayRef.FindStringSubmatch(m)[1]
		items := e.root.Begin.Arrays[name]
		if len(items) == 0 {
			return ""
		}
		return "{random}" + strings.Join(items, "|") + "{/random}"
	})
}

func expandLegacyShortcuts(reply string, stars *Stars) string {
	star := stars.Star(1)
	replacer := strings.NewReplacer(
		"<person>", "{person}"+star+"{/person}",
		"<@>", "{@"+star+"}",
		"<formal>", "{formal}"+star+"{/formal}",
		"<sentence>", "{sentence}"+star+"{/sentence}",
		"<uppercase>", "{uppercase}"+star+"{/uppercase}",
		"<lowercase>", "{lowercase}"+star+"{/lowercase}",
	)
	return replacer.Replace(reply)
}

func (e *Engine) substituteStarsAndHistory(username, reply string, stars, botstars *Stars) string {
	reply = patterns.StarTag.ReplaceAllStringFunc(reply, func(m string) string {
		sub := patterns.StarTag.FindStringSubmatch(m)
		n := 1
		if sub[1] != "" {
			n, _ = strconv.Atoi(sub[1])
		}
		return stars.Star(n)
	})
	reply = patterns.BotStarTag.ReplaceAllStringFunc(reply, func(m string) string {
		sub := patterns.BotStarTag.FindStringSubmatch(m)
		n := 1
		if sub[1] != "" {
			n, _ = strconv.Atoi(sub[1])
		}
		return botstars.Star(n)
	})
	hist := e.sessions.GetHistory(username)
	reply = patterns.InputTag.ReplaceAllStringFunc(reply, func(m string) string {
		n, _ := strconv.Atoi(patterns.InputTag.FindStringSubmatch(m)[1])
		return hist.InputAt(n)
	})
	reply = patterns.ReplyTag.ReplaceAllStringFunc(reply, func(m string) string {
		n, _ := strconv.Atoi(patterns.ReplyTag.FindStringSubmatch(m)[1])
		return hist.ReplyAt(n)
	})
	reply = strings.ReplaceAll(reply, "<id>", username)
	reply = strings.ReplaceAll(reply, `\s`, " ")
	reply = strings.ReplaceAll(reply, `\n`, "\n")
	reply = strings.ReplaceAll(reply, `\#`, "#")
	return reply
}

func (e *Engine) evalRandom(reply string) string {
	for i := 0; i < e.cfg.Depth && patterns.Random.MatchString(reply); i++ {
		reply = patterns.Random.ReplaceAllStringFunc(reply, func(m string) string {
			inner := patterns.Random.FindStringSubmatch(m)[1]
			var alts []string
			if strings.Contains(inner, "|") {
				alts = strings.Split(inner, "|")
			} else {
				alts = strings.Fields(inner)
			}
			if len(alts) == 0 {
				return ""
			}
			pick := int(e.randFloat64() * float64(len(alts)))
			if pick >= len(alts) {
				pick = len(alts) - 1
			}
			return alts[pick]
		})
	}
	return reply
}

func (e *Engine) evalStringFormats(reply string, stars *Stars) string {
	for i := 0; i < e.cfg.Depth && patterns.StringFormat.MatchString(reply); i++ {
		reply = patterns.StringFormat.ReplaceAllStringFunc(reply, func(m string) string {
			sub := patterns.StringFormat.FindStringSubmatch(m)
			kind, text := sub[1], sub[2]
			switch kind {
			case "person":
				if v, ok := e.GetPerson(text); ok {
					return v
				}
				return text
			case "formal":
				return strings.Title(strings.ToLower(text))
			case "sentence":
				if text == "" {
					return text
				}
				return strings.ToUpper(text[:1]) + text[1:]
			case "uppercase":
				return strings.ToUpper(text)
			case "lowercase":
				return strings.ToLower(text)
			default:
				return text
			}
		})
	}
	return reply
}

// evalInnerTags repeatedly finds a tag with no nested "<...>" inside
// it and evaluates it, so nested tags resolve innermost first.
func (e *Engine) evalInnerTags(ctx context.Context, username, reply string, step int) (string, error) {
	for i := 0; i < e.cfg.Depth; i++ {
		loc := findInnermostTag(reply)
		if loc == nil {
			return reply, nil
		}
		tag := reply[loc[0]+1 : loc[1]-1]
		expansion, err := e.evalOneTag(ctx, username, tag)
		if err != nil {
			return "", err
		}
		reply = reply[:loc[0]] + expansion + reply[loc[1]:]
	}
	return reply, nil
}

// findInnermostTag returns the [start, end) byte range of the first
// "<...>" tag in s that itself contains no "<".
func findInnermostTag(s string) []int {
	depth := 0
	start := -1
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
			start = i
		case '>':
			if depth > 0 {
				return []int{start, i + 1}
			}
		}
	}
	return nil
}

func (e *Engine) evalOneTag(ctx context.Context, username, tag string) (string, error) {
	fields := strings.SplitN(tag, " ", 2)
	name := fields[0]
	rest := ""
	if len(fields) > 1 {
		rest = fields[1]
	}

	switch name {
	case "bot":
		return e.evalKV(rest, e.GetVariable, e.SetVariable), nil
	case "env":
		return e.evalKV(rest, e.GetGlobal, e.SetGlobal), nil
	case "get":
		return e.sessions.Get(username, strings.TrimSpace(rest)), nil
	case "set":
		k, v, ok := strings.Cut(rest, "=")
		if ok {
			e.sessions.Set(username, strings.TrimSpace(k), strings.TrimSpace(v))
		}
		return "", nil
	case "add", "sub", "mult", "div":
		return e.evalMath(username, name, rest)
	default:
		return "<" + tag + ">", nil
	}
}

func (e *Engine) evalKV(rest string, get func(string) string, set func(string, string)) string {
	if k, v, ok := strings.Cut(rest, "="); ok {
		set(strings.TrimSpace(k), strings.TrimSpace(v))
		return ""
	}
	return get(strings.TrimSpace(rest))
}

func (e *Engine) evalMath(username, op, rest string) (string, error) {
	name, valueStr, ok := strings.Cut(rest, "=")
	if !ok {
		return "", nil
	}
	name = strings.TrimSpace(name)
	valueStr = strings.TrimSpace(valueStr)

	operand, err := strconv.Atoi(valueStr)
	if err != nil {
		return e.errOrString(config.ErrCannotMathValue, &CannotMathValueError{Value: valueStr})
	}

	current := 0
	if raw := e.sessions.Get(username, name); raw != session.Undefined && raw != "" {
		current, err = strconv.Atoi(raw)
		if err != nil {
			return e.errOrString(config.ErrCannotMathVariable, &CannotMathVariableError{Var: name})
		}
	}

	switch op {
	case "add":
		current += operand
	case "sub":
		current -= operand
	case "mult":
		current *= operand
	case "div":
		if operand == 0 {
			return e.errOrString(config.ErrCannotDivideByZero, &CannotDivideByZeroError{Var: name})
		}
		current /= operand
	}
	e.sessions.Set(username, name, strconv.Itoa(current))
	return "", nil
}

func (e *Engine) evalCalls(ctx context.Context, username, reply string) (string, error) {
	for {
		loc := patterns.Call.FindStringSubmatchIndex(reply)
		if loc == nil {
			return reply, nil
		}
		body := reply[loc[2]:loc[3]]
		result, err := e.dispatchCall(ctx, username, body)
		if err != nil {
			return "", err
		}
		reply = reply[:loc[0]] + result + reply[loc[1]:]
	}
}

func (e *Engine) dispatchCall(ctx context.Context, username, body string) (string, error) {
	args := strutil.SplitArgs(body)
	if len(args) == 0 {
		return "", nil
	}
	name := args[0]
	rest := args[1:]

	ce := &callEngine{eng: e, username: username}
	result, err := e.registry.Call(ctx, ce, name, rest)
	if err != nil {
		return e.errOrString(config.ErrObjectNotFound, &ObjectNotFoundError{Name: name})
	}
	return result, nil
}
