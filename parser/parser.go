// Package parser turns KiveScript source lines into an ast.Root.
// Parsing happens once per file and is not safe to run concurrently
// with itself or with the reply engine; see the engine package for
// the phase split between loading/sorting and serving replies.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/korea/kivescript/ast"
	"github.com/korea/kivescript/config"
	ilog "github.com/korea/kivescript/internal/log"
	"github.com/korea/kivescript/morpheme"
)

// ParseError is returned (in strict mode) or logged (otherwise) when
// a line doesn't fit its command's shape, or when a command appears
// somewhere it can't (e.g. a reply with no open trigger).
type ParseError struct {
	Label string
	Line  int
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Label, e.Line, e.Msg)
}

// Parser accumulates parsed source into a single ast.Root across any
// number of Load calls.
type Parser struct {
	cfg  *config.Config
	pre  morpheme.Preprocessor
	root *ast.Root

	currentTopic   *ast.Topic
	currentTrigger *ast.Trigger
}

// New returns a Parser that will preprocess "+" trigger text with pre
// when cfg.Morpheme is config.Separation. pre may be nil when
// Morpheme is config.NoneSeparation.
func New(cfg *config.Config, pre morpheme.Preprocessor) *Parser {
	if pre == nil {
		pre = morpheme.Identity{}
	}
	return &Parser{
		cfg:          cfg,
		pre:          pre,
		root:         ast.NewRoot(),
		currentTopic: nil,
	}
}

// Root returns the ast.Root accumulated so far.
func (p *Parser) Root() *ast.Root {
	return p.root
}

// Load parses lines, labeled for error messages as label (typically a
// filename), appending to the Parser's accumulated Root.
func (p *Parser) Load(label string, lines []string) error {
	p.currentTopic = p.root.Topic("random")

	var localConcat *config.ConcatMode

	inComment := false
	inObject := false
	var objectName, objectLang string
	var objectBuffer []string

	consumed := make([]bool, len(lines))

	concatMode := func() config.ConcatMode {
		if localConcat != nil {
			return *localConcat
		}
		return p.cfg.Concat
	}

	concat := func(a, b string) string {
		switch concatMode() {
		case config.ConcatNewline:
			return a + "\n" + b
		case config.ConcatSpace:
			return a + " " + b
		default:
			return a + b
		}
	}

	for i := 0; i < len(lines); i++ {
		if consumed[i] {
			continue
		}
		raw := lines[i]

		if inObject {
			trimmed := strings.TrimSpace(raw)
			if trimmed == "< object" || trimmed == "<object" {
				p.root.Objects[objectName] = &ast.ObjectMacro{
					Name: objectName,
					Lang: objectLang,
					Code: objectBuffer,
				}
				inObject = false
				objectBuffer = nil
				continue
			}
			objectBuffer = append(objectBuffer, raw)
			continue
		}

		if inComment {
			if idx := strings.Index(raw, "*/"); idx >= 0 {
				inComment = false
			}
			continue
		}

		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "//") {
			continue
		}
		if strings.HasPrefix(line, "/*") {
			if idx := strings.Index(line[2:], "*/"); idx < 0 {
				inComment = true
			}
			continue
		}

		cmd := line[0]
		content := strings.TrimSpace(line[1:])
		if idx := strings.Index(content, " // "); idx >= 0 {
			content = strings.TrimSpace(content[:idx])
		}

		var previous string
		if cmd == '!' {
			j := i + 1
			for j < len(lines) {
				jline := strings.TrimSpace(lines[j])
				if !strings.HasPrefix(jline, "^") {
					break
				}
				content += "<crlf>" + strings.TrimSpace(jline[1:])
				consumed[j] = true
				j++
			}
		} else if cmd != '^' {
			j := i + 1
			for j < len(lines) {
				jline := strings.TrimSpace(lines[j])
				if cmd == '+' && strings.HasPrefix(jline, "%") {
					previous = strings.TrimSpace(jline[1:])
					consumed[j] = true
					j++
					continue
				}
				if strings.HasPrefix(jline, "^") {
					content = concat(content, strings.TrimSpace(jline[1:]))
					consumed[j] = true
					j++
					continue
				}
				break
			}
		}

		if cmd == '+' {
			if p.cfg.Morpheme == config.Separation {
				analyzed, err := p.pre.Analyze(content)
				if err == nil {
					content = analyzed
				}
			}
			if p.cfg.ForceCase {
				content = strings.ToLower(content)
			}
		}

		if err := p.checkSyntax(cmd, content); err != nil {
			full := &ParseError{Label: label, Line: i + 1, Msg: err.Error()}
			if p.cfg.Strict {
				return full
			}
			ilog.Logf("%s", full.Error())
		}

		if err := p.handle(cmd, content, previous, &localConcat, &inObject, &objectName, &objectLang, &objectBuffer); err != nil {
			full := &ParseError{Label: label, Line: i + 1, Msg: err.Error()}
			// The document version check is a hard failure regardless of
			// strict mode: a script written for a newer engine version
			// cannot be safely interpreted, unlike an ordinary malformed
			// line.
			if p.cfg.Strict || cmd == '!' && strings.HasPrefix(strings.TrimSpace(content), "version") {
				return full
			}
			ilog.Logf("%s", full.Error())
		}
	}
	return nil
}

func (p *Parser) handle(cmd byte, content, previous string, localConcat **config.ConcatMode, inObject *bool, objectName, objectLang *string, objectBuffer *[]string) error {
	switch cmd {
	case '!':
		return p.handleDefine(content, localConcat)
	case '>':
		return p.handleOpenLabel(content, inObject, objectName, objectLang, objectBuffer)
	case '<':
		return p.handleCloseLabel(content)
	case '+':
		t := &ast.Trigger{Pattern: content, Previous: previous}
		p.currentTopic.Triggers = append(p.currentTopic.Triggers, t)
		p.currentTrigger = t
	case '-':
		if p.currentTrigger == nil {
			return fmt.Errorf("reply with no open trigger")
		}
		if p.currentTrigger.Redirect != "" {
			return fmt.Errorf("reply on a trigger that already has a redirect")
		}
		p.currentTrigger.Replies = append(p.currentTrigger.Replies, content)
	case '*':
		if p.currentTrigger == nil {
			return fmt.Errorf("condition with no open trigger")
		}
		p.currentTrigger.Conditions = append(p.currentTrigger.Conditions, content)
	case '@':
		if p.currentTrigger == nil {
			return fmt.Errorf("redirect with no open trigger")
		}
		if len(p.currentTrigger.Replies) > 0 {
			return fmt.Errorf("redirect on a trigger that already has a reply")
		}
		p.currentTrigger.Redirect = content
	case '%', '^':
		// Consumed during continuation look-ahead; a bare occurrence
		// here means it had nothing to attach to.
	default:
		return fmt.Errorf("unknown command %q", string(cmd))
	}
	return nil
}

func (p *Parser) handleDefine(content string, localConcat **config.ConcatMode) error {
	eq := strings.Index(content, "=")
	if eq < 0 {
		return fmt.Errorf("malformed ! define: %q", content)
	}
	before := strings.Fields(strings.TrimSpace(content[:eq]))
	value := strings.TrimSpace(content[eq+1:])
	if len(before) == 0 {
		return fmt.Errorf("malformed ! define: %q", content)
	}
	kind := before[0]
	name := ""
	if len(before) > 1 {
		name = before[1]
	}

	switch kind {
	case "version":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("! version value %q is not a number", value)
		}
		if v > config.RSVersion {
			return fmt.Errorf("! version %v is newer than supported version %v", v, config.RSVersion)
		}
		p.root.Begin.Version = v
	case "local":
		mode := config.ConcatNone
		switch strings.ToLower(value) {
		case "newline":
			mode = config.ConcatNewline
		case "space":
			mode = config.ConcatSpace
		case "none":
			mode = config.ConcatNone
		default:
			return fmt.Errorf("unknown ! local concat value %q", value)
		}
		*localConcat = &mode
	case "global":
		p.root.Begin.Globals[name] = value
	case "var":
		p.root.Begin.Vars[name] = value
	case "array":
		items := splitArray(value)
		p.root.Begin.Arrays[name] = items
	case "sub":
		p.root.Begin.Subs[name] = value
	case "person":
		p.root.Begin.Persons[name] = value
	default:
		return fmt.Errorf("unknown ! define kind %q", kind)
	}
	return nil
}

func splitArray(value string) []string {
	var items []string
	for _, chunk := range strings.Split(value, "<crlf>") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		var parts []string
		if strings.Contains(chunk, "|") {
			parts = strings.Split(chunk, "|")
		} else {
			parts = strings.Fields(chunk)
		}
		for _, part := range parts {
			part = strings.ReplaceAll(part, `\s`, " ")
			items = append(items, part)
		}
	}
	return items
}

func (p *Parser) handleOpenLabel(content string, inObject *bool, objectName, objectLang *string, objectBuffer *[]string) error {
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return fmt.Errorf("malformed > label: %q", content)
	}
	switch fields[0] {
	case "begin":
		p.currentTopic = p.root.Topic("__begin__")
	case "topic":
		if len(fields) < 2 {
			return fmt.Errorf("> topic needs a name")
		}
		topic := p.root.Topic(fields[1])
		mode := ""
		for _, tok := range fields[2:] {
			switch tok {
			case "includes":
				mode = "includes"
			case "inherits":
				mode = "inherits"
			default:
				switch mode {
				case "includes":
					topic.Includes = append(topic.Includes, tok)
				case "inherits":
					topic.Inherits = append(topic.Inherits, tok)
				}
			}
		}
		p.currentTopic = topic
	case "object":
		if len(fields) < 2 {
			return fmt.Errorf("> object needs a name")
		}
		*objectName = fields[1]
		*objectLang = "__unknown__"
		if len(fields) > 2 {
			*objectLang = fields[2]
		}
		*objectBuffer = nil
		*inObject = true
	default:
		return fmt.Errorf("unknown > label %q", fields[0])
	}
	return nil
}

func (p *Parser) handleCloseLabel(content string) error {
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return fmt.Errorf("malformed < label")
	}
	switch fields[0] {
	case "begin", "topic":
		p.currentTopic = p.root.Topic("random")
	case "object":
		// Handled by the object-body reader; reaching here means a
		// stray "< object" outside a body.
	default:
		return fmt.Errorf("unknown < label %q", fields[0])
	}
	return nil
}

var (
	defineShape = regexp.MustCompile(`^(version|local|global|var|array|sub|person)(\s+\S+)?\s*=\s*.+$`)
	topicName   = regexp.MustCompile(`^[a-z0-9_-]+$`)
	topicNameUC = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	objectNameR = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	triggerAscii = regexp.MustCompile(`^[a-z0-9(|)\[\]*_#@{}<>=/\s]+$`)
	conditionShape = regexp.MustCompile(`^.+?\s*(==|eq|!=|ne|<>|<=|<|>=|>)\s*.+?=>.+?$`)
)

func balanced(s string, open, close byte) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case open:
			depth++
		case close:
			depth--
		}
		if depth < 0 {
			return false
		}
	}
	return depth == 0
}

func (p *Parser) checkSyntax(cmd byte, content string) error {
	if !p.cfg.Strict {
		return nil
	}
	switch cmd {
	case '!':
		if !defineShape.MatchString(content) {
			return fmt.Errorf("malformed ! define: %q", content)
		}
		if strings.HasPrefix(content, "array") {
			val := content
			if eq := strings.Index(val, "="); eq >= 0 {
				val = strings.TrimSpace(val[eq+1:])
			}
			if strings.HasPrefix(val, "|") || strings.HasSuffix(val, "|") || strings.Contains(val, "||") {
				return fmt.Errorf("! array value has a leading, trailing, or doubled pipe: %q", content)
			}
		}
	case '>':
		fields := strings.Fields(content)
		if len(fields) == 0 {
			return fmt.Errorf("empty > label")
		}
		switch fields[0] {
		case "begin":
			if len(fields) != 1 {
				return fmt.Errorf("> begin takes no arguments")
			}
		case "topic":
			if len(fields) < 2 {
				return fmt.Errorf("> topic needs a name")
			}
			nameRe := topicName
			if p.cfg.ForceCase {
				nameRe = topicNameUC
			}
			if !nameRe.MatchString(fields[1]) {
				return fmt.Errorf("invalid topic name %q", fields[1])
			}
		case "object":
			if len(fields) < 2 || !objectNameR.MatchString(fields[1]) {
				return fmt.Errorf("invalid object name in %q", content)
			}
		}
	case '+', '%', '@':
		if p.cfg.UTF8 {
			for _, r := range content {
				if r >= 'A' && r <= 'Z' {
					return fmt.Errorf("uppercase character in UTF-8 mode trigger: %q", content)
				}
			}
			if strings.Contains(content, `\.`) {
				return fmt.Errorf("literal \\. forbidden in UTF-8 mode trigger: %q", content)
			}
		} else if !triggerAscii.MatchString(content) {
			return fmt.Errorf("invalid character in trigger: %q", content)
		}
		if strings.Contains(content, "|(") || strings.Contains(content, "(|") ||
			strings.Contains(content, "|)") || strings.Contains(content, ")|") ||
			strings.Contains(content, "|[") || strings.Contains(content, "[|") ||
			strings.Contains(content, "|]") || strings.Contains(content, "]|") {
			return fmt.Errorf("| adjacent to a bracket in trigger: %q", content)
		}
		for _, pair := range [][2]byte{{'(', ')'}, {'[', ']'}, {'{', '}'}, {'<', '>'}} {
			if !balanced(content, pair[0], pair[1]) {
				return fmt.Errorf("unbalanced %c%c in trigger: %q", pair[0], pair[1], content)
			}
		}
	case '*':
		if !conditionShape.MatchString(content) {
			return fmt.Errorf("malformed condition: %q", content)
		}
	}
	return nil
}
