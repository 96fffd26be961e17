// Package docs renders a loaded document tree to HTML for
// introspection: every topic's includes/inherits relationships and
// its triggers, each reply/condition/redirect, and any object macro
// source, with each reply run through blackfriday so reply text can
// use markdown. Script comments are not part of the tree and are not
// rendered.
package docs

import (
	"fmt"
	"io"
	"sort"
	"strings"

	md "github.com/russross/blackfriday/v2"

	"github.com/korea/kivescript/ast"
)

// RenderTopicsHTML writes an HTML fragment describing every topic in
// root: name, includes/inherits, and its triggers in declaration
// order (not priority order; see engine.Engine.DumpSorted for that).
func RenderTopicsHTML(root *ast.Root, out io.Writer) error {
	f := func(format string, args ...interface{}) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	names := make([]string, 0, len(root.Topics))
	for name := range root.Topics {
		names = append(names, name)
	}
	sort.Strings(names)

	f(`<div class="topics">`)
	for _, name := range names {
		topic := root.Topics[name]
		f(`<div class="topic"><h2 id="%s">%s</h2>`, name, name)
		if len(topic.Includes) > 0 {
			f(`<div class="includes">includes: %s</div>`, strings.Join(topic.Includes, ", "))
		}
		if len(topic.Inherits) > 0 {
			f(`<div class="inherits">inherits: %s</div>`, strings.Join(topic.Inherits, ", "))
		}
		f(`<table class="triggers">`)
		for _, t := range topic.Triggers {
			renderTrigger(f, t)
		}
		f(`</table></div>`)
	}
	f(`</div>`)

	if len(root.Objects) > 0 {
		f(`<div class="objects"><h2>Object macros</h2>`)
		objNames := make([]string, 0, len(root.Objects))
		for name := range root.Objects {
			objNames = append(objNames, name)
		}
		sort.Strings(objNames)
		for _, name := range objNames {
			obj := root.Objects[name]
			f(`<div class="object"><h3 id="object-%s">%s (%s)</h3><pre><code>%s</code></pre></div>`,
				name, name, obj.Lang, strings.Join(obj.Code, "\n"))
		}
		f(`</div>`)
	}
	return nil
}

func renderTrigger(f func(string, ...interface{}), t *ast.Trigger) {
	f(`<tr class="trigger"><td><code>+ %s</code></td><td>`, t.Pattern)
	if t.Previous != "" {
		f(`<div class="previous">%% %s</div>`, t.Previous)
	}
	for _, c := range t.Conditions {
		f(`<div class="condition"><code>* %s</code></div>`, c)
	}
	if t.Redirect != "" {
		f(`<div class="redirect"><code>@ %s</code></div>`, t.Redirect)
	}
	for _, r := range t.Replies {
		f(`<div class="reply">%s</div>`, md.Run([]byte(r)))
	}
	f(`</td></tr>`)
}

// RenderTopicsPage wraps RenderTopicsHTML in a minimal standalone HTML
// document, linking cssFiles for styling.
func RenderTopicsPage(root *ast.Root, out io.Writer, cssFiles []string) error {
	fmt.Fprintf(out, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	for _, css := range cssFiles {
		fmt.Fprintf(out, `<link rel="stylesheet" href="%s">`+"\n", css)
	}
	fmt.Fprintf(out, "</head>\n<body>\n")
	if err := RenderTopicsHTML(root, out); err != nil {
		return err
	}
	fmt.Fprintf(out, "</body>\n</html>\n")
	return nil
}
