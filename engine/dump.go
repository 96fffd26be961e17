package engine

import (
	"fmt"
	"strings"
)

// DumpSorted renders the priority-sorted trigger tables, one line per
// trigger in match order, for debugging why a message matched (or
// didn't match) the trigger it did.
func (e *Engine) DumpSorted() string {
	var b strings.Builder
	for topic, entries := range e.sorted.Topics {
		fmt.Fprintf(&b, "> topic %s\n", topic)
		for _, entry := range entries {
			fmt.Fprintf(&b, "  + %s\n", entry.Pattern)
		}
	}
	for topic, entries := range e.sorted.Thats {
		fmt.Fprintf(&b, "> topic %s (that)\n", topic)
		for _, entry := range entries {
			fmt.Fprintf(&b, "  %% %s\n", entry.Pattern)
		}
	}
	return b.String()
}

// DumpTopics renders the loaded topic tree, including includes,
// inherits, each trigger's reply and condition counts, and its
// redirect text.
func (e *Engine) DumpTopics() string {
	var b strings.Builder
	if e.root == nil {
		return ""
	}
	for name, topic := range e.root.Topics {
		fmt.Fprintf(&b, "> topic %s", name)
		if len(topic.Includes) > 0 {
			fmt.Fprintf(&b, " includes %s", strings.Join(topic.Includes, " "))
		}
		if len(topic.Inherits) > 0 {
			fmt.Fprintf(&b, " inherits %s", strings.Join(topic.Inherits, " "))
		}
		b.WriteString("\n")
		for _, t := range topic.Triggers {
			fmt.Fprintf(&b, "  + %s (replies=%d conditions=%d redirect=%q)\n",
				t.Pattern, len(t.Replies), len(t.Conditions), t.Redirect)
		}
	}
	return b.String()
}
