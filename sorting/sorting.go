// Package sorting implements the trigger-priority sort described by
// the interpreter's matching contract: triggers are bucketed by
// explicit weight, then by topic-inheritance level, then by
// specificity class, and finally ordered within each class by word
// count, character length, and natural string order. The result is a
// flat, priority-ordered list per topic that the reply engine walks
// top to bottom looking for the first regex match.
package sorting

import (
	"sort"
	"strconv"
	"strings"

	"github.com/korea/kivescript/ast"
	"github.com/korea/kivescript/patterns"
	"github.com/korea/kivescript/strutil"
)

// DeepRecursionError is returned when topic collection (following
// includes/inherits edges) exceeds the configured depth.
type DeepRecursionError struct {
	Topic string
}

func (e *DeepRecursionError) Error() string {
	return "kivescript: deep recursion collecting triggers for topic " + e.Topic
}

// Entry is one trigger placed at a specific priority slot.
type Entry struct {
	Trigger *ast.Trigger
	Pattern string // Trigger.Pattern or Trigger.Previous, whichever this entry sorts by
}

// Buffer is the immutable-after-Sort output: a priority-ordered
// trigger list per topic, plus the %Previous ("thats") list keyed by
// the same topic, plus substitution and person key orderings.
type Buffer struct {
	Topics     map[string][]*Entry
	Thats      map[string][]*Entry
	SubKeys    []string
	PersonKeys []string
}

// NewBuffer returns an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{
		Topics: map[string][]*Entry{},
		Thats:  map[string][]*Entry{},
	}
}

// Empty reports whether Sort has never populated this buffer, which
// is the "replies not sorted" condition.
func (b *Buffer) Empty() bool {
	return len(b.Topics) == 0
}

type collected struct {
	trigger *ast.Trigger
	pattern string
	level   int // -1 means "no {inherits=N} label seen"
}

const noLevel = -1

// Sort clears buf and repopulates it from root, following every
// topic's includes/inherits graph up to maxDepth levels deep.
func Sort(root *ast.Root, buf *Buffer, maxDepth int) error {
	buf.Topics = map[string][]*Entry{}
	buf.Thats = map[string][]*Entry{}

	for name := range root.Topics {
		triggers, err := collect(root, name, false, 0, false, maxDepth, map[string]bool{})
		if err != nil {
			return err
		}
		buf.Topics[name] = sortTriggerSet(triggers, func(c *collected) string { return c.pattern })

		thats, err := collect(root, name, true, 0, false, maxDepth, map[string]bool{})
		if err != nil {
			return err
		}
		if len(thats) > 0 {
			buf.Thats[name] = sortTriggerSet(thats, func(c *collected) string { return c.trigger.Previous })
		}
	}

	buf.SubKeys = sortSubstitutionKeys(root.Begin.Subs)
	buf.PersonKeys = sortSubstitutionKeys(root.Begin.Persons)
	return nil
}

// collect walks topic's includes/inherits graph, gathering its own
// triggers (or, if thatsOnly, only triggers with a non-empty
// Previous) along with an inheritance level: -1 if the trigger isn't
// under any inherits edge, otherwise the depth at which the
// inheriting topic was reached.
func collect(root *ast.Root, topicName string, thatsOnly bool, level int, viaInherit bool, maxDepth int, visiting map[string]bool) ([]*collected, error) {
	if len(visiting) > maxDepth {
		return nil, &DeepRecursionError{Topic: topicName}
	}
	topic, ok := root.Topics[topicName]
	if !ok {
		return nil, nil
	}
	if visiting[topicName] {
		return nil, nil
	}
	visiting[topicName] = true
	defer delete(visiting, topicName)

	label := noLevel
	if len(topic.Inherits) > 0 || viaInherit {
		label = level
	}

	var out []*collected
	for _, t := range topic.Triggers {
		if thatsOnly && t.Previous == "" {
			continue
		}
		pattern := t.Pattern
		if thatsOnly {
			pattern = t.Previous
		}
		out = append(out, &collected{trigger: t, pattern: pattern, level: label})
	}

	for _, inc := range topic.Includes {
		more, err := collect(root, inc, thatsOnly, level, false, maxDepth, visiting)
		if err != nil {
			return nil, err
		}
		out = append(out, more...)
	}
	for _, inh := range topic.Inherits {
		more, err := collect(root, inh, thatsOnly, level+1, true, maxDepth, visiting)
		if err != nil {
			return nil, err
		}
		out = append(out, more...)
	}
	return out, nil
}

// weightOf extracts a trigger's {weight=N} tag, defaulting to 0.
func weightOf(pattern string) int {
	m := patterns.Weight.FindStringSubmatch(pattern)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

func sortTriggerSet(entries []*collected, patternOf func(*collected) string) []*Entry {
	byWeight := map[int][]*collected{}
	for _, c := range entries {
		w := weightOf(patternOf(c))
		byWeight[w] = append(byWeight[w], c)
	}
	weights := make([]int, 0, len(byWeight))
	for w := range byWeight {
		weights = append(weights, w)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(weights)))

	var out []*Entry
	for _, w := range weights {
		out = append(out, sortByLevel(byWeight[w])...)
	}
	return out
}

func sortByLevel(entries []*collected) []*Entry {
	byLevel := map[int][]*collected{}
	highest := noLevel
	for _, c := range entries {
		if c.level > highest {
			highest = c.level
		}
	}
	for _, c := range entries {
		l := c.level
		if l == noLevel {
			l = highest + 1
		}
		byLevel[l] = append(byLevel[l], c)
	}
	levels := make([]int, 0, len(byLevel))
	for l := range byLevel {
		levels = append(levels, l)
	}
	sort.Ints(levels)

	var out []*Entry
	for _, l := range levels {
		out = append(out, sortBySpecificity(byLevel[l])...)
	}
	return out
}

type class int

const (
	atomic class = iota
	option
	alpha
	number
	wild
	under
	pound
	star
)

func classify(pattern string) class {
	hasUnderscore := strings.Contains(pattern, "_")
	hasHash := strings.Contains(pattern, "#")
	hasStar := strings.Contains(pattern, "*")
	hasBracket := strings.Contains(pattern, "[")
	words := strutil.WordCount(pattern, false)

	switch {
	case !hasUnderscore && !hasHash && !hasStar && !hasBracket:
		return atomic
	case hasBracket:
		return option
	case hasUnderscore && words > 0:
		return alpha
	case hasHash && words > 0:
		return number
	case hasStar && words > 0:
		return wild
	case hasUnderscore:
		return under
	case hasHash:
		return pound
	case hasStar:
		return star
	default:
		return atomic
	}
}

func sortBySpecificity(entries []*collected) []*Entry {
	buckets := make([][]*collected, star+1)
	for _, c := range entries {
		cls := classify(c.pattern)
		buckets[cls] = append(buckets[cls], c)
	}

	var out []*Entry
	for cls := atomic; cls <= star; cls++ {
		bucket := buckets[cls]
		if len(bucket) == 0 {
			continue
		}
		if cls == under || cls == pound || cls == star {
			sort.SliceStable(bucket, func(i, j int) bool {
				return lessByLengthThenNatural(bucket[i].pattern, bucket[j].pattern)
			})
		} else {
			sort.SliceStable(bucket, func(i, j int) bool {
				wi, wj := strutil.WordCount(bucket[i].pattern, false), strutil.WordCount(bucket[j].pattern, false)
				if wi != wj {
					return wi > wj
				}
				return lessByLengthThenNatural(bucket[i].pattern, bucket[j].pattern)
			})
		}
		for _, c := range bucket {
			out = append(out, &Entry{Trigger: c.trigger, Pattern: c.pattern})
		}
	}
	return out
}

func lessByLengthThenNatural(a, b string) bool {
	if len(a) != len(b) {
		return len(a) > len(b)
	}
	return a < b
}

// sortSubstitutionKeys orders substitution/person keys by word count
// (every token counts) descending, then length descending.
func sortSubstitutionKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		wi, wj := strutil.WordCount(keys[i], true), strutil.WordCount(keys[j], true)
		if wi != wj {
			return wi > wj
		}
		return lessByLengthThenNatural(keys[i], keys[j])
	})
	return keys
}
