package engine

import (
	"context"
	"strings"

	"github.com/korea/kivescript/config"
	"github.com/korea/kivescript/session"
	"github.com/korea/kivescript/sorting"
)

// Reply generates username's reply to message. It is safe to call
// concurrently for different (or the same) usernames once
// SortReplies has run.
func (e *Engine) Reply(ctx context.Context, username, message string) (string, error) {
	e.sessions.Init(username)
	formatted := e.formatMessage(username, message, false)

	var reply string
	var err error
	if _, hasBegin := e.sorted.Topics["__begin__"]; hasBegin {
		beginReply, berr := e.getReply(ctx, username, "request", true, 0)
		if berr != nil {
			return "", berr
		}
		realReply, rerr := e.getReply(ctx, username, formatted, false, 0)
		if rerr != nil {
			return "", rerr
		}
		combined := strings.Replace(beginReply, "{ok}", realReply, 1)
		reply, err = e.processTags(ctx, username, formatted, combined, newStars(), newStars(), 0)
	} else {
		reply, err = e.getReply(ctx, username, formatted, false, 0)
	}
	if err != nil {
		return "", err
	}

	e.sessions.AddHistory(username, formatted, reply)
	return reply, nil
}

// errOrString implements the ThrowExceptions branch: return the Go
// error when ThrowExceptions is set, otherwise the configured string
// for key with a nil error.
func (e *Engine) errOrString(key config.ErrorKey, err error) (string, error) {
	if e.cfg.ThrowExceptions {
		return "", err
	}
	return e.cfg.ErrorMessage(key), nil
}

func (e *Engine) getReply(ctx context.Context, username, message string, isBegin bool, step int) (string, error) {
	if e.sorted.Empty() {
		return e.errOrString(config.ErrRepliesNotSorted, &RepliesNotSortedError{})
	}
	if step > e.cfg.Depth {
		return e.errOrString(config.ErrDeepRecursion, &DeepRecursionError{Depth: step})
	}

	topic := e.sessions.Get(username, "topic")
	if topic == session.Undefined || topic == "" {
		topic = "random"
	}
	if _, ok := e.root.Topics[topic]; !ok {
		topic = "random"
		e.sessions.Set(username, "topic", topic)
	}
	if isBegin {
		topic = "__begin__"
	}
	if _, ok := e.sorted.Topics[topic]; !ok {
		return e.errOrString(config.ErrDefaultTopicNotFound, &NoDefaultTopicError{})
	}

	var matched *sorting.Entry
	stars := newStars()
	botstars := newStars()

	if step == 0 {
		matched, stars, botstars = e.matchPrevious(username, message, topic)
	}
	if matched == nil {
		matched, stars = e.matchNormal(username, message, topic)
	}

	if matched == nil {
		e.sessions.SetLastMatch(username, "")
		return e.errOrString(config.ErrReplyNotMatched, &ReplyNotMatchedError{Message: message})
	}
	e.sessions.SetLastMatch(username, matched.Trigger.Pattern)

	reply, err := e.selectReply(ctx, username, message, matched.Trigger, stars, botstars, step)
	if err != nil {
		return "", err
	}

	if isBegin {
		return e.applyBeginTags(username, reply), nil
	}
	return e.processTags(ctx, username, message, reply, stars, botstars, step)
}

// topicTree returns topic plus every topic transitively reachable
// from it via includes/inherits, for %Previous matching which must
// consider the whole tree, not just the topic's own thats list.
func (e *Engine) topicTree(topic string) []string {
	seen := map[string]bool{}
	var order []string
	var walk func(string)
	walk = func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		order = append(order, name)
		t, ok := e.root.Topics[name]
		if !ok {
			return
		}
		for _, inc := range t.Includes {
			walk(inc)
		}
		for _, inh := range t.Inherits {
			walk(inh)
		}
	}
	walk(topic)
	return order
}

func (e *Engine) matchPrevious(username, message, topic string) (*sorting.Entry, *Stars, *Stars) {
	botReply := e.sessions.GetHistory(username).ReplyAt(1)
	formattedBotReply := e.formatMessage(username, botReply, true)

	for _, t := range e.topicTree(topic) {
		entries := e.sorted.Thats[t]
		if len(entries) == 0 {
			continue
		}
		for _, entry := range entries {
			botRe, err := e.triggerRegexp(username, entry.Pattern)
			if err != nil {
				continue
			}
			botGroups := botRe.FindStringSubmatch(formattedBotReply)
			if botGroups == nil {
				continue
			}
			botstars := starsFromMatch(botGroups)

			if entry.Trigger.Pattern == message {
				return entry, newStars(), botstars
			}
			re, err := e.triggerRegexp(username, entry.Trigger.Pattern)
			if err != nil {
				continue
			}
			groups := re.FindStringSubmatch(message)
			if groups == nil {
				continue
			}
			return entry, starsFromMatch(groups), botstars
		}
	}
	return nil, nil, nil
}

func (e *Engine) matchNormal(username, message, topic string) (*sorting.Entry, *Stars) {
	for _, entry := range e.sorted.Topics[topic] {
		if !strings.ContainsAny(entry.Pattern, "*#_[(@<") && entry.Pattern == message {
			return entry, newStars()
		}
		re, err := e.triggerRegexp(username, entry.Pattern)
		if err != nil {
			continue
		}
		groups := re.FindStringSubmatch(message)
		if groups == nil {
			continue
		}
		return entry, starsFromMatch(groups)
	}
	return nil, nil
}
