package engine

import (
	"context"
	"strconv"
	"strings"

	"github.com/korea/kivescript/ast"
	"github.com/korea/kivescript/config"
	"github.com/korea/kivescript/patterns"
)

// selectReply resolves the matched trigger to actual reply text: a
// redirect recurses into getReply, a passing condition wins over the
// weighted reply pool, and the pool itself is a uniform draw over
// each reply's {weight=K} repeat count.
func (e *Engine) selectReply(ctx context.Context, username, message string, t *ast.Trigger, stars, botstars *Stars, step int) (string, error) {
	if t.Redirect != "" {
		redirect, err := e.processTags(ctx, username, message, t.Redirect, stars, botstars, step)
		if err != nil {
			return "", err
		}
		redirect = strings.ToLower(redirect)
		return e.getReply(ctx, username, redirect, false, step+1)
	}

	for _, cond := range t.Conditions {
		if reply, ok, err := e.evalCondition(ctx, username, message, cond, stars, botstars, step); err != nil {
			return "", err
		} else if ok {
			return reply, nil
		}
	}

	if len(t.Replies) == 0 {
		return e.errOrString(config.ErrReplyNotFound, &ReplyNotFoundError{Pattern: t.Pattern})
	}
	return e.pickWeightedReply(t.Replies), nil
}

func (e *Engine) evalCondition(ctx context.Context, username, message, cond string, stars, botstars *Stars, step int) (string, bool, error) {
	parts := strings.SplitN(cond, "=>", 2)
	if len(parts) != 2 {
		return "", false, nil
	}
	m := patterns.Condition.FindStringSubmatch(strings.TrimSpace(parts[0]))
	if m == nil {
		return "", false, nil
	}
	left, op, right := m[1], m[2], m[3]

	left, err := e.processTags(ctx, username, message, left, stars, botstars, step)
	if err != nil {
		return "", false, err
	}
	right, err = e.processTags(ctx, username, message, right, stars, botstars, step)
	if err != nil {
		return "", false, err
	}
	if left == "" {
		left = "undefined"
	}
	if right == "" {
		right = "undefined"
	}

	pass := false
	switch op {
	case "eq", "==":
		pass = left == right
	case "ne", "!=", "<>":
		pass = left != right
	default:
		lf, lerr := strconv.ParseFloat(left, 64)
		rf, rerr := strconv.ParseFloat(right, 64)
		if lerr != nil || rerr != nil {
			pass = false
		} else {
			switch op {
			case "<":
				pass = lf < rf
			case "<=":
				pass = lf <= rf
			case ">":
				pass = lf > rf
			case ">=":
				pass = lf >= rf
			}
		}
	}
	if !pass {
		return "", false, nil
	}

	reply, err := e.processTags(ctx, username, message, strings.TrimSpace(parts[1]), stars, botstars, step)
	return reply, true, err
}

func (e *Engine) pickWeightedReply(replies []string) string {
	type weighted struct {
		text   string
		weight int
	}
	var pool []weighted
	total := 0
	for _, r := range replies {
		w := 1
		if m := patterns.Weight.FindStringSubmatch(r); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				w = n
			}
		}
		pool = append(pool, weighted{text: r, weight: w})
		total += w
	}
	if total == 0 {
		return replies[0]
	}
	pick := int(e.randFloat64() * float64(total))
	if pick >= total {
		pick = total - 1
	}
	for _, w := range pool {
		if pick < w.weight {
			return w.text
		}
		pick -= w.weight
	}
	return pool[len(pool)-1].text
}
