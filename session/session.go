/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package session implements the interpreter's user session store:
// per-user variables, bounded conversation history, last-match
// tracking, and freeze/thaw snapshotting. The default implementation
// is an in-memory map with one mutex per user record, matching the
// concurrency contract that reads and writes for different users
// never contend and that a user's own record serializes its
// mutations.
package session

import (
	"sync"
	"time"

	"github.com/gorhill/cronexpr"

	ilog "github.com/korea/kivescript/internal/log"
)

// Undefined is the sentinel value returned by Get and by history
// reads for slots that were never set.
const Undefined = "undefined"

// ThawAction controls what Thaw does with a previously Freeze'd copy
// of a user's variables.
type ThawAction int

const (
	// Discard drops the frozen copy, leaving current vars alone.
	Discard ThawAction = iota
	// Keep restores the frozen vars as current, but keeps the frozen
	// copy around for a later Thaw.
	Keep
	// Thaw restores the frozen vars as current and discards the
	// frozen copy.
	Thaw
)

// History is a fixed-size ring of (input, reply) pairs, oldest
// pushed out as new pairs arrive. Every slot starts pre-seeded with
// Undefined so Input/Reply never need to special-case an empty slot.
type History struct {
	Input []string
	Reply []string
}

// NewHistory returns a History with all size slots set to Undefined.
func NewHistory(size int) *History {
	h := &History{
		Input: make([]string, size),
		Reply: make([]string, size),
	}
	for i := range h.Input {
		h.Input[i] = Undefined
		h.Reply[i] = Undefined
	}
	return h
}

// push prepends (in, reply) and drops the oldest pair.
func (h *History) push(in, reply string) {
	copy(h.Input[1:], h.Input[:len(h.Input)-1])
	copy(h.Reply[1:], h.Reply[:len(h.Reply)-1])
	h.Input[0] = in
	h.Reply[0] = reply
}

// InputAt and ReplyAt return the i-th most recent input/reply, 1-indexed as the
// trigger-template tags <input1>/<reply1> expect. Out-of-range
// indices return Undefined rather than panicking.
func (h *History) InputAt(i int) string { return h.at(h.Input, i) }
func (h *History) ReplyAt(i int) string { return h.at(h.Reply, i) }

func (h *History) at(slots []string, i int) string {
	idx := i - 1
	if idx < 0 || idx >= len(slots) {
		return Undefined
	}
	return slots[idx]
}

func (h *History) copy() *History {
	if h == nil {
		return nil
	}
	n := &History{
		Input: make([]string, len(h.Input)),
		Reply: make([]string, len(h.Reply)),
	}
	copy(n.Input, h.Input)
	copy(n.Reply, h.Reply)
	return n
}

// UserData is everything the engine tracks for one username.
type UserData struct {
	Vars      map[string]string
	History   *History
	LastMatch string
}

func newUserData(historySize int) *UserData {
	return &UserData{
		Vars:    map[string]string{"topic": "random"},
		History: NewHistory(historySize),
	}
}

func (u *UserData) copy() *UserData {
	vars := make(map[string]string, len(u.Vars))
	for k, v := range u.Vars {
		vars[k] = v
	}
	return &UserData{
		Vars:      vars,
		History:   u.History.copy(),
		LastMatch: u.LastMatch,
	}
}

// Manager is the session-store contract the engine consumes. All
// methods must be safe for concurrent use by different usernames;
// the default implementation additionally serializes access to a
// single username's record.
type Manager interface {
	Init(username string)
	Set(username, key, value string)
	SetMap(username string, vars map[string]string)
	Get(username, key string) string
	GetAll(username string) map[string]string
	AddHistory(username, input, reply string)
	GetHistory(username string) *History
	SetLastMatch(username, pattern string)
	GetLastMatch(username string) string
	Clear(username string)
	ClearAll()
	Freeze(username string)
	Thaw(username string, action ThawAction)
}

type record struct {
	mu     sync.Mutex
	data   *UserData
	frozen *UserData
}

// InMemory is the default Manager: a map of per-user records, each
// guarded by its own mutex so unrelated users never block each other.
type InMemory struct {
	historySize int

	mu      sync.RWMutex
	records map[string]*record
}

// NewInMemory returns an empty InMemory manager. historySize controls
// how many (input, reply) pairs each user's History retains.
func NewInMemory(historySize int) *InMemory {
	return &InMemory{
		historySize: historySize,
		records:     map[string]*record{},
	}
}

func (m *InMemory) rec(username string) *record {
	m.mu.RLock()
	r, ok := m.records[username]
	m.mu.RUnlock()
	if ok {
		return r
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.records[username]; ok {
		return r
	}
	r = &record{data: newUserData(m.historySize)}
	m.records[username] = r
	return r
}

func (m *InMemory) Init(username string) {
	m.rec(username)
}

func (m *InMemory) Set(username, key, value string) {
	r := m.rec(username)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data.Vars[key] = value
}

func (m *InMemory) SetMap(username string, vars map[string]string) {
	r := m.rec(username)
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range vars {
		r.data.Vars[k] = v
	}
}

func (m *InMemory) Get(username, key string) string {
	r := m.rec(username)
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.data.Vars[key]
	if !ok {
		return Undefined
	}
	return v
}

func (m *InMemory) GetAll(username string) map[string]string {
	r := m.rec(username)
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.data.Vars))
	for k, v := range r.data.Vars {
		out[k] = v
	}
	return out
}

func (m *InMemory) AddHistory(username, input, reply string) {
	r := m.rec(username)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data.History.push(input, reply)
}

func (m *InMemory) GetHistory(username string) *History {
	r := m.rec(username)
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data.History.copy()
}

func (m *InMemory) SetLastMatch(username, pattern string) {
	r := m.rec(username)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data.LastMatch = pattern
}

func (m *InMemory) GetLastMatch(username string) string {
	r := m.rec(username)
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data.LastMatch
}

func (m *InMemory) Clear(username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, username)
}

func (m *InMemory) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = map[string]*record{}
}

func (m *InMemory) Freeze(username string) {
	r := m.rec(username)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = r.data.copy()
}

func (m *InMemory) Thaw(username string, action ThawAction) {
	r := m.rec(username)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen == nil {
		return
	}
	switch action {
	case Discard:
		r.frozen = nil
	case Keep:
		r.data = r.frozen.copy()
	case Thaw:
		r.data = r.frozen
		r.frozen = nil
	}
}

// LastTouched is implemented by managers that can report how long a
// user's record has gone untouched, which is what StartReaper needs
// to decide what to prune. InMemory does not track touch times by
// default; StartReaper is written against this interface so an
// adapter (such as session/boltstore) can opt in.
type LastTouched interface {
	TouchedSince(username string) time.Duration
	Usernames() []string
}

// StartReaper starts a goroutine that periodically prunes sessions
// that have gone untouched for longer than maxAge, waking up on the
// schedule described by a cron expression (see
// github.com/gorhill/cronexpr). Closing done stops the goroutine.
func StartReaper(mgr Manager, lt LastTouched, cronExpr string, maxAge time.Duration, done <-chan struct{}) error {
	expr, err := cronexpr.Parse(cronExpr)
	if err != nil {
		return err
	}
	go func() {
		for {
			next := expr.Next(time.Now())
			wait := time.Until(next)
			if wait <= 0 {
				wait = time.Second
			}
			t := time.NewTimer(wait)
			select {
			case <-done:
				t.Stop()
				return
			case <-t.C:
			}
			for _, u := range lt.Usernames() {
				if lt.TouchedSince(u) > maxAge {
					ilog.Logf("session: reaping stale user %q", u)
					mgr.Clear(u)
				}
			}
		}
	}()
	return nil
}
