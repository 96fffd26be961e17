// Package engine implements the reply generation engine: loading and
// sorting KiveScript source, then serving concurrent Reply calls
// against the resulting immutable trigger tables. See parser for
// parsing and sorting for priority ordering; this package owns
// matching, tag expansion, and session mutation.
package engine

import (
	"math/rand"
	"sync"

	"github.com/korea/kivescript/ast"
	"github.com/korea/kivescript/config"
	"github.com/korea/kivescript/handlers"
	ilog "github.com/korea/kivescript/internal/log"
	"github.com/korea/kivescript/morpheme"
	"github.com/korea/kivescript/parser"
	"github.com/korea/kivescript/session"
	"github.com/korea/kivescript/sorting"
)

// Engine is the public interpreter type: load script source with
// LoadLines, call SortReplies once, then call Reply concurrently for
// as many users as you like.
//
// The loading/sorting phase and the reply phase are not meant to
// overlap: LoadLines and SortReplies mutate engine state in place and
// must finish before the first concurrent Reply call, exactly as
// described by the engine's concurrency contract.
type Engine struct {
	cfg          *config.Config
	parser       *parser.Parser
	preprocessor morpheme.Preprocessor
	root         *ast.Root
	sorted       *sorting.Buffer
	sessions     session.Manager
	registry     *handlers.Registry

	varsMu     sync.RWMutex
	botVars    map[string]string
	globalVars map[string]string

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New returns an Engine ready to accept LoadLines calls. sessions may
// be nil, in which case an in-memory session.Manager is created with
// cfg's configured history size. pre is the morpheme.Preprocessor
// used on "+" triggers and user messages when cfg.Morpheme is
// config.Separation; pre may be nil otherwise.
func New(cfg *config.Config, sessions session.Manager, pre morpheme.Preprocessor) *Engine {
	if sessions == nil {
		sessions = session.NewInMemory(cfg.HistorySize)
	}
	if pre == nil {
		pre = morpheme.Identity{}
	}
	return &Engine{
		cfg:          cfg,
		parser:       parser.New(cfg, pre),
		preprocessor: pre,
		sorted:       sorting.NewBuffer(),
		sessions:     sessions,
		registry:     handlers.NewRegistry(),
		botVars:      map[string]string{},
		globalVars:   map[string]string{},
	}
}

// SetRand overrides the engine's source of randomness for weighted
// reply selection and {random} tag evaluation, so tests can make
// selection deterministic.
func (e *Engine) SetRand(r *rand.Rand) {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	e.rng = r
}

func (e *Engine) randFloat64() float64 {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(1))
	}
	return e.rng.Float64()
}

// LoadLines parses lines (labeled for error reporting as label) into
// the engine's accumulated document tree. Not safe to call
// concurrently with itself, SortReplies, or Reply.
func (e *Engine) LoadLines(label string, lines []string) error {
	return e.parser.Load(label, lines)
}

// SortReplies builds the priority-ordered trigger tables from
// everything loaded so far. Must be called at least once before
// Reply, and again after any further LoadLines calls.
func (e *Engine) SortReplies() error {
	root := e.parser.Root()
	e.root = root
	e.seedDefines(root)
	e.loadObjects(root)
	return sorting.Sort(root, e.sorted, e.cfg.Depth)
}

// loadObjects registers every "> object NAME LANG" macro parsed out of
// the script with the registry, so later <call> tags can reach them.
// A macro whose LANG has no registered ObjectHandler is logged and
// left unloaded rather than failing the whole load, since a script may
// define macros for languages the host never wired a handler for.
func (e *Engine) loadObjects(root *ast.Root) {
	ce := &callEngine{eng: e, username: ""}
	for _, obj := range root.Objects {
		if err := e.registry.Load(ce, obj.Lang, obj.Name, obj.Code); err != nil {
			ilog.Logf("object %s (%s): %v", obj.Name, obj.Lang, err)
		}
	}
}

// seedDefines copies "! var" and "! global" values declared in the
// loaded script into the runtime bot/global variable maps, without
// clobbering anything already set at runtime by SetVariable/SetGlobal
// across a reload.
func (e *Engine) seedDefines(root *ast.Root) {
	e.varsMu.Lock()
	defer e.varsMu.Unlock()
	for k, v := range root.Begin.Vars {
		if _, ok := e.botVars[k]; !ok {
			e.botVars[k] = v
		}
	}
	for k, v := range root.Begin.Globals {
		if _, ok := e.globalVars[k]; !ok {
			e.globalVars[k] = v
		}
	}
}

// Config returns the engine's configuration.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// SetHandler registers an ObjectHandler for lang.
func (e *Engine) SetHandler(lang string, h handlers.ObjectHandler) {
	e.registry.SetHandler(lang, h)
}

// RemoveHandler unregisters lang's handler and purges every object
// macro that had been loaded through it.
func (e *Engine) RemoveHandler(lang string) {
	e.registry.RemoveHandler(lang)
}

// SetSubroutine registers a native callable under name, taking
// precedence over any language handler with a macro of the same
// name.
func (e *Engine) SetSubroutine(name string, fn handlers.Subroutine) {
	e.registry.SetSubroutine(name, fn)
}

// RemoveSubroutine unregisters the native callable under name.
func (e *Engine) RemoveSubroutine(name string) {
	e.registry.RemoveSubroutine(name)
}

// SetVariable sets a bot variable, read by <bot name> tags.
func (e *Engine) SetVariable(name, value string) {
	e.varsMu.Lock()
	defer e.varsMu.Unlock()
	e.botVars[name] = value
}

// GetVariable reads a bot variable, returning session.Undefined if
// unset. Object macros reach it through callEngine, which implements
// handlers.Engine.
func (e *Engine) GetVariable(name string) string {
	e.varsMu.RLock()
	defer e.varsMu.RUnlock()
	if v, ok := e.botVars[name]; ok {
		return v
	}
	return session.Undefined
}

// SetGlobal sets a global variable, read by <env name> tags.
func (e *Engine) SetGlobal(name, value string) {
	e.varsMu.Lock()
	defer e.varsMu.Unlock()
	e.globalVars[name] = value
}

// GetGlobal reads a global variable, returning session.Undefined if
// unset.
func (e *Engine) GetGlobal(name string) string {
	e.varsMu.RLock()
	defer e.varsMu.RUnlock()
	if v, ok := e.globalVars[name]; ok {
		return v
	}
	return session.Undefined
}

// SetSubstitution adds or overwrites a "sub" replacement. Call
// SortReplies again afterward so the new key takes its place in
// substitution ordering.
func (e *Engine) SetSubstitution(key, value string) {
	e.root.Begin.Subs[key] = value
}

// GetSubstitution reads a "sub" replacement.
func (e *Engine) GetSubstitution(key string) (string, bool) {
	v, ok := e.root.Begin.Subs[key]
	return v, ok
}

// SetPerson adds or overwrites a "person" replacement.
func (e *Engine) SetPerson(key, value string) {
	e.root.Begin.Persons[key] = value
}

// GetPerson reads a "person" replacement.
func (e *Engine) GetPerson(key string) (string, bool) {
	v, ok := e.root.Begin.Persons[key]
	return v, ok
}

// SetUservar sets a session variable for username.
func (e *Engine) SetUservar(username, key, value string) {
	e.sessions.Set(username, key, value)
}

// GetUservar reads a session variable for username.
func (e *Engine) GetUservar(username, key string) string {
	return e.sessions.Get(username, key)
}

// GetUservars returns every session variable for username.
func (e *Engine) GetUservars(username string) map[string]string {
	return e.sessions.GetAll(username)
}

// LastMatch returns the pattern text of the trigger username last
// matched.
func (e *Engine) LastMatch(username string) string {
	return e.sessions.GetLastMatch(username)
}

// FreezeUservars snapshots username's current variables.
func (e *Engine) FreezeUservars(username string) {
	e.sessions.Freeze(username)
}

// ThawUservars restores or discards username's frozen snapshot.
func (e *Engine) ThawUservars(username string, action session.ThawAction) {
	e.sessions.Thaw(username, action)
}

// ClearUservars drops username's entire session.
func (e *Engine) ClearUservars(username string) {
	e.sessions.Clear(username)
}

// ClearAllUservars drops every session.
func (e *Engine) ClearAllUservars() {
	e.sessions.ClearAll()
}

// callEngine adapts one Reply call's username into the handlers.Engine
// interface that object macros see. It's created fresh on the stack
// of each Reply call, which is what keeps "current user" request
// scoped without a shared mutable field: there is nothing to clear on
// exit because nothing outlives the call.
type callEngine struct {
	eng      *Engine
	username string
}

func (c *callEngine) CurrentUser() string        { return c.username }
func (c *callEngine) GetVariable(name string) string { return c.eng.GetVariable(name) }
