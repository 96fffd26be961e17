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

// Package boltstore is a bbolt-backed session.Manager: an alternate
// to the default in-memory store for deployments that want user
// variables to survive a restart. Every username gets its own key in
// a single "records" bucket, holding a JSON-encoded record with vars,
// history, last match, and a last-touched timestamp used by
// session.StartReaper.
package boltstore

import (
	"encoding/json"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/korea/kivescript/session"
)

var recordsBucket = []byte("records")

type record struct {
	Vars      map[string]string `json:"vars"`
	Input     []string          `json:"input"`
	Reply     []string          `json:"reply"`
	LastMatch string            `json:"lastMatch"`
	Frozen    *record           `json:"frozen,omitempty"`
	Touched   int64             `json:"touched"`
}

// Store is a session.Manager persisted to a bbolt file.
type Store struct {
	historySize int
	db          *bolt.DB
}

// Open opens (creating if necessary) a bbolt database at filename and
// returns a ready-to-use Store.
func Open(filename string, historySize int) (*Store, error) {
	db, err := bolt.Open(filename, 0644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(recordsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{historySize: historySize, db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func newRecord(historySize int) *record {
	r := &record{
		Vars:  map[string]string{"topic": "random"},
		Input: make([]string, historySize),
		Reply: make([]string, historySize),
	}
	for i := range r.Input {
		r.Input[i] = session.Undefined
		r.Reply[i] = session.Undefined
	}
	return r
}

func (s *Store) read(username string) *record {
	var rec *record
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(recordsBucket)
		raw := b.Get([]byte(username))
		if raw == nil {
			return nil
		}
		rec = &record{}
		return json.Unmarshal(raw, rec)
	})
	if rec == nil {
		rec = newRecord(s.historySize)
	}
	return rec
}

func (s *Store) write(username string, rec *record) {
	rec.Touched = time.Now().Unix()
	raw, err := json.Marshal(rec)
	if err != nil {
		return
	}
	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(recordsBucket)
		return b.Put([]byte(username), raw)
	})
}

func (s *Store) Init(username string) {
	s.write(username, s.read(username))
}

func (s *Store) Set(username, key, value string) {
	rec := s.read(username)
	rec.Vars[key] = value
	s.write(username, rec)
}

func (s *Store) SetMap(username string, vars map[string]string) {
	rec := s.read(username)
	for k, v := range vars {
		rec.Vars[k] = v
	}
	s.write(username, rec)
}

func (s *Store) Get(username, key string) string {
	rec := s.read(username)
	if v, ok := rec.Vars[key]; ok {
		return v
	}
	return session.Undefined
}

func (s *Store) GetAll(username string) map[string]string {
	rec := s.read(username)
	out := make(map[string]string, len(rec.Vars))
	for k, v := range rec.Vars {
		out[k] = v
	}
	return out
}

func (s *Store) AddHistory(username, input, reply string) {
	rec := s.read(username)
	copy(rec.Input[1:], rec.Input[:len(rec.Input)-1])
	copy(rec.Reply[1:], rec.Reply[:len(rec.Reply)-1])
	rec.Input[0] = input
	rec.Reply[0] = reply
	s.write(username, rec)
}

func (s *Store) GetHistory(username string) *session.History {
	rec := s.read(username)
	h := session.NewHistory(len(rec.Input))
	copy(h.Input, rec.Input)
	copy(h.Reply, rec.Reply)
	return h
}

func (s *Store) SetLastMatch(username, pattern string) {
	rec := s.read(username)
	rec.LastMatch = pattern
	s.write(username, rec)
}

func (s *Store) GetLastMatch(username string) string {
	return s.read(username).LastMatch
}

func (s *Store) Clear(username string) {
	s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(recordsBucket).Delete([]byte(username))
	})
}

func (s *Store) ClearAll() {
	s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(recordsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(recordsBucket)
		return err
	})
}

func (s *Store) Freeze(username string) {
	rec := s.read(username)
	frozenCopy := *rec
	frozenCopy.Frozen = nil
	rec.Frozen = &frozenCopy
	s.write(username, rec)
}

func (s *Store) Thaw(username string, action session.ThawAction) {
	rec := s.read(username)
	if rec.Frozen == nil {
		return
	}
	switch action {
	case session.Discard:
		rec.Frozen = nil
		s.write(username, rec)
	case session.Keep:
		frozen := *rec.Frozen
		frozen.Frozen = rec.Frozen
		s.write(username, &frozen)
	case session.Thaw:
		frozen := *rec.Frozen
		frozen.Frozen = nil
		s.write(username, &frozen)
	}
}

// TouchedSince implements session.LastTouched.
func (s *Store) TouchedSince(username string) time.Duration {
	rec := s.read(username)
	if rec.Touched == 0 {
		return 0
	}
	return time.Since(time.Unix(rec.Touched, 0))
}

// Usernames implements session.LastTouched.
func (s *Store) Usernames() []string {
	var names []string
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(recordsBucket)
		return b.ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names
}

var _ session.Manager = (*Store)(nil)
var _ session.LastTouched = (*Store)(nil)
