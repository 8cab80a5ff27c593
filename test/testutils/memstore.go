package testutils

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bayramdkmn/notepad-intern/model"
)

type txKey struct{}

type state struct {
	users     map[string]model.User
	tokens    map[string]model.Token
	blacklist map[string]model.BlacklistedToken
	resets    map[string]model.PasswordResetToken
	notes     map[string]model.Note
	tags      map[string]model.Tag
	noteTags  []model.NoteTag
	versions  map[string]model.NoteVersion
}

func newState() state {
	return state{
		users:     map[string]model.User{},
		tokens:    map[string]model.Token{},
		blacklist: map[string]model.BlacklistedToken{},
		resets:    map[string]model.PasswordResetToken{},
		notes:     map[string]model.Note{},
		tags:      map[string]model.Tag{},
		versions:  map[string]model.NoteVersion{},
	}
}

func (s state) clone() state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.tokens {
		c.tokens[k] = v
	}
	for k, v := range s.blacklist {
		c.blacklist[k] = v
	}
	for k, v := range s.resets {
		c.resets[k] = v
	}
	for k, v := range s.notes {
		c.notes[k] = v
	}
	for k, v := range s.tags {
		c.tags[k] = v
	}
	for k, v := range s.versions {
		c.versions[k] = v
	}
	c.noteTags = append([]model.NoteTag(nil), s.noteTags...)
	return c
}

// MemStore is an in-memory stand-in for the Mongo repositories. It enforces
// the same unique constraints and rolls back a failed transaction.
type MemStore struct {
	txMu sync.Mutex
	mu   sync.Mutex
	st   state

	// Fail makes the named operation (e.g. "notetags.attach") return the error.
	Fail map[string]error

	Users     *MemUsers
	Tokens    *MemTokens
	Blacklist *MemBlacklist
	Resets    *MemResets
	Notes     *MemNotes
	Tags      *MemTags
	NoteTags  *MemNoteTags
	Versions  *MemVersions
}

func NewMemStore() *MemStore {
	s := &MemStore{st: newState(), Fail: map[string]error{}}
	s.Users = &MemUsers{s}
	s.Tokens = &MemTokens{s}
	s.Blacklist = &MemBlacklist{s}
	s.Resets = &MemResets{s}
	s.Notes = &MemNotes{s}
	s.Tags = &MemTags{s}
	s.NoteTags = &MemNoteTags{s}
	s.Versions = &MemVersions{s}
	return s
}

// WithinTransaction serializes units of work and restores the previous state
// when fn fails.
func (s *MemStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	saved := s.st.clone()
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.st = saved
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *MemStore) lock(op string) (func(), error) {
	s.mu.Lock()
	if err := s.Fail[op]; err != nil {
		s.mu.Unlock()
		return nil, err
	}
	return s.mu.Unlock, nil
}

func notFound(what string) error { return fmt.Errorf("%w: %s not found", model.ErrNotFound, what) }
func conflict(what string) error { return fmt.Errorf("%w: %s already exists", model.ErrConflict, what) }

// Users

type MemUsers struct{ s *MemStore }

func (r *MemUsers) Create(ctx context.Context, user *model.User) error {
	unlock, err := r.s.lock("users.create")
	if err != nil {
		return err
	}
	defer unlock()
	for _, u := range r.s.st.users {
		if u.Email == user.Email || u.Username == user.Username || u.ID == user.ID {
			return conflict("user")
		}
	}
	r.s.st.users[user.ID] = *user
	return nil
}

func (r *MemUsers) GetByID(ctx context.Context, id string) (*model.User, error) {
	unlock, err := r.s.lock("users.get")
	if err != nil {
		return nil, err
	}
	defer unlock()
	u, ok := r.s.st.users[id]
	if !ok {
		return nil, notFound("user")
	}
	return &u, nil
}

func (r *MemUsers) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	unlock, err := r.s.lock("users.get")
	if err != nil {
		return nil, err
	}
	defer unlock()
	for _, u := range r.s.st.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, notFound("user")
}

func (r *MemUsers) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	return r.exists(func(u model.User) bool { return u.Email == email && u.ID != excludeID })
}

func (r *MemUsers) ExistsByUsername(ctx context.Context, username, excludeID string) (bool, error) {
	return r.exists(func(u model.User) bool { return u.Username == username && u.ID != excludeID })
}

func (r *MemUsers) exists(match func(model.User) bool) (bool, error) {
	unlock, err := r.s.lock("users.exists")
	if err != nil {
		return false, err
	}
	defer unlock()
	for _, u := range r.s.st.users {
		if match(u) {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemUsers) Update(ctx context.Context, user *model.User) error {
	unlock, err := r.s.lock("users.update")
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := r.s.st.users[user.ID]; !ok {
		return notFound("user")
	}
	for _, u := range r.s.st.users {
		if u.ID != user.ID && (u.Email == user.Email || u.Username == user.Username) {
			return conflict("user")
		}
	}
	r.s.st.users[user.ID] = *user
	return nil
}

// Tokens

type MemTokens struct{ s *MemStore }

func (r *MemTokens) Create(ctx context.Context, token *model.Token) error {
	unlock, err := r.s.lock("tokens.create")
	if err != nil {
		return err
	}
	defer unlock()
	for _, t := range r.s.st.tokens {
		if t.JTI == token.JTI {
			return conflict("token")
		}
	}
	r.s.st.tokens[token.ID] = *token
	return nil
}

func (r *MemTokens) GetByJTI(ctx context.Context, jti string) (*model.Token, error) {
	unlock, err := r.s.lock("tokens.get")
	if err != nil {
		return nil, err
	}
	defer unlock()
	for _, t := range r.s.st.tokens {
		if t.JTI == jti {
			t := t
			return &t, nil
		}
	}
	return nil, notFound("token")
}

func (r *MemTokens) ListByUser(ctx context.Context, userID, tokenType string) ([]*model.Token, error) {
	unlock, err := r.s.lock("tokens.list")
	if err != nil {
		return nil, err
	}
	defer unlock()
	out := []*model.Token{}
	for _, t := range r.s.st.tokens {
		if t.UserID == userID && t.TokenType == tokenType {
			t := t
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemTokens) Delete(ctx context.Context, id string) error {
	unlock, err := r.s.lock("tokens.delete")
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := r.s.st.tokens[id]; !ok {
		return notFound("token")
	}
	delete(r.s.st.tokens, id)
	return nil
}

func (r *MemTokens) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	unlock, err := r.s.lock("tokens.delete")
	if err != nil {
		return 0, err
	}
	defer unlock()
	var n int64
	for id, t := range r.s.st.tokens {
		if !t.ExpiresAt.After(now) {
			delete(r.s.st.tokens, id)
			n++
		}
	}
	return n, nil
}

// Count returns the number of live token records.
func (r *MemTokens) Count() int {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.st.tokens)
}

// Blacklist

type MemBlacklist struct{ s *MemStore }

func (r *MemBlacklist) Add(ctx context.Context, entry *model.BlacklistedToken) error {
	unlock, err := r.s.lock("blacklist.add")
	if err != nil {
		return err
	}
	defer unlock()
	for _, b := range r.s.st.blacklist {
		if b.JTI == entry.JTI || b.Token == entry.Token {
			return conflict("blacklist entry")
		}
	}
	r.s.st.blacklist[entry.ID] = *entry
	return nil
}

func (r *MemBlacklist) ExistsByJTI(ctx context.Context, jti string) (bool, error) {
	return r.exists("blacklist.exists", func(b model.BlacklistedToken) bool { return b.JTI == jti })
}

func (r *MemBlacklist) ExistsByToken(ctx context.Context, token string) (bool, error) {
	return r.exists("blacklist.exists", func(b model.BlacklistedToken) bool { return b.Token == token })
}

func (r *MemBlacklist) exists(op string, match func(model.BlacklistedToken) bool) (bool, error) {
	unlock, err := r.s.lock(op)
	if err != nil {
		return false, err
	}
	defer unlock()
	for _, b := range r.s.st.blacklist {
		if match(b) {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemBlacklist) Count() int {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.st.blacklist)
}

// Password reset tokens

type MemResets struct{ s *MemStore }

func (r *MemResets) Create(ctx context.Context, token *model.PasswordResetToken) error {
	unlock, err := r.s.lock("resets.create")
	if err != nil {
		return err
	}
	defer unlock()
	r.s.st.resets[token.ID] = *token
	return nil
}

func (r *MemResets) GetByToken(ctx context.Context, token string) (*model.PasswordResetToken, error) {
	unlock, err := r.s.lock("resets.get")
	if err != nil {
		return nil, err
	}
	defer unlock()
	for _, t := range r.s.st.resets {
		if t.Token == token {
			t := t
			return &t, nil
		}
	}
	return nil, notFound("reset token")
}

func (r *MemResets) LatestUsable(ctx context.Context, userID string, now time.Time) (*model.PasswordResetToken, error) {
	unlock, err := r.s.lock("resets.get")
	if err != nil {
		return nil, err
	}
	defer unlock()
	var best *model.PasswordResetToken
	for _, t := range r.s.st.resets {
		if t.UserID != userID || !t.Usable(now) {
			continue
		}
		if best == nil || t.CreatedAt.After(best.CreatedAt) {
			t := t
			best = &t
		}
	}
	if best == nil {
		return nil, notFound("reset token")
	}
	return best, nil
}

func (r *MemResets) MarkUsed(ctx context.Context, id string) error {
	unlock, err := r.s.lock("resets.update")
	if err != nil {
		return err
	}
	defer unlock()
	t, ok := r.s.st.resets[id]
	if !ok || t.Used {
		return notFound("reset token")
	}
	t.Used = true
	r.s.st.resets[id] = t
	return nil
}

func (r *MemResets) RecordFailedAttempt(ctx context.Context, id string, limit int) (bool, error) {
	unlock, err := r.s.lock("resets.update")
	if err != nil {
		return false, err
	}
	defer unlock()
	t, ok := r.s.st.resets[id]
	if !ok {
		return false, notFound("reset token")
	}
	t.FailedAttempts++
	if t.FailedAttempts >= limit {
		t.Used = true
	}
	r.s.st.resets[id] = t
	return t.Used, nil
}

// Notes

type MemNotes struct{ s *MemStore }

func matchNote(n model.Note, f model.NoteFilter) bool {
	if f.UserID != "" && n.UserID != f.UserID {
		return false
	}
	if len(f.IDs) > 0 && !contains(f.IDs, n.ID) {
		return false
	}
	if f.Deleted != nil && *f.Deleted != n.Deleted() {
		return false
	}
	if f.DeletedBefore != nil && (n.DeletedAt == nil || n.DeletedAt.After(*f.DeletedBefore)) {
		return false
	}
	flags := []struct {
		want *bool
		have bool
	}{
		{f.Pinned, n.IsPinned},
		{f.Archived, n.IsArchived},
		{f.Favorite, n.Favorite},
		{f.Active, n.IsActive},
		{f.Featured, n.IsFeatureNote},
	}
	for _, flag := range flags {
		if flag.want != nil && *flag.want != flag.have {
			return false
		}
	}
	return true
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func (r *MemNotes) Create(ctx context.Context, note *model.Note) error {
	unlock, err := r.s.lock("notes.create")
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := r.s.st.notes[note.ID]; ok {
		return conflict("note")
	}
	r.s.st.notes[note.ID] = *note
	return nil
}

func (r *MemNotes) GetByID(ctx context.Context, userID, id string) (*model.Note, error) {
	unlock, err := r.s.lock("notes.get")
	if err != nil {
		return nil, err
	}
	defer unlock()
	n, ok := r.s.st.notes[id]
	if !ok || n.UserID != userID {
		return nil, notFound("note")
	}
	return &n, nil
}

func (r *MemNotes) Find(ctx context.Context, f model.NoteFilter) ([]*model.Note, error) {
	unlock, err := r.s.lock("notes.find")
	if err != nil {
		return nil, err
	}
	defer unlock()
	out := []*model.Note{}
	for _, n := range r.s.st.notes {
		if matchNote(n, f) {
			n := n
			out = append(out, &n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemNotes) Count(ctx context.Context, f model.NoteFilter) (int64, error) {
	notes, err := r.Find(ctx, f)
	return int64(len(notes)), err
}

func (r *MemNotes) Update(ctx context.Context, note *model.Note) error {
	unlock, err := r.s.lock("notes.update")
	if err != nil {
		return err
	}
	defer unlock()
	existing, ok := r.s.st.notes[note.ID]
	if !ok || existing.UserID != note.UserID {
		return notFound("note")
	}
	r.s.st.notes[note.ID] = *note
	return nil
}

func (r *MemNotes) SoftDelete(ctx context.Context, ids []string, at time.Time) error {
	unlock, err := r.s.lock("notes.update")
	if err != nil {
		return err
	}
	defer unlock()
	for _, id := range ids {
		if n, ok := r.s.st.notes[id]; ok {
			deletedAt := at
			n.DeletedAt = &deletedAt
			n.UpdatedAt = at
			r.s.st.notes[id] = n
		}
	}
	return nil
}

func (r *MemNotes) Delete(ctx context.Context, ids []string) (int64, error) {
	unlock, err := r.s.lock("notes.delete")
	if err != nil {
		return 0, err
	}
	defer unlock()
	var n int64
	for _, id := range ids {
		if _, ok := r.s.st.notes[id]; ok {
			delete(r.s.st.notes, id)
			n++
		}
	}
	return n, nil
}

// Put stores a note directly, bypassing the service layer.
func (r *MemNotes) Put(note model.Note) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.st.notes[note.ID] = note
}

func (r *MemNotes) Exists(id string) bool {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.st.notes[id]
	return ok
}

// Tags

type MemTags struct{ s *MemStore }

func sameOwner(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r *MemTags) Create(ctx context.Context, tag *model.Tag) error {
	unlock, err := r.s.lock("tags.create")
	if err != nil {
		return err
	}
	defer unlock()
	for _, t := range r.s.st.tags {
		if t.ID == tag.ID || (sameOwner(t.UserID, tag.UserID) && t.Name == tag.Name) {
			return conflict("tag")
		}
	}
	r.s.st.tags[tag.ID] = *tag
	return nil
}

func (r *MemTags) GetByID(ctx context.Context, id string) (*model.Tag, error) {
	unlock, err := r.s.lock("tags.get")
	if err != nil {
		return nil, err
	}
	defer unlock()
	t, ok := r.s.st.tags[id]
	if !ok {
		return nil, notFound("tag")
	}
	return &t, nil
}

func (r *MemTags) GetByIDs(ctx context.Context, ids []string) ([]*model.Tag, error) {
	return r.find("tags.find", func(t model.Tag) bool { return contains(ids, t.ID) })
}

func (r *MemTags) GetByName(ctx context.Context, userID *string, name string) (*model.Tag, error) {
	tags, err := r.find("tags.get", func(t model.Tag) bool { return sameOwner(t.UserID, userID) && t.Name == name })
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, notFound("tag")
	}
	return tags[0], nil
}

func (r *MemTags) ListByUser(ctx context.Context, userID *string) ([]*model.Tag, error) {
	return r.find("tags.find", func(t model.Tag) bool { return sameOwner(t.UserID, userID) })
}

func (r *MemTags) Search(ctx context.Context, userID, query string) ([]*model.Tag, error) {
	q := strings.ToLower(query)
	return r.find("tags.find", func(t model.Tag) bool {
		visible := t.IsGlobal || (t.UserID != nil && *t.UserID == userID)
		return visible && strings.Contains(strings.ToLower(t.Name), q)
	})
}

func (r *MemTags) find(op string, match func(model.Tag) bool) ([]*model.Tag, error) {
	unlock, err := r.s.lock(op)
	if err != nil {
		return nil, err
	}
	defer unlock()
	out := []*model.Tag{}
	for _, t := range r.s.st.tags {
		if match(t) {
			t := t
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemTags) Update(ctx context.Context, tag *model.Tag) error {
	unlock, err := r.s.lock("tags.update")
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := r.s.st.tags[tag.ID]; !ok {
		return notFound("tag")
	}
	for _, t := range r.s.st.tags {
		if t.ID != tag.ID && sameOwner(t.UserID, tag.UserID) && t.Name == tag.Name {
			return conflict("tag")
		}
	}
	r.s.st.tags[tag.ID] = *tag
	return nil
}

func (r *MemTags) Delete(ctx context.Context, id string) error {
	unlock, err := r.s.lock("tags.delete")
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := r.s.st.tags[id]; !ok {
		return notFound("tag")
	}
	delete(r.s.st.tags, id)
	return nil
}

// Note/tag associations

type MemNoteTags struct{ s *MemStore }

func (r *MemNoteTags) Attach(ctx context.Context, noteID, tagID string, at time.Time) error {
	unlock, err := r.s.lock("notetags.attach")
	if err != nil {
		return err
	}
	defer unlock()
	for _, nt := range r.s.st.noteTags {
		if nt.NoteID == noteID && nt.TagID == tagID {
			return conflict("tag association")
		}
	}
	r.s.st.noteTags = append(r.s.st.noteTags, model.NoteTag{NoteID: noteID, TagID: tagID, CreatedAt: at})
	return nil
}

func (r *MemNoteTags) Detach(ctx context.Context, noteID, tagID string) (bool, error) {
	unlock, err := r.s.lock("notetags.detach")
	if err != nil {
		return false, err
	}
	defer unlock()
	for i, nt := range r.s.st.noteTags {
		if nt.NoteID == noteID && nt.TagID == tagID {
			r.s.st.noteTags = append(r.s.st.noteTags[:i], r.s.st.noteTags[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *MemNoteTags) TagIDs(ctx context.Context, noteIDs []string) (map[string][]string, error) {
	unlock, err := r.s.lock("notetags.find")
	if err != nil {
		return nil, err
	}
	defer unlock()
	out := make(map[string][]string, len(noteIDs))
	for _, nt := range r.s.st.noteTags {
		if contains(noteIDs, nt.NoteID) {
			out[nt.NoteID] = append(out[nt.NoteID], nt.TagID)
		}
	}
	return out, nil
}

func (r *MemNoteTags) NoteIDs(ctx context.Context, tagID string) ([]string, error) {
	unlock, err := r.s.lock("notetags.find")
	if err != nil {
		return nil, err
	}
	defer unlock()
	out := []string{}
	for _, nt := range r.s.st.noteTags {
		if nt.TagID == tagID {
			out = append(out, nt.NoteID)
		}
	}
	return out, nil
}

func (r *MemNoteTags) CountForNote(ctx context.Context, noteID string) (int64, error) {
	ids, err := r.TagIDs(ctx, []string{noteID})
	return int64(len(ids[noteID])), err
}

func (r *MemNoteTags) DeleteByTag(ctx context.Context, tagID string) error {
	return r.deleteWhere("notetags.delete", func(nt model.NoteTag) bool { return nt.TagID == tagID })
}

func (r *MemNoteTags) DeleteByNotes(ctx context.Context, noteIDs []string) error {
	return r.deleteWhere("notetags.delete", func(nt model.NoteTag) bool { return contains(noteIDs, nt.NoteID) })
}

func (r *MemNoteTags) deleteWhere(op string, match func(model.NoteTag) bool) error {
	unlock, err := r.s.lock(op)
	if err != nil {
		return err
	}
	defer unlock()
	kept := r.s.st.noteTags[:0:0]
	for _, nt := range r.s.st.noteTags {
		if !match(nt) {
			kept = append(kept, nt)
		}
	}
	r.s.st.noteTags = kept
	return nil
}

// Note versions

type MemVersions struct{ s *MemStore }

func (r *MemVersions) Create(ctx context.Context, v *model.NoteVersion) error {
	unlock, err := r.s.lock("versions.create")
	if err != nil {
		return err
	}
	defer unlock()
	for _, existing := range r.s.st.versions {
		if existing.NoteID == v.NoteID && existing.Version == v.Version {
			return conflict("note version")
		}
	}
	r.s.st.versions[v.ID] = *v
	return nil
}

func (r *MemVersions) Latest(ctx context.Context, noteID string) (int, error) {
	versions, err := r.ListByNote(ctx, noteID)
	if err != nil || len(versions) == 0 {
		return 0, err
	}
	return versions[0].Version, nil
}

func (r *MemVersions) ListByNote(ctx context.Context, noteID string) ([]*model.NoteVersion, error) {
	unlock, err := r.s.lock("versions.find")
	if err != nil {
		return nil, err
	}
	defer unlock()
	out := []*model.NoteVersion{}
	for _, v := range r.s.st.versions {
		if v.NoteID == noteID {
			v := v
			out = append(out, &v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version > out[j].Version })
	return out, nil
}

func (r *MemVersions) DeleteByNotes(ctx context.Context, noteIDs []string) error {
	unlock, err := r.s.lock("versions.delete")
	if err != nil {
		return err
	}
	defer unlock()
	for id, v := range r.s.st.versions {
		if contains(noteIDs, v.NoteID) {
			delete(r.s.st.versions, id)
		}
	}
	return nil
}
