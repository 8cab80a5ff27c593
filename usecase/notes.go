package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bayramdkmn/notepad-intern/dto"
	"github.com/bayramdkmn/notepad-intern/model"
	"github.com/bayramdkmn/notepad-intern/services"
	"github.com/bayramdkmn/notepad-intern/utils"
)

const (
	maxTitleLength   = 200
	maxContentLength = 50000
	maxTagsPerNote   = 10
)

var errNoteNotFound = fmt.Errorf("%w: note not found", model.ErrNotFound)

type NotesService struct {
	Tx         TxManager
	Notes      NoteRepository
	Tags       TagRepository
	NoteTags   NoteTagRepository
	History    NoteVersionRepository
	Users      UserRepository
	Embedder   services.Embedder
	Summarizer services.Summarizer
	Now        func() time.Time
}

func validateNoteText(title, content string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: note title is required", model.ErrValidation)
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return fmt.Errorf("%w: note title exceeds maximum length", model.ErrValidation)
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: note content cannot be empty", model.ErrValidation)
	}
	if utf8.RuneCountInString(content) > maxContentLength {
		return fmt.Errorf("%w: note content exceeds maximum length", model.ErrValidation)
	}
	return nil
}

// cleanTagNames trims, drops empties and de-duplicates while keeping order.
func cleanTagNames(names []string) ([]string, error) {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	if len(out) > maxTagsPerNote {
		return nil, fmt.Errorf("%w: a note can have at most %d tags", model.ErrValidation, maxTagsPerNote)
	}
	return out, nil
}

func parsePriority(value string) (model.Priority, error) {
	if value == "" {
		return model.PriorityLow, nil
	}
	p := model.Priority(value)
	if !p.Valid() {
		return "", fmt.Errorf("%w: priority must be Low, Medium or High", model.ErrValidation)
	}
	return p, nil
}

func (s *NotesService) embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := s.Embedder.Embed(ctx, text)
	if err != nil {
		if errors.Is(err, model.ErrInternal) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: embedding failed: %v", model.ErrInternal, err)
	}
	return vec, nil
}

// getLive returns the caller's note unless it is missing or soft-deleted.
func (s *NotesService) getLive(ctx context.Context, userID, noteID string) (*model.Note, error) {
	note, err := s.Notes.GetByID(ctx, userID, noteID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, errNoteNotFound
	}
	if err != nil {
		return nil, err
	}
	if note.Deleted() {
		return nil, errNoteNotFound
	}
	return note, nil
}

// view attaches tags to notes for responses.
func (s *NotesService) view(ctx context.Context, notes []*model.Note) ([]dto.NoteResponse, error) {
	ids := make([]string, len(notes))
	for i, n := range notes {
		ids[i] = n.ID
	}
	tagIDs, err := s.NoteTags.TagIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	var all []string
	for _, list := range tagIDs {
		all = append(all, list...)
	}
	tags, err := s.Tags.GetByIDs(ctx, all)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Tag, len(tags))
	for _, tag := range tags {
		byID[tag.ID] = tag
	}

	out := make([]dto.NoteResponse, 0, len(notes))
	for _, note := range notes {
		var noteTags []*model.Tag
		for _, id := range tagIDs[note.ID] {
			if tag, ok := byID[id]; ok {
				noteTags = append(noteTags, tag)
			}
		}
		out = append(out, dto.ToNoteResponse(note, noteTags))
	}
	return out, nil
}

func (s *NotesService) viewOne(ctx context.Context, note *model.Note) (*dto.NoteResponse, error) {
	views, err := s.view(ctx, []*model.Note{note})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *NotesService) list(ctx context.Context, filter model.NoteFilter) ([]dto.NoteResponse, error) {
	var out []dto.NoteResponse
	err := s.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		notes, err := s.Notes.Find(ctx, filter)
		if err != nil {
			return err
		}
		out, err = s.view(ctx, notes)
		return err
	})
	return out, err
}

func (s *NotesService) List(ctx context.Context, userID string) ([]dto.NoteResponse, error) {
	return s.list(ctx, model.NoteFilter{UserID: userID}.Live())
}

func (s *NotesService) ListFavorites(ctx context.Context, userID string) ([]dto.NoteResponse, error) {
	return s.list(ctx, model.NoteFilter{UserID: userID, Favorite: model.Bool(true)}.Live())
}

func (s *NotesService) ListPinned(ctx context.Context, userID string) ([]dto.NoteResponse, error) {
	return s.list(ctx, model.NoteFilter{UserID: userID, Pinned: model.Bool(true)}.Live())
}

func (s *NotesService) ListArchived(ctx context.Context, userID string) ([]dto.NoteResponse, error) {
	return s.list(ctx, model.NoteFilter{UserID: userID, Archived: model.Bool(true)}.Live())
}

func (s *NotesService) ListFeatured(ctx context.Context, userID string) ([]dto.NoteResponse, error) {
	return s.list(ctx, model.NoteFilter{UserID: userID, Featured: model.Bool(true)}.Live())
}

// ListTrash returns soft-deleted notes still inside the retention window.
func (s *NotesService) ListTrash(ctx context.Context, userID string) ([]dto.NoteResponse, error) {
	return s.list(ctx, model.NoteFilter{UserID: userID, Deleted: model.Bool(true)})
}

// ListByTagName returns live notes carrying the user's tag (or a global tag)
// with that name.
func (s *NotesService) ListByTagName(ctx context.Context, userID, name string) ([]dto.NoteResponse, error) {
	var out []dto.NoteResponse
	err := s.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		tag, err := s.Tags.GetByName(ctx, &userID, name)
		if errors.Is(err, model.ErrNotFound) {
			tag, err = s.Tags.GetByName(ctx, nil, name)
		}
		if errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("%w: tag not found", model.ErrNotFound)
		}
		if err != nil {
			return err
		}

		noteIDs, err := s.NoteTags.NoteIDs(ctx, tag.ID)
		if err != nil {
			return err
		}
		out = []dto.NoteResponse{}
		if len(noteIDs) == 0 {
			return nil
		}
		notes, err := s.Notes.Find(ctx, model.NoteFilter{UserID: userID, IDs: noteIDs}.Live())
		if err != nil {
			return err
		}
		out, err = s.view(ctx, notes)
		return err
	})
	return out, err
}

func (s *NotesService) Get(ctx context.Context, userID, noteID string) (*dto.NoteResponse, error) {
	var out *dto.NoteResponse
	err := s.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		note, err := s.getLive(ctx, userID, noteID)
		if err != nil {
			return err
		}
		out, err = s.viewOne(ctx, note)
		return err
	})
	return out, err
}

// resolveTags finds the user's tags by name and creates the missing ones.
func (s *NotesService) resolveTags(ctx context.Context, userID string, names []string, now time.Time) ([]*model.Tag, error) {
	tags := make([]*model.Tag, 0, len(names))
	for _, name := range names {
		tag, err := s.Tags.GetByName(ctx, &userID, name)
		if errors.Is(err, model.ErrNotFound) {
			owner := userID
			tag = &model.Tag{ID: utils.NewID(), UserID: &owner, Name: name, CreatedAt: now, UpdatedAt: now}
			err = s.Tags.Create(ctx, tag)
		}
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func (s *NotesService) snapshot(ctx context.Context, note *model.Note, userID string) error {
	latest, err := s.History.Latest(ctx, note.ID)
	if err != nil {
		return err
	}
	return s.History.Create(ctx, &model.NoteVersion{
		ID:        utils.NewID(),
		NoteID:    note.ID,
		Version:   latest + 1,
		Title:     note.Title,
		Content:   note.Content,
		UpdatedBy: userID,
		CreatedAt: note.UpdatedAt,
	})
}

// Create embeds the content, stores the note with its tags and records
// version 1. An embedding failure aborts the whole create.
func (s *NotesService) Create(ctx context.Context, userID string, req dto.CreateNoteRequest) (*dto.NoteResponse, error) {
	if err := validateNoteText(req.Title, req.Content); err != nil {
		return nil, err
	}
	priority, err := parsePriority(req.Priority)
	if err != nil {
		return nil, err
	}
	names, err := cleanTagNames(req.Tags)
	if err != nil {
		return nil, err
	}

	embedding, err := s.embed(ctx, req.Content)
	if err != nil {
		return nil, err
	}

	var out *dto.NoteResponse
	err = s.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		now := clock(s.Now)
		note := &model.Note{
			ID:            utils.NewID(),
			UserID:        userID,
			Title:         strings.TrimSpace(req.Title),
			Content:       req.Content,
			Embedding:     embedding,
			Priority:      priority,
			IsActive:      true,
			IsFeatureNote: req.IsFeatureNote,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if req.IsFeatureNote {
			note.FeatureDate = req.FeatureDate
		}
		if err := s.Notes.Create(ctx, note); err != nil {
			return err
		}

		tags, err := s.resolveTags(ctx, userID, names, now)
		if err != nil {
			return err
		}
		for _, tag := range tags {
			if err := s.NoteTags.Attach(ctx, note.ID, tag.ID, now); err != nil {
				return err
			}
		}
		if err := s.snapshot(ctx, note, userID); err != nil {
			return err
		}

		view := dto.ToNoteResponse(note, tags)
		out = &view
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update changes the present fields, re-embeds changed content, appends
// tags and records the next version.
func (s *NotesService) Update(ctx context.Context, userID, noteID string, req dto.UpdateNoteRequest) (*dto.NoteResponse, error) {
	names, err := cleanTagNames(req.Tags)
	if err != nil {
		return nil, err
	}
	var priority model.Priority
	if req.Priority != nil {
		if priority, err = parsePriority(*req.Priority); err != nil {
			return nil, err
		}
	}

	var embedding []float32
	if req.Content != nil {
		if embedding, err = s.embed(ctx, *req.Content); err != nil {
			return nil, err
		}
	}

	var out *dto.NoteResponse
	err = s.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		note, err := s.getLive(ctx, userID, noteID)
		if err != nil {
			return err
		}

		title, content := note.Title, note.Content
		if req.Title != nil {
			title = strings.TrimSpace(*req.Title)
		}
		if req.Content != nil {
			content = *req.Content
		}
		if err := validateNoteText(title, content); err != nil {
			return err
		}
		note.Title, note.Content = title, content
		if embedding != nil {
			note.Embedding = embedding
		}
		if req.Priority != nil {
			note.Priority = priority
		}
		if req.IsFeatureNote != nil {
			note.IsFeatureNote = *req.IsFeatureNote
		}
		if req.FeatureDate != nil {
			note.FeatureDate = req.FeatureDate
		}
		if !note.IsFeatureNote {
			note.FeatureDate = nil
		}

		now := clock(s.Now)
		note.UpdatedAt = now

		existing, err := s.NoteTags.TagIDs(ctx, []string{note.ID})
		if err != nil {
			return err
		}
		attached := make(map[string]bool)
		for _, id := range existing[note.ID] {
			attached[id] = true
		}
		tags, err := s.resolveTags(ctx, userID, names, now)
		if err != nil {
			return err
		}
		for _, tag := range tags {
			if attached[tag.ID] {
				continue
			}
			if len(attached) == maxTagsPerNote {
				return fmt.Errorf("%w: a note can have at most %d tags", model.ErrValidation, maxTagsPerNote)
			}
			if err := s.NoteTags.Attach(ctx, note.ID, tag.ID, now); err != nil {
				return err
			}
			attached[tag.ID] = true
		}

		if err := s.Notes.Update(ctx, note); err != nil {
			return err
		}
		if err := s.snapshot(ctx, note, userID); err != nil {
			return err
		}
		out, err = s.viewOne(ctx, note)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// partition splits ids into the caller's notes matching filter and the rest.
func (s *NotesService) partition(ctx context.Context, userID string, ids []string, live bool) (found, missing []string, err error) {
	filter := model.NoteFilter{UserID: userID, IDs: ids}
	if live {
		filter = filter.Live()
	}
	notes, err := s.Notes.Find(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	have := make(map[string]bool, len(notes))
	for _, n := range notes {
		have[n.ID] = true
	}

	found, missing = []string{}, []string{}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if have[id] {
			found = append(found, id)
		} else {
			missing = append(missing, id)
		}
	}
	return found, missing, nil
}

func (s *NotesService) SoftDelete(ctx context.Context, userID, noteID string) (*dto.SoftDeleteResult, error) {
	result, err := s.SoftDeleteMany(ctx, userID, []string{noteID})
	if err != nil {
		return nil, err
	}
	if len(result.SoftDeletedIDs) == 0 {
		return nil, errNoteNotFound
	}
	return result, nil
}

// SoftDeleteMany marks the caller's live notes deleted; other ids are
// reported in NotFound.
func (s *NotesService) SoftDeleteMany(ctx context.Context, userID string, ids []string) (*dto.SoftDeleteResult, error) {
	var result *dto.SoftDeleteResult
	err := s.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		found, missing, err := s.partition(ctx, userID, ids, true)
		if err != nil {
			return err
		}
		if len(found) > 0 {
			if err := s.Notes.SoftDelete(ctx, found, clock(s.Now)); err != nil {
				return err
			}
		}
		result = &dto.SoftDeleteResult{SoftDeletedIDs: found, NotFound: missing}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *NotesService) Delete(ctx context.Context, userID, noteID string) error {
	result, err := s.DeleteMany(ctx, userID, []string{noteID})
	if err != nil {
		return err
	}
	if len(result.DeletedIDs) == 0 {
		return errNoteNotFound
	}
	return nil
}

// DeleteMany hard-deletes the caller's notes (live or in the trash) with
// their tag associations and versions.
func (s *NotesService) DeleteMany(ctx context.Context, userID string, ids []string) (*dto.DeleteResult, error) {
	var result *dto.DeleteResult
	err := s.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		found, missing, err := s.partition(ctx, userID, ids, false)
		if err != nil {
			return err
		}
		if err := purgeNotes(ctx, s.Notes, s.NoteTags, s.History, found); err != nil {
			return err
		}
		result = &dto.DeleteResult{DeletedIDs: found, NotFound: missing}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// purgeNotes removes notes and everything that references them.
func purgeNotes(ctx context.Context, notes NoteRepository, links NoteTagRepository, versions NoteVersionRepository, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := links.DeleteByNotes(ctx, ids); err != nil {
		return err
	}
	if err := versions.DeleteByNotes(ctx, ids); err != nil {
		return err
	}
	_, err := notes.Delete(ctx, ids)
	return err
}

func (s *NotesService) mutate(ctx context.Context, userID, noteID string, apply func(*model.Note)) (*dto.NoteResponse, error) {
	var out *dto.NoteResponse
	err := s.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		note, err := s.getLive(ctx, userID, noteID)
		if err != nil {
			return err
		}
		apply(note)
		note.UpdatedAt = clock(s.Now)
		if err := s.Notes.Update(ctx, note); err != nil {
			return err
		}
		out, err = s.viewOne(ctx, note)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *NotesService) SetActive(ctx context.Context, userID, noteID string, active bool) (*dto.NoteResponse, error) {
	return s.mutate(ctx, userID, noteID, func(n *model.Note) { n.IsActive = active })
}

func (s *NotesService) SetFavorite(ctx context.Context, userID, noteID string, favorite bool) (*dto.NoteResponse, error) {
	return s.mutate(ctx, userID, noteID, func(n *model.Note) { n.Favorite = favorite })
}

func (s *NotesService) ToggleArchived(ctx context.Context, userID, noteID string) (*dto.NoteResponse, error) {
	return s.mutate(ctx, userID, noteID, func(n *model.Note) { n.IsArchived = !n.IsArchived })
}

func (s *NotesService) TogglePinned(ctx context.Context, userID, noteID string) (*dto.NoteResponse, error) {
	return s.mutate(ctx, userID, noteID, func(n *model.Note) { n.IsPinned = !n.IsPinned })
}

// SemanticSearch ranks the caller's live notes against query. Notes without
// an embedding are skipped; having no notes at all is NotFound.
func (s *NotesService) SemanticSearch(ctx context.Context, userID, query string) (*dto.SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", model.ErrValidation)
	}

	vec, err := s.embed(ctx, query)
	if err != nil {
		return nil, err
	}

	var out *dto.SearchResponse
	err = s.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		notes, err := s.Notes.Find(ctx, model.NoteFilter{UserID: userID}.Live())
		if err != nil {
			return err
		}

		candidates := make([]services.Candidate, len(notes))
		byID := make(map[string]*model.Note, len(notes))
		for i, n := range notes {
			candidates[i] = services.Candidate{NoteID: n.ID, Embedding: n.Embedding}
			byID[n.ID] = n
		}
		ranked, err := services.Rank(vec, candidates)
		if err != nil {
			return err
		}

		hits := make([]*model.Note, len(ranked))
		for i, r := range ranked {
			hits[i] = byID[r.NoteID]
		}
		views, err := s.view(ctx, hits)
		if err != nil {
			return err
		}

		out = &dto.SearchResponse{Query: query, Results: make([]dto.ScoredNote, len(views))}
		for i, v := range views {
			out.Results[i] = dto.ScoredNote{NoteResponse: v, Similarity: ranked[i].Similarity}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *NotesService) Stats(ctx context.Context, userID string) (*model.NoteStats, error) {
	var stats *model.NoteStats
	err := s.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		user, err := s.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		stats = &model.NoteStats{Email: user.Email}

		live := model.NoteFilter{UserID: userID}.Live()
		counts := []struct {
			dst    *int64
			filter model.NoteFilter
		}{
			{&stats.All, live},
			{&stats.Pinned, withFlag(live, func(f *model.NoteFilter) { f.Pinned = model.Bool(true) })},
			{&stats.Archived, withFlag(live, func(f *model.NoteFilter) { f.Archived = model.Bool(true) })},
			{&stats.Active, withFlag(live, func(f *model.NoteFilter) { f.Active = model.Bool(true) })},
			{&stats.Favorites, withFlag(live, func(f *model.NoteFilter) { f.Favorite = model.Bool(true) })},
			{&stats.SoftDeleted, model.NoteFilter{UserID: userID, Deleted: model.Bool(true)}},
		}
		for _, c := range counts {
			if *c.dst, err = s.Notes.Count(ctx, c.filter); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func withFlag(f model.NoteFilter, set func(*model.NoteFilter)) model.NoteFilter {
	set(&f)
	return f
}

func (s *NotesService) Versions(ctx context.Context, userID, noteID string) ([]*model.NoteVersion, error) {
	var versions []*model.NoteVersion
	err := s.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.getLive(ctx, userID, noteID); err != nil {
			return err
		}
		var err error
		versions, err = s.History.ListByNote(ctx, noteID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return versions, nil
}

func (s *NotesService) Summarize(ctx context.Context, userID, noteID string) (*dto.SummaryResponse, error) {
	note, err := s.getLive(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}
	summary, err := s.Summarizer.Summarize(ctx, note.Title, note.Content)
	if err != nil {
		if !errors.Is(err, model.ErrInternal) {
			err = fmt.Errorf("%w: summary failed: %v", model.ErrInternal, err)
		}
		return nil, err
	}
	return &dto.SummaryResponse{NoteID: note.ID, Summary: summary}, nil
}
