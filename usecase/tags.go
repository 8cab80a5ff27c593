package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bayramdkmn/notepad-intern/dto"
	"github.com/bayramdkmn/notepad-intern/model"
	"github.com/bayramdkmn/notepad-intern/services"
	"github.com/bayramdkmn/notepad-intern/utils"
)

var (
	errTagNotFound = fmt.Errorf("%w: tag not found", model.ErrNotFound)
	errTagExists   = fmt.Errorf("%w: tag already exists", model.ErrConflict)
)

// TagsService manages tags and their attachment to notes. Detaching never
// deletes notes; deleting a tag deletes the notes it leaves untagged.
type TagsService struct {
	Tx        TxManager
	Tags      TagRepository
	Notes     NoteRepository
	NoteTags  NoteTagRepository
	History   NoteVersionRepository
	Suggester services.TagSuggester
	Now       func() time.Time
}

func cleanTagName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: tag name is required", model.ErrValidation)
	}
	return name, nil
}

func (s *TagsService) Create(ctx context.Context, userID, name string) (*model.Tag, error) {
	owner := userID
	return s.create(ctx, &owner, name)
}

// CreateGlobal adds a tag visible to every user.
func (s *TagsService) CreateGlobal(ctx context.Context, name string) (*model.Tag, error) {
	return s.create(ctx, nil, name)
}

func (s *TagsService) create(ctx context.Context, owner *string, name string) (*model.Tag, error) {
	name, err := cleanTagName(name)
	if err != nil {
		return nil, err
	}

	var tag *model.Tag
	err = s.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		_, err := s.Tags.GetByName(ctx, owner, name)
		if err == nil {
			return errTagExists
		}
		if !errors.Is(err, model.ErrNotFound) {
			return err
		}

		now := clock(s.Now)
		tag = &model.Tag{
			ID:        utils.NewID(),
			UserID:    owner,
			Name:      name,
			IsGlobal:  owner == nil,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.Tags.Create(ctx, tag); err != nil {
			if errors.Is(err, model.ErrConflict) {
				return errTagExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

func (s *TagsService) List(ctx context.Context, userID string) ([]*model.Tag, error) {
	return s.Tags.ListByUser(ctx, &userID)
}

func (s *TagsService) ListGlobal(ctx context.Context) ([]*model.Tag, error) {
	return s.Tags.ListByUser(ctx, nil)
}

func (s *TagsService) Search(ctx context.Context, userID, query string) ([]*model.Tag, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", model.ErrValidation)
	}
	return s.Tags.Search(ctx, userID, query)
}

// visibleTag returns a tag the user may read or attach: its own or a global one.
func (s *TagsService) visibleTag(ctx context.Context, userID, tagID string) (*model.Tag, error) {
	tag, err := s.Tags.GetByID(ctx, tagID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, errTagNotFound
	}
	if err != nil {
		return nil, err
	}
	if !tag.VisibleTo(userID) {
		return nil, errTagNotFound
	}
	return tag, nil
}

// editableTag returns a tag the principal may rename or delete: its own, or
// any global tag for admins.
func (s *TagsService) editableTag(ctx context.Context, principal dto.Principal, tagID string) (*model.Tag, error) {
	tag, err := s.visibleTag(ctx, principal.UserID, tagID)
	if err != nil {
		return nil, err
	}
	if tag.IsGlobal && principal.Role != model.RoleAdmin {
		return nil, fmt.Errorf("%w: only admins can change global tags", model.ErrForbidden)
	}
	return tag, nil
}

func (s *TagsService) Get(ctx context.Context, userID, tagID string) (*model.Tag, error) {
	return s.visibleTag(ctx, userID, tagID)
}

func (s *TagsService) Rename(ctx context.Context, principal dto.Principal, tagID, name string) (*model.Tag, error) {
	name, err := cleanTagName(name)
	if err != nil {
		return nil, err
	}

	var tag *model.Tag
	err = s.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		if tag, err = s.editableTag(ctx, principal, tagID); err != nil {
			return err
		}
		if tag.Name == name {
			return nil
		}

		other, err := s.Tags.GetByName(ctx, tag.UserID, name)
		if err == nil && other.ID != tag.ID {
			return errTagExists
		}
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			return err
		}

		tag.Name = name
		tag.UpdatedAt = clock(s.Now)
		if err := s.Tags.Update(ctx, tag); err != nil {
			if errors.Is(err, model.ErrConflict) {
				return errTagExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

// Delete removes the tag and its associations, then deletes every note that
// no longer has any tag. The deleted notes are reported.
func (s *TagsService) Delete(ctx context.Context, principal dto.Principal, tagID string) (*dto.TagDeleteResult, error) {
	var result *dto.TagDeleteResult
	err := s.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		tag, err := s.editableTag(ctx, principal, tagID)
		if err != nil {
			return err
		}

		noteIDs, err := s.NoteTags.NoteIDs(ctx, tag.ID)
		if err != nil {
			return err
		}
		if err := s.NoteTags.DeleteByTag(ctx, tag.ID); err != nil {
			return err
		}
		if err := s.Tags.Delete(ctx, tag.ID); err != nil {
			return err
		}

		var orphaned []string
		for _, id := range noteIDs {
			remaining, err := s.NoteTags.CountForNote(ctx, id)
			if err != nil {
				return err
			}
			if remaining == 0 {
				orphaned = append(orphaned, id)
			}
		}

		deleted := []dto.NoteRef{}
		if len(orphaned) > 0 {
			notes, err := s.Notes.Find(ctx, model.NoteFilter{IDs: orphaned})
			if err != nil {
				return err
			}
			for _, n := range notes {
				deleted = append(deleted, dto.NoteRef{ID: n.ID, Title: n.Title})
			}
			if err := purgeNotes(ctx, s.Notes, s.NoteTags, s.History, orphaned); err != nil {
				return err
			}
		}

		result = &dto.TagDeleteResult{Tag: tag, DeletedNotes: deleted}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *TagsService) liveNote(ctx context.Context, userID, noteID string) (*model.Note, error) {
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

// Attach links a visible tag to the caller's note. Attaching twice is a Conflict.
func (s *TagsService) Attach(ctx context.Context, userID, noteID, tagID string) error {
	return s.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.liveNote(ctx, userID, noteID); err != nil {
			return err
		}
		if _, err := s.visibleTag(ctx, userID, tagID); err != nil {
			return err
		}

		existing, err := s.NoteTags.TagIDs(ctx, []string{noteID})
		if err != nil {
			return err
		}
		for _, id := range existing[noteID] {
			if id == tagID {
				return fmt.Errorf("%w: tag is already attached to the note", model.ErrConflict)
			}
		}
		if len(existing[noteID]) >= maxTagsPerNote {
			return fmt.Errorf("%w: a note can have at most %d tags", model.ErrValidation, maxTagsPerNote)
		}

		err = s.NoteTags.Attach(ctx, noteID, tagID, clock(s.Now))
		if errors.Is(err, model.ErrConflict) {
			return fmt.Errorf("%w: tag is already attached to the note", model.ErrConflict)
		}
		return err
	})
}

// Detach unlinks a tag. The note is kept even if it ends up with no tags.
func (s *TagsService) Detach(ctx context.Context, userID, noteID, tagID string) error {
	return s.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.liveNote(ctx, userID, noteID); err != nil {
			return err
		}
		removed, err := s.NoteTags.Detach(ctx, noteID, tagID)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("%w: tag is not attached to the note", model.ErrNotFound)
		}
		return nil
	})
}

// SuggestForNote asks the suggestion provider for new tag names.
func (s *TagsService) SuggestForNote(ctx context.Context, userID, noteID string) (*dto.TagSuggestionResponse, error) {
	var (
		note     *model.Note
		existing []string
	)
	err := s.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		if note, err = s.liveNote(ctx, userID, noteID); err != nil {
			return err
		}
		ids, err := s.NoteTags.TagIDs(ctx, []string{noteID})
		if err != nil {
			return err
		}
		tags, err := s.Tags.GetByIDs(ctx, ids[noteID])
		if err != nil {
			return err
		}
		for _, tag := range tags {
			existing = append(existing, tag.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	suggestions, err := s.Suggester.SuggestTags(ctx, note.Title, note.Content, existing)
	if err != nil {
		if !errors.Is(err, model.ErrInternal) {
			err = fmt.Errorf("%w: tag suggestion failed: %v", model.ErrInternal, err)
		}
		return nil, err
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	return &dto.TagSuggestionResponse{NoteID: note.ID, Suggestions: suggestions}, nil
}
