package usecase

import (
	"context"
	"time"

	"dmbox/internal/repository"
)

// DeletionLedger tracks per-user conversation hides. Hiding a
// conversation is a reversible archive; hiding a message is a permanent
// per-user redaction, so Hide pushes the user into every existing
// message's hiddenFor set and Unhide deliberately leaves those alone.
type DeletionLedger interface {
	// Hide marks the conversation hidden for the user and redacts its
	// current messages for them. Returns whether the marker was new.
	Hide(ctx context.Context, conversationId, userId string, now time.Time) (bool, error)
	// Unhide removes the conversation-level marker only.
	Unhide(ctx context.Context, conversationId, userId string) error
	// HiddenSet returns the ids of every conversation the user has
	// hidden, for filtering a listing in one lookup.
	HiddenSet(ctx context.Context, userId string) (map[string]struct{}, error)
	// HideAllForUser hides every conversation the user participates in
	// that is not hidden yet and returns the newly hidden count.
	HideAllForUser(ctx context.Context, userId string, now time.Time) (int, error)
}

type deletionLedger struct {
	markerRepo  repository.DeletionRepository
	messageRepo repository.MessageRepository
	convRepo    repository.ConversationRepository
}

func NewDeletionLedger(
	markerRepo repository.DeletionRepository,
	messageRepo repository.MessageRepository,
	convRepo repository.ConversationRepository,
) DeletionLedger {
	return &deletionLedger{
		markerRepo:  markerRepo,
		messageRepo: messageRepo,
		convRepo:    convRepo,
	}
}

func (d *deletionLedger) Hide(ctx context.Context, conversationId, userId string, now time.Time) (bool, error) {
	exists, err := d.markerRepo.Exists(ctx, conversationId, userId)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	if err := d.markerRepo.Upsert(ctx, conversationId, userId, now); err != nil {
		return false, err
	}

	if err := d.messageRepo.HideAllInConversation(ctx, conversationId, userId); err != nil {
		return false, err
	}

	return true, nil
}

func (d *deletionLedger) Unhide(ctx context.Context, conversationId, userId string) error {
	return d.markerRepo.Delete(ctx, conversationId, userId)
}

func (d *deletionLedger) HiddenSet(ctx context.Context, userId string) (map[string]struct{}, error) {
	ids, err := d.markerRepo.ListConversationIds(ctx, userId)
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

func (d *deletionLedger) HideAllForUser(ctx context.Context, userId string, now time.Time) (int, error) {
	conversations, err := d.convRepo.ListForUser(ctx, userId)
	if err != nil {
		return 0, err
	}

	hidden := 0
	for _, conversation := range conversations {
		created, err := d.Hide(ctx, conversation.Id, userId, now)
		if err != nil {
			return hidden, err
		}
		if created {
			hidden++
		}
	}

	return hidden, nil
}
