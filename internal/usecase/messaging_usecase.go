package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"dmbox/internal/entity"
	"dmbox/internal/repository"
)

var (
	ErrNotParticipant    = errors.New("you are not a participant of this conversation")
	ErrNotSender         = errors.New("only the sender can delete a message")
	ErrInvalidContent    = errors.New("message content must be 1-2000 characters")
	ErrInboxDisabled     = errors.New("this user is not accepting messages")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrSelfConversation  = errors.New("cannot start a conversation with yourself")
	ErrParentMismatch    = errors.New("parent message belongs to a different conversation")
	ErrEmptyReason       = errors.New("report reason is required")
)

const DefaultMessagePageSize = 50

// Alerter is the external alerting collaborator. Calls are
// fire-and-forget relative to the message send.
type Alerter interface {
	CreateAlert(ctx context.Context, recipientId, actorId, alertType string) error
}

// TxRunner executes a function as one atomic unit against the store.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type MessagingUsecase interface {
	ToggleInbox(ctx context.Context, userId string) (bool, error)
	OpenConversation(ctx context.Context, userId, otherUserId string) (entity.ConversationSummary, error)
	Send(ctx context.Context, userId, conversationId, content, parentMessageId string) (entity.Message, error)
	DeleteMessage(ctx context.Context, userId, messageId string) error
	DeleteConversation(ctx context.Context, userId, conversationId string) error
	ClearInbox(ctx context.Context, userId string) (int, error)
	ListConversations(ctx context.Context, userId string) ([]entity.ConversationSummary, error)
	ListMessages(ctx context.Context, userId, conversationId string, limit int) ([]entity.Message, error)
	MarkRead(ctx context.Context, userId, conversationId string) error
	Report(ctx context.Context, userId, reportedUserId, conversationId, messageId, reason string) (string, error)
}

type messagingUsecase struct {
	convRepo    repository.ConversationRepository
	messageRepo repository.MessageRepository
	receiptRepo repository.ReadReceiptRepository
	reportRepo  repository.ReportRepository
	userRepo    repository.UserRepository
	profileRepo repository.UserRepository // cached, profile reads only
	ledger      DeletionLedger
	limiter     RateLimiter
	alerter     Alerter
	tx          TxRunner
	now         func() time.Time
}

func NewMessagingUsecase(
	convRepo repository.ConversationRepository,
	messageRepo repository.MessageRepository,
	receiptRepo repository.ReadReceiptRepository,
	reportRepo repository.ReportRepository,
	userRepo repository.UserRepository,
	profileRepo repository.UserRepository,
	ledger DeletionLedger,
	limiter RateLimiter,
	alerter Alerter,
	tx TxRunner,
) MessagingUsecase {
	return &messagingUsecase{
		convRepo:    convRepo,
		messageRepo: messageRepo,
		receiptRepo: receiptRepo,
		reportRepo:  reportRepo,
		userRepo:    userRepo,
		profileRepo: profileRepo,
		ledger:      ledger,
		limiter:     limiter,
		alerter:     alerter,
		tx:          tx,
		now:         time.Now,
	}
}

// ToggleInbox flips the user's inbox setting. An unset value counts as
// enabled, so the first toggle always disables.
func (m *messagingUsecase) ToggleInbox(ctx context.Context, userId string) (bool, error) {
	user, err := m.userRepo.Get(ctx, userId)
	if err != nil {
		return false, err
	}

	enabled := !user.InboxOpen()
	if err := m.userRepo.SetInboxEnabled(ctx, userId, enabled); err != nil {
		return false, err
	}

	return enabled, nil
}

// OpenConversation finds or creates the conversation with the other
// user and restores visibility for both participants. Note: this is
// broader than Send, which resurrects for the recipient only. The
// asymmetry mirrors current product behavior; flagged for product
// review, do not unify without a decision.
func (m *messagingUsecase) OpenConversation(ctx context.Context, userId, otherUserId string) (entity.ConversationSummary, error) {
	if userId == otherUserId {
		return entity.ConversationSummary{}, ErrSelfConversation
	}

	other, err := m.userRepo.Get(ctx, otherUserId)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return entity.ConversationSummary{}, ErrRecipientNotFound
		}
		return entity.ConversationSummary{}, err
	}
	if !other.InboxOpen() {
		return entity.ConversationSummary{}, ErrInboxDisabled
	}

	var conversation entity.Conversation
	err = m.tx.WithTransaction(ctx, func(ctx context.Context) error {
		conversation, err = m.convRepo.GetOrCreate(ctx, userId, otherUserId, m.now())
		if err != nil {
			return err
		}
		if err := m.ledger.Unhide(ctx, conversation.Id, userId); err != nil {
			return err
		}
		return m.ledger.Unhide(ctx, conversation.Id, otherUserId)
	})
	if err != nil {
		return entity.ConversationSummary{}, err
	}

	return m.summarize(ctx, conversation, userId)
}

// Send validates, rate-limits and persists a message. The rate check,
// message insert, conversation touch and recipient resurrection commit
// as one transaction: a denied send persists nothing.
func (m *messagingUsecase) Send(ctx context.Context, userId, conversationId, content, parentMessageId string) (entity.Message, error) {
	conversation, err := m.convRepo.Get(ctx, conversationId)
	if err != nil {
		return entity.Message{}, err
	}
	if !conversation.HasParticipant(userId) {
		return entity.Message{}, ErrNotParticipant
	}

	content = strings.TrimSpace(content)
	if content == "" || utf8.RuneCountInString(content) > entity.MaxContentLength {
		return entity.Message{}, ErrInvalidContent
	}

	if parentMessageId != "" {
		parent, err := m.messageRepo.Get(ctx, parentMessageId)
		if err != nil {
			return entity.Message{}, err
		}
		if parent.ConversationId != conversationId {
			return entity.Message{}, ErrParentMismatch
		}
	}

	recipientId := conversation.OtherParticipant(userId)
	recipient, err := m.userRepo.Get(ctx, recipientId)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return entity.Message{}, ErrRecipientNotFound
		}
		return entity.Message{}, err
	}
	if !recipient.InboxOpen() {
		return entity.Message{}, ErrInboxDisabled
	}

	now := m.now()
	var saved entity.Message
	err = m.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := m.limiter.CheckAndRecord(ctx, userId, recipientId, now); err != nil {
			return err
		}

		message := entity.Message{
			ConversationId:  conversationId,
			SenderId:        userId,
			Content:         content,
			ParentMessageId: parentMessageId,
			CreatedAt:       now,
		}
		messageId, err := m.messageRepo.Create(ctx, message)
		if err != nil {
			return err
		}
		message.Id = messageId

		if err := m.convRepo.Touch(ctx, conversationId, messageId, now); err != nil {
			return err
		}

		// Resurrect for the recipient only; the sender's own hide
		// state is untouched.
		if err := m.ledger.Unhide(ctx, conversationId, recipientId); err != nil {
			return err
		}

		saved = message
		return nil
	})
	if err != nil {
		return entity.Message{}, err
	}

	// Notification failure must never roll back the send.
	go func() {
		if err := m.alerter.CreateAlert(context.Background(), recipientId, userId, entity.AlertTypeMessage); err != nil {
			log.Printf("create alert error: %v", err)
		}
	}()

	return saved, nil
}

// DeleteMessage hides the message for its sender. The hiddenFor set
// only grows; there is no un-delete.
func (m *messagingUsecase) DeleteMessage(ctx context.Context, userId, messageId string) error {
	message, err := m.messageRepo.Get(ctx, messageId)
	if err != nil {
		return err
	}
	if message.SenderId != userId {
		return ErrNotSender
	}

	return m.messageRepo.AddHiddenFor(ctx, messageId, userId)
}

func (m *messagingUsecase) DeleteConversation(ctx context.Context, userId, conversationId string) error {
	conversation, err := m.convRepo.Get(ctx, conversationId)
	if err != nil {
		return err
	}
	if !conversation.HasParticipant(userId) {
		return ErrNotParticipant
	}

	return m.tx.WithTransaction(ctx, func(ctx context.Context) error {
		_, err := m.ledger.Hide(ctx, conversationId, userId, m.now())
		return err
	})
}

func (m *messagingUsecase) ClearInbox(ctx context.Context, userId string) (int, error) {
	hidden := 0
	err := m.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		hidden, err = m.ledger.HideAllForUser(ctx, userId, m.now())
		return err
	})
	if err != nil {
		return 0, err
	}

	return hidden, nil
}

// ListConversations returns the user's visible inbox, most recent
// activity first. Rows that fail to resolve are skipped rather than
// failing the whole listing.
func (m *messagingUsecase) ListConversations(ctx context.Context, userId string) ([]entity.ConversationSummary, error) {
	conversations, err := m.convRepo.ListForUser(ctx, userId)
	if err != nil {
		return nil, err
	}

	hidden, err := m.ledger.HiddenSet(ctx, userId)
	if err != nil {
		return nil, err
	}

	summaries := make([]entity.ConversationSummary, 0, len(conversations))
	for _, conversation := range conversations {
		if _, ok := hidden[conversation.Id]; ok {
			continue
		}

		summary, err := m.summarize(ctx, conversation, userId)
		if err != nil {
			log.Printf("skipping conversation %s: %v", conversation.Id, err)
			continue
		}

		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// ListMessages returns the newest visible page, oldest first. A
// non-participant gets an empty page, not an error: the UI calls this
// opportunistically during load races.
func (m *messagingUsecase) ListMessages(ctx context.Context, userId, conversationId string, limit int) ([]entity.Message, error) {
	if limit <= 0 {
		limit = DefaultMessagePageSize
	}

	conversation, err := m.convRepo.Get(ctx, conversationId)
	if err != nil {
		return []entity.Message{}, nil
	}
	if !conversation.HasParticipant(userId) {
		return []entity.Message{}, nil
	}

	messages, err := m.messageRepo.ListVisible(ctx, conversationId, userId, limit)
	if err != nil {
		return nil, err
	}

	// Repo returns newest first; the page reads oldest first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// MarkRead upserts the read receipt. Unknown users and non-participants
// are silent no-ops since this runs during page load races.
func (m *messagingUsecase) MarkRead(ctx context.Context, userId, conversationId string) error {
	if userId == "" {
		return nil
	}
	if _, err := m.userRepo.Get(ctx, userId); err != nil {
		return nil
	}

	conversation, err := m.convRepo.Get(ctx, conversationId)
	if err != nil {
		return nil
	}
	if !conversation.HasParticipant(userId) {
		return nil
	}

	return m.receiptRepo.Upsert(ctx, conversationId, userId, m.now())
}

func (m *messagingUsecase) Report(ctx context.Context, userId, reportedUserId, conversationId, messageId, reason string) (string, error) {
	if strings.TrimSpace(reason) == "" {
		return "", ErrEmptyReason
	}

	if _, err := m.userRepo.Get(ctx, reportedUserId); err != nil {
		if err == repository.ErrUserNotFound {
			return "", ErrRecipientNotFound
		}
		return "", err
	}

	report := entity.Report{
		ReporterId:     userId,
		ReportedUserId: reportedUserId,
		ConversationId: conversationId,
		MessageId:      messageId,
		Reason:         strings.TrimSpace(reason),
	}

	return m.reportRepo.Create(ctx, report)
}

// summarize builds one inbox row: the other participant's profile, the
// latest message still visible to the viewer and the unread count.
func (m *messagingUsecase) summarize(ctx context.Context, conversation entity.Conversation, userId string) (entity.ConversationSummary, error) {
	otherId := conversation.OtherParticipant(userId)
	other, err := m.profileRepo.Get(ctx, otherId)
	if err != nil {
		return entity.ConversationSummary{}, err
	}

	summary := entity.ConversationSummary{
		Conversation: conversation,
		OtherUser:    other.Profile(),
	}

	latest, err := m.messageRepo.LatestVisible(ctx, conversation.Id, userId)
	if err == nil {
		summary.LastMessage = &latest
	} else if err != repository.ErrMessageNotFound {
		return entity.ConversationSummary{}, err
	}

	lastRead := time.Time{}
	receipt, err := m.receiptRepo.Get(ctx, conversation.Id, userId)
	if err == nil {
		lastRead = receipt.LastReadAt
	} else if err != repository.ErrReceiptNotFound {
		return entity.ConversationSummary{}, err
	}

	unread, err := m.messageRepo.CountUnread(ctx, conversation.Id, userId, lastRead)
	if err != nil {
		return entity.ConversationSummary{}, err
	}
	summary.UnreadCount = unread

	return summary, nil
}
