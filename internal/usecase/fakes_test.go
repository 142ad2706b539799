package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"dmbox/internal/entity"
	"dmbox/internal/repository"
)

// In-memory stand-ins for the Mongo repositories. They double as the
// reference model the behavioral tests assert against.

type passthroughTx struct{}

func (passthroughTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type memUserRepo struct {
	users map[string]entity.User
	seq   int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]entity.User)}
}

func (r *memUserRepo) Get(ctx context.Context, userId string) (entity.User, error) {
	user, ok := r.users[userId]
	if !ok {
		return entity.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (entity.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return entity.User{}, repository.ErrUserNotFound
}

func (r *memUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

func (r *memUserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	for _, user := range r.users {
		if user.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUserRepo) Create(ctx context.Context, user entity.User) (string, error) {
	r.seq++
	user.Id = fmt.Sprintf("user-%d", r.seq)
	r.users[user.Id] = user
	return user.Id, nil
}

func (r *memUserRepo) SetInboxEnabled(ctx context.Context, userId string, enabled bool) error {
	user, ok := r.users[userId]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.InboxEnabled = &enabled
	r.users[userId] = user
	return nil
}

func (r *memUserRepo) add(id string, inboxEnabled *bool) {
	r.users[id] = entity.User{
		Id:           id,
		Username:     id,
		Name:         strings.ToUpper(id),
		InboxEnabled: inboxEnabled,
	}
}

type memConvRepo struct {
	convs map[string]entity.Conversation
	seq   int
}

func newMemConvRepo() *memConvRepo {
	return &memConvRepo{convs: make(map[string]entity.Conversation)}
}

func (r *memConvRepo) Get(ctx context.Context, conversationId string) (entity.Conversation, error) {
	conv, ok := r.convs[conversationId]
	if !ok {
		return entity.Conversation{}, repository.ErrConversationNotFound
	}
	return conv, nil
}

func (r *memConvRepo) GetOrCreate(ctx context.Context, userA, userB string, now time.Time) (entity.Conversation, error) {
	low, high := entity.CanonicalPair(userA, userB)
	for _, conv := range r.convs {
		if conv.UserLowId == low && conv.UserHighId == high {
			return conv, nil
		}
	}

	r.seq++
	conv := entity.Conversation{
		Id:             fmt.Sprintf("conv-%d", r.seq),
		UserLowId:      low,
		UserHighId:     high,
		LastActivityAt: now,
		CreatedAt:      now,
	}
	r.convs[conv.Id] = conv
	return conv, nil
}

func (r *memConvRepo) Touch(ctx context.Context, conversationId, lastMessageId string, now time.Time) error {
	conv, ok := r.convs[conversationId]
	if !ok {
		return repository.ErrConversationNotFound
	}
	conv.LastMessageId = lastMessageId
	conv.LastActivityAt = now
	r.convs[conversationId] = conv
	return nil
}

func (r *memConvRepo) ListForUser(ctx context.Context, userId string) ([]entity.Conversation, error) {
	var out []entity.Conversation
	for _, conv := range r.convs {
		if conv.HasParticipant(userId) {
			out = append(out, conv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastActivityAt.After(out[j].LastActivityAt)
	})
	return out, nil
}

type memMessageRepo struct {
	messages []entity.Message
	seq      int
}

func newMemMessageRepo() *memMessageRepo {
	return &memMessageRepo{}
}

func (r *memMessageRepo) Get(ctx context.Context, messageId string) (entity.Message, error) {
	for _, message := range r.messages {
		if message.Id == messageId {
			return message, nil
		}
	}
	return entity.Message{}, repository.ErrMessageNotFound
}

func (r *memMessageRepo) Create(ctx context.Context, message entity.Message) (string, error) {
	r.seq++
	message.Id = fmt.Sprintf("msg-%d", r.seq)
	r.messages = append(r.messages, message)
	return message.Id, nil
}

func (r *memMessageRepo) visible(conversationId, viewerId string) []entity.Message {
	var idx []int
	for i, message := range r.messages {
		if message.ConversationId == conversationId && !message.IsHiddenFor(viewerId) {
			idx = append(idx, i)
		}
	}
	// Newest first; later inserts win creation-time ties.
	sort.SliceStable(idx, func(a, b int) bool {
		mi, mj := r.messages[idx[a]], r.messages[idx[b]]
		if !mi.CreatedAt.Equal(mj.CreatedAt) {
			return mi.CreatedAt.After(mj.CreatedAt)
		}
		return idx[a] > idx[b]
	})
	out := make([]entity.Message, 0, len(idx))
	for _, i := range idx {
		out = append(out, r.messages[i])
	}
	return out
}

func (r *memMessageRepo) ListVisible(ctx context.Context, conversationId, viewerId string, limit int) ([]entity.Message, error) {
	out := r.visible(conversationId, viewerId)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memMessageRepo) LatestVisible(ctx context.Context, conversationId, viewerId string) (entity.Message, error) {
	out := r.visible(conversationId, viewerId)
	if len(out) == 0 {
		return entity.Message{}, repository.ErrMessageNotFound
	}
	return out[0], nil
}

func (r *memMessageRepo) CountUnread(ctx context.Context, conversationId, viewerId string, since time.Time) (int, error) {
	count := 0
	for _, message := range r.messages {
		if message.ConversationId != conversationId {
			continue
		}
		if message.SenderId == viewerId || message.IsHiddenFor(viewerId) {
			continue
		}
		if message.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (r *memMessageRepo) AddHiddenFor(ctx context.Context, messageId, userId string) error {
	for i, message := range r.messages {
		if message.Id != messageId {
			continue
		}
		if !message.IsHiddenFor(userId) {
			r.messages[i].HiddenFor = append(r.messages[i].HiddenFor, userId)
		}
		return nil
	}
	return repository.ErrMessageNotFound
}

func (r *memMessageRepo) HideAllInConversation(ctx context.Context, conversationId, userId string) error {
	for i, message := range r.messages {
		if message.ConversationId == conversationId && !message.IsHiddenFor(userId) {
			r.messages[i].HiddenFor = append(r.messages[i].HiddenFor, userId)
		}
	}
	return nil
}

type memDeletionRepo struct {
	markers map[string]entity.DeletionMarker
}

func newMemDeletionRepo() *memDeletionRepo {
	return &memDeletionRepo{markers: make(map[string]entity.DeletionMarker)}
}

func markerKey(conversationId, userId string) string {
	return conversationId + "|" + userId
}

func (r *memDeletionRepo) Upsert(ctx context.Context, conversationId, userId string, now time.Time) error {
	key := markerKey(conversationId, userId)
	if _, ok := r.markers[key]; ok {
		return nil
	}
	r.markers[key] = entity.DeletionMarker{
		Id:             key,
		ConversationId: conversationId,
		UserId:         userId,
		CreatedAt:      now,
	}
	return nil
}

func (r *memDeletionRepo) Delete(ctx context.Context, conversationId, userId string) error {
	delete(r.markers, markerKey(conversationId, userId))
	return nil
}

func (r *memDeletionRepo) Exists(ctx context.Context, conversationId, userId string) (bool, error) {
	_, ok := r.markers[markerKey(conversationId, userId)]
	return ok, nil
}

func (r *memDeletionRepo) ListConversationIds(ctx context.Context, userId string) ([]string, error) {
	var ids []string
	for _, marker := range r.markers {
		if marker.UserId == userId {
			ids = append(ids, marker.ConversationId)
		}
	}
	return ids, nil
}

type memReceiptRepo struct {
	receipts map[string]entity.ReadReceipt
}

func newMemReceiptRepo() *memReceiptRepo {
	return &memReceiptRepo{receipts: make(map[string]entity.ReadReceipt)}
}

func (r *memReceiptRepo) Get(ctx context.Context, conversationId, userId string) (entity.ReadReceipt, error) {
	receipt, ok := r.receipts[markerKey(conversationId, userId)]
	if !ok {
		return entity.ReadReceipt{}, repository.ErrReceiptNotFound
	}
	return receipt, nil
}

func (r *memReceiptRepo) Upsert(ctx context.Context, conversationId, userId string, at time.Time) error {
	key := markerKey(conversationId, userId)
	r.receipts[key] = entity.ReadReceipt{
		Id:             key,
		ConversationId: conversationId,
		UserId:         userId,
		LastReadAt:     at,
	}
	return nil
}

type bucketKey struct {
	userId      string
	recipientId string
	limitType   entity.LimitType
	windowStart int64
}

type memRateRepo struct {
	buckets map[bucketKey]int
}

func newMemRateRepo() *memRateRepo {
	return &memRateRepo{buckets: make(map[bucketKey]int)}
}

func (r *memRateRepo) SumSince(ctx context.Context, userId, recipientId string, limitType entity.LimitType, since time.Time) (int, error) {
	total := 0
	for key, count := range r.buckets {
		if key.userId != userId || key.limitType != limitType {
			continue
		}
		if limitType == entity.LimitHourlyPerRecipient && key.recipientId != recipientId {
			continue
		}
		if time.Unix(0, key.windowStart).Before(since) {
			continue
		}
		total += count
	}
	return total, nil
}

func (r *memRateRepo) Increment(ctx context.Context, userId, recipientId string, limitType entity.LimitType, windowStart time.Time) error {
	if limitType != entity.LimitHourlyPerRecipient {
		recipientId = ""
	}
	key := bucketKey{
		userId:      userId,
		recipientId: recipientId,
		limitType:   limitType,
		windowStart: windowStart.UnixNano(),
	}
	r.buckets[key]++
	return nil
}

type memReportRepo struct {
	reports []entity.Report
	seq     int
}

func newMemReportRepo() *memReportRepo {
	return &memReportRepo{}
}

func (r *memReportRepo) Create(ctx context.Context, report entity.Report) (string, error) {
	r.seq++
	report.Id = fmt.Sprintf("report-%d", r.seq)
	report.Status = entity.ReportStatusPending
	r.reports = append(r.reports, report)
	return report.Id, nil
}

type alertCall struct {
	recipientId string
	actorId     string
	alertType   string
}

type recordAlerter struct {
	calls chan alertCall
}

func newRecordAlerter() *recordAlerter {
	return &recordAlerter{calls: make(chan alertCall, 64)}
}

func (a *recordAlerter) CreateAlert(ctx context.Context, recipientId, actorId, alertType string) error {
	a.calls <- alertCall{recipientId: recipientId, actorId: actorId, alertType: alertType}
	return nil
}

type fixture struct {
	users    *memUserRepo
	convs    *memConvRepo
	messages *memMessageRepo
	markers  *memDeletionRepo
	receipts *memReceiptRepo
	rates    *memRateRepo
	reports  *memReportRepo
	alerter  *recordAlerter
	clock    *fakeClock
	uc       *messagingUsecase
}

func newFixture(limits RateLimits) *fixture {
	f := &fixture{
		users:    newMemUserRepo(),
		convs:    newMemConvRepo(),
		messages: newMemMessageRepo(),
		markers:  newMemDeletionRepo(),
		receipts: newMemReceiptRepo(),
		rates:    newMemRateRepo(),
		reports:  newMemReportRepo(),
		alerter:  newRecordAlerter(),
		clock:    newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
	}

	ledger := NewDeletionLedger(f.markers, f.messages, f.convs)
	limiter := NewRateLimiter(f.rates, limits)

	f.uc = &messagingUsecase{
		convRepo:    f.convs,
		messageRepo: f.messages,
		receiptRepo: f.receipts,
		reportRepo:  f.reports,
		userRepo:    f.users,
		profileRepo: f.users,
		ledger:      ledger,
		limiter:     limiter,
		alerter:     f.alerter,
		tx:          passthroughTx{},
		now:         f.clock.Now,
	}

	return f
}
