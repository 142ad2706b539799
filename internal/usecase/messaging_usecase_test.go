package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"dmbox/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(v bool) *bool {
	return &v
}

func (f *fixture) openConv(t *testing.T, userId, otherUserId string) entity.Conversation {
	t.Helper()
	summary, err := f.uc.OpenConversation(context.Background(), userId, otherUserId)
	require.NoError(t, err)
	return summary.Conversation
}

func (f *fixture) send(t *testing.T, userId, conversationId, content string) entity.Message {
	t.Helper()
	message, err := f.uc.Send(context.Background(), userId, conversationId, content, "")
	require.NoError(t, err)
	return message
}

func (f *fixture) waitAlert(t *testing.T) alertCall {
	t.Helper()
	select {
	case call := <-f.alerter.calls:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for alert")
		return alertCall{}
	}
}

func TestOpenConversationCanonicalPair(t *testing.T) {
	f := newFixture(DefaultRateLimits())
	f.users.add("alice", nil)
	f.users.add("bob", nil)

	first := f.openConv(t, "alice", "bob")
	second := f.openConv(t, "bob", "alice")

	assert.Equal(t, first.Id, second.Id)
	assert.Equal(t, "alice", first.UserLowId)
	assert.Equal(t, "bob", first.UserHighId)
	assert.Len(t, f.convs.convs, 1)
}

func TestOpenConversationRejections(t *testing.T) {
	f := newFixture(DefaultRateLimits())
	f.users.add("alice", nil)
	f.users.add("carol", boolPtr(false))

	ctx := context.Background()

	_, err := f.uc.OpenConversation(ctx, "alice", "alice")
	assert.ErrorIs(t, err, ErrSelfConversation)

	_, err = f.uc.OpenConversation(ctx, "alice", "ghost")
	assert.ErrorIs(t, err, ErrRecipientNotFound)

	_, err = f.uc.OpenConversation(ctx, "alice", "carol")
	assert.ErrorIs(t, err, ErrInboxDisabled)
}

func TestSendContentValidation(t *testing.T) {
	f := newFixture(DefaultRateLimits())
	f.users.add("alice", nil)
	f.users.add("bob", nil)
	conv := f.openConv(t, "alice", "bob")

	ctx := context.Background()

	_, err := f.uc.Send(ctx, "alice", conv.Id, "", "")
	assert.ErrorIs(t, err, ErrInvalidContent)

	_, err = f.uc.Send(ctx, "alice", conv.Id, "   \n\t  ", "")
	assert.ErrorIs(t, err, ErrInvalidContent)

	_, err = f.uc.Send(ctx, "alice", conv.Id, strings.Repeat("a", entity.MaxContentLength+1), "")
	assert.ErrorIs(t, err, ErrInvalidContent)

	// Limit is runes, not bytes.
	message, err := f.uc.Send(ctx, "alice", conv.Id, strings.Repeat("é", entity.MaxContentLength), "")
	require.NoError(t, err)
	assert.NotEmpty(t, message.Id)

	message, err = f.uc.Send(ctx, "alice", conv.Id, "  trimmed  ", "")
	require.NoError(t, err)
	assert.Equal(t, "trimmed", message.Content)
}

func TestSendNonParticipant(t *testing.T) {
	f := newFixture(DefaultRateLimits())
	f.users.add("alice", nil)
	f.users.add("bob", nil)
	f.users.add("carol", nil)
	conv := f.openConv(t, "alice", "bob")

	_, err := f.uc.Send(context.Background(), "carol", conv.Id, "hi", "")
	assert.ErrorIs(t, err, ErrNotParticipant)
	assert.Empty(t, f.messages.messages)
}

func TestSendReplyParent(t *testing.T) {
	f := newFixture(DefaultRateLimits())
	f.users.add("alice", nil)
	f.users.add("bob", nil)
	f.users.add("carol", nil)
	convAB := f.openConv(t, "alice", "bob")
	convAC := f.openConv(t, "alice", "carol")

	parent := f.send(t, "alice", convAB.Id, "original")

	ctx := context.Background()
	_, err := f.uc.Send(ctx, "alice", convAC.Id, "reply", parent.Id)
	assert.ErrorIs(t, err, ErrParentMismatch)

	reply, err := f.uc.Send(ctx, "bob", convAB.Id, "reply", parent.Id)
	require.NoError(t, err)
	assert.Equal(t, parent.Id, reply.ParentMessageId)
}

func TestSendHourlyLimit(t *testing.T) {
	f := newFixture(DefaultRateLimits())
	f.users.add("alice", nil)
	f.users.add("bob", nil)
	conv := f.openConv(t, "alice", "bob")

	for i := 0; i < DefaultHourlyLimit; i++ {
		f.send(t, "alice", conv.Id, "hello")
	}

	ctx := context.Background()
	_, err := f.uc.Send(ctx, "alice", conv.Id, "one too many", "")
	assert.ErrorIs(t, err, ErrHourlyLimitExceeded)
	assert.Len(t, f.messages.messages, DefaultHourlyLimit)

	// The replies direction has its own budget.
	_, err = f.uc.Send(ctx, "bob", conv.Id, "unaffected", "")
	assert.NoError(t, err)

	f.clock.Advance(61 * time.Minute)
	_, err = f.uc.Send(ctx, "alice", conv.Id, "window rolled over", "")
	assert.NoError(t, err)
}

func TestSendHourlyLimitIsPerRecipient(t *testing.T) {
	f := newFixture(DefaultRateLimits())
	f.users.add("alice", nil)
	f.users.add("bob", nil)
	f.users.add("carol", nil)
	convAB := f.openConv(t, "alice", "bob")
	convAC := f.openConv(t, "alice", "carol")

	for i := 0; i < DefaultHourlyLimit; i++ {
		f.send(t, "alice", convAB.Id, "to bob")
	}

	_, err := f.uc.Send(context.Background(), "alice", convAB.Id, "blocked", "")
	assert.ErrorIs(t, err, ErrHourlyLimitExceeded)

	// A different recipient is a different hourly bucket.
	f.send(t, "alice", convAC.Id, "to carol")
}

func TestSendDailyLimit(t *testing.T) {
	f := newFixture(RateLimits{HourlyPerRecipient: 1000, DailyGlobal: 5})
	f.users.add("alice", nil)
	f.users.add("bob", nil)
	f.users.add("carol", nil)
	convAB := f.openConv(t, "alice", "bob")
	convAC := f.openConv(t, "alice", "carol")

	for i := 0; i < 3; i++ {
		f.send(t, "alice", convAB.Id, "to bob")
	}
	for i := 0; i < 2; i++ {
		f.send(t, "alice", convAC.Id, "to carol")
	}

	// The daily budget counts across all recipients.
	ctx := context.Background()
	_, err := f.uc.Send(ctx, "alice", convAB.Id, "over", "")
	assert.ErrorIs(t, err, ErrDailyLimitExceeded)
	_, err = f.uc.Send(ctx, "alice", convAC.Id, "over", "")
	assert.ErrorIs(t, err, ErrDailyLimitExceeded)

	f.clock.Advance(25 * time.Hour)
	_, err = f.uc.Send(ctx, "alice", convAB.Id, "next day", "")
	assert.NoError(t, err)
}

func TestSendInboxDisabledLeavesNoState(t *testing.T) {
	f := newFixture(DefaultRateLimits())
	f.users.add("alice", nil)
	f.users.add("bob", nil)
	conv := f.openConv(t, "alice", "bob")

	ctx := context.Background()
	_, err := f.uc.ToggleInbox(ctx, "bob")
	require.NoError(t, err)

	_, err = f.uc.Send(ctx, "alice", conv.Id, "hello", "")
	assert.ErrorIs(t, err, ErrInboxDisabled)

	// A denied send must not leave a message or burn rate-limit budget.
	assert.Empty(t, f.messages.messages)
	assert.Empty(t, f.rates.buckets)
}

func TestToggleInbox(t *testing.T) {
	f := newFixture(DefaultRateLimits())
	f.users.add("alice", nil)

	ctx := context.Background()

	enabled, err := f.uc.ToggleInbox(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, enabled)

	enabled, err = f.uc.ToggleInbox(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestDeleteMessageSenderOnly(t *testing.T) {
	f := newFixture(DefaultRateLimits())
	f.users.add("alice", nil)
	f.users.add("bob", nil)
	conv := f.openConv(t, "alice", "bob")
	message := f.send(t, "alice", conv.Id, "regret this")

	ctx := context.Background()

	err := f.uc.DeleteMessage(ctx, "bob", message.Id)
	assert.ErrorIs(t, err, ErrNotSender)

	require.NoError(t, f.uc.DeleteMessage(ctx, "alice", message.Id))

	aliceView, err := f.uc.ListMessages(ctx, "alice", conv.Id, 0)
	require.NoError(t, err)
	assert.Empty(t, aliceView)

	bobView, err := f.uc.ListMessages(ctx, "bob", conv.Id, 0)
	require.NoError(t, err)
	assert.Len(t, bobView, 1)

	// Reopening the conversation restores the inbox row, never a
	// deleted message.
	f.openConv(t, "alice", "bob")
	aliceView, err = f.uc.ListMessages(ctx, "alice", conv.Id, 0)
	require.NoError(t, err)
	assert.Empty(t, aliceView)
}

func TestDeleteConversationAndSendResurrection(t *testing.T) {
	f := newFixture(DefaultRateLimits())
	f.users.add("alice", nil)
	f.users.add("bob", nil)
	conv := f.openConv(t, "alice", "bob")
	f.send(t, "alice", conv.Id, "before the delete")

	ctx := context.Background()
	require.NoError(t, f.uc.DeleteConversation(ctx, "bob", conv.Id))

	bobInbox, err := f.uc.ListConversations(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, bobInbox)

	aliceInbox, err := f.uc.ListConversations(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, aliceInbox, 1)

	// A fresh message from the other side pulls the conversation back
	// into bob's inbox, but pre-delete history stays redacted for him.
	f.clock.Advance(time.Minute)
	fresh := f.send(t, "alice", conv.Id, "after the delete")

	bobInbox, err = f.uc.ListConversations(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, bobInbox, 1)
	require.NotNil(t, bobInbox[0].LastMessage)
	assert.Equal(t, fresh.Id, bobInbox[0].LastMessage.Id)

	bobView, err := f.uc.ListMessages(ctx, "bob", conv.Id, 0)
	require.NoError(t, err)
	require.Len(t, bobView, 1)
	assert.Equal(t, fresh.Id, bobView[0].Id)

	aliceView, err := f.uc.ListMessages(ctx, "alice", conv.Id, 0)
	require.NoError(t, err)
	assert.Len(t, aliceView, 2)
}

func TestSendDoesNotResurrectSender(t *testing.T) {
	f := newFixture(DefaultRateLimits())
	f.users.add("alice", nil)
	f.users.add("bob", nil)
	conv := f.openConv(t, "alice", "bob")
	f.send(t, "alice", conv.Id, "hello")

	ctx := context.Background()
	require.NoError(t, f.uc.DeleteConversation(ctx, "alice", conv.Id))

	// Sending while your own copy is hidden is allowed and does not
	// restore your inbox row.
	f.send(t, "alice", conv.Id, "still talking")

	aliceInbox, err := f.uc.ListConversations(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, aliceInbox)

	bobView, err := f.uc.ListMessages(ctx, "bob", conv.Id, 0)
	require.NoError(t, err)
	assert.Len(t, bobView, 2)
}

func TestOpenConversationResurrectsBothSides(t *testing.T) {
	f := newFixture(DefaultRateLimits())
	f.users.add("alice", nil)
	f.users.add("bob", nil)
	conv := f.openConv(t, "alice", "bob")
	f.send(t, "alice", conv.Id, "hello")

	ctx := context.Background()
	require.NoError(t, f.uc.DeleteConversation(ctx, "alice", conv.Id))
	require.NoError(t, f.uc.DeleteConversation(ctx, "bob", conv.Id))

	f.openConv(t, "alice", "bob")

	aliceInbox, err := f.uc.ListConversations(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, aliceInbox, 1)

	bobInbox, err := f.uc.ListConversations(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, bobInbox, 1)
}

func TestUnreadCount(t *testing.T) {
	f := newFixture(DefaultRateLimits())
	f.users.add("alice", nil)
	f.users.add("bob", nil)
	conv := f.openConv(t, "alice", "bob")

	ctx := context.Background()

	for i := 0; i < 3; i++ {
		f.clock.Advance(time.Second)
		f.send(t, "alice", conv.Id, "ping")
	}

	bobInbox, err := f.uc.ListConversations(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, bobInbox, 1)
	assert.Equal(t, 3, bobInbox[0].UnreadCount)

	// Own messages never count as unread.
	aliceInbox, err := f.uc.ListConversations(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, aliceInbox[0].UnreadCount)

	f.clock.Advance(time.Second)
	require.NoError(t, f.uc.MarkRead(ctx, "bob", conv.Id))

	bobInbox, err = f.uc.ListConversations(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 0, bobInbox[0].UnreadCount)

	for i := 0; i < 2; i++ {
		f.clock.Advance(time.Second)
		f.send(t, "alice", conv.Id, "ping again")
	}

	bobInbox, err = f.uc.ListConversations(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, bobInbox[0].UnreadCount)
}

func TestUnreadCountSkipsRedactedMessages(t *testing.T) {
	f := newFixture(DefaultRateLimits())
	f.users.add("alice", nil)
	f.users.add("bob", nil)
	conv := f.openConv(t, "alice", "bob")

	ctx := context.Background()

	f.clock.Advance(time.Second)
	f.send(t, "alice", conv.Id, "old")
	require.NoError(t, f.uc.DeleteConversation(ctx, "bob", conv.Id))

	f.clock.Advance(time.Second)
	f.send(t, "alice", conv.Id, "new")

	bobInbox, err := f.uc.ListConversations(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, bobInbox, 1)
	assert.Equal(t, 1, bobInbox[0].UnreadCount)
}

func TestClearInboxIdempotent(t *testing.T) {
	f := newFixture(DefaultRateLimits())
	f.users.add("alice", nil)
	f.users.add("bob", nil)
	f.users.add("carol", nil)
	convAB := f.openConv(t, "alice", "bob")
	convAC := f.openConv(t, "alice", "carol")
	f.send(t, "alice", convAB.Id, "one")
	f.send(t, "alice", convAC.Id, "two")

	ctx := context.Background()

	hidden, err := f.uc.ClearInbox(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, hidden)

	aliceInbox, err := f.uc.ListConversations(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, aliceInbox)

	hidden, err = f.uc.ClearInbox(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, hidden)

	// The other participants keep their copies.
	bobInbox, err := f.uc.ListConversations(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, bobInbox, 1)
}

func TestListMessagesOrderAndLimit(t *testing.T) {
	f := newFixture(DefaultRateLimits())
	f.users.add("alice", nil)
	f.users.add("bob", nil)
	conv := f.openConv(t, "alice", "bob")

	contents := []string{"one", "two", "three", "four", "five"}
	for _, content := range contents {
		f.clock.Advance(time.Second)
		f.send(t, "alice", conv.Id, content)
	}

	ctx := context.Background()

	all, err := f.uc.ListMessages(ctx, "bob", conv.Id, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i, message := range all {
		assert.Equal(t, contents[i], message.Content)
	}

	// A limited page takes the newest messages, still oldest first.
	page, err := f.uc.ListMessages(ctx, "bob", conv.Id, 3)
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, "three", page[0].Content)
	assert.Equal(t, "five", page[2].Content)
}

func TestListMessagesTolerantReads(t *testing.T) {
	f := newFixture(DefaultRateLimits())
	f.users.add("alice", nil)
	f.users.add("bob", nil)
	f.users.add("carol", nil)
	conv := f.openConv(t, "alice", "bob")
	f.send(t, "alice", conv.Id, "private")

	ctx := context.Background()

	outsider, err := f.uc.ListMessages(ctx, "carol", conv.Id, 0)
	require.NoError(t, err)
	assert.Empty(t, outsider)

	missing, err := f.uc.ListMessages(ctx, "alice", "no-such-conversation", 0)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestMarkReadNoops(t *testing.T) {
	f := newFixture(DefaultRateLimits())
	f.users.add("alice", nil)
	f.users.add("bob", nil)
	f.users.add("carol", nil)
	conv := f.openConv(t, "alice", "bob")

	ctx := context.Background()

	assert.NoError(t, f.uc.MarkRead(ctx, "ghost", conv.Id))
	assert.NoError(t, f.uc.MarkRead(ctx, "alice", "no-such-conversation"))
	assert.NoError(t, f.uc.MarkRead(ctx, "carol", conv.Id))
	assert.Empty(t, f.receipts.receipts)
}

func TestReport(t *testing.T) {
	f := newFixture(DefaultRateLimits())
	f.users.add("alice", nil)
	f.users.add("bob", nil)
	conv := f.openConv(t, "alice", "bob")
	message := f.send(t, "bob", conv.Id, "rude")

	ctx := context.Background()

	_, err := f.uc.Report(ctx, "alice", "bob", conv.Id, message.Id, "   ")
	assert.ErrorIs(t, err, ErrEmptyReason)

	_, err = f.uc.Report(ctx, "alice", "ghost", conv.Id, message.Id, "spam")
	assert.ErrorIs(t, err, ErrRecipientNotFound)

	reportId, err := f.uc.Report(ctx, "alice", "bob", conv.Id, message.Id, "  harassment  ")
	require.NoError(t, err)
	assert.NotEmpty(t, reportId)

	require.Len(t, f.reports.reports, 1)
	report := f.reports.reports[0]
	assert.Equal(t, "alice", report.ReporterId)
	assert.Equal(t, "bob", report.ReportedUserId)
	assert.Equal(t, "harassment", report.Reason)
	assert.Equal(t, entity.ReportStatusPending, report.Status)
}

func TestListConversationsOrder(t *testing.T) {
	f := newFixture(DefaultRateLimits())
	f.users.add("alice", nil)
	f.users.add("bob", nil)
	f.users.add("carol", nil)
	convAB := f.openConv(t, "alice", "bob")
	convAC := f.openConv(t, "alice", "carol")

	f.clock.Advance(time.Second)
	f.send(t, "alice", convAB.Id, "first")
	f.clock.Advance(time.Second)
	f.send(t, "alice", convAC.Id, "second")

	inbox, err := f.uc.ListConversations(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	assert.Equal(t, convAC.Id, inbox[0].Conversation.Id)
	assert.Equal(t, convAB.Id, inbox[1].Conversation.Id)
	assert.Equal(t, "carol", inbox[0].OtherUser.Id)
}

func TestSendEmitsAlert(t *testing.T) {
	f := newFixture(DefaultRateLimits())
	f.users.add("alice", nil)
	f.users.add("bob", nil)
	conv := f.openConv(t, "alice", "bob")

	f.send(t, "alice", conv.Id, "hello")

	call := f.waitAlert(t)
	assert.Equal(t, "bob", call.recipientId)
	assert.Equal(t, "alice", call.actorId)
	assert.Equal(t, entity.AlertTypeMessage, call.alertType)
}
