package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stakemarket/internal/domain/entity"
	ws "stakemarket/internal/infrastructure/websocket"
)

func seedReport(t *testing.T, env *testEnv, messageID string) *entity.MessageReport {
	t.Helper()
	report := &entity.MessageReport{
		MessageID:      messageID,
		ConversationID: "conv-1",
		ReportedBy:     entity.UserPrincipal("reporter"),
		Reason:         entity.ReasonSpam,
		Status:         entity.ReportPending,
		ActionTaken:    entity.ActionNone,
	}
	require.NoError(t, env.reports.Create(context.Background(), report))
	return report
}

func TestReportMessageCapturesContextAndNotifiesAdmins(t *testing.T) {
	env := newTestEnv()
	env.directory.addUser("alice", "Alice", "Buyer")
	env.directory.addUser("bob", "Bob", "Seller")
	env.directory.addAdmin("mod", "Moderator", entity.RoleSuperAdmin)

	_, err := env.chatUC.SendDirect(context.Background(), "alice", "bob", "first")
	require.NoError(t, err)
	_, err = env.chatUC.SendDirect(context.Background(), "alice", "bob", "second")
	require.NoError(t, err)
	reported, err := env.chatUC.SendDirect(context.Background(), "alice", "bob", "offensive")
	require.NoError(t, err)

	report, err := env.moderationUC.ReportMessage(context.Background(), entity.UserPrincipal("bob"), reported.ID, entity.ReasonHarassment, "over the line")
	require.NoError(t, err)

	assert.Equal(t, entity.ReportPending, report.Status)
	assert.Equal(t, entity.ActionNone, report.ActionTaken)
	require.Len(t, report.MessageContext, 3)
	assert.Equal(t, "offensive", report.MessageContext[2].Content)
	assert.Equal(t, "alice@example.com", report.MessageContext[2].Email)

	assert.Len(t, env.notifications.byRecipient("mod"), 1)
}

func TestReportMessageRejectsDuplicate(t *testing.T) {
	env := newTestEnv()
	env.directory.addUser("alice", "Alice", "Buyer")
	env.directory.addUser("bob", "Bob", "Seller")

	message, err := env.chatUC.SendDirect(context.Background(), "alice", "bob", "hello")
	require.NoError(t, err)

	_, err = env.moderationUC.ReportMessage(context.Background(), entity.UserPrincipal("bob"), message.ID, entity.ReasonSpam, "")
	require.NoError(t, err)

	_, err = env.moderationUC.ReportMessage(context.Background(), entity.UserPrincipal("bob"), message.ID, entity.ReasonSpam, "")
	assert.Error(t, err)
}

func TestReportMessageRejectsInvalidReason(t *testing.T) {
	env := newTestEnv()

	_, err := env.moderationUC.ReportMessage(context.Background(), entity.UserPrincipal("bob"), "msg-1", entity.ReportReason("rudeness"), "")
	assert.Error(t, err)
}

func TestBlockPrincipalRevokesBeforeDisconnect(t *testing.T) {
	env := newTestEnv()
	env.directory.addUser("alice", "Alice", "Buyer")
	report := seedReport(t, env, "msg-1")

	alice := entity.UserPrincipal("alice")
	env.sessions.set(alice, "token-1")
	client := connect(env.hub, "sock-a", alice, env.log)

	err := env.moderationUC.BlockPrincipal(context.Background(), "mod", report.ID, alice, entity.ActionPermanentBan, "repeat offender")
	require.NoError(t, err)

	// ordering invariant: the stored token dies before the socket does
	entries := env.log.all()
	require.Equal(t, []string{"revoke:alice", "disconnect:sock-a"}, entries)

	_, err = env.sessions.Get(context.Background(), alice)
	assert.Error(t, err)

	_, online := env.hub.Registry().Lookup("alice")
	assert.False(t, online)

	var sawLogout bool
	for _, e := range receivedEvents(client) {
		if e.Event == ws.EventLogoutUser {
			sawLogout = true
		}
	}
	assert.True(t, sawLogout, "logout-user must reach the evicted socket")

	user, err := env.directory.GetUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSuspended, user.Status)

	updated, err := env.reports.GetByID(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ReportActionTaken, updated.Status)
	assert.Equal(t, entity.ActionPermanentBan, updated.ActionTaken)
	assert.Equal(t, "mod", updated.ActionTakenBy)
}

func TestBlockPrincipalIdempotentWhenAlreadySuspended(t *testing.T) {
	env := newTestEnv()
	env.directory.addUser("alice", "Alice", "Buyer")
	env.directory.users["alice"].Status = entity.StatusSuspended
	report := seedReport(t, env, "msg-1")
	env.sessions.set(entity.UserPrincipal("alice"), "token-1")

	err := env.moderationUC.BlockPrincipal(context.Background(), "mod", report.ID, entity.UserPrincipal("alice"), entity.ActionPermanentBan, "")
	require.NoError(t, err)

	assert.Empty(t, env.log.all(), "no revoke or disconnect on an already-suspended principal")

	unchanged, err := env.reports.GetByID(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ReportPending, unchanged.Status)
}

func TestBlockPrincipalOfflineTarget(t *testing.T) {
	env := newTestEnv()
	env.directory.addUser("alice", "Alice", "Buyer")
	report := seedReport(t, env, "msg-1")
	env.sessions.set(entity.UserPrincipal("alice"), "token-1")

	err := env.moderationUC.BlockPrincipal(context.Background(), "mod", report.ID, entity.UserPrincipal("alice"), entity.ActionTempSuspension, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"revoke:alice"}, env.log.all())
}

func TestDeleteMessageNotifiesAuthorAndResolvesReport(t *testing.T) {
	env := newTestEnv()
	env.directory.addUser("alice", "Alice", "Buyer")
	env.directory.addUser("bob", "Bob", "Seller")

	message, err := env.chatUC.SendDirect(context.Background(), "alice", "bob", "bad take")
	require.NoError(t, err)

	_, err = env.moderationUC.ReportMessage(context.Background(), entity.UserPrincipal("bob"), message.ID, entity.ReasonOther, "")
	require.NoError(t, err)

	require.NoError(t, env.moderationUC.DeleteMessage(context.Background(), "mod", message.ID))

	_, err = env.messages.GetByID(context.Background(), message.ID)
	assert.Error(t, err)

	notifications := env.notifications.byRecipient("alice")
	require.NotEmpty(t, notifications)
	assert.Equal(t, "message_removed", notifications[len(notifications)-1].ActionType)

	report, err := env.reports.FindByMessageID(context.Background(), message.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ActionMessageRemoved, report.ActionTaken)
	assert.Equal(t, "mod", report.ActionTakenBy)
}

func TestRequestUnblockRoutesToSuperAdmins(t *testing.T) {
	env := newTestEnv()
	env.directory.addAdmin("mod", "Moderator", entity.RoleSuperAdmin)

	err := env.moderationUC.RequestUnblock(context.Background(), entity.UserPrincipal("alice"), "it was a misunderstanding")
	require.NoError(t, err)

	notifications := env.notifications.byRecipient("mod")
	require.Len(t, notifications, 1)
	assert.Equal(t, "unblock_request", notifications[0].ActionType)
	assert.Contains(t, notifications[0].Message, "alice")
}
