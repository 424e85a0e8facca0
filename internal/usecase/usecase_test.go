package usecase

import (
	ws "stakemarket/internal/infrastructure/websocket"
)

type testEnv struct {
	hub           *ws.Hub
	conversations *fakeConversationRepo
	messages      *fakeMessageRepo
	notifications *fakeNotificationRepo
	reports       *fakeReportRepo
	directory     *fakeDirectoryRepo
	sessions      *fakeSessionRepo
	log           *callLog

	conversationUC *ConversationUseCase
	chatUC         *ChatUseCase
	notificationUC *NotificationUseCase
	reactionUC     *ReactionUseCase
	moderationUC   *ModerationUseCase
}

func newTestEnv() *testEnv {
	env := &testEnv{
		hub:           ws.NewHub(ws.NewRegistry()),
		conversations: newFakeConversationRepo(),
		messages:      newFakeMessageRepo(),
		notifications: &fakeNotificationRepo{},
		reports:       newFakeReportRepo(),
		directory:     newFakeDirectoryRepo(),
		log:           &callLog{},
	}
	env.sessions = newFakeSessionRepo(env.log)

	env.conversationUC = NewConversationUseCase(env.conversations, env.directory, env.hub)
	env.notificationUC = NewNotificationUseCase(env.notifications, env.directory, env.hub)
	env.chatUC = NewChatUseCase(env.conversationUC, env.conversations, env.messages, env.directory, env.notificationUC, env.hub)
	env.reactionUC = NewReactionUseCase(env.messages, env.hub)
	env.moderationUC = NewModerationUseCase(env.reports, env.messages, env.directory, env.sessions, env.notificationUC, env.hub)

	return env
}
