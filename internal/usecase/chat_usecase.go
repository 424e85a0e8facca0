package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"stakemarket/internal/domain/entity"
	"stakemarket/internal/domain/repository"
	"stakemarket/internal/infrastructure/websocket"
	"stakemarket/pkg/errors"
	"stakemarket/pkg/logger"
)

// ChatUseCase persists messages, computes receiver sets, broadcasts, and
// drives read receipts and unread queries. Persistence is awaited before any
// broadcast so a failed write never produces a ghost message on screen.
type ChatUseCase struct {
	resolver      *ConversationUseCase
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	directory     repository.DirectoryRepository
	notifier      *NotificationUseCase
	hub           *websocket.Hub
}

func NewChatUseCase(
	resolver *ConversationUseCase,
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	directory repository.DirectoryRepository,
	notifier *NotificationUseCase,
	hub *websocket.Hub,
) *ChatUseCase {
	return &ChatUseCase{
		resolver:      resolver,
		conversations: conversations,
		messages:      messages,
		directory:     directory,
		notifier:      notifier,
		hub:           hub,
	}
}

// GroupMessageInput is one community or stake message as submitted over the
// socket.
type GroupMessageInput struct {
	Kind           entity.ConversationKind
	ProductName    string
	ProductID      string
	ProductOwnerID string
	Author         entity.Principal
	Content        string
	Poll           *entity.Poll
}

// MessageView is a message hydrated with author display fields for client
// rendering.
type MessageView struct {
	*entity.Message
	AuthorDetail *ParticipantDetail `json:"authorDetail,omitempty"`
}

type ParticipantDetail struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	Type           string `json:"type,omitempty"`
}

// ConversationView is a conversation hydrated with participant display
// details and the latest message for list rendering.
type ConversationView struct {
	*entity.Conversation
	ParticipantDetails []*ParticipantDetail `json:"participantDetails"`
	LastMessage        *entity.Message      `json:"lastMessage,omitempty"`
}

// DirectHistoryPayload is the direct-chat-history frame: the hydrated
// message plus the conversation membership the client threads it under.
type DirectHistoryPayload struct {
	Message        *MessageView       `json:"message"`
	Participants   []entity.Principal `json:"participants"`
	ConversationID string             `json:"conversationId"`
}

// GroupHistoryPayload is the com-message-history frame.
type GroupHistoryPayload struct {
	ChannelName    string             `json:"channelName"`
	Message        *MessageView       `json:"message"`
	Participants   []entity.Principal `json:"participants"`
	ConversationID string             `json:"conversationId"`
}

// SendDirect resolves the 1:1 conversation, persists the message addressed
// to the receiver, pushes it to both live sockets and notifies the receiver
// unless they are actively chatting with the author.
func (uc *ChatUseCase) SendDirect(ctx context.Context, authorID, receiverID, content string) (*entity.Message, error) {
	if content == "" {
		return nil, errors.BadRequest("Message content is required", nil)
	}
	if authorID == receiverID {
		return nil, errors.BadRequest("Cannot message yourself", nil)
	}

	author := entity.UserPrincipal(authorID)
	receiver := entity.UserPrincipal(receiverID)

	conv, err := uc.resolver.ResolveDirect(ctx, author, receiver)
	if err != nil {
		return nil, err
	}

	message := &entity.Message{
		ConversationID: conv.ID,
		Author:         author,
		Type:           entity.MessageDirect,
		Content:        content,
		Receiver:       &receiver,
	}
	if err := uc.messages.Create(ctx, message); err != nil {
		return nil, err
	}
	uc.appendToConversation(ctx, conv.ID, message.ID)

	// Keep both live sockets in the conversation room so seen receipts can
	// fan out by room even for conversations created mid-session.
	uc.joinLiveSocket(authorID, conv.ID)
	uc.joinLiveSocket(receiverID, conv.ID)

	payload := DirectHistoryPayload{
		Message:        uc.hydrate(ctx, message),
		Participants:   conv.Participants,
		ConversationID: conv.ID,
	}
	uc.hub.EmitToPrincipal(receiverID, websocket.EventDirectChatHistory, payload)
	uc.hub.EmitToPrincipal(authorID, websocket.EventDirectChatHistory, payload)

	if partner, ok := uc.hub.ChatPartner(receiverID); !ok || partner != authorID {
		uc.notifyDirect(ctx, author, receiver, content)
	}

	return message, nil
}

// SendGroup resolves the community/stake conversation, snapshots the
// receiver set from the current participants, broadcasts to the channel room
// and notifies every receiver who does not have the group open.
func (uc *ChatUseCase) SendGroup(ctx context.Context, input GroupMessageInput) (*entity.Message, error) {
	if input.Content == "" && input.Poll == nil {
		return nil, errors.BadRequest("Message content is required", nil)
	}
	if !input.Kind.Valid() || input.Kind == entity.ConversationDirect {
		return nil, errors.BadRequest("Invalid conversation type", nil)
	}

	owner := entity.UserPrincipal(input.ProductOwnerID)
	conv, err := uc.resolver.ResolveGroup(ctx, input.Kind, input.ProductName, input.ProductID, owner, input.Author)
	if err != nil {
		return nil, err
	}

	if input.Poll != nil {
		for i := range input.Poll.Options {
			if input.Poll.Options[i].ID == "" {
				input.Poll.Options[i].ID = uuid.New().String()
			}
		}
	}

	message := &entity.Message{
		ConversationID: conv.ID,
		Author:         input.Author,
		Type:           conv.Kind.MessageType(),
		Content:        input.Content,
		Receivers:      conv.ReceiversExcept(input.Author.ID),
		Poll:           input.Poll,
		IsPoll:         input.Poll != nil,
	}
	if err := uc.messages.Create(ctx, message); err != nil {
		return nil, err
	}
	uc.appendToConversation(ctx, conv.ID, message.ID)

	uc.joinLiveSocket(input.Author.ID, conv.ID)
	uc.hub.EmitToRoom(conv.ID, websocket.EventComMessageHistory, GroupHistoryPayload{
		ChannelName:    conv.ChannelKey,
		Message:        uc.hydrate(ctx, message),
		Participants:   conv.Participants,
		ConversationID: conv.ID,
	})

	var absent []entity.Principal
	for _, r := range message.Receivers {
		if !uc.hub.InGroup(conv.ID, r.ID) {
			absent = append(absent, r)
		}
	}
	if len(absent) > 0 {
		body := fmt.Sprintf("New message in %s", conv.ProductName)
		if message.IsPoll {
			body = fmt.Sprintf("A poll was created in %s", conv.ProductName)
		}
		template := entity.NotificationTemplate{
			ActionType: "group_message",
			Title:      entity.TitleForConversation(conv.Kind),
			Variants: map[entity.RecipientCategory]string{
				entity.CategoryBuyer:  body,
				entity.CategorySeller: body,
				entity.CategoryAdmin:  body,
			},
		}
		if err := uc.notifier.Notify(ctx, absent, template, nil); err != nil {
			logger.Error("Group message fan-out failed for %s: %v", conv.ID, err)
		}
	}

	return message, nil
}

// MarkSeen stamps a single message read and pushes the updated read state to
// the conversation room. Re-marking an already-read message is a no-op write.
func (uc *ChatUseCase) MarkSeen(ctx context.Context, messageID string, reader entity.Principal) (*entity.Message, error) {
	message, err := uc.messages.Mutate(ctx, messageID, func(m *entity.Message) error {
		m.MarkReadBy(reader)
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.hub.EmitToRoom(message.ConversationID, websocket.EventSeenMessage, uc.hydrate(ctx, message))
	return message, nil
}

// UnreadSummary collapses the principal's unread state to one boolean per
// conversation kind.
func (uc *ChatUseCase) UnreadSummary(ctx context.Context, principalID string) (map[entity.ConversationKind]bool, error) {
	summary := map[entity.ConversationKind]bool{
		entity.ConversationDirect:    false,
		entity.ConversationCommunity: false,
		entity.ConversationStake:     false,
	}

	conversations, err := uc.conversations.ListAllByParticipant(ctx, principalID)
	if err != nil {
		return nil, err
	}

	for _, conv := range conversations {
		if summary[conv.Kind] {
			continue
		}
		unread, err := uc.messages.HasUnread(ctx, conv.ID, conv.Kind.MessageType(), principalID)
		if err != nil {
			return nil, err
		}
		summary[conv.Kind] = unread
	}

	return summary, nil
}

// DirectHistory pages the 1:1 history for the caller, resolving the
// conversation from the pair when no id is given. Fetching history marks the
// messages addressed to the caller as read.
func (uc *ChatUseCase) DirectHistory(ctx context.Context, caller entity.Principal, receiverID, conversationID string, limit, offset int) ([]*MessageView, int64, *entity.Conversation, error) {
	var conv *entity.Conversation
	var err error
	if conversationID != "" {
		conv, err = uc.conversations.GetByID(ctx, conversationID)
	} else {
		conv, err = uc.resolver.ResolveDirect(ctx, caller, entity.UserPrincipal(receiverID))
	}
	if err != nil {
		return nil, 0, nil, err
	}
	if !conv.HasParticipant(caller.ID) {
		return nil, 0, nil, errors.Forbidden("Not a participant of this conversation", nil)
	}

	if err := uc.messages.MarkConversationRead(ctx, conv.ID, entity.MessageDirect, caller); err != nil {
		logger.Warn("Failed to mark conversation %s read: %v", conv.ID, err)
	}

	messages, total, err := uc.messages.ListByConversation(ctx, conv.ID, entity.MessageDirect, limit, offset)
	if err != nil {
		return nil, 0, nil, err
	}

	return uc.present(ctx, messages), total, conv, nil
}

// GroupHistory pages a community/stake history by channel key. Group
// histories are readable without membership; only participants get the
// read-mark side effect.
func (uc *ChatUseCase) GroupHistory(ctx context.Context, caller entity.Principal, channelKey string, kind entity.ConversationKind, limit, offset int) ([]*MessageView, int64, *entity.Conversation, error) {
	conv, err := uc.conversations.GetByChannelKey(ctx, channelKey, kind)
	if err != nil {
		return nil, 0, nil, err
	}

	if conv.HasParticipant(caller.ID) {
		if err := uc.messages.MarkConversationRead(ctx, conv.ID, kind.MessageType(), caller); err != nil {
			logger.Warn("Failed to mark conversation %s read: %v", conv.ID, err)
		}
	}

	messages, total, err := uc.messages.ListByConversation(ctx, conv.ID, kind.MessageType(), limit, offset)
	if err != nil {
		return nil, 0, nil, err
	}

	return uc.present(ctx, messages), total, conv, nil
}

// ConversationList pages the caller's conversations of one kind with
// display hydration.
func (uc *ChatUseCase) ConversationList(ctx context.Context, caller entity.Principal, kind entity.ConversationKind, limit, offset int) ([]*ConversationView, int64, error) {
	conversations, total, err := uc.conversations.ListByParticipant(ctx, caller.ID, kind, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	cache := make(map[string]*ParticipantDetail)
	views := make([]*ConversationView, 0, len(conversations))
	for _, conv := range conversations {
		view := &ConversationView{Conversation: conv}
		for _, p := range conv.Participants {
			if detail := uc.participantDetail(ctx, cache, p); detail != nil {
				view.ParticipantDetails = append(view.ParticipantDetails, detail)
			}
		}
		if latest, _, err := uc.messages.ListByConversation(ctx, conv.ID, conv.Kind.MessageType(), 1, 0); err == nil && len(latest) > 0 {
			hideAnonymousVoters(latest[0])
			view.LastMessage = latest[0]
		}
		views = append(views, view)
	}

	return views, total, nil
}

// present reverses the newest-first page into display order, hydrates author
// details and hides anonymous poll voters.
func (uc *ChatUseCase) present(ctx context.Context, messages []*entity.Message) []*MessageView {
	cache := make(map[string]*ParticipantDetail)

	views := make([]*MessageView, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		m := messages[i]
		hideAnonymousVoters(m)
		views = append(views, &MessageView{
			Message:      m,
			AuthorDetail: uc.participantDetail(ctx, cache, m.Author),
		})
	}
	return views
}

// hydrate resolves author display fields onto a single message before it
// goes out over the socket, so clients never render a bare principal ref.
func (uc *ChatUseCase) hydrate(ctx context.Context, m *entity.Message) *MessageView {
	cache := make(map[string]*ParticipantDetail)
	return &MessageView{Message: m, AuthorDetail: uc.participantDetail(ctx, cache, m.Author)}
}

func (uc *ChatUseCase) participantDetail(ctx context.Context, cache map[string]*ParticipantDetail, p entity.Principal) *ParticipantDetail {
	if detail, ok := cache[p.ID]; ok {
		return detail
	}

	var detail *ParticipantDetail
	if p.Kind == entity.PrincipalAdmin {
		if admin, err := uc.directory.GetAdmin(ctx, p.ID); err == nil {
			detail = &ParticipantDetail{ID: admin.ID, Name: admin.FullName, ProfilePicture: admin.ProfilePicture, Type: "Admin"}
		}
	} else {
		if user, err := uc.directory.GetUser(ctx, p.ID); err == nil {
			detail = &ParticipantDetail{ID: user.ID, Name: user.FullName, ProfilePicture: user.ProfilePicture, Type: user.Type}
		}
	}

	cache[p.ID] = detail
	return detail
}

// hideAnonymousVoters strips voter identity from poll entries cast
// anonymously before the message leaves the service.
func hideAnonymousVoters(m *entity.Message) {
	if m.Poll == nil {
		return
	}
	for i := range m.Poll.Options {
		for j := range m.Poll.Options[i].Voters {
			if m.Poll.Options[i].Voters[j].IsAnonymous {
				m.Poll.Options[i].Voters[j].ID = "anonymous"
			}
		}
	}
}

func (uc *ChatUseCase) notifyDirect(ctx context.Context, author, receiver entity.Principal, content string) {
	text := fmt.Sprintf("You have a new personal message: %s", content)
	if user, err := uc.directory.GetUser(ctx, author.ID); err == nil {
		text = fmt.Sprintf("New message from %s: %s", user.FullName, content)
	}

	template := entity.NotificationTemplate{
		ActionType: "direct_message",
		Title:      entity.TitleForConversation(entity.ConversationDirect),
		Variants: map[entity.RecipientCategory]string{
			entity.CategoryBuyer:  text,
			entity.CategorySeller: text,
			entity.CategoryAdmin:  text,
		},
	}
	if err := uc.notifier.Notify(ctx, []entity.Principal{receiver}, template, nil); err != nil {
		logger.Error("Direct message fan-out failed: %v", err)
	}
}

// appendToConversation maintains the denormalized message list. Unread and
// history queries derive from the conversationId index, so a failed append
// degrades nothing user-visible.
func (uc *ChatUseCase) appendToConversation(ctx context.Context, conversationID, messageID string) {
	if err := uc.conversations.AppendMessageID(ctx, conversationID, messageID); err != nil {
		logger.Warn("Failed to append message %s to conversation %s: %v", messageID, conversationID, err)
	}
}

func (uc *ChatUseCase) joinLiveSocket(principalID, room string) {
	if socketID, ok := uc.hub.Registry().Lookup(principalID); ok {
		uc.hub.JoinRoom(socketID, room)
	}
}
