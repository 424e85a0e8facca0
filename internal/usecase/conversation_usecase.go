package usecase

import (
	"context"

	"stakemarket/internal/domain/entity"
	"stakemarket/internal/domain/repository"
	"stakemarket/internal/infrastructure/websocket"
	"stakemarket/pkg/logger"
)

// ConversationUseCase resolves the conversation entity for a chat context.
// Resolution is always find-or-create: the first message into a context
// creates the conversation, every later message finds it.
type ConversationUseCase struct {
	conversations repository.ConversationRepository
	directory     repository.DirectoryRepository
	hub           *websocket.Hub
}

func NewConversationUseCase(
	conversations repository.ConversationRepository,
	directory repository.DirectoryRepository,
	hub *websocket.Hub,
) *ConversationUseCase {
	return &ConversationUseCase{
		conversations: conversations,
		directory:     directory,
		hub:           hub,
	}
}

// ResolveDirect returns the 1:1 conversation for the pair, creating it with
// participants [author, receiver] when absent. Both orderings of the pair
// resolve to the same conversation.
func (uc *ConversationUseCase) ResolveDirect(ctx context.Context, author, receiver entity.Principal) (*entity.Conversation, error) {
	conv := &entity.Conversation{
		Kind:        entity.ConversationDirect,
		ChannelKey:  entity.DirectChannelKey(author.ID, receiver.ID),
		InitiatedBy: author,
	}
	conv.AddParticipant(author)
	conv.AddParticipant(receiver)

	stored, _, err := uc.conversations.FindOrCreate(ctx, conv)
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// ResolveGroup returns the community or stake conversation for a product. A
// new conversation is seeded with the product owner, the initiator and every
// admin holding the SUPER_ADMIN role; an existing one gets the initiator
// appended if they are not yet a participant. Live participants are told to
// join the channel room whenever their membership starts.
func (uc *ConversationUseCase) ResolveGroup(ctx context.Context, kind entity.ConversationKind, productName, productID string, owner, initiator entity.Principal) (*entity.Conversation, error) {
	conv := &entity.Conversation{
		Kind:        kind,
		ChannelKey:  entity.GroupChannelKey(kind, productName, productID),
		InitiatedBy: initiator,
		ProductName: productName,
	}
	conv.AddParticipant(owner)
	conv.AddParticipant(initiator)

	adminIDs, err := uc.directory.AdminIDsByRole(ctx, []string{entity.RoleSuperAdmin})
	if err != nil {
		logger.Warn("Failed to resolve SUPER_ADMIN admins for %s: %v", conv.ChannelKey, err)
	}
	for _, id := range adminIDs {
		conv.AddParticipant(entity.AdminPrincipal(id))
	}

	stored, created, err := uc.conversations.FindOrCreate(ctx, conv)
	if err != nil {
		return nil, err
	}

	switch {
	case created:
		for _, p := range stored.Participants {
			uc.notifyChannelRoom(p.ID, stored.ChannelKey)
		}
	case !stored.HasParticipant(initiator.ID):
		if err := uc.conversations.AddParticipant(ctx, stored.ID, initiator); err != nil {
			return nil, err
		}
		stored.AddParticipant(initiator)
		uc.notifyChannelRoom(initiator.ID, stored.ChannelKey)
	}

	return stored, nil
}

func (uc *ConversationUseCase) notifyChannelRoom(principalID, channelKey string) {
	uc.hub.EmitToPrincipal(principalID, websocket.EventJoinChannelRoom, map[string]string{
		"channelName": channelKey,
	})
}

// ListByParticipant pages the principal's conversations of one kind, newest
// activity first.
func (uc *ConversationUseCase) ListByParticipant(ctx context.Context, principalID string, kind entity.ConversationKind, limit, offset int) ([]*entity.Conversation, int64, error) {
	return uc.conversations.ListByParticipant(ctx, principalID, kind, limit, offset)
}

// RoomsFor lists the room ids a connecting principal should rejoin: one per
// conversation they currently participate in.
func (uc *ConversationUseCase) RoomsFor(ctx context.Context, principalID string) ([]string, error) {
	conversations, err := uc.conversations.ListAllByParticipant(ctx, principalID)
	if err != nil {
		return nil, err
	}

	rooms := make([]string, 0, len(conversations))
	for _, conv := range conversations {
		rooms = append(rooms, conv.ID)
	}
	return rooms, nil
}
