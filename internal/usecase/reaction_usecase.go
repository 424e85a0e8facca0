package usecase

import (
	"context"

	"stakemarket/internal/domain/entity"
	"stakemarket/internal/domain/repository"
	"stakemarket/internal/infrastructure/websocket"
	"stakemarket/pkg/errors"
)

// ReactionUseCase applies reaction and poll mutations through the
// transactional message mutate path and broadcasts the updated state.
type ReactionUseCase struct {
	messages repository.MessageRepository
	hub      *websocket.Hub
}

func NewReactionUseCase(messages repository.MessageRepository, hub *websocket.Hub) *ReactionUseCase {
	return &ReactionUseCase{messages: messages, hub: hub}
}

// SetDirectReaction overwrites the single reaction scalar of a direct
// message and pushes the result to both participants' live sockets.
func (uc *ReactionUseCase) SetDirectReaction(ctx context.Context, messageID, value, senderID, receiverID string) (*entity.Message, error) {
	message, err := uc.messages.Mutate(ctx, messageID, func(m *entity.Message) error {
		if m.Type != entity.MessageDirect {
			return errors.BadRequest("Not a direct message", nil)
		}
		m.SetDirectReaction(value)
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.hub.EmitToPrincipal(senderID, websocket.EventReactionAdded, message)
	uc.hub.EmitToPrincipal(receiverID, websocket.EventReactionAdded, message)
	return message, nil
}

// SetGroupReaction upserts the sender's reaction entry and broadcasts the
// full reaction list to the channel room.
func (uc *ReactionUseCase) SetGroupReaction(ctx context.Context, messageID string, sender entity.Principal, value, channelKey string) (*entity.Message, error) {
	message, err := uc.messages.Mutate(ctx, messageID, func(m *entity.Message) error {
		if m.Type == entity.MessageDirect {
			return errors.BadRequest("Not a group message", nil)
		}
		m.SetGroupReaction(sender, value)
		return nil
	})
	if err != nil {
		return nil, err
	}

	room := channelKey
	if room == "" {
		room = message.ConversationID
	}
	uc.hub.EmitToRoom(room, websocket.EventGroupReactionAdded, message)
	return message, nil
}

// CastVote toggles a poll vote against the persisted poll state and
// broadcasts the updated poll to the conversation room.
func (uc *ReactionUseCase) CastVote(ctx context.Context, messageID, optionID string, voter entity.PollVoter, checked, allowMultiple bool) (*entity.Message, error) {
	message, err := uc.messages.Mutate(ctx, messageID, func(m *entity.Message) error {
		if m.Poll == nil {
			return errors.BadRequest("Message carries no poll", nil)
		}
		if !m.CastVote(optionID, voter, checked, allowMultiple) {
			return errors.NotFound("Poll option", nil)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.hub.EmitToRoom(message.ConversationID, websocket.EventPoolResponse, message)
	return message, nil
}

// ClearVotes removes the voter from every option of the poll.
func (uc *ReactionUseCase) ClearVotes(ctx context.Context, messageID, voterID string) (*entity.Message, error) {
	message, err := uc.messages.Mutate(ctx, messageID, func(m *entity.Message) error {
		if m.Poll == nil {
			return errors.BadRequest("Message carries no poll", nil)
		}
		m.ClearVotes(voterID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.hub.EmitToRoom(message.ConversationID, websocket.EventPoolResponse, message)
	return message, nil
}

// GetReactions returns the message for its reaction state.
func (uc *ReactionUseCase) GetReactions(ctx context.Context, messageID string) (*entity.Message, error) {
	return uc.messages.GetByID(ctx, messageID)
}
