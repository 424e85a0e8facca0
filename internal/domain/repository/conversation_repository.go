package repository

import (
	"context"

	"stakemarket/internal/domain/entity"
)

type ConversationRepository interface {
	// FindOrCreate resolves the conversation for conv.ChannelKey atomically:
	// concurrent callers for the same key observe exactly one conversation.
	// Returns the stored conversation and whether this call created it.
	FindOrCreate(ctx context.Context, conv *entity.Conversation) (*entity.Conversation, bool, error)

	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	GetByChannelKey(ctx context.Context, channelKey string, kind entity.ConversationKind) (*entity.Conversation, error)
	ListByParticipant(ctx context.Context, principalID string, kind entity.ConversationKind, limit, offset int) ([]*entity.Conversation, int64, error)
	ListAllByParticipant(ctx context.Context, principalID string) ([]*entity.Conversation, error)

	// AddParticipant appends idempotently; a principal already present is a no-op.
	AddParticipant(ctx context.Context, conversationID string, p entity.Principal) error
	AppendMessageID(ctx context.Context, conversationID, messageID string) error
}
