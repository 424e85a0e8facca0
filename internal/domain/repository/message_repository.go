package repository

import (
	"context"

	"stakemarket/internal/domain/entity"
)

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	GetByID(ctx context.Context, id string) (*entity.Message, error)
	ListByConversation(ctx context.Context, conversationID string, msgType entity.MessageType, limit, offset int) ([]*entity.Message, int64, error)
	ListBefore(ctx context.Context, conversationID, messageID string, limit int) ([]*entity.Message, error)
	Delete(ctx context.Context, id string) error

	// Mutate applies fn to the freshly read message inside a transaction and
	// persists the result, so concurrent mutations are not lost.
	Mutate(ctx context.Context, id string, fn func(*entity.Message) error) (*entity.Message, error)

	// MarkConversationRead pushes reader into readBy on every message of the
	// conversation addressed to them and not already read. Idempotent.
	MarkConversationRead(ctx context.Context, conversationID string, msgType entity.MessageType, reader entity.Principal) error

	HasUnread(ctx context.Context, conversationID string, msgType entity.MessageType, readerID string) (bool, error)
}
