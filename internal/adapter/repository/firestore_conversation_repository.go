package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"stakemarket/internal/domain/entity"
	"stakemarket/internal/domain/repository"
	"stakemarket/pkg/errors"
	"stakemarket/pkg/logger"
)

type firestoreConversationRepository struct {
	client *firestore.Client
}

func NewFirestoreConversationRepository(client *firestore.Client) repository.ConversationRepository {
	return &firestoreConversationRepository{client: client}
}

// FindOrCreate uses the deterministic channel key as the document ID and a
// transaction around get-then-create, so two participants sending their
// first message concurrently resolve to exactly one conversation. The loser
// of the create race re-reads the winner's document on transaction retry.
func (r *firestoreConversationRepository) FindOrCreate(ctx context.Context, conv *entity.Conversation) (*entity.Conversation, bool, error) {
	if conv.ChannelKey == "" {
		return nil, false, errors.BadRequest("Conversation channel key is required", nil)
	}

	ref := r.client.Collection("conversations").Doc(conv.ChannelKey)

	var result entity.Conversation
	var created bool

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		created = false

		doc, err := tx.Get(ref)
		if err == nil {
			return doc.DataTo(&result)
		}
		if status.Code(err) != codes.NotFound {
			return err
		}

		now := time.Now()
		conv.ID = conv.ChannelKey
		conv.CreatedAt = now
		conv.UpdatedAt = now

		if err := tx.Create(ref, conv); err != nil {
			return err
		}
		result = *conv
		created = true
		return nil
	})
	if err != nil {
		return nil, false, errors.Internal("Failed to resolve conversation", err)
	}

	return &result, created, nil
}

func (r *firestoreConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	doc, err := r.client.Collection("conversations").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}

	var conv entity.Conversation
	if err := doc.DataTo(&conv); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}
	return &conv, nil
}

func (r *firestoreConversationRepository) GetByChannelKey(ctx context.Context, channelKey string, kind entity.ConversationKind) (*entity.Conversation, error) {
	conv, err := r.GetByID(ctx, channelKey)
	if err != nil {
		return nil, err
	}
	if conv.Kind != kind {
		return nil, errors.NotFound("Conversation", nil)
	}
	return conv, nil
}

func (r *firestoreConversationRepository) ListByParticipant(ctx context.Context, principalID string, kind entity.ConversationKind, limit, offset int) ([]*entity.Conversation, int64, error) {
	query := r.client.Collection("conversations").
		Where("participantIds", "array-contains", principalID).
		Where("type", "==", string(kind)).
		OrderBy("updatedAt", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching conversations for %s: %v", principalID, err)
		return nil, 0, errors.Internal("Failed to fetch conversations", err)
	}

	total := int64(len(allDocs))

	// Paginate in memory rather than issuing a second count query.
	start := offset
	if start > len(allDocs) {
		start = len(allDocs)
	}
	end := len(allDocs)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	var conversations []*entity.Conversation
	for i := start; i < end; i++ {
		var conv entity.Conversation
		if err := allDocs[i].DataTo(&conv); err != nil {
			logger.Warn("Skipping malformed conversation document: %v", err)
			continue
		}
		conversations = append(conversations, &conv)
	}

	return conversations, total, nil
}

func (r *firestoreConversationRepository) ListAllByParticipant(ctx context.Context, principalID string) ([]*entity.Conversation, error) {
	query := r.client.Collection("conversations").Where("participantIds", "array-contains", principalID)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to fetch conversations", err)
	}

	var conversations []*entity.Conversation
	for _, doc := range docs {
		var conv entity.Conversation
		if err := doc.DataTo(&conv); err != nil {
			continue
		}
		conversations = append(conversations, &conv)
	}
	return conversations, nil
}

func (r *firestoreConversationRepository) AddParticipant(ctx context.Context, conversationID string, p entity.Principal) error {
	ref := r.client.Collection("conversations").Doc(conversationID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return err
		}

		var conv entity.Conversation
		if err := doc.DataTo(&conv); err != nil {
			return err
		}

		if !conv.AddParticipant(p) {
			return nil
		}

		return tx.Update(ref, []firestore.Update{
			{Path: "participants", Value: conv.Participants},
			{Path: "participantIds", Value: conv.ParticipantIDs},
			{Path: "updatedAt", Value: time.Now()},
		})
	})
	if err != nil {
		return errors.Internal("Failed to add participant", err)
	}
	return nil
}

func (r *firestoreConversationRepository) AppendMessageID(ctx context.Context, conversationID, messageID string) error {
	_, err := r.client.Collection("conversations").Doc(conversationID).Update(ctx, []firestore.Update{
		{Path: "messageIds", Value: firestore.ArrayUnion(messageID)},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		return errors.Internal("Failed to append message to conversation", err)
	}
	return nil
}
