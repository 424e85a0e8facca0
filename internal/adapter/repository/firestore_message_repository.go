package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"stakemarket/internal/domain/entity"
	"stakemarket/internal/domain/repository"
	"stakemarket/pkg/errors"
	"stakemarket/pkg/logger"
)

type firestoreMessageRepository struct {
	client *firestore.Client
}

func NewFirestoreMessageRepository(client *firestore.Client) repository.MessageRepository {
	return &firestoreMessageRepository{client: client}
}

func (r *firestoreMessageRepository) Create(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	// Keep the flat ID mirrors in sync with the principal structs; Firestore
	// queries can only array-contains on scalars.
	message.ReceiverIDs = nil
	if message.Receiver != nil {
		message.ReceiverIDs = append(message.ReceiverIDs, message.Receiver.ID)
	}
	for _, rec := range message.Receivers {
		message.ReceiverIDs = append(message.ReceiverIDs, rec.ID)
	}
	message.ReadByIDs = nil
	for _, reader := range message.ReadBy {
		message.ReadByIDs = append(message.ReadByIDs, reader.ID)
	}

	_, err := r.client.Collection("messages").Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Internal("Failed to create message", err)
	}
	return nil
}

func (r *firestoreMessageRepository) GetByID(ctx context.Context, id string) (*entity.Message, error) {
	doc, err := r.client.Collection("messages").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.Internal("Failed to get message", err)
	}

	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}
	return &message, nil
}

// ListByConversation returns messages newest first with in-memory pagination;
// callers reverse the page for display order.
func (r *firestoreMessageRepository) ListByConversation(ctx context.Context, conversationID string, msgType entity.MessageType, limit, offset int) ([]*entity.Message, int64, error) {
	query := r.client.Collection("messages").
		Where("conversationId", "==", conversationID).
		Where("type", "==", string(msgType)).
		OrderBy("createdAt", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching messages for %s: %v", conversationID, err)
		return nil, 0, errors.Internal("Failed to fetch messages", err)
	}

	total := int64(len(allDocs))

	start := offset
	if start > len(allDocs) {
		start = len(allDocs)
	}
	end := len(allDocs)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	var messages []*entity.Message
	for i := start; i < end; i++ {
		var message entity.Message
		if err := allDocs[i].DataTo(&message); err != nil {
			logger.Warn("Skipping malformed message document: %v", err)
			continue
		}
		messages = append(messages, &message)
	}

	return messages, total, nil
}

// ListBefore returns up to limit messages older than the given message in the
// same conversation, oldest first. Used to capture the surrounding context
// when a message is reported.
func (r *firestoreMessageRepository) ListBefore(ctx context.Context, conversationID, messageID string, limit int) ([]*entity.Message, error) {
	anchor, err := r.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}

	query := r.client.Collection("messages").
		Where("conversationId", "==", conversationID).
		Where("createdAt", "<", anchor.CreatedAt).
		OrderBy("createdAt", firestore.Desc).
		Limit(limit)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to fetch message context", err)
	}

	messages := make([]*entity.Message, 0, len(docs))
	for _, doc := range docs {
		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			continue
		}
		messages = append(messages, &message)
	}

	// Newest-first from the query, oldest-first for the caller.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *firestoreMessageRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.Collection("messages").Doc(id).Delete(ctx)
	if err != nil {
		return errors.Internal("Failed to delete message", err)
	}
	return nil
}

// Mutate is the shared read-modify-write path for reactions, poll votes and
// single-message seen marks. The transaction retries on contention, so two
// concurrent toggles both land instead of one overwriting the other.
func (r *firestoreMessageRepository) Mutate(ctx context.Context, id string, fn func(*entity.Message) error) (*entity.Message, error) {
	ref := r.client.Collection("messages").Doc(id)

	var result entity.Message
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return err
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			return err
		}

		if err := fn(&message); err != nil {
			return err
		}

		message.ReadByIDs = message.ReadByIDs[:0]
		for _, reader := range message.ReadBy {
			message.ReadByIDs = append(message.ReadByIDs, reader.ID)
		}

		if err := tx.Set(ref, &message); err != nil {
			return err
		}
		result = message
		return nil
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", err)
		}
		if appErr, ok := err.(*errors.AppError); ok {
			return nil, appErr
		}
		return nil, errors.Internal("Failed to update message", err)
	}

	return &result, nil
}

// MarkConversationRead stamps the reader onto every addressed, still-unread
// message of the conversation. ArrayUnion keeps the write idempotent under
// concurrent bulk marks.
func (r *firestoreMessageRepository) MarkConversationRead(ctx context.Context, conversationID string, msgType entity.MessageType, reader entity.Principal) error {
	query := r.client.Collection("messages").
		Where("conversationId", "==", conversationID).
		Where("type", "==", string(msgType)).
		Where("receiverIds", "array-contains", reader.ID)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return errors.Internal("Failed to fetch unread messages", err)
	}

	readerValue := map[string]interface{}{"id": reader.ID, "modelType": string(reader.Kind)}

	for _, doc := range docs {
		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			continue
		}
		if message.IsReadBy(reader.ID) {
			continue
		}
		_, err := doc.Ref.Update(ctx, []firestore.Update{
			{Path: "readBy", Value: firestore.ArrayUnion(readerValue)},
			{Path: "readByIds", Value: firestore.ArrayUnion(reader.ID)},
		})
		if err != nil {
			logger.Warn("Failed to mark message %s read: %v", message.ID, err)
		}
	}
	return nil
}

// HasUnread reports whether any message addressed to the reader in the
// conversation lacks their read mark. The not-read filter runs in memory;
// Firestore has no negated array-contains.
func (r *firestoreMessageRepository) HasUnread(ctx context.Context, conversationID string, msgType entity.MessageType, readerID string) (bool, error) {
	query := r.client.Collection("messages").
		Where("conversationId", "==", conversationID).
		Where("type", "==", string(msgType)).
		Where("receiverIds", "array-contains", readerID)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return false, errors.Internal("Failed to check unread messages", err)
	}

	for _, doc := range docs {
		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			continue
		}
		if !message.IsReadBy(readerID) {
			return true, nil
		}
	}
	return false, nil
}
