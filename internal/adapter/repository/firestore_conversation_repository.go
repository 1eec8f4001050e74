package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"vetclinic/internal/domain/entity"
	"vetclinic/internal/domain/repository"
	"vetclinic/pkg/errors"
	"vetclinic/pkg/logger"
)

const (
	conversationsCollection     = "conversations"
	conversationPairsCollection = "conversationPairs"
	messagesCollection          = "messages"

	// Firestore caps a single BulkWriter flush, keep well under it.
	maxBulkWrites = 500
)

// conversationPair is the lock document keyed by the normalized participant pair.
// Its existence is what makes conversation creation unique per pair.
type conversationPair struct {
	ConversationID string    `firestore:"conversationId"`
	CreatedAt      time.Time `firestore:"createdAt"`
}

type firestoreConversationRepository struct {
	client *firestore.Client
}

func NewFirestoreConversationRepository(client *firestore.Client) repository.ConversationRepository {
	return &firestoreConversationRepository{
		client: client,
	}
}

func (r *firestoreConversationRepository) conversations() *firestore.CollectionRef {
	return r.client.Collection(conversationsCollection)
}

func (r *firestoreConversationRepository) messages() *firestore.CollectionRef {
	return r.client.Collection(messagesCollection)
}

func (r *firestoreConversationRepository) CreateOrGet(ctx context.Context, requesterID, counterpartID string) (*entity.Conversation, bool, error) {
	pairKey := entity.PairKey(requesterID, counterpartID)
	pairRef := r.client.Collection(conversationPairsCollection).Doc(pairKey)

	var (
		result  *entity.Conversation
		created bool
	)

	// The transaction reads the pair document before writing it, so a concurrent
	// first contact from the same pair is retried and then observes the winner.
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		result, created = nil, false
		now := time.Now().UTC()

		pairDoc, err := tx.Get(pairRef)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}

		if err == nil && pairDoc.Exists() {
			var pair conversationPair
			if err := pairDoc.DataTo(&pair); err != nil {
				return err
			}

			convRef := r.conversations().Doc(pair.ConversationID)
			convDoc, err := tx.Get(convRef)
			if err != nil {
				return err
			}

			var conversation entity.Conversation
			if err := convDoc.DataTo(&conversation); err != nil {
				return err
			}

			conversation.UpdatedAt = now
			if err := tx.Update(convRef, []firestore.Update{{Path: "updatedAt", Value: now}}); err != nil {
				return err
			}

			result = &conversation
			return nil
		}

		conversation := &entity.Conversation{
			ID:           newID(),
			Participants: []string{requesterID, counterpartID},
			PairKey:      pairKey,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := tx.Create(pairRef, conversationPair{ConversationID: conversation.ID, CreatedAt: now}); err != nil {
			return err
		}
		if err := tx.Create(r.conversations().Doc(conversation.ID), conversation); err != nil {
			return err
		}

		result = conversation
		created = true
		return nil
	})
	if err != nil {
		return nil, false, errors.Internal("Failed to create or get conversation", err)
	}

	return result, created, nil
}

func (r *firestoreConversationRepository) FindByPair(ctx context.Context, userA, userB string) (*entity.Conversation, error) {
	doc, err := r.client.Collection(conversationPairsCollection).Doc(entity.PairKey(userA, userB)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.Internal("Failed to look up conversation pair", err)
	}

	var pair conversationPair
	if err := doc.DataTo(&pair); err != nil {
		return nil, errors.Internal("Failed to parse conversation pair", err)
	}

	return r.GetByID(ctx, pair.ConversationID)
}

func (r *firestoreConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	doc, err := r.conversations().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}

	var conversation entity.Conversation
	if err := doc.DataTo(&conversation); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}

	return &conversation, nil
}

func (r *firestoreConversationRepository) ListByUserID(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	// Needs the composite index (participants ARRAY_CONTAINS, updatedAt DESC).
	query := r.conversations().Where("participants", "array-contains", userID).OrderBy("updatedAt", firestore.Desc)

	iter := query.Documents(ctx)
	defer iter.Stop()

	var conversations []*entity.Conversation
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while fetching conversations for user %s: %v", userID, err)
			return nil, errors.Internal("Failed to fetch conversations", err)
		}

		var conversation entity.Conversation
		if err := doc.DataTo(&conversation); err != nil {
			logger.Warn("Skipping malformed conversation %s for user %s: %v", doc.Ref.ID, userID, err)
			continue
		}
		conversations = append(conversations, &conversation)
	}

	return conversations, nil
}

func (r *firestoreConversationRepository) AppendMessage(ctx context.Context, message *entity.Message) error {
	now := time.Now().UTC()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = now
	}
	if message.ID == "" {
		message.ID = newMessageID(message.CreatedAt)
	}
	if message.ReadBy == nil {
		message.ReadBy = []string{}
	}

	convRef := r.conversations().Doc(message.ConversationID)
	msgRef := r.messages().Doc(message.ID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Create(msgRef, message); err != nil {
			return err
		}
		return tx.Update(convRef, []firestore.Update{
			{Path: "lastMessageId", Value: message.ID},
			{Path: "updatedAt", Value: message.CreatedAt},
		})
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Conversation", err)
		}
		return errors.Internal("Failed to create message", err)
	}

	return nil
}

func (r *firestoreConversationRepository) GetMessageByID(ctx context.Context, messageID string) (*entity.Message, error) {
	doc, err := r.messages().Doc(messageID).Get(ctx)
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

func (r *firestoreConversationRepository) ListMessages(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	// Needs the composite index (conversationId ASC, createdAt ASC, __name__ ASC).
	query := r.messages().
		Where("conversationId", "==", conversationID).
		OrderBy("createdAt", firestore.Asc).
		OrderBy(firestore.DocumentID, firestore.Asc)

	iter := query.Documents(ctx)
	defer iter.Stop()

	var messages []*entity.Message
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while iterating messages for conversation %s: %v", conversationID, err)
			return nil, errors.Internal("Failed to iterate messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			logger.Error("Error parsing message data for conversation %s: %v", conversationID, err)
			return nil, errors.Internal("Failed to parse message data", err)
		}
		messages = append(messages, &message)
	}

	return messages, nil
}

func (r *firestoreConversationRepository) MarkMessagesRead(ctx context.Context, messageIDs []string, userID string) error {
	if len(messageIDs) == 0 {
		return nil
	}

	for start := 0; start < len(messageIDs); start += maxBulkWrites {
		end := start + maxBulkWrites
		if end > len(messageIDs) {
			end = len(messageIDs)
		}

		bw := r.client.BulkWriter(ctx)
		jobs := make([]*firestore.BulkWriterJob, 0, end-start)
		for _, id := range messageIDs[start:end] {
			job, err := bw.Update(r.messages().Doc(id), []firestore.Update{
				{Path: "readBy", Value: firestore.ArrayUnion(userID)},
			})
			if err != nil {
				bw.End()
				return errors.Internal("Failed to queue read receipt", err)
			}
			jobs = append(jobs, job)
		}
		bw.End()

		for i, job := range jobs {
			if _, err := job.Results(); err != nil {
				if status.Code(err) == codes.NotFound {
					return errors.NotFound("Message", err)
				}
				logger.Error("Failed to mark message %s read for user %s: %v", messageIDs[start+i], userID, err)
				return errors.Internal("Failed to update message read status", err)
			}
		}
	}

	return nil
}
