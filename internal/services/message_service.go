package services

import (
	"context"
	"fmt"
	"strings"

	"marketplace-system/internal/domain"
	"marketplace-system/pkg/logger"
	"marketplace-system/pkg/utils"
)

// MessageService handles buyer-seller direct messages scoped to a listing.
// Deliberately kept apart from the bidding engine: messages have no state
// machine, only a read flag.
type MessageService struct {
	messages domain.MessageRepository
	listings domain.ListingRepository
	now      domain.Clock
	log      logger.Logger
}

func NewMessageService(messages domain.MessageRepository, listings domain.ListingRepository, clock domain.Clock, log logger.Logger) *MessageService {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &MessageService{
		messages: messages,
		listings: listings,
		now:      clock,
		log:      log,
	}
}

// SendMessage delivers a message from senderID to the owner of the listing.
func (s *MessageService) SendMessage(ctx context.Context, listingID, senderID, content string) (*domain.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("send message: %w: empty content", domain.ErrInvalidArgument)
	}

	listing, err := s.listings.GetListing(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}

	if listing.OwnerID == senderID {
		return nil, fmt.Errorf("send message on %s: %w", listingID, domain.ErrSelfMessage)
	}

	msg := &domain.Message{
		ID:         utils.GenerateID("msg"),
		SenderID:   senderID,
		ReceiverID: listing.OwnerID,
		ListingID:  listingID,
		Content:    content,
		Read:       false,
		CreatedAt:  s.now(),
	}

	if err := s.messages.SaveMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("send message on %s: %w", listingID, err)
	}

	s.log.Info("Message sent", "message_id", msg.ID, "listing_id", listingID, "sender_id", senderID)
	return msg, nil
}

// ListMessagesForUser returns messages the user sent or received, most
// recent first.
func (s *MessageService) ListMessagesForUser(ctx context.Context, userID string) ([]*domain.MessageView, error) {
	messages, err := s.messages.MessagesForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list messages for user %s: %w", userID, err)
	}
	return messages, nil
}

// MarkAsRead flips an unread message addressed to userID.
func (s *MessageService) MarkAsRead(ctx context.Context, messageID, userID string) error {
	if err := s.messages.MarkRead(ctx, messageID, userID); err != nil {
		return fmt.Errorf("mark message %s read: %w", messageID, err)
	}
	return nil
}
