package memory

import (
	"context"
	"fmt"
	"sort"

	"marketplace-system/internal/domain"
)

type MessageRepository struct {
	store *Store
}

func NewMessageRepository(store *Store) *MessageRepository {
	return &MessageRepository{store: store}
}

func (r *MessageRepository) SaveMessage(ctx context.Context, msg *domain.Message) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cp := *msg
	r.store.messages[msg.ID] = &cp
	r.store.msgOrder = append(r.store.msgOrder, msg.ID)
	return nil
}

func (r *MessageRepository) MessagesForUser(ctx context.Context, userID string) ([]*domain.MessageView, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var views []*domain.MessageView
	for _, id := range r.store.msgOrder {
		msg := r.store.messages[id]
		if msg.SenderID != userID && msg.ReceiverID != userID {
			continue
		}
		view := &domain.MessageView{
			Message:      *msg,
			SenderName:   r.store.userName(msg.SenderID),
			ReceiverName: r.store.userName(msg.ReceiverID),
		}
		if listing, ok := r.store.listings[msg.ListingID]; ok {
			view.ListingName = listing.Name
		}
		views = append(views, view)
	}

	sort.SliceStable(views, func(i, j int) bool {
		return views[i].CreatedAt.After(views[j].CreatedAt)
	})
	return views, nil
}

func (r *MessageRepository) MarkRead(ctx context.Context, messageID, userID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	msg, ok := r.store.messages[messageID]
	if !ok || msg.ReceiverID != userID || msg.Read {
		return fmt.Errorf("mark read %s: %w", messageID, domain.ErrMessageNotFound)
	}
	msg.Read = true
	return nil
}
