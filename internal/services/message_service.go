package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dukemzone/kpi-portal/internal/models"
	"github.com/dukemzone/kpi-portal/internal/store"
)

var attachmentTypes = map[string]bool{"video": true, "document": true, "image": true, "link": true}

// MessageService manages inbox messages sent by managers and CSMs
type MessageService struct {
	messages MessageStore
	users    UserLookup
	logger   logrus.FieldLogger
}

// NewMessageService creates a new message service
func NewMessageService(messages MessageStore, users UserLookup, logger logrus.FieldLogger) *MessageService {
	return &MessageService{
		messages: messages,
		users:    users,
		logger:   logger,
	}
}

// Send delivers a message to one user or to ALL
func (s *MessageService) Send(ctx context.Context, actorID string, input models.MessageInput) (*models.Message, error) {
	a, err := actor(s.users, actorID)
	if err != nil {
		return nil, err
	}
	if !a.Role.Supervises() {
		return nil, forbidden("only a CSM or manager can send messages")
	}

	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, invalid("content is required")
	}
	msgType := input.Type
	if msgType == "" {
		msgType = models.MessageTypeText
	}
	if !msgType.Valid() {
		return nil, invalid("unknown message type %q", msgType)
	}
	if err := validAttachment(input.Attachment); err != nil {
		return nil, err
	}

	toID := strings.TrimSpace(input.ToID)
	if toID != models.BroadcastRecipient {
		if _, err := s.users.GetUser(toID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, invalid("recipient %s does not exist", toID)
			}
			return nil, err
		}
	}

	m := models.Message{
		ID:           uuid.NewString(),
		FromID:       a.ID,
		FromName:     a.Name,
		ToID:         toID,
		Content:      content,
		Type:         msgType,
		Attachment:   input.Attachment,
		Timestamp:    s.users.Now(),
		ReadBy:       []string{},
		ReadReceipts: []models.ReadReceipt{},
	}

	if err := s.messages.CreateMessage(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"message_id": m.ID, "to": toID, "type": msgType}).Info("Message sent")
	return &m, nil
}

// Update edits a message; only its sender or a manager may
func (s *MessageService) Update(ctx context.Context, actorID, id string, update models.MessageUpdate) (*models.Message, error) {
	a, err := actor(s.users, actorID)
	if err != nil {
		return nil, err
	}
	if update.Type != nil && !update.Type.Valid() {
		return nil, invalid("unknown message type %q", *update.Type)
	}
	if err := validAttachment(update.Attachment); err != nil {
		return nil, err
	}

	return s.messages.UpdateMessage(ctx, id, func(m *models.Message) error {
		if m.FromID != a.ID && a.Role != models.RoleManager {
			return forbidden("only the sender can edit this message")
		}
		if update.Content != nil {
			c := strings.TrimSpace(*update.Content)
			if c == "" {
				return invalid("content is required")
			}
			m.Content = c
		}
		if update.Type != nil {
			m.Type = *update.Type
		}
		if update.Attachment != nil {
			m.Attachment = update.Attachment
		}
		return nil
	})
}

// Delete removes a message; only its sender or a manager may
func (s *MessageService) Delete(ctx context.Context, actorID, id string) error {
	a, err := actor(s.users, actorID)
	if err != nil {
		return err
	}
	m, err := s.messages.GetMessage(id)
	if err != nil {
		return err
	}
	if m.FromID != a.ID && a.Role != models.RoleManager {
		return forbidden("only the sender can delete this message")
	}
	return s.messages.DeleteMessage(ctx, id)
}

// ForUser returns the inbox of a user, newest first
func (s *MessageService) ForUser(userID string) []models.Message {
	return s.collect(func(m *models.Message) bool { return m.AddressedTo(userID) })
}

// SentBy returns the messages a user sent, newest first
func (s *MessageService) SentBy(userID string) []models.Message {
	return s.collect(func(m *models.Message) bool { return m.FromID == userID })
}

func (s *MessageService) collect(keep func(*models.Message) bool) []models.Message {
	result := make([]models.Message, 0)
	for _, m := range s.messages.ListMessages() {
		if keep(&m) {
			result = append(result, m)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Timestamp.After(result[j].Timestamp) })
	return result
}

// MarkRead records the first read of a message by a recipient
func (s *MessageService) MarkRead(ctx context.Context, userID, id string) (*models.Message, error) {
	m, err := s.messages.GetMessage(id)
	if err != nil {
		return nil, err
	}
	if !m.AddressedTo(userID) {
		return nil, forbidden("message is not addressed to you")
	}
	if m.ReadByUser(userID) {
		return m, nil
	}

	now := s.users.Now()
	return s.messages.UpdateMessage(ctx, id, func(m *models.Message) error {
		if m.ReadByUser(userID) {
			return nil
		}
		m.ReadBy = append(m.ReadBy, userID)
		m.ReadReceipts = append(m.ReadReceipts, models.ReadReceipt{UserID: userID, Timestamp: now})
		return nil
	})
}

// UnreadCount counts inbox messages the user has not read
func (s *MessageService) UnreadCount(userID string) int {
	count := 0
	for _, m := range s.messages.ListMessages() {
		if m.AddressedTo(userID) && !m.ReadByUser(userID) {
			count++
		}
	}
	return count
}

func validAttachment(a *models.Attachment) error {
	if a == nil {
		return nil
	}
	if !attachmentTypes[a.Type] {
		return invalid("unknown attachment type %q", a.Type)
	}
	if strings.TrimSpace(a.URL) == "" {
		return invalid("attachment url is required")
	}
	return nil
}
