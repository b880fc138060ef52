package models

import "time"

// MessageType classifies a manager/CSM message
type MessageType string

const (
	MessageTypeText         MessageType = "text"
	MessageTypeAnnouncement MessageType = "announcement"
	MessageTypePriority     MessageType = "priority"
)

// Valid reports whether t is a known message type
func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeAnnouncement, MessageTypePriority:
		return true
	}
	return false
}

// BroadcastRecipient addresses a message to every user
const BroadcastRecipient = "ALL"

// SystemSender is the sender id of generated messages
const SystemSender = "SYSTEM"

// Attachment is a single file or link attached to a message.
// URL may be a data URI and is stored as-is.
type Attachment struct {
	Name string `json:"name"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

// ReadReceipt records when a user first read a message
type ReadReceipt struct {
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

// Message is an inbox item sent by a manager, a CSM or the system
type Message struct {
	ID           string        `json:"id"`
	FromID       string        `json:"fromId"`
	FromName     string        `json:"fromName"`
	ToID         string        `json:"toId"`
	Content      string        `json:"content"`
	Type         MessageType   `json:"type"`
	Attachment   *Attachment   `json:"attachment,omitempty"`
	Timestamp    time.Time     `json:"timestamp"`
	ReadBy       []string      `json:"readBy"`
	ReadReceipts []ReadReceipt `json:"readReceipts"`
}

// AddressedTo reports whether the message lands in the user's inbox
func (m *Message) AddressedTo(userID string) bool {
	return m.ToID == userID || m.ToID == BroadcastRecipient
}

// ReadByUser reports whether the user has opened the message
func (m *Message) ReadByUser(userID string) bool {
	for _, id := range m.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

// Clone returns a copy with its own read state slices
func (m Message) Clone() Message {
	m.ReadBy = append([]string{}, m.ReadBy...)
	if m.ReadReceipts != nil {
		m.ReadReceipts = append([]ReadReceipt{}, m.ReadReceipts...)
	}
	if m.Attachment != nil {
		a := *m.Attachment
		m.Attachment = &a
	}
	return m
}

// MessageInput is the payload for sending a message
type MessageInput struct {
	ToID       string      `json:"toId" binding:"required"`
	Content    string      `json:"content" binding:"required"`
	Type       MessageType `json:"type"`
	Attachment *Attachment `json:"attachment"`
}

// MessageUpdate carries editable message fields; nil fields are left unchanged
type MessageUpdate struct {
	Content    *string      `json:"content"`
	Type       *MessageType `json:"type"`
	Attachment *Attachment  `json:"attachment"`
}
