package notification

import (
	"context"
	"time"
)

type Kind string

const (
	KindActionApproved    Kind = "action_approved"
	KindActionRejected    Kind = "action_rejected"
	KindActionExpired     Kind = "action_expired"
	KindLoanApproved      Kind = "loan_approved"
	KindLoanDisbursed     Kind = "loan_disbursed"
	KindLoanCompleted     Kind = "loan_completed"
	KindGuarantorRequest  Kind = "guarantor_request"
	KindGuarantorAnswered Kind = "guarantor_answered"
	KindPaymentReceived   Kind = "payment_received"
	KindMemberActivated   Kind = "member_activated"
)

// Message is what the core hands to a Notifier.
type Message struct {
	UserID string            `json:"user_id"`
	Kind   Kind              `json:"kind"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
}

// Notifier is fire-and-forget. Implementations log their own failures.
type Notifier interface {
	Notify(ctx context.Context, m Message)
}

// Table: notifications.
type Notification struct {
	ID             uint64    `gorm:"primaryKey;column:id" json:"-"`
	NotificationID string    `gorm:"size:32;uniqueIndex" json:"notification_id"`
	UserID         string    `gorm:"size:32;index:idx_notifications_user_read;not null" json:"user_id"`
	Kind           Kind      `gorm:"size:32" json:"kind"`
	Title          string    `gorm:"size:255" json:"title"`
	Message        string    `gorm:"type:text" json:"message"`
	Read           bool      `gorm:"column:is_read;index:idx_notifications_user_read;not null;default:false" json:"read"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	// Served by idx_notifications_user_read.
	CountUnread(ctx context.Context, userID string) (int64, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
}

// Discard drops every message.
type Discard struct{}

func (Discard) Notify(context.Context, Message) {}
