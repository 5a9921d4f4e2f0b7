package domain

import (
	"strings"
	"time"
)

type NotificationType string

const (
	NotificationUserRegistered           NotificationType = "USER_REGISTERED"
	NotificationJobPosted                NotificationType = "JOB_POSTED"
	NotificationApplicationSubmitted     NotificationType = "APPLICATION_SUBMITTED"
	NotificationApplicationStatusChanged NotificationType = "APPLICATION_STATUS_CHANGED"
	NotificationResumeUploaded           NotificationType = "RESUME_UPLOADED"
	NotificationGeneric                  NotificationType = "GENERIC"
)

// ParseNotificationType maps unknown or empty names to GENERIC.
func ParseNotificationType(s string) NotificationType {
	switch t := NotificationType(strings.ToUpper(strings.TrimSpace(s))); t {
	case NotificationUserRegistered, NotificationJobPosted, NotificationApplicationSubmitted,
		NotificationApplicationStatusChanged, NotificationResumeUploaded, NotificationGeneric:
		return t
	}
	return NotificationGeneric
}

const DefaultNotificationTitle = "Notification"

type Notification struct {
	NotificationID string           `json:"id" dynamodbav:"notification_id"`
	UserID         string           `json:"user_id" dynamodbav:"user_id"`
	Title          string           `json:"title" dynamodbav:"title"`
	Message        string           `json:"message" dynamodbav:"message"`
	Type           NotificationType `json:"type" dynamodbav:"type"`
	ActorEmail     string           `json:"actorEmail,omitempty" dynamodbav:"actor_email,omitempty"`
	JobID          *int64           `json:"jobId,omitempty" dynamodbav:"job_id,omitempty"`
	ApplicationID  *int64           `json:"applicationId,omitempty" dynamodbav:"application_id,omitempty"`
	Read           bool             `json:"read" dynamodbav:"read"`
	CreatedAt      time.Time        `json:"createdAt" dynamodbav:"created_at"`
}

// NotificationView is the transfer shape returned to the recipient.
type NotificationView struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	Message       string           `json:"message"`
	Type          NotificationType `json:"type"`
	ActorEmail    string           `json:"actorEmail,omitempty"`
	JobID         *int64           `json:"jobId,omitempty"`
	ApplicationID *int64           `json:"applicationId,omitempty"`
	Read          bool             `json:"read"`
	CreatedAt     time.Time        `json:"createdAt"`
}

func (n *Notification) View() NotificationView {
	return NotificationView{
		ID:            n.NotificationID,
		Title:         n.Title,
		Message:       n.Message,
		Type:          n.Type,
		ActorEmail:    n.ActorEmail,
		JobID:         n.JobID,
		ApplicationID: n.ApplicationID,
		Read:          n.Read,
		CreatedAt:     n.CreatedAt,
	}
}

// NewNotification carries the caller-provided fields of an append.
type NewNotification struct {
	Type          NotificationType
	Title         string
	Message       *string
	ActorEmail    string
	JobID         *int64
	ApplicationID *int64
}

type CreateNotificationRequest struct {
	Title         string  `json:"title"`
	Message       *string `json:"message"`
	Type          string  `json:"type"`
	ActorEmail    string  `json:"actorEmail" validate:"omitempty,email"`
	JobID         *int64  `json:"jobId"`
	ApplicationID *int64  `json:"applicationId"`
}

// NotificationFilter narrows a recipient's notifications. Zero-valued fields
// do not constrain the result. The time window applies only when both
// bounds are set.
type NotificationFilter struct {
	Type          *NotificationType
	Read          *bool
	ActorEmail    string
	JobID         *int64
	ApplicationID *int64
	From          *time.Time
	To            *time.Time
}

// HasWindow reports whether both time bounds are present.
func (f NotificationFilter) HasWindow() bool {
	return f.From != nil && f.To != nil
}

// Matches applies every predicate except the time window.
func (f NotificationFilter) Matches(n *Notification) bool {
	if f.Type != nil && n.Type != *f.Type {
		return false
	}
	if f.Read != nil && n.Read != *f.Read {
		return false
	}
	if email := strings.TrimSpace(f.ActorEmail); email != "" && !strings.EqualFold(n.ActorEmail, email) {
		return false
	}
	if f.JobID != nil && (n.JobID == nil || *n.JobID != *f.JobID) {
		return false
	}
	if f.ApplicationID != nil && (n.ApplicationID == nil || *n.ApplicationID != *f.ApplicationID) {
		return false
	}
	return true
}

// InWindow checks the inclusive [From, To] window.
func (f NotificationFilter) InWindow(n *Notification) bool {
	if !f.HasWindow() {
		return true
	}
	return !n.CreatedAt.Before(*f.From) && !n.CreatedAt.After(*f.To)
}
