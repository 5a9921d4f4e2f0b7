package domain

import "time"

type OutboxKind string

const (
	// OutboxBlobDelete removes one object from the blob store; Subject is the object key.
	OutboxBlobDelete OutboxKind = "blob.delete"
	// OutboxUserPurge removes a deleted user's notifications and OTP tokens; Subject is the user ID.
	OutboxUserPurge OutboxKind = "user.purge"
)

// OutboxEvent is a side effect recorded in the same transaction as the state
// change that produced it and dispatched after commit, at least once.
type OutboxEvent struct {
	EventID      string     `json:"id" dynamodbav:"event_id"`
	Kind         OutboxKind `json:"kind" dynamodbav:"kind"`
	Subject      string     `json:"subject" dynamodbav:"subject"`
	Attempts     int        `json:"attempts" dynamodbav:"attempts"`
	LastError    string     `json:"last_error,omitempty" dynamodbav:"last_error,omitempty"`
	CreatedAt    time.Time  `json:"created" dynamodbav:"created_at"`
	DispatchedAt *time.Time `json:"dispatched_at,omitempty" dynamodbav:"dispatched_at,omitempty"`
	// ParkedAt is set once the event has used up its attempts; it is no longer pending.
	ParkedAt *time.Time `json:"parked_at,omitempty" dynamodbav:"parked_at,omitempty"`
}
