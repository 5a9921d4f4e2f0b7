package dynamo

// DynamoDB attribute and index names shared across repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldUserID      = "user_id"
	fieldEmail       = "email"
	fieldRole        = "role"
	fieldEnabled     = "enabled"
	fieldPassword    = "password_hash"
	fieldUpdatedAt   = "updated_at"
	fieldTokenID     = "token_id"
	fieldUserPurpose = "user_purpose"
	fieldCreatedNs   = "created_ns"
	fieldExpiresNs   = "expires_ns"
	fieldConsumedAt  = "consumed_at"
	fieldNotifID     = "notification_id"
	fieldRead        = "read"
	fieldEventID     = "event_id"
	fieldPending     = "pending"

	indexUserEmail     = "email-index"
	indexUserRole      = "role-index"
	indexOtpActive     = "user_purpose-created_ns-index"
	indexOtpUser       = "user_id-index"
	indexNotifUser     = "user_id-created_ns-index"
	indexOutboxPending = "pending-created_ns-index"
)

// batchWriteLimit is the DynamoDB cap on requests per BatchWriteItem call.
const batchWriteLimit = 25
