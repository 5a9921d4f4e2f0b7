package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yettensyvus/InternshipFinder/internal/config"
	"github.com/yettensyvus/InternshipFinder/internal/infrastructure/dynamo"
	"github.com/yettensyvus/InternshipFinder/internal/infrastructure/postgres"
)

func TestOpenStores_UnknownDriver(t *testing.T) {
	_, err := OpenStores(context.Background(), &config.Config{StoreDriver: "mongo"}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mongo")
}

func TestOpenStores_Dynamo(t *testing.T) {
	cfg := &config.Config{
		StoreDriver:    "dynamo",
		AWSRegion:      "us-east-1",
		AWSEndpointURL: "http://localhost:4566",
		AWSAccessKeyID: "test",
		AWSSecretKey:   "test",
		DynamoTables:   config.DynamoTables{Users: "users", UserEmails: "user_emails", OtpTokens: "otp_tokens", Notifications: "notifications", Outbox: "outbox"},
	}

	s, err := OpenStores(context.Background(), cfg, false)
	require.NoError(t, err)
	assert.IsType(t, &dynamo.UserRepo{}, s.Users)
	assert.IsType(t, &dynamo.OtpRepo{}, s.Otp)
	assert.NoError(t, s.Close())
}

// Both backends satisfy the store contracts.
var (
	_ UserStore         = (*dynamo.UserRepo)(nil)
	_ UserStore         = (*postgres.UserRepo)(nil)
	_ OtpStore          = (*dynamo.OtpRepo)(nil)
	_ OtpStore          = (*postgres.OtpRepo)(nil)
	_ NotificationStore = (*dynamo.NotificationRepo)(nil)
	_ NotificationStore = (*postgres.NotificationRepo)(nil)
	_ OutboxStore       = (*dynamo.OutboxRepo)(nil)
	_ OutboxStore       = (*postgres.OutboxRepo)(nil)
)
