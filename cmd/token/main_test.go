package main

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/infrastructure/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInput(t *testing.T) {
	shop := uuid.New()
	user := uuid.New()

	t.Run("explicit user", func(t *testing.T) {
		in, err := parseInput(user.String(), shop.String(), "cashier", time.Hour)
		require.NoError(t, err)
		assert.Equal(t, user, in.UserID)
		assert.Equal(t, shop, in.ShopID)
		assert.Equal(t, auth.RoleCashier, in.Role)
		assert.Equal(t, time.Hour, in.TTL)
	})

	t.Run("random user when empty", func(t *testing.T) {
		in, err := parseInput("", shop.String(), "owner", 0)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, in.UserID)
	})

	tests := []struct {
		name    string
		user    string
		shop    string
		role    string
		ttl     time.Duration
		wantErr string
	}{
		{"missing shop", "", "", "owner", 0, "-shop is required"},
		{"bad shop", "", "nope", "owner", 0, "invalid -shop"},
		{"bad user", "nope", shop.String(), "owner", 0, "invalid -user"},
		{"bad role", "", shop.String(), "janitor", 0, "invalid -role"},
		{"negative ttl", "", shop.String(), "owner", -time.Second, "-ttl cannot be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseInput(tt.user, tt.shop, tt.role, tt.ttl)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
