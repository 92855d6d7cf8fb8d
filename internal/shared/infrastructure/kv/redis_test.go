package kv_test

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/homework/internal/shared/infrastructure/kv"
	"github.com/stretchr/testify/assert"
)

func TestNewRedisStore_InvalidURL(t *testing.T) {
	_, err := kv.NewRedisStore(context.Background(), "http://localhost:6379")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse Redis URL")
}
