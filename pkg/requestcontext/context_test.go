package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	id "contractpay/pkg/domain"
)

func TestAccessorsDefaultToZero(t *testing.T) {
	ctx := context.Background()
	assert.True(t, UserID(ctx).IsNil())
	assert.Empty(t, RequestID(ctx))
	assert.Empty(t, ClientIP(ctx))
	assert.Empty(t, UserAgent(ctx))
	assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)
}

func TestAccessorsRoundTrip(t *testing.T) {
	userID := id.UserID(uuid.New())
	pinned := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("MST", -7*3600))

	ctx := WithUserID(context.Background(), userID)
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithClientMetadata(ctx, "203.0.113.9", "curl/8.0")
	ctx = WithTime(ctx, pinned)

	assert.Equal(t, userID, UserID(ctx))
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, "203.0.113.9", ClientIP(ctx))
	assert.Equal(t, "curl/8.0", UserAgent(ctx))
	assert.Equal(t, time.UTC, Now(ctx).Location())
	assert.True(t, pinned.Equal(Now(ctx)))
}
