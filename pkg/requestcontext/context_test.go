package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	id "examreg/pkg/domain"
)

func TestAccessors_ZeroValuesWhenUnset(t *testing.T) {
	ctx := context.Background()

	assert.True(t, StudentID(ctx).IsNil())
	assert.Empty(t, Role(ctx))
	assert.Empty(t, RequestID(ctx))
	assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)
}

func TestAccessors_RoundTrip(t *testing.T) {
	studentID := id.StudentID(uuid.New())
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	ctx := WithStudentID(context.Background(), studentID)
	ctx = WithRole(ctx, "student")
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithTime(ctx, fixed)

	assert.Equal(t, studentID, StudentID(ctx))
	assert.Equal(t, "student", Role(ctx))
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, fixed, Now(ctx))
}
