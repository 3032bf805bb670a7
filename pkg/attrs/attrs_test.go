package attrs

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestExtractString(t *testing.T) {
	examID := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	list := []any{"student_id", "s-1", "exam_id", examID, "count", 3, "dangling"}

	assert.Equal(t, "s-1", ExtractString(list, "student_id"))
	assert.Equal(t, examID.String(), ExtractString(list, "exam_id"))
	assert.Equal(t, "", ExtractString(list, "count"))
	assert.Equal(t, "", ExtractString(list, "dangling"))
	assert.Equal(t, "", ExtractString(list, "missing"))
}

func TestWithout(t *testing.T) {
	list := []any{"a", 1, "b", 2, "c", 3}
	assert.Equal(t, []any{"b", 2}, Without(list, "a", "c"))
}
