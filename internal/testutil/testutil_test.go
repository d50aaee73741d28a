package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicClock(t *testing.T) {
	start := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := NewDeterministicClock(start, time.Minute)

	assert.Equal(t, start, clock.Now())
	assert.Equal(t, start.Add(time.Minute), clock.Now())

	clock.Reset()
	assert.Equal(t, start, clock.Now())
}

func TestDeterministicClock_Defaults(t *testing.T) {
	clock := NewDeterministicClock(time.Time{}, 0)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), clock.Now())
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC), clock.Now())
}

func TestSequentialIDs(t *testing.T) {
	var ids SequentialIDs
	assert.Equal(t, "00000000-0000-7000-8000-000000000001", ids.NewID())
	assert.Equal(t, "00000000-0000-7000-8000-000000000002", ids.NewID())
}

func TestRegistry(t *testing.T) {
	reg := Registry(t)
	assert.Equal(t, []string{"User", "Profile", "Address", "Task"}, reg.Names())

	user := UserModel(t)
	assert.Equal(t, "email_address", user.ColumnName("email"))

	target, ok := user.Association("profile", "address")
	require.True(t, ok)
	assert.Equal(t, "Address", target.Name())
}
