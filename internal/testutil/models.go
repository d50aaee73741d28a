// Package testutil provides shared fixtures for tests: a small model
// registry, a deterministic clock and deterministic identifiers.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/wherec/internal/model"
)

// Registry returns the fixture registry:
//
//	User     users      id, name, email (email_address), age, active, meta,
//	                    tags, score, createdAt (created_at), status, period,
//	                    birthday; profile (hasOne Profile), tasks (hasMany Task)
//	Profile  profiles   id, userId (user_id), bio, settings; address (hasOne Address)
//	Address  addresses  id, city, zip (zip_code)
//	Task     tasks      id, title, done, ownerId (owner_id); owner (belongsTo User)
func Registry(t testing.TB) *model.Registry {
	t.Helper()

	user := model.New("User", "users")
	define(t, user, "id", "INTEGER", model.PrimaryKey(), model.NotNull())
	define(t, user, "name", "TEXT")
	define(t, user, "email", "VARCHAR(255)", model.Field("email_address"))
	define(t, user, "age", "INTEGER")
	define(t, user, "active", "BOOLEAN")
	define(t, user, "meta", "JSONB")
	define(t, user, "tags", "TEXT[]")
	define(t, user, "score", "DOUBLE")
	define(t, user, "createdAt", "TIMESTAMP", model.Field("created_at"))
	define(t, user, "status", "ENUM('active','banned')")
	define(t, user, "period", "RANGE(INTEGER)")
	define(t, user, "birthday", "DATE")
	require.NoError(t, user.Associate("profile", model.HasOne, "Profile"))
	require.NoError(t, user.Associate("tasks", model.HasMany, "Task"))

	profile := model.New("Profile", "profiles")
	define(t, profile, "id", "INTEGER", model.PrimaryKey(), model.NotNull())
	define(t, profile, "userId", "INTEGER", model.Field("user_id"))
	define(t, profile, "bio", "TEXT")
	define(t, profile, "settings", "JSON")
	require.NoError(t, profile.Associate("address", model.HasOne, "Address"))

	address := model.New("Address", "addresses")
	define(t, address, "id", "INTEGER", model.PrimaryKey(), model.NotNull())
	define(t, address, "city", "TEXT")
	define(t, address, "zip", "VARCHAR(10)", model.Field("zip_code"))

	task := model.New("Task", "tasks")
	define(t, task, "id", "INTEGER", model.PrimaryKey(), model.NotNull())
	define(t, task, "title", "TEXT")
	define(t, task, "done", "BOOLEAN")
	define(t, task, "ownerId", "INTEGER", model.Field("owner_id"))
	require.NoError(t, task.Associate("owner", model.BelongsTo, "User"))

	reg := model.NewRegistry()
	require.NoError(t, reg.Add(user, profile, address, task))
	return reg
}

// UserModel returns the User model of the fixture registry.
func UserModel(t testing.TB) *model.Model {
	t.Helper()
	m, ok := Registry(t).Get("User")
	require.True(t, ok)
	return m
}

func define(t testing.TB, m *model.Model, name, typ string, opts ...model.AttributeOption) {
	t.Helper()
	require.NoError(t, m.Define(name, typ, opts...))
}
