package memory

import (
	"context"
	"testing"
	"time"
	"unsafe"

	"todolist/internal/domain/todo"
	"todolist/internal/domain/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(t *testing.T, s *Store, name string) user.User {
	t.Helper()
	u := user.User{ID: uuid.New(), Username: name, PasswordHash: "x"}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func TestStore_UsernameUniqueCaseInsensitive(t *testing.T) {
	s := NewStore()
	newUser(t, s, "alice")

	err := s.CreateUser(context.Background(), user.User{ID: uuid.New(), Username: "Alice"})
	assert.ErrorIs(t, err, user.ErrUsernameTaken)
}

func TestStore_UpdateTodoKeepsOwnerAndCreatedAt(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	alice := newUser(t, s, "alice")
	bob := newUser(t, s, "bob")

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	td := todo.Todo{ID: uuid.New(), OwnerID: alice.ID, Title: "A", CreatedAt: created}
	require.NoError(t, s.CreateTodo(ctx, td))

	require.NoError(t, s.UpdateTodo(ctx, todo.Todo{
		ID: td.ID, OwnerID: bob.ID, Title: "B", Completed: true, CreatedAt: time.Now(),
	}))

	got, err := s.GetTodoByID(ctx, td.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.OwnerID)
	assert.Equal(t, created, got.CreatedAt)
	assert.Equal(t, "B", got.Title)
	assert.True(t, got.Completed)
}

func TestStore_ListTodosFilter(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	alice := newUser(t, s, "alice")

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, s.CreateTodo(ctx, todo.Todo{ID: uuid.New(), OwnerID: alice.ID, Title: "Buy milk", CreatedAt: old}))
	require.NoError(t, s.CreateTodo(ctx, todo.Todo{ID: uuid.New(), OwnerID: alice.ID, Title: "Walk", Description: "with the MILKman", Completed: true, CreatedAt: time.Now()}))

	rows, err := s.ListTodos(ctx, todo.ListFilter{Search: "milk"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Walk", rows[0].Title)
	assert.Equal(t, "alice", rows[0].OwnerUsername)

	done := true
	rows, err = s.ListTodos(ctx, todo.ListFilter{Completed: &done})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	since := time.Now().Add(-time.Hour)
	rows, err = s.ListTodos(ctx, todo.ListFilter{CreatedSince: &since})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Walk", rows[0].Title)
}

func TestStore_GetOrCreateProfile(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	alice := newUser(t, s, "alice")

	p1, created, err := s.GetOrCreateProfile(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, created)

	p2, created, err := s.GetOrCreateProfile(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, p1.ID, p2.ID)

	_, _, err = s.GetOrCreateProfile(ctx, uuid.New())
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestStore_ListUserIDsPaging(t *testing.T) {
	s := NewStore()
	for _, name := range []string{"a", "b", "c"} {
		newUser(t, s, name)
	}

	first, err := s.ListUserIDs(context.Background(), 2, 0)
	require.NoError(t, err)
	assert.Len(t, first, 2)

	rest, err := s.ListUserIDs(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 1)

	none, err := s.ListUserIDs(context.Background(), 2, 4)
	require.NoError(t, err)
	assert.Empty(t, none)
}

// aliased returns a string sharing buf's memory, like the values fiber binds
// from a request body.
func aliased(buf []byte) string {
	return unsafe.String(&buf[0], len(buf))
}

func overwrite(buf []byte) {
	for i := range buf {
		buf[i] = 'z'
	}
}

func TestStore_KeepsOwnCopyOfStrings(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	name := []byte("alice")
	u := user.User{ID: uuid.New(), Username: aliased(name), PasswordHash: "x"}
	require.NoError(t, s.CreateUser(ctx, u))
	overwrite(name)

	got, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	ok, err := s.ExistsByUsername(ctx, "zzzzz")
	require.NoError(t, err)
	assert.False(t, ok)

	title, desc := []byte("Buy milk"), []byte("2%")
	item := todo.Todo{ID: uuid.New(), OwnerID: got.ID, Title: aliased(title), Description: aliased(desc), CreatedAt: time.Now()}
	require.NoError(t, s.CreateTodo(ctx, item))
	overwrite(title)
	overwrite(desc)

	stored, err := s.GetTodoByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", stored.Title)
	assert.Equal(t, "2%", stored.Description)

	newTitle := []byte("Buy oat milk")
	stored.Title = aliased(newTitle)
	require.NoError(t, s.UpdateTodo(ctx, stored))
	overwrite(newTitle)
	stored, err = s.GetTodoByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Buy oat milk", stored.Title)

	first, loc := []byte("Alice"), []byte("Oxford")
	require.NoError(t, s.UpdateAccount(ctx,
		user.User{ID: got.ID, FirstName: aliased(first)},
		user.Profile{Location: aliased(loc)},
	))
	overwrite(first)
	overwrite(loc)

	got, err = s.GetUserByID(ctx, got.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.FirstName)
	p, ok := s.Profile(got.ID)
	require.True(t, ok)
	assert.Equal(t, "Oxford", p.Location)
}
