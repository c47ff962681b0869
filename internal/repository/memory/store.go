// Package memory is an in-process implementation of the user, profile and
// todo repositories. It backs DB_DRIVER=memory and the HTTP/usecase tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"todolist/internal/domain/todo"
	"todolist/internal/domain/user"

	"github.com/google/uuid"
)

type Store struct {
	mu       sync.RWMutex
	now      func() time.Time
	users    map[uuid.UUID]user.User
	profiles map[uuid.UUID]user.Profile // keyed by user id
	todos    map[uuid.UUID]todo.Todo
}

func NewStore() *Store {
	return &Store{
		now:      func() time.Time { return time.Now().UTC() },
		users:    map[uuid.UUID]user.User{},
		profiles: map[uuid.UUID]user.Profile{},
		todos:    map[uuid.UUID]todo.Todo{},
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) CreateUser(_ context.Context, u user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return user.ErrUsernameTaken
		}
	}
	now := s.now()
	u = cloneUser(u)
	u.CreatedAt, u.UpdatedAt = now, now
	s.users[u.ID] = u
	return nil
}

func (s *Store) GetUserByID(_ context.Context, id uuid.UUID) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (s *Store) ExistsByUsername(_ context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	username = strings.TrimSpace(username)
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) SetStaff(_ context.Context, id uuid.UUID, staff bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.IsStaff = staff
	u.UpdatedAt = s.now()
	s.users[id] = u
	return nil
}

func (s *Store) ListUserIDs(_ context.Context, limit, offset int) ([]uuid.UUID, error) {
	s.mu.RLock()
	all := make([]user.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, u)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID.String() < all[j].ID.String()
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []uuid.UUID{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}

	out := make([]uuid.UUID, 0, end-offset)
	for _, u := range all[offset:end] {
		out = append(out, u.ID)
	}
	return out, nil
}

func (s *Store) GetOrCreateProfile(_ context.Context, userID uuid.UUID) (user.Profile, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.profiles[userID]; ok {
		return p, false, nil
	}
	if _, ok := s.users[userID]; !ok {
		return user.Profile{}, false, user.ErrNotFound
	}

	now := s.now()
	p := user.Profile{ID: uuid.New(), UserID: userID, CreatedAt: now, UpdatedAt: now}
	s.profiles[userID] = p
	return p, true, nil
}

func (s *Store) UpdateAccount(_ context.Context, u user.User, p user.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[u.ID]
	if !ok {
		return user.ErrNotFound
	}

	now := s.now()
	existing.FirstName = strings.Clone(u.FirstName)
	existing.LastName = strings.Clone(u.LastName)
	existing.Email = strings.Clone(u.Email)
	existing.UpdatedAt = now

	prof, ok := s.profiles[u.ID]
	if !ok {
		prof = user.Profile{ID: p.ID, UserID: u.ID, CreatedAt: now}
		if prof.ID == uuid.Nil {
			prof.ID = uuid.New()
		}
	}
	prof.Bio = strings.Clone(p.Bio)
	prof.Location = strings.Clone(p.Location)
	prof.BirthDate = copyTime(p.BirthDate)
	prof.UpdatedAt = now

	s.users[u.ID] = existing
	s.profiles[u.ID] = prof
	return nil
}

// Profile returns the stored profile for userID, if any.
func (s *Store) Profile(userID uuid.UUID) (user.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	return p, ok
}

func (s *Store) CreateTodo(_ context.Context, t todo.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[t.OwnerID]; !ok {
		return user.ErrNotFound
	}
	t.Title = strings.Clone(t.Title)
	t.Description = strings.Clone(t.Description)
	s.todos[t.ID] = t
	return nil
}

func (s *Store) GetTodoByID(_ context.Context, id uuid.UUID) (todo.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.todos[id]
	if !ok {
		return todo.Todo{}, todo.ErrNotFound
	}
	return t, nil
}

func (s *Store) ListTodosByOwner(_ context.Context, ownerID uuid.UUID) ([]todo.Todo, error) {
	s.mu.RLock()
	out := make([]todo.Todo, 0)
	for _, t := range s.todos {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	s.mu.RUnlock()

	sortTodos(out, func(i int) todo.Todo { return out[i] }, false)
	return out, nil
}

func (s *Store) UpdateTodo(_ context.Context, t todo.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.todos[t.ID]
	if !ok {
		return todo.ErrNotFound
	}
	existing.Title = strings.Clone(t.Title)
	existing.Description = strings.Clone(t.Description)
	existing.Completed = t.Completed
	s.todos[t.ID] = existing
	return nil
}

func (s *Store) DeleteTodo(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.todos[id]; !ok {
		return todo.ErrNotFound
	}
	delete(s.todos, id)
	return nil
}

func (s *Store) ListTodos(_ context.Context, f todo.ListFilter) ([]todo.ListRow, error) {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	s.mu.RLock()
	out := make([]todo.ListRow, 0)
	for _, t := range s.todos {
		if f.Completed != nil && t.Completed != *f.Completed {
			continue
		}
		if f.CreatedSince != nil && t.CreatedAt.Before(*f.CreatedSince) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		out = append(out, todo.ListRow{Todo: t, OwnerUsername: s.users[t.OwnerID].Username})
	}
	s.mu.RUnlock()

	sortTodos(out, func(i int) todo.Todo { return out[i].Todo }, true)
	return out, nil
}

func sortTodos[T any](items []T, at func(int) todo.Todo, newestFirst bool) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := at(i), at(j)
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID.String() < b.ID.String()
		}
		if newestFirst {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

// cloneUser copies the strings of u. Callers may pass strings that alias a
// request buffer which is reused once the request ends.
func cloneUser(u user.User) user.User {
	u.Username = strings.Clone(u.Username)
	u.Email = strings.Clone(u.Email)
	u.PasswordHash = strings.Clone(u.PasswordHash)
	u.FirstName = strings.Clone(u.FirstName)
	u.LastName = strings.Clone(u.LastName)
	return u
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
