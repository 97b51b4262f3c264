// Package memory holds a process-local UserRepository for development runs without PostgreSQL.
package memory

import (
	"context"
	"sync"

	"userapi/internal/model"
	"userapi/internal/repository"
)

// UserMemory keeps users in insertion order behind a RWMutex.
type UserMemory struct {
	mu     sync.RWMutex
	nextID int64
	users  []model.User
}

// NewUserMemory creates an empty repository whose first assigned ID is 1.
func NewUserMemory() *UserMemory {
	return &UserMemory{nextID: 1}
}

var _ repository.UserRepository = (*UserMemory)(nil)

func (r *UserMemory) FindAll(ctx context.Context) ([]model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.User, len(r.users))
	copy(out, r.users)
	return out, nil
}

func (r *UserMemory) FindByID(ctx context.Context, id int64) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexOf(id); i >= 0 {
		u := r.users[i]
		return &u, nil
	}
	return nil, repository.ErrNotFound
}

func (r *UserMemory) Save(ctx context.Context, user *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.Email != "" {
		for _, u := range r.users {
			if u.Email == user.Email && u.ID != user.ID {
				return nil, repository.ErrConstraintViolation
			}
		}
	}

	if i := r.indexOf(user.ID); user.ID != 0 && i >= 0 {
		r.users[i].Name = user.Name
		r.users[i].Email = user.Email
		u := r.users[i]
		return &u, nil
	}

	u := model.User{ID: r.nextID, Name: user.Name, Email: user.Email}
	r.nextID++
	r.users = append(r.users, u)
	return &u, nil
}

func (r *UserMemory) DeleteByID(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.indexOf(id); i >= 0 {
		r.users = append(r.users[:i], r.users[i+1:]...)
	}
	return nil
}

// indexOf must be called with mu held.
func (r *UserMemory) indexOf(id int64) int {
	for i, u := range r.users {
		if u.ID == id {
			return i
		}
	}
	return -1
}
