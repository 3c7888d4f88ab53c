package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jobhubhq/jobhub/internal/domain/user"
	"github.com/jobhubhq/jobhub/internal/repo/mongodb"
)

// UsersRepo is an in-memory stand-in for the mongo users repo. It returns
// the same sentinel errors so handler code cannot tell them apart.
type UsersRepo struct {
	mu      sync.RWMutex
	byID    map[string]user.User
	byEmail map[string]string
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		byID:    make(map[string]user.User),
		byEmail: make(map[string]string),
	}
}

func (r *UsersRepo) Create(_ context.Context, p user.CreateParams) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[p.Email]; exists {
		return user.User{}, mongodb.ErrEmailAlreadyUsed
	}

	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
		FullName:     p.FullName,
		Role:         p.Role,
		Profile: user.Profile{
			Resume:             p.Resume,
			ResumeOriginalName: p.ResumeOriginalName,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.byID[u.ID] = u
	r.byEmail[u.Email] = u.ID

	return u, nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]

	if !ok {
		return user.User{}, mongodb.ErrUserNotFound
	}

	return r.byID[id], nil
}

func (r *UsersRepo) GetByID(_ context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]

	if !ok {
		return user.User{}, mongodb.ErrUserNotFound
	}

	return u, nil
}

func (r *UsersRepo) UpdateProfile(_ context.Context, id string, p user.UpdateParams) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]

	if !ok {
		return user.User{}, mongodb.ErrUserNotFound
	}

	if p.FullName != nil {
		u.FullName = *p.FullName
	}
	if p.Bio != nil {
		u.Profile.Bio = *p.Bio
	}
	if p.PhoneNumber != nil {
		u.Profile.PhoneNumber = *p.PhoneNumber
	}
	if p.Skills != nil {
		u.Profile.Skills = p.Skills
	}
	if p.Resume != nil {
		u.Profile.Resume = *p.Resume
	}
	if p.ResumeOriginalName != nil {
		u.Profile.ResumeOriginalName = *p.ResumeOriginalName
	}
	if p.Photo != nil {
		u.Profile.Photo = *p.Photo
	}

	u.UpdatedAt = time.Now().UTC()
	r.byID[id] = u

	return u, nil
}

// Delete exists for tests that exercise the deleted-identity race.
func (r *UsersRepo) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.byID[id]; ok {
		delete(r.byEmail, u.Email)
		delete(r.byID, id)
	}
}
