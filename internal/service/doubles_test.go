package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/partkeep/partkeep/internal/data"
	domainauth "github.com/partkeep/partkeep/internal/domain/auth"
	"github.com/partkeep/partkeep/internal/domain/model"
)

// memoryUserStore is an in-memory UserStore for unit tests.
type memoryUserStore struct {
	byID map[string]*model.User

	// Optional error injection for transport-failure paths.
	err error
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{byID: make(map[string]*model.User)}
}

func (s *memoryUserStore) Create(_ context.Context, params data.CreateUserParams) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, u := range s.byID {
		if u.Username == params.Username {
			return nil, data.ErrUsernameExists
		}
		if u.Email == params.Email {
			return nil, data.ErrEmailExists
		}
	}
	u := &model.User{
		ID:        params.ID,
		Username:  params.Username,
		Email:     params.Email,
		FullName:  params.FullName,
		Role:      params.Role,
		CreatedAt: time.Now().UTC(),
	}
	s.byID[u.ID] = u
	return copyUser(u), nil
}

func (s *memoryUserStore) GetByID(_ context.Context, id string) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.byID[id]
	if !ok {
		return nil, data.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (s *memoryUserStore) GetByUsername(_ context.Context, username string) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, u := range s.byID {
		if u.Username == username {
			return copyUser(u), nil
		}
	}
	return nil, data.ErrUserNotFound
}

func (s *memoryUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, u := range s.byID {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, data.ErrUserNotFound
}

func (s *memoryUserStore) List(_ context.Context, opts model.UsersListOptions) ([]*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	var res []*model.User
	for _, u := range s.byID {
		if opts.Q != nil && *opts.Q != "" && !strings.Contains(u.Username, *opts.Q) {
			continue
		}
		if opts.Role != nil && *opts.Role != "" && u.Role != *opts.Role {
			continue
		}
		res = append(res, copyUser(u))
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Username < res[j].Username })
	return res, nil
}

func (s *memoryUserStore) Count(ctx context.Context, opts model.UsersListOptions) (int, error) {
	users, err := s.List(ctx, opts)
	if err != nil {
		return 0, err
	}
	return len(users), nil
}

func (s *memoryUserStore) Update(
	_ context.Context,
	username string,
	req model.UpdateUserRequest,
) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, u := range s.byID {
		if u.Username == username {
			if req.FullName != nil {
				u.FullName = *req.FullName
			}
			if req.Role != nil {
				u.Role = *req.Role
			}
			u.UpdatedAt = time.Now().UTC()
			return copyUser(u), nil
		}
	}
	return nil, data.ErrUserNotFound
}

func (s *memoryUserStore) Delete(_ context.Context, username string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	for id, u := range s.byID {
		if u.Username == username {
			delete(s.byID, id)
			return true, nil
		}
	}
	return false, nil
}

func copyUser(u *model.User) *model.User {
	c := *u
	return &c
}

func seedUser(store *memoryUserStore, id, username string, role domainauth.Role) *model.User {
	u := &model.User{
		ID:        id,
		Username:  username,
		Email:     username + "@example.com",
		FullName:  strings.ToTitle(username[:1]) + username[1:],
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	store.byID[id] = u
	return u
}
