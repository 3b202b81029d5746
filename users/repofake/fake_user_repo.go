package fakeuserrepo

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-session-service/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users       map[string]*users.User
	usernameIds map[string]string // lower-cased username to user id
	emailIds    map[string]string // email to user id
	lock        sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:       make(map[string]*users.User),
		usernameIds: make(map[string]string),
		emailIds:    make(map[string]string),
	}
}

func (ur *FakeUserRepo) Create(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	usernameKey := strings.ToLower(user.Username)
	if _, ok := ur.usernameIds[usernameKey]; ok {
		return users.DuplicateUserErr
	}
	if _, ok := ur.emailIds[user.Email]; ok {
		return users.DuplicateUserErr
	}

	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	stored := *user
	ur.users[stored.ID] = &stored
	ur.usernameIds[usernameKey] = stored.ID
	ur.emailIds[stored.Email] = stored.ID
	return nil
}

func (ur *FakeUserRepo) GetByID(_ context.Context, id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	user, ok := ur.users[id]
	if !ok {
		return nil, users.NotFoundErr
	}
	copied := *user
	return &copied, nil
}

func (ur *FakeUserRepo) GetByUsernameOrEmail(_ context.Context, identifier string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.usernameIds[strings.ToLower(identifier)]
	if !ok {
		id, ok = ur.emailIds[identifier]
	}
	if !ok {
		return nil, users.NotFoundErr
	}
	copied := *ur.users[id]
	return &copied, nil
}

// UpdateRefreshToken performs the compare-and-set under the write lock so
// two concurrent rotations of the same token cannot both succeed.
func (ur *FakeUserRepo) UpdateRefreshToken(_ context.Context, id, newValue, expectedOldValue string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return users.NotFoundErr
	}
	if user.RefreshToken != expectedOldValue {
		return users.RefreshTokenMismatchErr
	}
	user.RefreshToken = newValue
	return nil
}

func (ur *FakeUserRepo) SetRefreshToken(_ context.Context, id, value string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return users.NotFoundErr
	}
	user.RefreshToken = value
	return nil
}

func (ur *FakeUserRepo) ClearRefreshToken(_ context.Context, id string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return users.NotFoundErr
	}
	user.RefreshToken = ""
	return nil
}
