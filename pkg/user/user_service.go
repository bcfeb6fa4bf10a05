package user

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserDataInvalid = errors.New("invalid user data")
)

type Service interface {
	GetCurrentUser(ctx context.Context) (User, error)
	GetUser(ctx context.Context, id int) (User, error)
	// SignIn creates the user on first sign-in and refreshes the profile afterwards.
	SignIn(ctx context.Context, profile User) (User, error)
}

type UserServiceImpl struct {
	repo Repo
}

func NewUserService(repo Repo) *UserServiceImpl {
	return &UserServiceImpl{repo: repo}
}

func (u *UserServiceImpl) GetCurrentUser(ctx context.Context) (User, error) {
	userId, err := CurrentId(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return u.GetUser(ctx, userId)
}

func (u *UserServiceImpl) GetUser(ctx context.Context, id int) (User, error) {
	return u.repo.GetUser(ctx, id)
}

func (u *UserServiceImpl) SignIn(ctx context.Context, profile User) (User, error) {
	if profile.Uid == "" || profile.Email == "" {
		return User{}, ErrUserDataInvalid
	}

	existing, err := u.repo.GetUserByUid(ctx, profile.Uid)
	if errors.Is(err, ErrUserNotFound) {
		log.Debugf("First sign-in of %s, creating user", profile.Email)
		id, err := u.repo.CreateUser(ctx, profile)
		if err != nil {
			return User{}, fmt.Errorf("failed to create user: %w", err)
		}
		profile.Id = id
		return profile, nil
	}
	if err != nil {
		return User{}, err
	}

	if existing.Email == profile.Email && existing.DisplayName == profile.DisplayName && existing.PhotoUrl == profile.PhotoUrl {
		return existing, nil
	}
	return u.repo.UpdateUser(ctx, existing.Id, profile)
}
