package usecase

import (
	"context"

	"dmbox/internal/entity"
	"dmbox/internal/repository"
)

type UserUsecase interface {
	Get(ctx context.Context, userId string) (entity.User, error)
	GetProfile(ctx context.Context, userId string) (entity.PublicProfile, error)
}

type userUsecase struct {
	userRepo repository.UserRepository
}

func NewUserUsecase(userRepo repository.UserRepository) UserUsecase {
	return &userUsecase{
		userRepo: userRepo,
	}
}

func (u *userUsecase) Get(ctx context.Context, userId string) (entity.User, error) {
	user, err := u.userRepo.Get(ctx, userId)
	if err != nil {
		return entity.User{}, err
	}

	user.Password = ""
	return user, nil
}

func (u *userUsecase) GetProfile(ctx context.Context, userId string) (entity.PublicProfile, error) {
	user, err := u.userRepo.Get(ctx, userId)
	if err != nil {
		return entity.PublicProfile{}, err
	}

	return user.Profile(), nil
}
