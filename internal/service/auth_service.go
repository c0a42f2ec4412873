package service

import (
	"errors"

	"gapmentor_backend/internal/config"
	"gapmentor_backend/internal/model"
	"gapmentor_backend/internal/repository"
	"gapmentor_backend/internal/util"
	"gapmentor_backend/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	users *repository.UserRepository
	jwt   config.JWTConfig
}

func NewAuthService(users *repository.UserRepository, jwt config.JWTConfig) *AuthService {
	return &AuthService{users: users, jwt: jwt}
}

type RegisterParams struct {
	Username string
	Email    string
	Password string
	FullName string
}

// Register creates a new account. Username and email are checked up front
// for a usable error message; the unique indexes remain the authority under
// concurrent registration.
func (s *AuthService) Register(params RegisterParams) (*model.User, error) {
	if _, err := s.users.FindByUsername(params.Username); err == nil {
		return nil, util.ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if _, err := s.users.FindByEmail(params.Email); err == nil {
		return nil, util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: params.Username,
		Email:    params.Email,
		Password: string(hashed),
		FullName: params.FullName,
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}

	logger.Log.Info("user registered", zap.Uint("userId", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Login authenticates by username or email and returns a signed token.
// Unknown identifier and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(identifier, password string) (string, *model.User, error) {
	user, err := s.users.FindByUsernameOrEmail(identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, util.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, util.ErrInvalidCredentials
	}

	if err := s.users.UpdateLastLogin(user.ID); err != nil {
		logger.Log.Warn("failed to update last login", zap.Uint("userId", user.ID), zap.Error(err))
	}

	token, err := util.GenerateJWT(user, s.jwt.Secret, s.jwt.ExpireTime)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *AuthService) GetCurrentUser(userID uint) (*model.User, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
