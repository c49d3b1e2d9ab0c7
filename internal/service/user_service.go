package service

import (
	"context"
	"errors"

	"gameofbones/internal/models"
	"gameofbones/internal/repository"
	"gameofbones/internal/validation"

	"gorm.io/gorm"
)

type UserService struct {
	userRepo repository.UserRepository
	isAdmin  func(ctx context.Context, userID uint) (bool, error)
}

type UpdateUserInput struct {
	RequesterID uint
	UserID      uint
	Username    string
	Email       string
	Bio         *string
	Avatar      *string
}

func NewUserService(
	userRepo repository.UserRepository,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *UserService {
	return &UserService{userRepo: userRepo, isAdmin: isAdmin}
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.userRepo.List(ctx, limit, offset)
}

func (s *UserService) UpdateUser(ctx context.Context, in UpdateUserInput) (*models.User, error) {
	if err := s.requireSelfOrAdmin(ctx, in.RequesterID, in.UserID); err != nil {
		return nil, err
	}

	user, err := s.GetUser(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Username != "" && in.Username != user.Username {
		if err := validation.ValidateUsername(in.Username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		existing, err := s.userRepo.GetByUsername(ctx, in.Username)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, models.NewConflictError("Username already taken")
		}
		user.Username = in.Username
	}

	if in.Email != "" && in.Email != user.Email {
		if err := validation.ValidateEmail(in.Email); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		existing, err := s.userRepo.GetByEmail(ctx, in.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, models.NewConflictError("Email already registered")
		}
		user.Email = in.Email
	}

	if in.Bio != nil {
		user.Bio = *in.Bio
	}
	if in.Avatar != nil {
		user.Avatar = *in.Avatar
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, models.NewConflictError("Username or email already taken")
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, requesterID, userID uint) error {
	if err := s.requireSelfOrAdmin(ctx, requesterID, userID); err != nil {
		return err
	}
	if _, err := s.GetUser(ctx, userID); err != nil {
		return err
	}
	return s.userRepo.Delete(ctx, userID)
}

// SetAdmin grants or revokes the admin flag. Admin only, and an admin
// cannot revoke their own flag, so the system always keeps at least the
// acting admin.
func (s *UserService) SetAdmin(ctx context.Context, requesterID, userID uint, admin bool) (*models.User, error) {
	requesterAdmin, err := s.isAdmin(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if !requesterAdmin {
		return nil, models.NewForbiddenError("Admin privileges required")
	}
	if requesterID == userID && !admin {
		return nil, models.NewValidationError("Admins cannot demote themselves")
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.IsAdmin = admin
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) requireSelfOrAdmin(ctx context.Context, requesterID, userID uint) error {
	if requesterID == 0 {
		return models.NewUnauthorizedError("Authentication required")
	}
	if requesterID == userID {
		return nil
	}
	if s.isAdmin != nil {
		admin, err := s.isAdmin(ctx, requesterID)
		if err != nil {
			return err
		}
		if admin {
			return nil
		}
	}
	return models.NewForbiddenError("You can only modify your own account")
}
