package services

import (
	"context"
	"errors"
	"strings"

	"team-tasks/backend/internal/apperrors"
	"team-tasks/backend/internal/models"
	"team-tasks/backend/internal/repositories"

	"github.com/gofrs/uuid"
	"golang.org/x/crypto/bcrypt"
)

type RegistrationRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// RegistrationResult reports what the registration protocol produced:
// the user, and the team it resolved to (the default team for a first
// admin, the granted team for an invite redemption, nil otherwise).
type RegistrationResult struct {
	User *models.User
	Team *models.Team
}

type RegisterService interface {
	// RegisterUser runs the plain registration protocol. The first
	// user in the system becomes an admin and gets a default team;
	// everyone after that registers as a member with no team.
	RegisterUser(ctx context.Context, req RegistrationRequest) (*RegistrationResult, error)

	// RegisterWithGrant registers a new member and joins them to the
	// granted team, all inside one transaction.
	RegisterWithGrant(ctx context.Context, req RegistrationRequest, teamID uuid.UUID) (*RegistrationResult, error)
}

type RegisterServiceImpl struct {
	store repositories.Store
}

func NewRegisterService(store repositories.Store) *RegisterServiceImpl {
	return &RegisterServiceImpl{store: store}
}

// Registration is an explicit sequence — Validate, CreateUser,
// ResolveTeam, Commit — rather than conditionals scattered through
// one method. The whole sequence runs in a single transaction so a
// half-registered account is never observable.

func (s *RegisterServiceImpl) RegisterUser(ctx context.Context, req RegistrationRequest) (*RegistrationResult, error) {
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	result := &RegistrationResult{}
	err := s.store.WithTransaction(ctx, func(tx repositories.Store) error {
		count, err := tx.Users().Count(ctx)
		if err != nil {
			return err
		}

		role := models.RoleMember
		if count == 0 {
			role = models.RoleAdmin
		}

		user, err := s.createUser(ctx, tx, req, role)
		if err != nil {
			return err
		}
		result.User = user

		if role == models.RoleAdmin {
			team, err := s.createDefaultTeam(ctx, tx, user)
			if err != nil {
				return err
			}
			result.Team = team
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *RegisterServiceImpl) RegisterWithGrant(ctx context.Context, req RegistrationRequest, teamID uuid.UUID) (*RegistrationResult, error) {
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	result := &RegistrationResult{}
	err := s.store.WithTransaction(ctx, func(tx repositories.Store) error {
		team, err := tx.Teams().FindByID(ctx, teamID)
		if err != nil {
			return err
		}

		user, err := s.createUser(ctx, tx, req, models.RoleMember)
		if err != nil {
			return err
		}

		if err := tx.Teams().AddMember(ctx, team.ID, user.ID); err != nil {
			return err
		}

		result.User = user
		result.Team = team
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *RegisterServiceImpl) validate(ctx context.Context, req RegistrationRequest) error {
	if req.Name == "" || req.Email == "" {
		return apperrors.BadRequest("name and email are required")
	}
	if len(req.Password) < 8 {
		return apperrors.BadRequest("password must be at least 8 characters")
	}

	_, err := s.store.Users().FindByEmail(ctx, strings.ToLower(req.Email))
	if err == nil {
		return apperrors.Conflict("email already exists")
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}
	return nil
}

func (s *RegisterServiceImpl) createUser(ctx context.Context, tx repositories.Store, req RegistrationRequest, role string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Infrastructure(err)
	}

	user := &models.User{
		ID:       uuid.Must(uuid.NewV4()),
		Name:     req.Name,
		Email:    strings.ToLower(req.Email),
		Password: string(hashedPassword),
		Role:     role,
	}
	if err := tx.Users().Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *RegisterServiceImpl) createDefaultTeam(ctx context.Context, tx repositories.Store, owner *models.User) (*models.Team, error) {
	team := &models.Team{
		ID:          uuid.Must(uuid.NewV4()),
		Name:        owner.Name + "'s team",
		Description: "Default team",
		OwnerID:     owner.ID,
	}
	if err := tx.Teams().Create(ctx, team); err != nil {
		return nil, err
	}
	return team, nil
}
