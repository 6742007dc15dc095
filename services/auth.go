package services

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/djimmy2web/certifdiag_api/dto"
	"github.com/djimmy2web/certifdiag_api/model"
	"github.com/djimmy2web/certifdiag_api/shared"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService handles registration, login and the bearer-token middleware.
// Token handling is deliberately minimal; payments, email verification and
// device management live outside this engine.
type AuthService struct {
	context.DefaultService

	sqlSvc *PostgresService
	jwtSvc *JWTService
}

const AUTH_SVC = "auth_svc"

func (svc AuthService) Id() string {
	return AUTH_SVC
}

func (svc *AuthService) Configure(ctx *context.Context) error {
	svc.sqlSvc = ctx.Service(POSTGRES_SVC).(*PostgresService)
	svc.jwtSvc = ctx.Service(JWT_SVC).(*JWTService)
	return svc.DefaultService.Configure(ctx)
}

func (svc *AuthService) Start() error {
	return nil
}

func (svc *AuthService) Register(req dto.RegisterRequest) (*dto.RegisterResponse, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to process password")
	}

	user := &model.User{
		Email:    req.Email,
		Username: req.Username,
		Password: string(hashed),
		Role:     shared.RoleUser,
		IsActive: true,
	}

	created, err := svc.sqlSvc.CreateUser(user)
	if err != nil {
		return nil, shared.NewConflictError(err, "Email or username already in use")
	}

	// Seed the lives pool up front so the first session start doesn't pay
	// the creation cost.
	if _, err := svc.sqlSvc.GetOrCreateUserProgress(created.ID); err != nil {
		log.WithError(err).WithField("user_id", created.ID).Warn("Failed to initialize user progress")
	}

	log.WithFields(log.Fields{
		"user_id":  created.ID,
		"username": created.Username,
	}).Info("User registered")

	return &dto.RegisterResponse{
		UserID:    created.ID,
		Email:     created.Email,
		Username:  created.Username,
		CreatedAt: created.CreatedAt,
	}, nil
}

func (svc *AuthService) Login(req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := svc.sqlSvc.GetUserByEmailOrUsername(req.EmailOrUsername)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewUnauthorizedError(err, "Invalid credentials")
		}
		return nil, shared.NewInternalError(err, "Failed to load user")
	}

	if !user.IsActive {
		return nil, shared.NewForbiddenError(fmt.Errorf("user %s is deactivated", user.ID), "Account is deactivated")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, shared.NewUnauthorizedError(err, "Invalid credentials")
	}

	pair, err := svc.jwtSvc.GenerateTokenPair(user.ID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to issue token")
	}

	user.LastLogin = time.Now()
	if err := svc.sqlSvc.UpdateUser(user); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Warn("Failed to record last login")
	}

	return &dto.LoginResponse{
		UserID:      user.ID,
		Username:    user.Username,
		AccessToken: pair.AccessToken,
		ExpiresIn:   pair.ExpiresIn,
	}, nil
}

// RequiredAuth verifies the bearer token and stores the user id in the
// request locals under shared.UserID.
func (svc *AuthService) RequiredAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		token, err := svc.jwtSvc.ExtractTokenFromHeader(authHeader)
		if err != nil {
			return shared.ResponseJSON(c, http.StatusUnauthorized, "Unauthorized", err.Error())
		}

		userID, err := svc.jwtSvc.VerifyJWTToken(token)
		if err != nil {
			return shared.ResponseJSON(c, http.StatusUnauthorized, "Unauthorized", "Invalid JWT token")
		}
		if userID == "" {
			return shared.ResponseJSON(c, http.StatusUnauthorized, "Unauthorized", "Invalid user ID in token")
		}

		if _, err := svc.sqlSvc.GetUser(userID); err != nil {
			return shared.ResponseJSON(c, http.StatusUnauthorized, "Unauthorized", "Unknown user")
		}

		c.Locals(shared.UserID, userID)
		return c.Next()
	}
}
