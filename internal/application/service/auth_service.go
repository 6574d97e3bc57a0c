package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/tillpoint/pos/internal/config"
	"github.com/tillpoint/pos/internal/domain/entity"
	"github.com/tillpoint/pos/internal/domain/enum"
	"github.com/tillpoint/pos/internal/domain/repository"
	infraRepo "github.com/tillpoint/pos/internal/infrastructure/repository"
	"github.com/tillpoint/pos/pkg/apperror"
	"github.com/tillpoint/pos/pkg/utils"
)

// AuthService handles PIN login against the locally cached cashier
// profiles, so the register works with no connectivity.
type AuthService struct {
	userRepo     repository.DeviceUserRepository
	settingsRepo repository.SettingsRepository
	shifts       *ShiftService
	jwtManager   *utils.JWTManager
	cfg          config.AuthConfig
	now          func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repository.DeviceUserRepository,
	settingsRepo repository.SettingsRepository,
	shifts *ShiftService,
	jwtManager *utils.JWTManager,
	cfg config.AuthConfig,
) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		settingsRepo: settingsRepo,
		shifts:       shifts,
		jwtManager:   jwtManager,
		cfg:          cfg,
		now:          time.Now,
	}
}

// LoginOutput represents a successful login
type LoginOutput struct {
	Token string             `json:"token"`
	User  *entity.DeviceUser `json:"user"`
}

// Login verifies a cashier's PIN. Consecutive failures climb a lockout
// ladder; reaching a tier locks the profile for that tier's duration, and a
// correct PIN resets the counter.
func (s *AuthService) Login(ctx context.Context, userID uuid.UUID, pin string) (*LoginOutput, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NewNotFoundError("User")
	}

	now := s.now()
	if user.Locked(now) {
		minutes := int(user.LockedUntil.Sub(now).Minutes()) + 1
		return nil, apperror.NewAppError(http.StatusLocked,
			fmt.Sprintf("Too many failed attempts. Try again in %d minutes", minutes))
	}

	if !utils.CheckPIN(user.PINHash, pin) {
		attempts, recErr := s.userRepo.RecordFailedAttempt(ctx, userID)
		if recErr != nil {
			return nil, recErr
		}
		if lock, locked := s.lockFor(attempts); locked {
			if err := s.userRepo.SetLockout(ctx, userID, now.Add(lock)); err != nil {
				return nil, err
			}
		}
		return nil, apperror.ErrInvalidPIN
	}

	if err := s.userRepo.ResetFailedAttempts(ctx, userID); err != nil {
		return nil, err
	}

	settings, err := s.ensureSettings(ctx, user)
	if err != nil {
		return nil, err
	}

	// Without cash management nobody opens the drawer by hand, so a shift
	// starts with the first login of the day.
	if !settings.CashManagement {
		dctx := infraRepo.WithDevice(ctx, user.CompanyID, user.LocationID)
		if err := s.autoOpenShift(dctx, user.ID); err != nil {
			return nil, err
		}
	}

	token, err := s.jwtManager.GenerateToken(user.ID, user.CompanyID, user.LocationID, user.Name, user.Role)
	if err != nil {
		return nil, err
	}

	return &LoginOutput{Token: token, User: user}, nil
}

// lockFor maps a failure count to a lockout duration. Only exact tier hits
// lock, so attempt 4 after a served 5-minute lock does not re-lock.
func (s *AuthService) lockFor(attempts int) (time.Duration, bool) {
	switch attempts {
	case s.cfg.Tier1Attempts:
		return s.cfg.Tier1Lock, true
	case s.cfg.Tier2Attempts:
		return s.cfg.Tier2Lock, true
	}
	if attempts >= s.cfg.Tier3Attempts {
		return s.cfg.Tier3Lock, true
	}
	return 0, false
}

// ListUsers returns the cashier profiles cached on this device for the
// login screen.
func (s *AuthService) ListUsers(ctx context.Context) ([]entity.DeviceUser, error) {
	return s.userRepo.List(ctx)
}

// GetUser returns the cached profile for the signed-in cashier.
func (s *AuthService) GetUser(ctx context.Context, userID uuid.UUID) (*entity.DeviceUser, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NewNotFoundError("User")
	}
	return user, nil
}

// ensureSettings creates the billing settings singleton on the first
// successful login at this location. After that it is only ever updated.
func (s *AuthService) ensureSettings(ctx context.Context, user *entity.DeviceUser) (*entity.BillingSettings, error) {
	settings, err := s.settingsRepo.Get(ctx, user.LocationID)
	if err != nil {
		return nil, err
	}
	if settings != nil {
		return settings, nil
	}

	paymentTypes, _ := json.Marshal([]string{"cash", "card"})
	orderTypes, _ := json.Marshal([]string{"dinein", "pickup", "delivery"})

	settings = &entity.BillingSettings{
		CompanyID:         user.CompanyID,
		LocationID:        user.LocationID,
		Industry:          enum.IndustryRestaurant,
		PaymentTypes:      paymentTypes,
		OrderTypes:        orderTypes,
		ReceiptPrintCount: 1,
	}
	if err := s.settingsRepo.Create(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// autoOpenShift starts a zero-float shift unless one is already open. A
// conflict from a racing login on the same device is not an error.
func (s *AuthService) autoOpenShift(ctx context.Context, userID uuid.UUID) error {
	current, err := s.shifts.CurrentShift(ctx)
	if err != nil {
		return err
	}
	if current != nil {
		return nil
	}
	if _, err := s.shifts.OpenShift(ctx, &OpenShiftInput{UserID: userID}); err != nil && !isConflictError(err) {
		return err
	}
	return nil
}

// Logout ends the cashier's session on this device. When cash management is
// off the auto-opened shift closes with it, counted at the expected amount.
func (s *AuthService) Logout(ctx context.Context) error {
	locationID, ok := infraRepo.GetLocationID(ctx)
	if !ok {
		return apperror.NewBadRequestError("Device context required")
	}

	settings, err := s.settingsRepo.Get(ctx, locationID)
	if err != nil {
		return err
	}
	if settings != nil && settings.CashManagement {
		return nil
	}

	_, err = s.shifts.CloseShiftAtExpected(ctx)
	return err
}

func isConflictError(err error) bool {
	return apperror.GetAppError(err).Code == http.StatusConflict
}
