package devseed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/partkeep/partkeep/internal/adapters/localauth"
	"github.com/partkeep/partkeep/internal/data"
	domainauth "github.com/partkeep/partkeep/internal/domain/auth"
	"github.com/partkeep/partkeep/internal/domain/model"
	"github.com/partkeep/partkeep/internal/service"
)

// Services bundles the dependencies needed for development seeding.
type Services struct {
	DB         *sql.DB
	users      *service.UserService
	components *service.ComponentService
}

// NewServices constructs all required services for seeding using the provided DB.
func NewServices(db *sql.DB) Services {
	userRepo := data.NewUserRepo(db)
	credentialRepo := data.NewCredentialRepo(db)
	userService := service.MustNewUserService(service.UserServiceOptions{
		Users:    userRepo,
		Verifier: localauth.NewVerifier(credentialRepo),
	})

	componentService := service.MustNewComponentService(service.ComponentServiceOptions{
		Repo: data.NewComponentRepo(db),
	})

	return Services{
		DB:         db,
		users:      userService,
		components: componentService,
	}
}

// Run executes the full development seeding workflow against the provided DB.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) error {
	failures := 0
	failures += seedUsers(ctx, svcs.users, logger)
	failures += seedComponents(ctx, svcs.components, logger)
	if failures > 0 {
		return fmt.Errorf("%d seed errors; check logs", failures)
	}
	return nil
}

func seedUsers(ctx context.Context, svc *service.UserService, logger *slog.Logger) int {
	failures := 0
	for _, req := range defaultUsers() {
		created, err := createUser(ctx, svc, req)
		if err != nil {
			if logger != nil {
				logger.ErrorContext(ctx, "failed to create user", "username", req.Username, "error", err)
			}
			failures++
			continue
		}
		if logger != nil {
			msg := "user already exists"
			if created {
				msg = "created user"
			}
			logger.InfoContext(ctx, msg, "username", req.Username, "role", req.Role)
		}
	}
	return failures
}

// Development accounts only. The passwords are intentionally obvious; never
// run seeding against anything but a local database.
func defaultUsers() []model.CreateUserRequest {
	return []model.CreateUserRequest{
		{
			Username:        "admin",
			Email:           "admin@partkeep.local",
			FullName:        "Ada Admin",
			Role:            domainauth.RoleAdmin,
			Password:        "admin-dev-password",
			ConfirmPassword: "admin-dev-password",
		},
		{
			Username:        "manager",
			Email:           "manager@partkeep.local",
			FullName:        "Mary Manager",
			Role:            domainauth.RoleManager,
			Password:        "manager-dev-password",
			ConfirmPassword: "manager-dev-password",
		},
		{
			Username:        "designer",
			Email:           "designer@partkeep.local",
			FullName:        "Dana Designer",
			Role:            domainauth.RoleDesigner,
			Password:        "designer-dev-password",
			ConfirmPassword: "designer-dev-password",
		},
	}
}

func createUser(ctx context.Context, svc *service.UserService, req model.CreateUserRequest) (bool, error) {
	if _, err := svc.Create(ctx, req); err != nil {
		if errors.Is(err, data.ErrUsernameExists) || errors.Is(err, data.ErrEmailExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func seedComponents(ctx context.Context, svc *service.ComponentService, logger *slog.Logger) int {
	failures := 0
	for _, req := range defaultComponents() {
		created, err := submitComponent(ctx, svc, req)
		if err != nil {
			if logger != nil {
				logger.ErrorContext(ctx, "failed to seed component",
					"part_number", req.PartNumber,
					"version", req.VersionNumber,
					"error", err,
				)
			}
			failures++
			continue
		}
		if logger != nil {
			msg := "component version already exists"
			if created {
				msg = "seeded component version"
			}
			logger.InfoContext(ctx, msg, "part_number", req.PartNumber, "version", req.VersionNumber)
		}
	}
	return failures
}

func defaultComponents() []model.SubmitComponentRequest {
	return []model.SubmitComponentRequest{
		{
			PartNumber:    "BRKT-1001",
			PartName:      "Mounting Bracket, Left",
			Description:   stringPtr("Sheet metal bracket, 2mm cold rolled steel"),
			Status:        model.ComponentStatusReleased,
			VersionNumber: "A",
			Cost:          floatPtr(4.25),
			CreatedBy:     "designer",
		},
		{
			PartNumber:    "BRKT-1001",
			PartName:      "Mounting Bracket, Left",
			Description:   stringPtr("Added relief cuts near the bend line"),
			Status:        model.ComponentStatusReleased,
			VersionNumber: "B",
			Cost:          floatPtr(4.40),
			CreatedBy:     "designer",
		},
		{
			PartNumber:    "SHFT-2040",
			PartName:      "Drive Shaft 40mm",
			Description:   stringPtr("Turned 1045 steel, keyed both ends"),
			Status:        model.ComponentStatusDraft,
			VersionNumber: "A",
			Cost:          floatPtr(18.90),
			CreatedBy:     "designer",
		},
		{
			PartNumber:    "HSNG-3300",
			PartName:      "Gearbox Housing",
			Description:   stringPtr("Cast aluminum housing, machined faces"),
			Status:        model.ComponentStatusObsolete,
			VersionNumber: "C",
			CreatedBy:     "manager",
		},
	}
}

func submitComponent(
	ctx context.Context,
	svc *service.ComponentService,
	req model.SubmitComponentRequest,
) (bool, error) {
	if _, err := svc.Submit(ctx, req, nil); err != nil {
		if errors.Is(err, data.ErrVersionExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func stringPtr(s string) *string  { return &s }
func floatPtr(f float64) *float64 { return &f }
