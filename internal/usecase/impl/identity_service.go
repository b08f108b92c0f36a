package impl

import (
	"context"
	"log/slog"

	deliverycontext "clinicore/internal/delivery/context"
	"clinicore/internal/domain/entity"
	"clinicore/internal/domain/repository"
	"clinicore/internal/domain/service"
	"clinicore/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// identityService implements the IdentityUsecase interface.
type identityService struct {
	txManager   repository.TransactionManager
	patientRepo repository.PatientProfileRepository
	logger      *slog.Logger
}

// IdentityServiceParams holds dependencies for identityService, injected by Fx.
type IdentityServiceParams struct {
	fx.In

	TxManager   repository.TransactionManager
	PatientRepo repository.PatientProfileRepository
	Logger      *slog.Logger
}

// NewIdentityService is the constructor for identityService.
func NewIdentityService(params IdentityServiceParams) usecase.IdentityUsecase {
	return &identityService{
		txManager:   params.TxManager,
		patientRepo: params.PatientRepo,
		logger:      params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *identityService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Authenticate resolves verified claims to a global identity and a tenant
// profile inside one transaction. Resolution is three steps: the external
// subject is authoritative, the email is a linking hint, and only when both
// miss is the person considered new.
func (srv *identityService) Authenticate(ctx context.Context, input usecase.AuthenticateInput) (*usecase.AuthenticateOutput, error) {
	claims := input.Claims
	output := &usecase.AuthenticateOutput{}

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		identityRepo := repoFactory.IdentityRepo()
		patientRepo := repoFactory.PatientRepo()

		identity, linked, err := srv.resolveIdentity(ctx, identityRepo, claims)
		if err != nil {
			return err
		}
		output.Identity = identity
		output.AccountLinked = linked

		profile, created, err := srv.resolveProfile(ctx, patientRepo, input.TenantID, identity, claims)
		if err != nil {
			return err
		}
		output.Profile = profile
		output.IsNewProfile = created

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to execute authentication transaction",
			slog.Any("tenantID", input.TenantID),
			slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute authentication transaction")
	}

	srv.log(ctx).Info("External authentication resolved",
		slog.Any("tenantID", input.TenantID),
		slog.Any("identityID", output.Identity.ID),
		slog.Bool("newProfile", output.IsNewProfile),
		slog.Bool("accountLinked", output.AccountLinked))

	return output, nil
}

// resolveIdentity finds or creates the global identity for the claims.
func (srv *identityService) resolveIdentity(
	ctx context.Context,
	identityRepo repository.IdentityRepository,
	claims *service.ExternalClaims,
) (identity *entity.Identity, linked bool, err error) {
	// Step 1: the provider subject is the stable key for returning users.
	identity, err = identityRepo.FindByGoogleSubject(ctx, claims.Subject)
	if err == nil {
		return identity, false, nil
	}
	if !errors.Is(err, repository.ErrIdentityNotFound) {
		return nil, false, errors.Wrap(err, "failed to find identity by subject")
	}

	// Step 2: a local account with the same email becomes a linked account.
	// The password hash is left untouched so local login keeps working.
	identity, err = identityRepo.FindByEmail(ctx, claims.Email)
	if err == nil {
		identity.GoogleSubject = claims.Subject
		if err := identityRepo.Update(ctx, identity); err != nil {
			return nil, false, errors.Wrap(err, "failed to link identity")
		}

		srv.log(ctx).Info("Linked external subject to existing account",
			slog.Any("identityID", identity.ID))

		return identity, true, nil
	}
	if !errors.Is(err, repository.ErrIdentityNotFound) {
		return nil, false, errors.Wrap(err, "failed to find identity by email")
	}

	// Step 3: nobody matched; this is a new person.
	identity = &entity.Identity{
		Email:         claims.Email,
		GoogleSubject: claims.Subject,
	}
	if err := identityRepo.Create(ctx, identity); err != nil {
		return nil, false, errors.Wrap(err, "failed to create identity")
	}

	return identity, false, nil
}

// resolveProfile finds or creates the tenant-scoped patient profile,
// backfilling the denormalized subject on profiles that predate the external login.
func (srv *identityService) resolveProfile(
	ctx context.Context,
	patientRepo repository.PatientProfileRepository,
	tenantID uuid.UUID,
	identity *entity.Identity,
	claims *service.ExternalClaims,
) (profile *entity.PatientProfile, created bool, err error) {
	profile, err = patientRepo.FindByTenantAndIdentity(ctx, tenantID, identity.ID)
	if err == nil {
		if profile.GoogleSubject != claims.Subject {
			profile.GoogleSubject = claims.Subject
			if err := patientRepo.Update(ctx, profile); err != nil {
				return nil, false, errors.Wrap(err, "failed to backfill profile subject")
			}
		}

		return profile, false, nil
	}
	if !errors.Is(err, repository.ErrPatientProfileNotFound) {
		return nil, false, errors.Wrap(err, "failed to find patient profile")
	}

	profile = &entity.PatientProfile{
		TenantID:      tenantID,
		IdentityID:    identity.ID,
		FirstName:     claims.GivenName,
		LastName:      claims.FamilyName,
		Email:         claims.Email,
		GoogleSubject: claims.Subject,
	}
	if err := patientRepo.Create(ctx, profile); err != nil {
		return nil, false, errors.Wrap(err, "failed to create patient profile")
	}

	return profile, true, nil
}

// FindByExternalID is a pure tenant-scoped read with no side effects.
func (srv *identityService) FindByExternalID(ctx context.Context, tenantID uuid.UUID, subject string) (*entity.PatientProfile, error) {
	profile, err := srv.patientRepo.FindByTenantAndGoogleSubject(ctx, tenantID, subject)
	if err != nil {
		if errors.Is(err, repository.ErrPatientProfileNotFound) {
			return nil, repository.ErrPatientProfileNotFound
		}

		return nil, errors.Wrap(err, "failed to find patient profile by subject")
	}

	return profile, nil
}
