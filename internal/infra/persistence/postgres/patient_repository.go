package postgres

import (
	"context"

	"clinicore/internal/domain/entity"
	domainerrors "clinicore/internal/domain/errors"
	"clinicore/internal/domain/repository"
	"clinicore/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// patientProfileRepository implements the domain.PatientProfileRepository interface.
type patientProfileRepository struct {
	db *gorm.DB
}

// NewPatientProfileRepository is the constructor for patientProfileRepository.
func NewPatientProfileRepository(db *gorm.DB) repository.PatientProfileRepository {
	return &patientProfileRepository{db: db}
}

// FindByTenantAndIdentity retrieves the profile linking an identity to a tenant.
func (repo *patientProfileRepository) FindByTenantAndIdentity(ctx context.Context, tenantID, identityID uuid.UUID) (*entity.PatientProfile, error) {
	var profileM model.PatientProfileModel
	if err := repo.db.WithContext(ctx).
		Where("tenant_id = ? AND identity_id = ?", tenantID, identityID).
		First(&profileM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrPatientProfileNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toPatientProfileDomain(&profileM), nil
}

// FindByTenantAndGoogleSubject retrieves a profile by its denormalized external subject within one tenant.
func (repo *patientProfileRepository) FindByTenantAndGoogleSubject(ctx context.Context, tenantID uuid.UUID, subject string) (*entity.PatientProfile, error) {
	var profileM model.PatientProfileModel
	if err := repo.db.WithContext(ctx).
		Where("tenant_id = ? AND google_subject = ?", tenantID, subject).
		First(&profileM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrPatientProfileNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toPatientProfileDomain(&profileM), nil
}

// Create persists a new patient profile to the storage.
func (repo *patientProfileRepository) Create(ctx context.Context, profile *entity.PatientProfile) error {
	profileM := fromPatientProfileDomain(profile)

	if err := repo.db.WithContext(ctx).Create(profileM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrConflict.WrapMessage("patient profile already exists for this tenant")
		}
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.NewDatabaseExecuteError(err, "invalid identity reference")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create patient profile")
	}

	profile.ID = profileM.ID
	profile.CreatedAt = profileM.CreatedAt
	profile.UpdatedAt = profileM.UpdatedAt

	return nil
}

// Update modifies an existing patient profile in the storage.
func (repo *patientProfileRepository) Update(ctx context.Context, profile *entity.PatientProfile) error {
	profileM := fromPatientProfileDomain(profile)

	result := repo.db.WithContext(ctx).
		Model(&model.PatientProfileModel{}).
		Where("id = ?", profileM.ID).
		Updates(map[string]any{
			"first_name":     profileM.FirstName,
			"last_name":      profileM.LastName,
			"email":          profileM.Email,
			"phone":          profileM.Phone,
			"google_subject": profileM.GoogleSubject,
		})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update patient profile")
	}

	if result.RowsAffected == 0 {
		return repository.ErrPatientProfileNotFound
	}

	return nil
}

// --- Mapper Functions ---

// toPatientProfileDomain converts a GORM PatientProfileModel to a domain PatientProfile entity.
func toPatientProfileDomain(data *model.PatientProfileModel) *entity.PatientProfile {
	if data == nil {
		return nil
	}

	subject := ""
	if data.GoogleSubject != nil {
		subject = *data.GoogleSubject
	}

	return &entity.PatientProfile{
		ID:            data.ID,
		TenantID:      data.TenantID,
		IdentityID:    data.IdentityID,
		FirstName:     data.FirstName,
		LastName:      data.LastName,
		Email:         data.Email,
		Phone:         data.Phone,
		GoogleSubject: subject,
		CreatedAt:     data.CreatedAt,
		UpdatedAt:     data.UpdatedAt,
	}
}

// fromPatientProfileDomain converts a domain PatientProfile entity to a GORM PatientProfileModel.
func fromPatientProfileDomain(data *entity.PatientProfile) *model.PatientProfileModel {
	if data == nil {
		return nil
	}

	var subject *string
	if data.GoogleSubject != "" {
		subject = &data.GoogleSubject
	}

	return &model.PatientProfileModel{
		ID:            data.ID,
		TenantID:      data.TenantID,
		IdentityID:    data.IdentityID,
		FirstName:     data.FirstName,
		LastName:      data.LastName,
		Email:         data.Email,
		Phone:         data.Phone,
		GoogleSubject: subject,
	}
}
