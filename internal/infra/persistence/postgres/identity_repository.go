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

// identityRepository implements the domain.IdentityRepository interface.
type identityRepository struct {
	db *gorm.DB
}

// NewIdentityRepository is the constructor for identityRepository.
func NewIdentityRepository(db *gorm.DB) repository.IdentityRepository {
	return &identityRepository{db: db}
}

// FindByID retrieves a single identity by its unique ID.
func (repo *identityRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Identity, error) {
	var identityM model.IdentityModel
	if err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&identityM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrIdentityNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toIdentityDomain(&identityM), nil
}

// FindByEmail retrieves a single identity by its email address.
func (repo *identityRepository) FindByEmail(ctx context.Context, email string) (*entity.Identity, error) {
	var identityM model.IdentityModel
	if err := repo.db.WithContext(ctx).
		Where("email = ?", email).
		First(&identityM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrIdentityNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toIdentityDomain(&identityM), nil
}

// FindByGoogleSubject retrieves the identity bound to an external provider subject.
func (repo *identityRepository) FindByGoogleSubject(ctx context.Context, subject string) (*entity.Identity, error) {
	var identityM model.IdentityModel
	if err := repo.db.WithContext(ctx).
		Where("google_subject = ?", subject).
		First(&identityM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrIdentityNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toIdentityDomain(&identityM), nil
}

// Create persists a new identity to the storage.
func (repo *identityRepository) Create(ctx context.Context, identity *entity.Identity) error {
	identityM := fromIdentityDomain(identity)

	if err := repo.db.WithContext(ctx).Create(identityM).Error; err != nil {
		// Convert PostgreSQL errors to domain errors
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrIdentityAlreadyExists.WrapMessage("identity already exists")
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.NewDatabaseExecuteError(err, "missing required identity information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create identity")
	}

	// Update the entity with generated values
	identity.ID = identityM.ID
	identity.CreatedAt = identityM.CreatedAt
	identity.UpdatedAt = identityM.UpdatedAt

	return nil
}

// Update modifies an existing identity in the storage.
func (repo *identityRepository) Update(ctx context.Context, identity *entity.Identity) error {
	identityM := fromIdentityDomain(identity)

	result := repo.db.WithContext(ctx).
		Model(&model.IdentityModel{}).
		Where("id = ?", identityM.ID).
		Updates(map[string]any{
			"email":          identityM.Email,
			"phone":          identityM.Phone,
			"password_hash":  identityM.PasswordHash,
			"google_subject": identityM.GoogleSubject,
			"date_of_birth":  identityM.DateOfBirth,
		})
	if result.Error != nil {
		if isUniqueConstraintViolation(result.Error) {
			return domainerrors.ErrIdentityAlreadyExists.WrapMessage("identity conflicts with an existing record")
		}

		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update identity")
	}

	// If no rows were affected, the identity was not found.
	if result.RowsAffected == 0 {
		return repository.ErrIdentityNotFound
	}

	return nil
}

// --- Mapper Functions ---

// toIdentityDomain converts a GORM IdentityModel to a domain Identity entity.
func toIdentityDomain(data *model.IdentityModel) *entity.Identity {
	if data == nil {
		return nil
	}

	subject := ""
	if data.GoogleSubject != nil {
		subject = *data.GoogleSubject
	}

	return &entity.Identity{
		ID:            data.ID,
		Email:         data.Email,
		Phone:         data.Phone,
		PasswordHash:  data.PasswordHash,
		GoogleSubject: subject,
		DateOfBirth:   data.DateOfBirth,
		CreatedAt:     data.CreatedAt,
		UpdatedAt:     data.UpdatedAt,
	}
}

// fromIdentityDomain converts a domain Identity entity to a GORM IdentityModel.
func fromIdentityDomain(data *entity.Identity) *model.IdentityModel {
	if data == nil {
		return nil
	}

	// An empty subject is stored as NULL so the partial unique index only
	// covers identities that actually have one.
	var subject *string
	if data.GoogleSubject != "" {
		subject = &data.GoogleSubject
	}

	return &model.IdentityModel{
		ID:            data.ID,
		Email:         data.Email,
		Phone:         data.Phone,
		PasswordHash:  data.PasswordHash,
		GoogleSubject: subject,
		DateOfBirth:   data.DateOfBirth,
	}
}
