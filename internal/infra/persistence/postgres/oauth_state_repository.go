package postgres

import (
	"context"
	"time"

	"clinicore/internal/domain/entity"
	domainerrors "clinicore/internal/domain/errors"
	"clinicore/internal/domain/repository"
	"clinicore/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// oauthStateRepository implements the domain.OAuthStateRepository interface.
type oauthStateRepository struct {
	db *gorm.DB
}

// NewOAuthStateRepository is the constructor for oauthStateRepository.
func NewOAuthStateRepository(db *gorm.DB) repository.OAuthStateRepository {
	return &oauthStateRepository{db: db}
}

// Save persists a freshly minted state token.
func (repo *oauthStateRepository) Save(ctx context.Context, state *entity.OAuthState) error {
	stateM := fromOAuthStateDomain(state)

	if err := repo.db.WithContext(ctx).Create(stateM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			// 256-bit random tokens colliding means something is deeply
			// wrong upstream; still surface it as a conflict.
			return domainerrors.ErrConflict.WrapMessage("state token already exists")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to save state token")
	}

	state.ID = stateM.ID
	state.CreatedAt = stateM.CreatedAt

	return nil
}

// FindByToken retrieves a state row by its token value, consumed or not.
func (repo *oauthStateRepository) FindByToken(ctx context.Context, token string) (*entity.OAuthState, error) {
	var stateM model.OAuthStateModel
	if err := repo.db.WithContext(ctx).
		Where("token = ?", token).
		First(&stateM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrStateNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toOAuthStateDomain(&stateM), nil
}

// ConsumeByToken atomically flips the row from unconsumed to consumed.
// The predicate `consumed = false` makes the UPDATE itself the arbiter under
// concurrency: of any number of simultaneous callers exactly one affects a
// row, and everyone else learns they lost from RowsAffected.
func (repo *oauthStateRepository) ConsumeByToken(ctx context.Context, token string, consumedAt time.Time) error {
	result := repo.db.WithContext(ctx).
		Model(&model.OAuthStateModel{}).
		Where("token = ? AND consumed = ?", token, false).
		Updates(map[string]any{
			"consumed":    true,
			"consumed_at": consumedAt,
		})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to consume state token")
	}

	if result.RowsAffected == 0 {
		// Either the token never existed or another caller consumed it
		// first; one extra read tells the two apart.
		var count int64
		if err := repo.db.WithContext(ctx).
			Model(&model.OAuthStateModel{}).
			Where("token = ?", token).
			Count(&count).Error; err != nil {
			return errors.WithStack(err)
		}
		if count == 0 {
			return repository.ErrStateNotFound
		}

		return repository.ErrStateAlreadyConsumed
	}

	return nil
}

// DeleteExpired removes every unconsumed row whose expiry is before now.
func (repo *oauthStateRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := repo.db.WithContext(ctx).
		Where("consumed = ? AND expires_at < ?", false, now).
		Delete(&model.OAuthStateModel{})
	if result.Error != nil {
		return 0, errors.WithStack(result.Error)
	}

	return result.RowsAffected, nil
}

// DeleteConsumedBefore removes consumed rows whose consumption happened before the cutoff.
func (repo *oauthStateRepository) DeleteConsumedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := repo.db.WithContext(ctx).
		Where("consumed = ? AND consumed_at < ?", true, cutoff).
		Delete(&model.OAuthStateModel{})
	if result.Error != nil {
		return 0, errors.WithStack(result.Error)
	}

	return result.RowsAffected, nil
}

// --- Mapper Functions ---

// toOAuthStateDomain converts a GORM OAuthStateModel to a domain OAuthState entity.
func toOAuthStateDomain(data *model.OAuthStateModel) *entity.OAuthState {
	if data == nil {
		return nil
	}

	return &entity.OAuthState{
		ID:          data.ID,
		Token:       data.Token,
		TenantID:    data.TenantID,
		Nonce:       data.Nonce,
		RedirectURI: data.RedirectURI,
		Consumed:    data.Consumed,
		ConsumedAt:  data.ConsumedAt,
		ExpiresAt:   data.ExpiresAt,
		CreatedAt:   data.CreatedAt,
	}
}

// fromOAuthStateDomain converts a domain OAuthState entity to a GORM OAuthStateModel.
func fromOAuthStateDomain(data *entity.OAuthState) *model.OAuthStateModel {
	if data == nil {
		return nil
	}

	return &model.OAuthStateModel{
		ID:          data.ID,
		Token:       data.Token,
		TenantID:    data.TenantID,
		Nonce:       data.Nonce,
		RedirectURI: data.RedirectURI,
		Consumed:    data.Consumed,
		ConsumedAt:  data.ConsumedAt,
		ExpiresAt:   data.ExpiresAt,
		CreatedAt:   data.CreatedAt,
	}
}
