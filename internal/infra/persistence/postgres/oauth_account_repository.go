package postgres

import (
	"context"

	"portal/internal/domain/entity"
	domainerrors "portal/internal/domain/errors"
	"portal/internal/domain/repository"
	"portal/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// oauthAccountRepository implements the domain.OAuthAccountRepository interface using GORM.
type oauthAccountRepository struct {
	db *gorm.DB
}

// NewOAuthAccountRepository is the constructor for oauthAccountRepository.
func NewOAuthAccountRepository(db *gorm.DB) repository.OAuthAccountRepository {
	return &oauthAccountRepository{db: db}
}

// FindByProvider retrieves a link by its (provider, providerAccountID) pair.
func (repo *oauthAccountRepository) FindByProvider(ctx context.Context, provider, providerAccountID string) (*entity.OAuthAccount, error) {
	var accountM model.OAuthAccountModel
	if err := repo.db.WithContext(ctx).
		Where("provider = ? AND provider_account_id = ?", provider, providerAccountID).
		First(&accountM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrOAuthAccountNotFound
		}

		return nil, wrapQueryError(err, "failed to find oauth account by provider")
	}

	return toOAuthAccountDomain(&accountM), nil
}

// FindByUser retrieves the link a user holds for a given provider, if any.
func (repo *oauthAccountRepository) FindByUser(ctx context.Context, userID uuid.UUID, provider string) (*entity.OAuthAccount, error) {
	var accountM model.OAuthAccountModel
	if err := repo.db.WithContext(ctx).
		Where("user_id = ? AND provider = ?", userID, provider).
		First(&accountM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrOAuthAccountNotFound
		}

		return nil, wrapQueryError(err, "failed to find oauth account by user")
	}

	return toOAuthAccountDomain(&accountM), nil
}

// Create persists a new provider link. The unique indexes on
// (provider, provider_account_id) and (user_id, provider) are the final
// arbiter against double-linking.
func (repo *oauthAccountRepository) Create(ctx context.Context, account *entity.OAuthAccount) error {
	accountM := fromOAuthAccountDomain(account)

	if err := repo.db.WithContext(ctx).Create(accountM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrOAuthLinkConflict
		}
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.NewDatabaseExecuteError(err, "oauth account references unknown user")
		}
		if isConnectivityError(err) {
			return wrapQueryError(err, "failed to create oauth account")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create oauth account")
	}

	account.ID = accountM.ID
	account.CreatedAt = accountM.CreatedAt
	account.UpdatedAt = accountM.UpdatedAt

	return nil
}

// UpdateTokens refreshes the stored provider tokens on a subsequent login.
func (repo *oauthAccountRepository) UpdateTokens(ctx context.Context, account *entity.OAuthAccount) error {
	result := repo.db.WithContext(ctx).
		Model(&model.OAuthAccountModel{}).
		Where("id = ?", account.ID).
		Updates(map[string]any{
			"access_token":  account.AccessToken,
			"refresh_token": account.RefreshToken,
			"id_token":      account.IDToken,
			"scope":         account.Scope,
			"expires_at":    account.ExpiresAt,
		})
	if result.Error != nil {
		if isConnectivityError(result.Error) {
			return wrapQueryError(result.Error, "failed to update oauth tokens")
		}

		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update oauth tokens")
	}
	if result.RowsAffected == 0 {
		return repository.ErrOAuthAccountNotFound
	}

	return nil
}

func toOAuthAccountDomain(accountM *model.OAuthAccountModel) *entity.OAuthAccount {
	return &entity.OAuthAccount{
		ID:                accountM.ID,
		UserID:            accountM.UserID,
		Provider:          accountM.Provider,
		ProviderAccountID: accountM.ProviderAccountID,
		AccessToken:       accountM.AccessToken,
		RefreshToken:      accountM.RefreshToken,
		IDToken:           accountM.IDToken,
		Scope:             accountM.Scope,
		ExpiresAt:         accountM.ExpiresAt,
		CreatedAt:         accountM.CreatedAt,
		UpdatedAt:         accountM.UpdatedAt,
	}
}

func fromOAuthAccountDomain(account *entity.OAuthAccount) *model.OAuthAccountModel {
	return &model.OAuthAccountModel{
		ID:                account.ID,
		UserID:            account.UserID,
		Provider:          account.Provider,
		ProviderAccountID: account.ProviderAccountID,
		AccessToken:       account.AccessToken,
		RefreshToken:      account.RefreshToken,
		IDToken:           account.IDToken,
		Scope:             account.Scope,
		ExpiresAt:         account.ExpiresAt,
		CreatedAt:         account.CreatedAt,
		UpdatedAt:         account.UpdatedAt,
	}
}
