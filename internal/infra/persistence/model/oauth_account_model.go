package model

import (
	"time"

	"github.com/google/uuid"
)

// OAuthAccountModel is the GORM-specific struct for the 'oauth_accounts' table.
// One provider identity maps to exactly one local user, and a user holds at
// most one link per provider.
type OAuthAccountModel struct {
	ID                uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	UserID            uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_oauth_accounts_user_provider"`
	Provider          string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_oauth_accounts_user_provider;uniqueIndex:idx_oauth_accounts_provider_account"`
	ProviderAccountID string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_oauth_accounts_provider_account"`
	AccessToken       string    `gorm:"type:text"`
	RefreshToken      string    `gorm:"type:text"`
	IDToken           string    `gorm:"type:text"`
	Scope             string    `gorm:"type:varchar(512)"`
	ExpiresAt         *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName explicitly sets the table name for GORM.
func (OAuthAccountModel) TableName() string {
	return "oauth_accounts"
}
