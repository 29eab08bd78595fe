package ishopsettingsrepo

import (
	"context"

	"github.com/corray333/backend-labs/pos/internal/service/models/shopsettings"
)

// IShopSettingsRepository reads the shop settings record.
type IShopSettingsRepository interface {
	Get(ctx context.Context) (shopsettings.ShopSettings, error)
}
