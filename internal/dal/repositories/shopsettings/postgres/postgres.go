package postgresrepo

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/pos/internal/dal/postgres"
	"github.com/corray333/backend-labs/pos/internal/service/models/shopsettings"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// ShopSettingsDal represents the shop_settings row. Every column is optional.
type ShopSettingsDal struct {
	ShopName    pgtype.Text `db:"shop_name"`
	Address     pgtype.Text `db:"address"`
	Phone       pgtype.Text `db:"phone"`
	PrinterIP   pgtype.Text `db:"printer_ip"`
	PrinterName pgtype.Text `db:"printer_name"`
}

// ToModel converts ShopSettingsDal to service layer ShopSettings model.
func (s *ShopSettingsDal) ToModel() shopsettings.ShopSettings {
	return shopsettings.ShopSettings{
		ShopName:    s.ShopName.String,
		Address:     s.Address.String,
		Phone:       s.Phone.String,
		PrinterIP:   s.PrinterIP.String,
		PrinterName: s.PrinterName.String,
	}
}

// PostgresShopSettingsRepository reads the shop settings record.
type PostgresShopSettingsRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresShopSettingsRepository creates a new shop settings repository.
func NewPostgresShopSettingsRepository(conn postgres.GenericConn) *PostgresShopSettingsRepository {
	return &PostgresShopSettingsRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Get returns the first settings row. An empty table yields zero settings.
func (r *PostgresShopSettingsRepository) Get(ctx context.Context) (shopsettings.ShopSettings, error) {
	sql, args, err := r.sb.
		Select("shop_name", "address", "phone", "printer_ip", "printer_name").
		From("shop_settings").
		OrderBy("id").
		Limit(1).
		ToSql()
	if err != nil {
		return shopsettings.ShopSettings{}, fmt.Errorf("failed to build query: %w", err)
	}

	var dal ShopSettingsDal
	err = r.conn.QueryRow(ctx, sql, args...).Scan(
		&dal.ShopName,
		&dal.Address,
		&dal.Phone,
		&dal.PrinterIP,
		&dal.PrinterName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return shopsettings.ShopSettings{}, nil
	}
	if err != nil {
		return shopsettings.ShopSettings{}, fmt.Errorf("failed to get shop settings: %w", err)
	}

	return dal.ToModel(), nil
}
