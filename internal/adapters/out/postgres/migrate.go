package postgres

import (
	"context"
	"fmt"

	"ekanban/internal/adapters/out/postgres/cardrepo"
	"ekanban/internal/adapters/out/postgres/orderrepo"

	"gorm.io/gorm"
)

// ActiveOrdersChannel is the NOTIFY channel raised after every committed
// write to active_orders.
const ActiveOrdersChannel = "active_orders_changed"

// The trigger is statement level: a transaction produces at most one
// notification per statement, and Postgres folds identical payloads.
var notifyTriggerSQL = []string{
	fmt.Sprintf(`CREATE OR REPLACE FUNCTION notify_active_orders_changed() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify('%s', TG_OP);
	RETURN NULL;
END;
$$ LANGUAGE plpgsql`, ActiveOrdersChannel),
	fmt.Sprintf(`DROP TRIGGER IF EXISTS active_orders_changed ON %s`, orderrepo.TableName),
	fmt.Sprintf(`CREATE TRIGGER active_orders_changed
	AFTER INSERT OR UPDATE OR DELETE ON %s
	FOR EACH STATEMENT EXECUTE FUNCTION notify_active_orders_changed()`, orderrepo.TableName),
}

// Migrate creates or updates the card and order tables and installs the
// change notification trigger. It is safe to run on every start.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&cardrepo.CardDTO{}, &orderrepo.OrderDTO{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, stmt := range notifyTriggerSQL {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("install notify trigger: %w", err)
			}
		}
		return nil
	})
}
