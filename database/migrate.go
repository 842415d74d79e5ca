package database

import (
	"fmt"

	"github.com/tipflow/tip-backend/models"
	"github.com/tipflow/tip-backend/utils"
	"gorm.io/gorm"
)

// Models lists every table the service owns, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&models.ServiceProvider{},
		&models.Employee{},
		&models.SubAccount{},
		&models.Tip{},
		&models.Transaction{},
		&models.Payment{},
		&models.WebhookEvent{},
	}
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	for _, m := range Models() {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("migrate %T: %w", m, err)
		}
	}

	// the unique indexes carry the exactly-once guarantees
	for _, idx := range []struct {
		model interface{}
		name  string
	}{
		{&models.Transaction{}, "idx_transactions_tx_ref"},
		{&models.Payment{}, "idx_payments_tip_id"},
	} {
		if !db.Migrator().HasIndex(idx.model, idx.name) {
			return fmt.Errorf("missing unique index %s", idx.name)
		}
	}

	utils.InfoLogger.Infof("Migrated %d tables", len(Models()))
	return nil
}
