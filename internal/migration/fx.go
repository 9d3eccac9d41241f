package migration

import (
	assistantdomain "github.com/smallbiznis/faktura/internal/assistant/domain"
	auditdomain "github.com/smallbiznis/faktura/internal/audit/domain"
	"github.com/smallbiznis/faktura/internal/config"
	contactdomain "github.com/smallbiznis/faktura/internal/contact/domain"
	invoicedomain "github.com/smallbiznis/faktura/internal/invoice/domain"
	projectdomain "github.com/smallbiznis/faktura/internal/project/domain"
	uploaddomain "github.com/smallbiznis/faktura/internal/upload/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// Non-postgres setups (sqlite for local development) fall back
			// to the gorm schema since the SQL files target postgres.
			return conn.AutoMigrate(
				&contactdomain.Contact{},
				&projectdomain.Project{},
				&invoicedomain.Invoice{},
				&invoicedomain.Payment{},
				&uploaddomain.Upload{},
				&auditdomain.AuditLog{},
				&assistantdomain.Conversation{},
				&assistantdomain.Message{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
