package migrations

import (
	"github.com/NeuralTrust/BotGate/pkg/infra/database"
	"gorm.io/gorm"
)

func init() {
	database.RegisterMigration(database.Migration{
		ID:   "20250301_create_bot_decisions_table",
		Name: "Create bot_decisions table for the decision audit log",

		Up: func(db *gorm.DB) error {
			if err := db.Exec(`
				CREATE TABLE IF NOT EXISTS bot_decisions (
					id              UUID PRIMARY KEY,
					trace_id        TEXT,
					ip              TEXT NOT NULL,
					user_agent_hash TEXT NOT NULL,
					user_agent      TEXT,
					browser         TEXT,
					os              TEXT,
					device          TEXT,
					method          TEXT,
					path            TEXT NOT NULL,
					is_bot          BOOLEAN NOT NULL,
					confidence      SMALLINT NOT NULL,
					category        TEXT NOT NULL,
					authorized      BOOLEAN NOT NULL DEFAULT FALSE,
					reasons         TEXT[] NOT NULL DEFAULT '{}',
					action          TEXT NOT NULL,
					intended_action TEXT,
					decision_reason TEXT,
					redirect_target TEXT,
					created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
			`).Error; err != nil {
				return err
			}

			if err := db.Exec(`
				CREATE INDEX IF NOT EXISTS idx_bot_decisions_created_at
				ON bot_decisions (created_at DESC);
			`).Error; err != nil {
				return err
			}

			return db.Exec(`
				CREATE INDEX IF NOT EXISTS idx_bot_decisions_category_action
				ON bot_decisions (category, action);
			`).Error
		},

		Down: func(db *gorm.DB) error {
			return db.Exec(`DROP TABLE IF EXISTS bot_decisions;`).Error
		},
	})
}
