package legacy

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// CreateSchema creates the tables this package reads and writes when they do
// not exist. It is meant for SQLite development databases and tests; shared
// deployments manage the schema with their own migration tooling.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	for _, model := range allModels() {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}
	return nil
}

// InsertUser writes a user row and its primary nickname. Registration is
// handled elsewhere; this exists for seeding development databases.
func InsertUser(ctx context.Context, db bun.IDB, user *TapirUser, nickname string) error {
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(user).Exec(ctx); err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		if nickname == "" {
			return nil
		}
		nick := &TapirNickname{
			Nickname:    nickname,
			UserID:      user.UserID,
			FlagValid:   1,
			FlagPrimary: 1,
		}
		if _, err := tx.NewInsert().Model(nick).Exec(ctx); err != nil {
			return fmt.Errorf("insert nickname: %w", err)
		}
		return nil
	})
}
