package storage

import (
	"github.com/soloran/hunter-arena/internal/game"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// OpenAndMigrate opens the sqlite database at dataSourceName and brings
// the schema up to date. Schema changes go through AutoMigrate only; the
// database file is the single mutable artifact.
func OpenAndMigrate(dataSourceName string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dataSourceName), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(
		&game.PlayerProfile{},
		&game.HeroRecord{},
		&game.RankingAccount{},
	); err != nil {
		return nil, err
	}
	return db, nil
}
