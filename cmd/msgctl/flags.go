package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"Strimoid/controllers"
	"Strimoid/pkg/config"
	"Strimoid/pkg/database"
)

// Flags holds global flags and the services built from them in Before.
type Flags struct {
	LogLevel string
	DBDriver string
	DBDSN    string

	db  *gorm.DB
	Env *controllers.Env
}

func (f *Flags) open() error {
	if err := config.Load(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	driver, dsn := config.DBDriver, config.DBDSN
	if f.DBDriver != "" {
		driver = f.DBDriver
	}
	if f.DBDSN != "" {
		dsn = f.DBDSN
	}

	logger := log.With().Str("component", "msgctl").Logger()
	db, err := database.Open(driver, dsn, logger)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	f.db = db
	f.Env = controllers.NewEnv(db, logger)
	return nil
}

func (f *Flags) close() error {
	if f.db == nil {
		return nil
	}
	sqlDB, err := f.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
