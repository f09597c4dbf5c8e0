package database

import (
	"fmt"

	"stok-takip/config"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
)

// OpenDatabaseConnection opens the store for the configured driver. The
// default is the embedded sqlite file the tracker historically ran on; mysql,
// postgres and sqlserver are available for shared deployments.
func OpenDatabaseConnection() (*gorm.DB, error) {
	dialector, err := getDialector()
	if err != nil {
		return nil, err
	}
	return gorm.Open(dialector, &gorm.Config{})
}

func getDialector() (gorm.Dialector, error) {
	switch config.DBDriver {
	case "sqlite":
		// WAL and a bounded busy timeout keep concurrent writers from
		// failing fast on the single-file store.
		dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)",
			config.DBPath, int(config.LockTimeout.Milliseconds()))
		return sqlite.Open(dsn), nil
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			config.DBHost, config.DBUser, config.DBPassword, config.DBName, config.DBPort)
		return postgres.Open(dsn), nil
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			config.DBUser, config.DBPassword, config.DBHost, config.DBPort, config.DBName)
		return mysql.Open(dsn), nil
	case "mssql":
		dsn := fmt.Sprintf("sqlserver://%s:%s@%s:%s?database=%s",
			config.DBUser, config.DBPassword, config.DBHost, config.DBPort, config.DBName)
		return sqlserver.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER: %s", config.DBDriver)
	}
}
