package dbhelper

import (
	"github.com/authdiscovery/apiv1/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDB connects to MySQL. dsn is a go-sql-driver DSN such as
// "user:pass@tcp(127.0.0.1:3306)/auth?charset=utf8mb4&parseTime=True&loc=UTC".
func OpenDB(dsn string) (*gorm.DB, error) {
	return gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
}

func InitDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
	)
}
