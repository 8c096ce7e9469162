package mysql

import (
	"fmt"

	"I2I/setting"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// Init 初始化MySQL连接
func Init(cfg *setting.MySQLConfig) (*sqlx.DB, error) {
	// "user:password@tcp(host:port)/dbname?parseTime=true&loc=Local"
	db, err := sqlx.Connect("mysql", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	return db, nil
}
