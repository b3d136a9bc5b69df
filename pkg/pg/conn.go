package pg

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

type Config struct {
	User     string `env:"USER"`
	Host     string `env:"HOST"`
	Port     string `env:"PORT"`
	Password string `env:"PASSWORD"`
	Database string `env:"DBNAME"`
}

func (c Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.Host, c.User, c.Password, c.Database, c.Port)
}

// NewSQLConn opens a plain database/sql connection over lib/pq. The COPY
// bulk-load path and goose migrations need the pq driver directly rather
// than gorm.
func NewSQLConn(config Config) (*sql.DB, error) {
	return sql.Open("postgres", config.DSN())
}
