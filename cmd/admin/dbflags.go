package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"resumeai/internal/config"
)

// dbFlags 允许命令行覆盖数据库连接，缺省读取与 api 相同的环境变量。
type dbFlags struct {
	host, name, user, password, sslmode *string
	port                                *int
}

func bindDatabaseFlags(fs *flag.FlagSet) *dbFlags {
	return &dbFlags{
		host:     fs.String("db-host", "", "数据库 Host（默认 DATABASE_HOST）"),
		port:     fs.Int("db-port", 0, "数据库 Port（默认 DATABASE_PORT）"),
		name:     fs.String("db-name", "", "数据库名（默认 POSTGRES_DB）"),
		user:     fs.String("db-user", "", "数据库用户（默认 POSTGRES_USER）"),
		password: fs.String("db-password", "", "数据库密码（默认 POSTGRES_PASSWORD）"),
		sslmode:  fs.String("db-sslmode", "", "SSLMODE（默认 DATABASE_SSLMODE）"),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func (f *dbFlags) config() (config.DatabaseConfig, error) {
	cfg := config.DatabaseConfig{
		Host:     firstNonEmpty(*f.host, os.Getenv("DATABASE_HOST"), "localhost"),
		Name:     firstNonEmpty(*f.name, os.Getenv("POSTGRES_DB")),
		User:     firstNonEmpty(*f.user, os.Getenv("POSTGRES_USER")),
		Password: firstNonEmpty(*f.password, os.Getenv("POSTGRES_PASSWORD")),
		SSLMode:  firstNonEmpty(*f.sslmode, os.Getenv("DATABASE_SSLMODE"), "disable"),
		Port:     *f.port,
	}
	if cfg.Port <= 0 {
		cfg.Port = 5432
		if env := strings.TrimSpace(os.Getenv("DATABASE_PORT")); env != "" {
			p, err := strconv.Atoi(env)
			if err != nil {
				return config.DatabaseConfig{}, fmt.Errorf("parse DATABASE_PORT: %w", err)
			}
			cfg.Port = p
		}
	}

	switch {
	case cfg.Name == "":
		return config.DatabaseConfig{}, errors.New("database name is required (POSTGRES_DB)")
	case cfg.User == "":
		return config.DatabaseConfig{}, errors.New("database user is required (POSTGRES_USER)")
	case cfg.Password == "":
		return config.DatabaseConfig{}, errors.New("database password is required (POSTGRES_PASSWORD)")
	}
	return cfg, nil
}
