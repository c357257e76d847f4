package storage

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dcaf-go/dcaf/storage/model"
)

// DriverType represents the type of database driver
type DriverType string

const (
	// DriverSQLite is the SQLite driver
	DriverSQLite DriverType = "sqlite"
	// DriverMySQL is the MySQL driver
	DriverMySQL DriverType = "mysql"
	// DriverPostgres is the PostgreSQL driver
	DriverPostgres DriverType = "postgres"
)

// SupportedDrivers lists the drivers Connect accepts
var SupportedDrivers = []DriverType{
	DriverSQLite,
	DriverMySQL,
	DriverPostgres,
}

// DSN creates and returns a dsn connection string for the passed DriverType and DSNConf
func DSN(driver DriverType, conf DSNConf) (string, error) {
	switch driver {
	case DriverSQLite:
		return "", errors.Errorf("driver %s does not use dsn", driver)
	case DriverMySQL:
		if conf.Port == 0 {
			conf.Port = 3306
		}
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True", conf.User, conf.Password, conf.Host, conf.Port,
			conf.DB,
		), nil
	case DriverPostgres:
		if conf.Port == 0 {
			conf.Port = 5432
		}
		return fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%d",
			conf.Host, conf.User, conf.Password, conf.DB, conf.Port,
		), nil
	default:
		return "", errors.Errorf("unsupported driver '%s'", driver)
	}
}

// DSNConf holds the connection parameters from which DSN builds the
// connection string of the mysql and postgres drivers
type DSNConf struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DB       string `yaml:"db"`
}

// Config configures the catalog database
type Config struct {
	Driver DriverType `yaml:"driver"`
	// DSN is the connection string; for sqlite it defaults to sam.db in
	// DataDir
	DSN     string `yaml:"dsn"`
	DataDir string `yaml:"data_dir"`
	// Debug logs every statement
	Debug     bool           `yaml:"debug"`
	UsersHash Argon2idParams `yaml:"-"`
}

// Argon2idParams configures Argon2id hashing parameters
type Argon2idParams struct {
	Time        uint32 `yaml:"time"`
	MemoryKiB   uint32 `yaml:"memory_kib"`
	Parallelism uint8  `yaml:"parallelism"`
	KeyLen      uint32 `yaml:"key_len"`
	SaltLen     uint32 `yaml:"salt_len"`
}

// Connect opens the database described by cfg. Statements are logged
// through logrus; duplicate keys are reported as gorm.ErrDuplicatedKey.
func Connect(cfg Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverSQLite:
		dsn := cfg.DSN
		if dsn == "" {
			if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
				return nil, errors.Wrap(err, "could not create data dir")
			}
			dsn = filepath.Join(cfg.DataDir, "sam.db")
		}
		dialector = sqlite.Open(sqliteDSN(dsn))
	case DriverMySQL:
		dialector = mysql.Open(cfg.DSN)
	case DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, errors.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	level := logger.Warn
	if cfg.Debug {
		level = logger.Info
	}
	gormLogger := logger.New(
		log.StandardLogger(), logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		},
	)
	return gorm.Open(
		dialector, &gorm.Config{
			Logger:         gormLogger,
			TranslateError: true,
		},
	)
}

// sqliteDefaults are added to a sqlite dsn unless it sets them itself.
// Transactions take the write lock on BEGIN and wait for it up to the busy
// timeout.
var sqliteDefaults = url.Values{
	"_busy_timeout": {"5000"},
	"_foreign_keys": {"on"},
	"_journal_mode": {"WAL"},
	"_txlock":       {"immediate"},
}

func sqliteDSN(dsn string) string {
	path, rawQuery, _ := strings.Cut(dsn, "?")
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		return dsn
	}
	for k, v := range sqliteDefaults {
		if !q.Has(k) {
			q[k] = v
		}
	}
	return path + "?" + q.Encode()
}

// LoadStorageBackends opens the storage and returns its backends together
// with the Storage, which the caller must close
func LoadStorageBackends(cfg Config) (model.Backends, *Storage, error) {
	s, err := NewStorage(cfg)
	if err != nil {
		return model.Backends{}, nil, err
	}
	return s.Backends(), s, nil
}
