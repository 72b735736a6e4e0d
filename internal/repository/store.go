package repository

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/clippy-oss/homie/whatsapp-mcp/internal/domain"
	"github.com/clippy-oss/homie/whatsapp-mcp/internal/logger"
)

// StoreConfig names the two bridge databases.
type StoreConfig struct {
	MessagesPath  string
	DirectoryPath string
	BusyTimeout   time.Duration
}

// Conn is a single-request, read-only connection to one store. Callers must
// Close it before returning.
type Conn struct {
	*gorm.DB
	Path string
}

func (c *Conn) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Opener hands out fresh connections to the bridge stores.
type Opener interface {
	OpenMessages(ctx context.Context) (*Conn, error)
	OpenDirectory(ctx context.Context) (*Conn, error)
}

// Accessor opens read-only connections per call. It holds no connection
// between calls, so every request sees what the bridge last wrote.
type Accessor struct {
	config StoreConfig
}

func NewAccessor(config StoreConfig) *Accessor {
	if config.BusyTimeout <= 0 {
		config.BusyTimeout = 5 * time.Second
	}
	return &Accessor{config: config}
}

func (a *Accessor) OpenMessages(ctx context.Context) (*Conn, error) {
	return a.open(ctx, a.config.MessagesPath)
}

func (a *Accessor) OpenDirectory(ctx context.Context) (*Conn, error) {
	return a.open(ctx, a.config.DirectoryPath)
}

func (a *Accessor) open(ctx context.Context, path string) (*Conn, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no path configured", domain.ErrStoreUnavailable)
	}
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: %s not found", domain.ErrStoreUnavailable, path)
	}

	dsn, err := storeDSN(path, "ro", a.config.BusyTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, path, err)
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.New(logger.GormWriter("gorm"), gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrStoreUnavailable, path, err)
	}

	conn := &Conn{DB: db.WithContext(ctx), Path: path}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, path, err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("%w: ping %s: %v", domain.ErrStoreUnavailable, path, err)
	}
	return conn, nil
}

// storeDSN builds a SQLite URI for path opened in mode ("ro" or "rwc"). The
// path is escaped so that '?', '#' and '%' in directory names reach SQLite as
// part of the file name.
func storeDSN(path, mode string, busyTimeout time.Duration) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	query := url.Values{}
	query.Set("mode", mode)
	query.Set("_busy_timeout", strconv.FormatInt(busyTimeout.Milliseconds(), 10))
	u := url.URL{
		Scheme:   "file",
		Path:     filepath.ToSlash(abs),
		RawQuery: query.Encode(),
	}
	return u.String(), nil
}
