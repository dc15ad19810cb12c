package db

import (
	"log"
	"os"
	"time"

	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/ncruces/go-sqlite3/gormlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// Open opens a SQLite database at the given path and migrates the schema.
// Tests should point this at a file under t.TempDir(); ":memory:" databases
// are per-connection and break under GORM's connection pool.
func Open(dbPath string) (*gorm.DB, error) {
	// Configure GORM logger
	newLogger := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // Use standard log writer (os.Stdout)
		gormlogger.Config{
			SlowThreshold:             time.Second,     // Slow SQL threshold
			LogLevel:                  gormlogger.Warn, // Log level (Warn, Error, Info)
			IgnoreRecordNotFoundError: true,            // Ignore ErrRecordNotFound error
			ParameterizedQueries:      false,           // Log SQL queries with params
			Colorful:                  true,            // Enable color
		},
	)

	gdb, err := gorm.Open(gormlite.Open(dbPath), &gorm.Config{
		Logger:         newLogger,
		TranslateError: true, // Surface unique violations as gorm.ErrDuplicatedKey
	})
	if err != nil {
		return nil, err
	}

	if err := gdb.AutoMigrate(&Mod{}, &ModSource{}, &Category{}, &SyncLog{}); err != nil {
		return nil, err
	}
	return gdb, nil
}

// InitDatabase initializes the shared database connection and migrates models.
func InitDatabase(dbPath string) {
	var err error
	DB, err = Open(dbPath)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
}
