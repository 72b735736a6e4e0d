package repository

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// WriteMessagesStore creates (or extends) a messages store at path with the
// bridge schema and inserts the given rows. It exists for the seed tool and
// tests; the service itself never writes.
func WriteMessagesStore(path string, chats []ChatModel, messages []MessageModel) error {
	db, err := openWritable(path)
	if err != nil {
		return err
	}
	defer closeDB(db)

	if err := db.AutoMigrate(&ChatModel{}, &MessageModel{}); err != nil {
		return fmt.Errorf("failed to migrate messages store: %w", err)
	}
	if len(chats) > 0 {
		if err := db.Create(&chats).Error; err != nil {
			return fmt.Errorf("failed to insert chats: %w", err)
		}
	}
	if len(messages) > 0 {
		if err := db.CreateInBatches(&messages, 200).Error; err != nil {
			return fmt.Errorf("failed to insert messages: %w", err)
		}
	}
	return nil
}

// WriteDirectoryStore creates a directory store at path and inserts contacts.
func WriteDirectoryStore(path string, contacts []DirectoryContactModel) error {
	db, err := openWritable(path)
	if err != nil {
		return err
	}
	defer closeDB(db)

	if err := db.AutoMigrate(&DirectoryContactModel{}); err != nil {
		return fmt.Errorf("failed to migrate directory store: %w", err)
	}
	if len(contacts) > 0 {
		if err := db.Create(&contacts).Error; err != nil {
			return fmt.Errorf("failed to insert contacts: %w", err)
		}
	}
	return nil
}

func openWritable(path string) (*gorm.DB, error) {
	dsn, err := storeDSN(path, "rwc", 5*time.Second)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
