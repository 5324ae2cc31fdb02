package services

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pbl5-backend/models"
)

// ErrNoDatabase - neither MySQL nor SQLite is configured
var ErrNoDatabase = errors.New("database not configured")

// OpenDatabase - MySQL from MYSQL_* env, otherwise SQLite from SQLITE_PATH
func OpenDatabase() (*gorm.DB, error) {
	host := os.Getenv("MYSQL_HOST")
	user := os.Getenv("MYSQL_USER")
	password := os.Getenv("MYSQL_PASSWORD")
	dbname := os.Getenv("MYSQL_DATABASE")

	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	if host != "" && user != "" && password != "" && dbname != "" {
		port, err := strconv.Atoi(os.Getenv("MYSQL_PORT"))
		if err != nil || port == 0 {
			port = 3306 // default port
		}
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			user, password, host, port, dbname)
		db, err := gorm.Open(mysql.Open(dsn), cfg)
		if err != nil {
			return nil, fmt.Errorf("connect mysql: %w", err)
		}
		log.Printf("📡 MySQL: %s@%s:%d/%s", user, host, port, dbname)
		return migrate(db)
	}

	if path := os.Getenv("SQLITE_PATH"); path != "" {
		db, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		log.Printf("📡 SQLite: %s", path)
		return db, nil
	}
	return nil, ErrNoDatabase
}

// OpenSQLite - SQLite database (":memory:" for tests)
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would see its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return migrate(db)
}

func migrate(db *gorm.DB) (*gorm.DB, error) {
	if err := db.AutoMigrate(&models.NavigationLog{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// ========================================
// Log queries
// ========================================

// LogStore - read side of the navigation log
type LogStore struct {
	db *gorm.DB
}

// NewLogStore - LogStore over db (nil db answers ErrNoDatabase)
func NewLogStore(db *gorm.DB) *LogStore {
	return &LogStore{db: db}
}

func (s *LogStore) scoped(sessionID string) (*gorm.DB, error) {
	if s == nil || s.db == nil {
		return nil, ErrNoDatabase
	}
	q := s.db.Model(&models.NavigationLog{})
	if sessionID != "" {
		q = q.Where("session_id = ?", sessionID)
	}
	return q, nil
}

// Recent - newest logs first
func (s *LogStore) Recent(sessionID string, limit int) ([]models.NavigationLog, error) {
	q, err := s.scoped(sessionID)
	if err != nil {
		return nil, err
	}
	var logs []models.NavigationLog
	err = q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&logs).Error
	return logs, err
}

// ByTimeRange - logs with created_at in [start, end]
func (s *LogStore) ByTimeRange(sessionID string, start, end time.Time, limit int) ([]models.NavigationLog, error) {
	q, err := s.scoped(sessionID)
	if err != nil {
		return nil, err
	}
	q = q.Where("created_at BETWEEN ? AND ?", start, end)
	if limit > 0 {
		q = q.Limit(limit)
	}
	var logs []models.NavigationLog
	err = q.Order("created_at DESC").Order("id DESC").Find(&logs).Error
	return logs, err
}

// ByEventType - logs of one event type
func (s *LogStore) ByEventType(sessionID, eventType string, limit int) ([]models.NavigationLog, error) {
	q, err := s.scoped(sessionID)
	if err != nil {
		return nil, err
	}
	var logs []models.NavigationLog
	err = q.Where("event_type = ?", eventType).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// Stats - event counts since now-window
func (s *LogStore) Stats(sessionID string, since time.Time) (models.LogSummary, error) {
	summary := models.LogSummary{SessionID: sessionID, EventCounts: map[string]int64{}}
	q, err := s.scoped(sessionID)
	if err != nil {
		return summary, err
	}

	var rows []struct {
		EventType string
		Count     int64
	}
	err = q.Select("event_type, COUNT(*) as count").
		Where("created_at >= ?", since).
		Group("event_type").
		Scan(&rows).Error
	if err != nil {
		return summary, err
	}
	for _, r := range rows {
		summary.EventCounts[r.EventType] = r.Count
		summary.Total += r.Count
	}
	return summary, nil
}
