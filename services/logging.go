package services

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"pbl5-backend/models"
)

// LogBuffer - asynchronous batched writer of navigation events
type LogBuffer struct {
	db        *gorm.DB
	logs      []models.NavigationLog
	mu        sync.Mutex
	flushMu   sync.Mutex
	flushSize int           // batch size
	flushTime time.Duration // auto flush interval
	stopChan  chan struct{}
	doneChan  chan struct{}
	stopOnce  sync.Once
	started   atomic.Bool
}

// NewLogBuffer - buffer writing to db; a nil db discards entries on flush
func NewLogBuffer(db *gorm.DB, flushSize int, flushInterval time.Duration) *LogBuffer {
	if flushSize <= 0 {
		flushSize = 50
	}
	if flushInterval <= 0 {
		flushInterval = 10 * time.Second
	}
	return &LogBuffer{
		db:        db,
		logs:      make([]models.NavigationLog, 0, flushSize*2),
		flushSize: flushSize,
		flushTime: flushInterval,
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
	}
}

// Start - launches the periodic flusher
func (lb *LogBuffer) Start() {
	if !lb.started.CompareAndSwap(false, true) {
		return
	}
	go lb.autoFlush()
	log.Printf("✅ event log started (flushSize: %d, flushInterval: %v)", lb.flushSize, lb.flushTime)
}

// autoFlush - periodic save
func (lb *LogBuffer) autoFlush() {
	defer close(lb.doneChan)
	ticker := time.NewTicker(lb.flushTime)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lb.Flush()
		case <-lb.stopChan:
			lb.Flush() // remaining entries
			return
		}
	}
}

// Record - queue one entry; a full buffer is flushed in the background
func (lb *LogBuffer) Record(entry models.NavigationLog) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	lb.mu.Lock()
	lb.logs = append(lb.logs, entry)
	size := len(lb.logs)
	lb.mu.Unlock()

	if size >= lb.flushSize {
		go lb.Flush()
	}
}

// Pending - entries not yet flushed
func (lb *LogBuffer) Pending() int {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return len(lb.logs)
}

// Flush - write every buffered entry
func (lb *LogBuffer) Flush() int {
	lb.flushMu.Lock()
	defer lb.flushMu.Unlock()

	lb.mu.Lock()
	if len(lb.logs) == 0 {
		lb.mu.Unlock()
		return 0
	}
	logsToSave := make([]models.NavigationLog, len(lb.logs))
	copy(logsToSave, lb.logs)
	lb.logs = lb.logs[:0]
	lb.mu.Unlock()

	if lb.db == nil {
		return 0
	}
	if err := lb.db.CreateInBatches(logsToSave, 100).Error; err != nil {
		log.Printf("❌ event log save failed: %v", err)
		return 0
	}
	return len(logsToSave)
}

// Stop - stops the flusher after a final flush
func (lb *LogBuffer) Stop() {
	lb.stopOnce.Do(func() {
		if !lb.started.Load() {
			lb.Flush()
			return
		}
		close(lb.stopChan)
		<-lb.doneChan
		log.Println("🛑 event log stopped")
	})
}
