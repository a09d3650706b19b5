package queue

import (
	"time"

	"github.com/shashiranjanraj/carby/pkg/logger"
)

// FailedJobRecord is a job that exhausted its retries.
type FailedJobRecord struct {
	ID       uint      `gorm:"primaryKey;autoIncrement"`
	JobType  string    `gorm:"size:255;not null;index"`
	Payload  string    `gorm:"type:text;not null"`
	Error    string    `gorm:"type:text"`
	Attempts int       `gorm:"not null;default:0"`
	FailedAt time.Time `gorm:"autoCreateTime"`
}

func (FailedJobRecord) TableName() string { return "failed_jobs" }

// persistFailed keeps the failure in memory and, when a DB is configured,
// in the failed_jobs table.
func (m *Manager) persistFailed(env envelope, lastErr error, attempts int) {
	now := time.Now()

	m.mu.Lock()
	m.failed = append(m.failed, FailedJob{
		Type: env.Type, Payload: env.Payload, Err: lastErr, FailedAt: now, Attempts: attempts,
	})
	m.mu.Unlock()

	if m.db == nil {
		return
	}

	msg := ""
	if lastErr != nil {
		msg = lastErr.Error()
	}
	rec := FailedJobRecord{
		JobType:  env.Type,
		Payload:  string(env.Payload),
		Error:    msg,
		Attempts: attempts,
		FailedAt: now,
	}
	if err := m.db.Create(&rec).Error; err != nil {
		// The in-memory slice still has it.
		logger.Error("queue: persist failed job", "type", env.Type, "error", err)
	}
}
