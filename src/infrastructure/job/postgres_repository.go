package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type jobRow struct {
	ID        int             `gorm:"primaryKey;autoIncrement"`
	TaskType  string          `gorm:"not null"`
	Payload   json.RawMessage `gorm:"type:jsonb"`
	Status    string          `gorm:"not null"`
	Error     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (jobRow) TableName() string { return "jobs" }

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgresRepository(db *gorm.DB) (*PostgresRepository, error) {
	if err := db.AutoMigrate(&jobRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate jobs table: %v", err)
	}
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) Create(ctx context.Context, taskType string, payload json.RawMessage) (*Job, error) {
	row := &jobRow{
		TaskType: taskType,
		Payload:  payload,
		Status:   string(JobStatusPending),
	}

	result := r.db.WithContext(ctx).Create(row)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to create job: %v", result.Error)
	}

	return toJob(row), nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int) (*Job, error) {
	var row jobRow
	result := r.db.WithContext(ctx).First(&row, id)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %v", result.Error)
	}
	return toJob(&row), nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id int, status JobStatus, errMsg *string) error {
	result := r.db.WithContext(ctx).Model(&jobRow{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status": string(status),
			"error":  errMsg,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update job status: %v", result.Error)
	}
	return nil
}

func toJob(row *jobRow) *Job {
	return &Job{
		ID:        row.ID,
		TaskType:  row.TaskType,
		Payload:   row.Payload,
		Status:    JobStatus(row.Status),
		Error:     row.Error,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
