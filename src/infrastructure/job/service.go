package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

const JobsTopic = "jobs"

type JobService struct {
	publisher  message.Publisher
	repo       JobRepository
	logger     watermill.LoggerAdapter
	ingestTask *IngestTask
}

type JobMessage struct {
	JobID    int             `json:"job_id"`
	TaskType string          `json:"task_type"`
	Payload  json.RawMessage `json:"payload"`
}

func NewJobService(
	publisher message.Publisher,
	repo JobRepository,
	logger watermill.LoggerAdapter,
	ingestTask *IngestTask,
) *JobService {
	return &JobService{
		publisher:  publisher,
		repo:       repo,
		logger:     logger,
		ingestTask: ingestTask,
	}
}

// EnqueueJob creates a new job and publishes it to the message queue
func (s *JobService) EnqueueJob(ctx context.Context, taskType string, payload json.RawMessage) (*Job, error) {
	// Create job record
	job, err := s.repo.Create(ctx, taskType, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	// Prepare message
	jobMsg := JobMessage{
		JobID:    job.ID,
		TaskType: job.TaskType,
		Payload:  job.Payload,
	}

	msgPayload, err := json.Marshal(jobMsg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job message: %w", err)
	}

	// Publish message
	msg := message.NewMessage(watermill.NewUUID(), msgPayload)
	if err := s.publisher.Publish(JobsTopic, msg); err != nil {
		return nil, fmt.Errorf("failed to publish job message: %w", err)
	}

	return job, nil
}

// ProcessJobMessage processes a job message from the queue
func (s *JobService) ProcessJobMessage(msg *message.Message) error {
	var jobMsg JobMessage
	if err := json.Unmarshal(msg.Payload, &jobMsg); err != nil {
		return fmt.Errorf("failed to unmarshal job message: %w", err)
	}

	ctx := context.Background()

	if err := s.repo.UpdateStatus(ctx, jobMsg.JobID, JobStatusRunning, nil); err != nil {
		return fmt.Errorf("failed to mark job running: %w", err)
	}

	var taskErr error
	switch jobMsg.TaskType {
	case TaskTypeIngest:
		taskErr = s.ingestTask.Handle(ctx, jobMsg.Payload)
	default:
		taskErr = fmt.Errorf("unknown task type: %s", jobMsg.TaskType)
	}

	if taskErr != nil {
		s.logger.Error("job failed", taskErr, watermill.LogFields{"job_id": jobMsg.JobID})
		errMsg := taskErr.Error()
		if err := s.repo.UpdateStatus(ctx, jobMsg.JobID, JobStatusFailed, &errMsg); err != nil {
			return fmt.Errorf("failed to mark job failed: %w", err)
		}
		return taskErr
	}

	if err := s.repo.UpdateStatus(ctx, jobMsg.JobID, JobStatusCompleted, nil); err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}

	return nil
}
