package domain

import (
	"time"
)

// PipelineStatus represents the overall status of one update run
type PipelineStatus string

const (
	PipelineStatusPending   PipelineStatus = "pending"
	PipelineStatusRunning   PipelineStatus = "running"
	PipelineStatusCompleted PipelineStatus = "completed"
	PipelineStatusFailed    PipelineStatus = "failed"
)

// CheckpointStatus represents the status of an individual checkpoint
type CheckpointStatus string

const (
	CheckpointStatusPending   CheckpointStatus = "pending"
	CheckpointStatusRunning   CheckpointStatus = "running"
	CheckpointStatusCompleted CheckpointStatus = "completed"
	CheckpointStatusFailed    CheckpointStatus = "failed"
)

// CheckpointType identifies a checkpoint of the update pipeline
type CheckpointType string

const (
	CheckpointCaptureStaged  CheckpointType = "capture_staged"
	CheckpointCleanWorktree  CheckpointType = "clean_worktree"
	CheckpointPositionBranch CheckpointType = "position_branch"
	CheckpointApplyStaged    CheckpointType = "apply_staged"
	CheckpointMergeCommit    CheckpointType = "merge_commit"
	CheckpointCreateTag      CheckpointType = "create_tag"
	CheckpointPushBranch     CheckpointType = "push_branch"
	CheckpointPushTag        CheckpointType = "push_tag"
)

// PipelineState is the journal of one update run. It exists for the
// operator: after a failure it records exactly which checkpoint stopped
// the pipeline and which refs were already created locally. Recovery is
// manual, never automatic.
type PipelineState struct {
	SessionID     string             `json:"session_id"`
	StartedAt     time.Time          `json:"started_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	Version       string             `json:"version"`
	ReleaseBranch string             `json:"release_branch"`
	UpdateTo      string             `json:"update_to"`
	Checkpoints   []CheckpointRecord `json:"checkpoints"`
	Status        PipelineStatus     `json:"status"`
	Error         string             `json:"error,omitempty"`
}

// CheckpointRecord represents a single checkpoint in the pipeline
type CheckpointRecord struct {
	Type        CheckpointType   `json:"type"`
	Status      CheckpointStatus `json:"status"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	Detail      map[string]any   `json:"detail,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// NewPipelineState creates a pending journal for a session
func NewPipelineState(sessionID string, req ReleaseRequest) *PipelineState {
	now := time.Now()
	return &PipelineState{
		SessionID:     sessionID,
		StartedAt:     now,
		UpdatedAt:     now,
		Version:       req.Version,
		ReleaseBranch: req.ReleaseBranch,
		UpdateTo:      req.UpdateTo,
		Checkpoints:   []CheckpointRecord{},
		Status:        PipelineStatusPending,
	}
}

// AddCheckpoint appends a pending checkpoint record
func (ps *PipelineState) AddCheckpoint(cpType CheckpointType) {
	ps.Checkpoints = append(ps.Checkpoints, CheckpointRecord{
		Type:      cpType,
		Status:    CheckpointStatusPending,
		StartedAt: time.Now(),
	})
	ps.UpdatedAt = time.Now()
}

// MarkCheckpointStarted marks the pending checkpoint of the given type as running
func (ps *PipelineState) MarkCheckpointStarted(cpType CheckpointType) {
	for i := range ps.Checkpoints {
		if ps.Checkpoints[i].Type == cpType && ps.Checkpoints[i].Status == CheckpointStatusPending {
			ps.Checkpoints[i].Status = CheckpointStatusRunning
			ps.Checkpoints[i].StartedAt = time.Now()
			ps.UpdatedAt = time.Now()
			break
		}
	}
}

// MarkCheckpointCompleted marks the running checkpoint as completed with detail
func (ps *PipelineState) MarkCheckpointCompleted(cpType CheckpointType, detail map[string]any) {
	now := time.Now()
	for i := range ps.Checkpoints {
		if ps.Checkpoints[i].Type == cpType && ps.Checkpoints[i].Status == CheckpointStatusRunning {
			ps.Checkpoints[i].Status = CheckpointStatusCompleted
			ps.Checkpoints[i].CompletedAt = &now
			ps.Checkpoints[i].Detail = detail
			ps.UpdatedAt = now
			break
		}
	}
}

// MarkCheckpointFailed marks the running checkpoint as failed and fails the run
func (ps *PipelineState) MarkCheckpointFailed(cpType CheckpointType, err error) {
	now := time.Now()
	for i := range ps.Checkpoints {
		if ps.Checkpoints[i].Type == cpType && ps.Checkpoints[i].Status == CheckpointStatusRunning {
			ps.Checkpoints[i].Status = CheckpointStatusFailed
			ps.Checkpoints[i].CompletedAt = &now
			ps.Checkpoints[i].Error = err.Error()
			ps.UpdatedAt = now
			break
		}
	}
	ps.Status = PipelineStatusFailed
	ps.Error = err.Error()
}

// FailedCheckpoint returns the failed checkpoint record, if any
func (ps *PipelineState) FailedCheckpoint() *CheckpointRecord {
	for i := range ps.Checkpoints {
		if ps.Checkpoints[i].Status == CheckpointStatusFailed {
			return &ps.Checkpoints[i]
		}
	}
	return nil
}
