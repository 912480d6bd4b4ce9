// Package domain contains the workflow execution audit model.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

var ErrInvalidCallback = errors.New("invalid_callback")

const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusError   = "error"
)

// WorkflowExecution is an append-only audit row written for every verified
// callback from the workflow engine. It is never consulted for authorization.
type WorkflowExecution struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID        snowflake.ID      `gorm:"not null;index" json:"org_id"`
	WorkflowName string            `gorm:"type:text;not null" json:"workflow_name"`
	ExecutionID  string            `gorm:"type:text" json:"execution_id"`
	Status       string            `gorm:"type:text;not null;default:'running'" json:"status"`
	Input        datatypes.JSONMap `gorm:"type:jsonb" json:"input"`
	Output       datatypes.JSONMap `gorm:"type:jsonb" json:"output"`
	Error        string            `gorm:"type:text" json:"error"`
	StartedAt    *time.Time        `json:"started_at"`
	CompletedAt  *time.Time        `json:"completed_at"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (WorkflowExecution) TableName() string { return "workflow_executions" }

// Callback is the payload the workflow engine posts back after a run.
type Callback struct {
	WorkflowName   string         `json:"workflowName"`
	ExecutionID    string         `json:"executionId"`
	Status         string         `json:"status"`
	OrganizationID string         `json:"organizationId"`
	Input          map[string]any `json:"input"`
	Result         map[string]any `json:"result"`
	Error          string         `json:"error"`
}

type Service interface {
	// RecordCallback persists one audit row for a verified callback,
	// whether or not the workflow has bespoke handling. Callbacks that
	// carry no organization id are acknowledged without an audit row and
	// yield a nil execution.
	RecordCallback(ctx context.Context, cb Callback) (*WorkflowExecution, error)
}
