package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tollgate/internal/workflow/domain"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type service struct {
	db    *gorm.DB
	genID *snowflake.Node
	log   *zap.Logger
}

func NewService(db *gorm.DB, genID *snowflake.Node, log *zap.Logger) domain.Service {
	return &service{
		db:    db,
		genID: genID,
		log:   log.Named("workflow.callback"),
	}
}

func (s *service) RecordCallback(ctx context.Context, cb domain.Callback) (*domain.WorkflowExecution, error) {
	// Callbacks without a tenant are acknowledged but not audited; the
	// engine omits organizationId for workflows that are not org-scoped.
	rawOrgID := strings.TrimSpace(cb.OrganizationID)
	if rawOrgID == "" {
		s.log.Debug("workflow callback without org, skipping audit",
			zap.String("workflow", strings.TrimSpace(cb.WorkflowName)),
		)
		return nil, nil
	}
	orgID, err := snowflake.ParseString(rawOrgID)
	if err != nil {
		return nil, domain.ErrInvalidCallback
	}

	status := strings.TrimSpace(cb.Status)
	switch status {
	case domain.StatusRunning, domain.StatusSuccess, domain.StatusError:
	case "":
		status = domain.StatusSuccess
	default:
		status = domain.StatusError
	}

	now := time.Now().UTC()
	exec := domain.WorkflowExecution{
		ID:           s.genID.Generate(),
		OrgID:        orgID,
		WorkflowName: strings.TrimSpace(cb.WorkflowName),
		ExecutionID:  strings.TrimSpace(cb.ExecutionID),
		Status:       status,
		Input:        datatypes.JSONMap(cb.Input),
		Output:       datatypes.JSONMap(cb.Result),
		Error:        strings.TrimSpace(cb.Error),
		CompletedAt:  &now,
		CreatedAt:    now,
	}

	if err := s.db.WithContext(ctx).Create(&exec).Error; err != nil {
		return nil, err
	}

	s.log.Debug("workflow callback recorded",
		zap.String("org_id", exec.OrgID.String()),
		zap.String("workflow", exec.WorkflowName),
		zap.String("status", exec.Status),
	)
	return &exec, nil
}
