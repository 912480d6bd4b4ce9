package server

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/tollgate/internal/workflow"
	workflowdomain "github.com/smallbiznis/tollgate/internal/workflow/domain"
	"go.uber.org/zap"
)

func (s *Server) StripeWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	err = s.billingSvc.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (s *Server) WorkflowCallback(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.wfClient.VerifySignature(c.GetHeader("X-Workflow-Signature"), payload); err != nil {
		AbortWithError(c, workflow.ErrInvalidSignature)
		return
	}

	var cb workflowdomain.Callback
	if err := json.Unmarshal(payload, &cb); err != nil {
		AbortWithError(c, workflowdomain.ErrInvalidCallback)
		return
	}

	exec, err := s.workflowSvc.RecordCallback(c.Request.Context(), cb)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if exec != nil {
		s.log.Debug("workflow callback handled",
			zap.String("workflow", exec.WorkflowName),
			zap.String("status", exec.Status),
		)
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
