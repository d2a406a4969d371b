package servehttp

import (
	"ashley/common"
	"ashley/domain/approval"
	"ashley/session"
	"net/http"
	"strconv"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func RegisterWorkflowRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/approval-workflows", middleWares...)

	handler := &workflowHandler{
		validator: validator.New(),
	}

	g.POST("", handler.handleCreateWorkflow)
	g.GET("", handler.handleQueryWorkflows)
	g.GET(":workflowId", handler.handleDetailWorkflow)

	g.PUT(":workflowId/pause", handler.handlePauseWorkflow)
	g.PUT(":workflowId/resume", handler.handleResumeWorkflow)
	g.PUT(":workflowId/cancel", handler.handleCancelWorkflow)

	g.POST(":workflowId/stages/:stageNumber/approval-requests", handler.handleRequestApproval)
}

type workflowHandler struct {
	validator *validator.Validate
}

func (h *workflowHandler) handleCreateWorkflow(c *gin.Context) {
	creation := approval.WorkflowCreation{}
	err := c.ShouldBindBodyWith(&creation, binding.JSON)
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	if err = h.validator.Struct(creation); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}

	detail, err := approval.CreateWorkflowFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusCreated, detail)
}

func (h *workflowHandler) handleQueryWorkflows(c *gin.Context) {
	query := approval.WorkflowQuery{}
	_ = c.MustBindWith(&query, binding.Query)

	workflows, err := approval.QueryWorkflowsFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, workflows)
}

func (h *workflowHandler) handleDetailWorkflow(c *gin.Context) {
	id, err := types.ParseID(c.Param("workflowId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "common.bad_param",
			Message: "invalid id '" + c.Param("workflowId") + "'"})
		return
	}

	detail, err := approval.DetailWorkflowFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *workflowHandler) handlePauseWorkflow(c *gin.Context) {
	h.overrideStatus(c, approval.PauseWorkflowFunc)
}

func (h *workflowHandler) handleResumeWorkflow(c *gin.Context) {
	h.overrideStatus(c, approval.ResumeWorkflowFunc)
}

func (h *workflowHandler) handleCancelWorkflow(c *gin.Context) {
	h.overrideStatus(c, approval.CancelWorkflowFunc)
}

func (h *workflowHandler) overrideStatus(c *gin.Context, action func(types.ID, *session.Session) error) {
	id, err := types.ParseID(c.Param("workflowId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "common.bad_param",
			Message: "invalid id '" + c.Param("workflowId") + "'"})
		return
	}

	if err := action(id, session.ExtractSessionFromGinContext(c)); err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *workflowHandler) handleRequestApproval(c *gin.Context) {
	id, err := types.ParseID(c.Param("workflowId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "common.bad_param",
			Message: "invalid id '" + c.Param("workflowId") + "'"})
		return
	}
	stageNumber, err := strconv.Atoi(c.Param("stageNumber"))
	if err != nil || stageNumber < 1 {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "common.bad_param",
			Message: "invalid stage number '" + c.Param("stageNumber") + "'"})
		return
	}

	detail, err := approval.RequestApprovalFunc(id, stageNumber, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, detail)
}
