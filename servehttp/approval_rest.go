package servehttp

import (
	"ashley/common"
	"ashley/domain/approval"
	"ashley/session"
	"net/http"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func RegisterApprovalRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/approvals", middleWares...)

	handler := &approvalHandler{
		validator: validator.New(),
	}

	g.GET("/pending", handler.handleQueryPendingApprovals)
	g.PUT(":approvalId/decision", handler.handleProcessApproval)
}

type approvalHandler struct {
	validator *validator.Validate
}

func (h *approvalHandler) handleQueryPendingApprovals(c *gin.Context) {
	approvals, err := approval.QueryPendingApprovalsFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, approvals)
}

func (h *approvalHandler) handleProcessApproval(c *gin.Context) {
	id, err := types.ParseID(c.Param("approvalId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "common.bad_param",
			Message: "invalid id '" + c.Param("approvalId") + "'"})
		return
	}

	decision := approval.ApprovalDecision{}
	if err := c.ShouldBindBodyWith(&decision, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	if err := h.validator.Struct(decision); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}

	detail, err := approval.ProcessApprovalFunc(id, &decision, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, detail)
}
