package servehttp

import (
	"ashley/common"
	"ashley/domain/quality"
	"ashley/session"
	"net/http"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func RegisterCAPARestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/capa-tasks", middleWares...)

	handler := &capaHandler{
		validator: validator.New(),
	}

	g.GET("", handler.handleQueryCAPATasks)
	g.PUT(":taskId/status", handler.handleUpdateCAPAStatus)
}

type capaHandler struct {
	validator *validator.Validate
}

func (h *capaHandler) handleQueryCAPATasks(c *gin.Context) {
	query := quality.CAPAQuery{}
	_ = c.MustBindWith(&query, binding.Query)

	tasks, err := quality.QueryCAPATasksFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *capaHandler) handleUpdateCAPAStatus(c *gin.Context) {
	id, err := types.ParseID(c.Param("taskId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "common.bad_param",
			Message: "invalid id '" + c.Param("taskId") + "'"})
		return
	}

	change := quality.CAPAStatusChange{}
	if err := c.ShouldBindBodyWith(&change, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	if err := h.validator.Struct(change); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}

	task, err := quality.UpdateCAPAStatusFunc(id, &change, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, task)
}
