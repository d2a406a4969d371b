package servehttp

import (
	"ashley/common"
	"ashley/domain/quality"
	"ashley/session"
	"net/http"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

func RegisterAlertRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/quality-alerts", middleWares...)

	g.GET("", handleQueryQualityAlerts)
	g.PUT(":alertId/read", handleMarkAlertRead)
}

func handleQueryQualityAlerts(c *gin.Context) {
	query := quality.AlertQuery{}
	_ = c.MustBindWith(&query, binding.Query)

	alerts, err := quality.QueryQualityAlertsFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, alerts)
}

func handleMarkAlertRead(c *gin.Context) {
	id, err := types.ParseID(c.Param("alertId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "common.bad_param",
			Message: "invalid id '" + c.Param("alertId") + "'"})
		return
	}

	if err := quality.MarkAlertReadFunc(id, session.ExtractSessionFromGinContext(c)); err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.Status(http.StatusNoContent)
}
