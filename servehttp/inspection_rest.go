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

func RegisterInspectionRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	handler := &inspectionHandler{
		validator: validator.New(),
	}

	g := r.Group("/v1/inspections", middleWares...)
	g.POST("", handler.handleCreateInspection)
	g.GET("", handler.handleQueryInspections)
	g.GET(":inspectionId", handler.handleDetailInspection)
	g.PUT(":inspectionId/completion", handler.handleCompleteInspection)

	p := r.Group("/v1/inspection-points", middleWares...)
	p.POST("", handler.handleCreateInspectionPoint)
	p.GET("", handler.handleQueryInspectionPoints)

	d := r.Group("/v1/defect-types", middleWares...)
	d.POST("", handler.handleCreateDefectType)
	d.GET("", handler.handleQueryDefectTypes)

	f := r.Group("/v1/defects", middleWares...)
	f.GET("", handler.handleQueryDefects)
	f.PUT(":defectId/resolution", handler.handleResolveDefect)

	t := r.Group("/v1/quality-trends", middleWares...)
	t.GET("", handler.handleQueryQualityTrends)
}

type inspectionHandler struct {
	validator *validator.Validate
}

func (h *inspectionHandler) handleCreateInspection(c *gin.Context) {
	creation := quality.InspectionCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	if err := h.validator.Struct(creation); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}

	detail, err := quality.CreateInspectionFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusCreated, detail)
}

func (h *inspectionHandler) handleQueryInspections(c *gin.Context) {
	query := quality.InspectionQuery{}
	_ = c.MustBindWith(&query, binding.Query)

	inspections, err := quality.QueryInspectionsFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, inspections)
}

func (h *inspectionHandler) handleDetailInspection(c *gin.Context) {
	id, err := types.ParseID(c.Param("inspectionId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "common.bad_param",
			Message: "invalid id '" + c.Param("inspectionId") + "'"})
		return
	}

	detail, err := quality.DetailInspectionFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *inspectionHandler) handleCompleteInspection(c *gin.Context) {
	id, err := types.ParseID(c.Param("inspectionId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "common.bad_param",
			Message: "invalid id '" + c.Param("inspectionId") + "'"})
		return
	}

	completion := quality.InspectionCompletion{}
	if err := c.ShouldBindBodyWith(&completion, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	if err := h.validator.Struct(completion); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}

	detail, err := quality.CompleteInspectionFunc(id, &completion, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *inspectionHandler) handleCreateInspectionPoint(c *gin.Context) {
	creation := quality.InspectionPointCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	if err := h.validator.Struct(creation); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}

	point, err := quality.CreateInspectionPointFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusCreated, point)
}

func (h *inspectionHandler) handleQueryInspectionPoints(c *gin.Context) {
	workspaceID, err := types.ParseID(c.Query("workspaceId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "common.bad_param",
			Message: "invalid workspace id '" + c.Query("workspaceId") + "'"})
		return
	}

	points, err := quality.QueryInspectionPointsFunc(workspaceID, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, points)
}

func (h *inspectionHandler) handleCreateDefectType(c *gin.Context) {
	creation := quality.DefectTypeCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	if err := h.validator.Struct(creation); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}

	defectType, err := quality.CreateDefectTypeFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusCreated, defectType)
}

func (h *inspectionHandler) handleQueryDefectTypes(c *gin.Context) {
	workspaceID, err := types.ParseID(c.Query("workspaceId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "common.bad_param",
			Message: "invalid workspace id '" + c.Query("workspaceId") + "'"})
		return
	}

	defectTypes, err := quality.QueryDefectTypesFunc(workspaceID, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, defectTypes)
}

func (h *inspectionHandler) handleQueryDefects(c *gin.Context) {
	query := quality.DefectQuery{}
	_ = c.MustBindWith(&query, binding.Query)

	defects, err := quality.QueryDefectsFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, defects)
}

func (h *inspectionHandler) handleResolveDefect(c *gin.Context) {
	id, err := types.ParseID(c.Param("defectId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "common.bad_param",
			Message: "invalid id '" + c.Param("defectId") + "'"})
		return
	}

	resolution := quality.DefectResolution{}
	if err := c.ShouldBindBodyWith(&resolution, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	if err := h.validator.Struct(resolution); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}

	defect, err := quality.ResolveDefectFunc(id, &resolution, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, defect)
}

func (h *inspectionHandler) handleQueryQualityTrends(c *gin.Context) {
	query := quality.TrendQuery{}
	_ = c.MustBindWith(&query, binding.Query)
	if err := h.validator.Struct(query); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}

	report, err := quality.QueryQualityTrendsFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, report)
}
