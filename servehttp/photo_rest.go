package servehttp

import (
	"ashley/common"
	"ashley/domain/quality"
	"ashley/session"
	"net/http"
	"strings"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type PhotoAnalysisRequest struct {
	PhotoURLs []string `json:"photoUrls" validate:"required,min=1"`
}

func RegisterPhotoRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	handler := &photoHandler{
		validator: validator.New(),
	}

	g := r.Group("/v1/inspections", middleWares...)
	g.POST(":inspectionId/photos", handler.handleUploadInspectionPhoto)

	p := r.Group("/v1/inspection-photos", middleWares...)
	p.GET("*key", handler.handleDetailInspectionPhoto)

	a := r.Group("/v1/photo-analyses", middleWares...)
	a.POST("", handler.handlePhotoAnalysis)
}

type photoHandler struct {
	validator *validator.Validate
}

func (h *photoHandler) handleUploadInspectionPhoto(c *gin.Context) {
	id, err := types.ParseID(c.Param("inspectionId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "common.bad_param",
			Message: "invalid id '" + c.Param("inspectionId") + "'"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	src, err := file.Open()
	if err != nil {
		panic(err)
	}
	defer src.Close()

	key, err := quality.UploadInspectionPhotoFunc(id, src, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusCreated, gin.H{"key": key})
}

func (h *photoHandler) handleDetailInspectionPhoto(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")

	bytes, err := quality.DetailInspectionPhotoFunc(key, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.Data(http.StatusOK, "image/jpeg", bytes)
}

func (h *photoHandler) handlePhotoAnalysis(c *gin.Context) {
	request := PhotoAnalysisRequest{}
	if err := c.ShouldBindBodyWith(&request, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	if err := h.validator.Struct(request); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}

	analysis := quality.PerformPhotoAnalysisFunc(request.PhotoURLs)
	c.JSON(http.StatusOK, analysis)
}
