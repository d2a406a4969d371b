package bizerror

import (
	"ashley/common"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")

	// stage definitions referenced but not configured on the workflow
	ErrUnknownStage = errors.New("unknown stage")

	// lifecycle guard violations, mapped to 409
	ErrWorkflowNotActive    = errors.New("workflow is not active")
	ErrStageMismatch        = errors.New("stage is not the current stage")
	ErrApprovalNotPending   = errors.New("approval is not pending")
	ErrInspectionFinalized  = errors.New("inspection is already finalized")
	ErrQuantityExceedSample = errors.New("quantities exceed sample size")

	// applies to CAPA task and defect status progressions
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)

func ErrorHandling() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handle(c)
		c.Next()
	}
}

func handle(c *gin.Context) {
	if ret := recover(); ret != nil {
		err, ok := ret.(error)
		if !ok {
			err = errors.New(fmt.Sprintf("%s", ret))
		}
		HandleError(c, err)
	} else {
		if err := c.Errors.Last(); err != nil {
			HandleError(c, err)
		}
	}
}

func HandleError(c *gin.Context, err error) {
	logrus.Error(err)

	genericErr := err
	var ginErr *gin.Error
	if errors.As(err, &ginErr) {
		genericErr = ginErr.Err
	}

	if bizErr, ok := genericErr.(common.BizError); ok {
		respond := bizErr.Respond()
		c.JSON(respond.Status, &common.ErrorBody{Code: respond.Code, Message: respond.Message, Data: respond.Data})
		c.Abort()
		return
	}

	// bad request: io.EOF (no body)
	if errors.Is(genericErr, io.EOF) {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "bad_request.body_not_found", Message: "body not found"})
		c.Abort()
		return
	}
	// bad request: json syntax error
	if syntaxErr, ok := genericErr.(*json.SyntaxError); ok {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "bad_request.invalid_body_format", Message: "invalid body format", Data: syntaxErr.Error()})
		c.Abort()
		return
	}
	// validation failed
	if validationErr, ok := genericErr.(validator.ValidationErrors); ok {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "bad_request.validation_failed", Message: "validation failed", Data: validationErr.Error()})
		c.Abort()
		return
	}

	if errors.Is(genericErr, ErrUnauthenticated) {
		c.JSON(http.StatusUnauthorized, &common.ErrorBody{Code: "common.unauthenticated", Message: "unauthenticated"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrForbidden) {
		c.JSON(http.StatusForbidden, &common.ErrorBody{Code: "security.forbidden", Message: "access forbidden"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrUnknownStage) {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "workflow.unknown_stage", Message: "unknown stage"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrQuantityExceedSample) {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "inspection.quantity_exceed_sample", Message: "quantities exceed sample size"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrWorkflowNotActive) {
		c.JSON(http.StatusConflict, &common.ErrorBody{Code: "workflow.not_active", Message: "workflow is not active"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrStageMismatch) {
		c.JSON(http.StatusConflict, &common.ErrorBody{Code: "workflow.stage_mismatch", Message: "stage is not the current stage"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrApprovalNotPending) {
		c.JSON(http.StatusConflict, &common.ErrorBody{Code: "workflow.approval_not_pending", Message: "approval is not pending"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrInspectionFinalized) {
		c.JSON(http.StatusConflict, &common.ErrorBody{Code: "inspection.finalized", Message: "inspection is already finalized"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrInvalidStatusTransition) {
		c.JSON(http.StatusConflict, &common.ErrorBody{Code: "common.invalid_status_transition", Message: "invalid status transition"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, gorm.ErrRecordNotFound) || errors.Is(genericErr, ErrNotFound) {
		c.JSON(http.StatusNotFound, &common.ErrorBody{Code: "common.record_not_found", Message: "record not found"})
		c.Abort()
		return
	}

	c.JSON(http.StatusInternalServerError, &common.ErrorBody{Code: "common.internal_server_error", Message: err.Error()})
	c.Abort()
}
