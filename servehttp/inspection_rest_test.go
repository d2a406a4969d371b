package servehttp_test

import (
	"ashley/bizerror"
	"ashley/domain"
	"ashley/domain/quality"
	"ashley/servehttp"
	"ashley/session"
	"ashley/testinfra"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
)

func inspectionTestRouter() *gin.Engine {
	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	servehttp.RegisterInspectionRestAPI(router)
	return router
}

func TestCreateInspectionRestAPI(t *testing.T) {
	RegisterTestingT(t)
	router := inspectionTestRouter()

	t.Run("should return 400 when failed to validate", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/inspections", strings.NewReader("{}"))
		status, body := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(MatchJSON(`{
			"code": "common.bad_param",
			"message": "Key: 'InspectionCreation.WorkspaceID' Error:Field validation for 'WorkspaceID' failed on the 'required' tag\n` +
			`Key: 'InspectionCreation.OrderID' Error:Field validation for 'OrderID' failed on the 'required' tag\n` +
			`Key: 'InspectionCreation.InspectionPointID' Error:Field validation for 'InspectionPointID' failed on the 'required' tag\n` +
			`Key: 'InspectionCreation.SampleSize' Error:Field validation for 'SampleSize' failed on the 'required' tag",
			"data": null
		}`))
	})

	t.Run("should be able to create inspection successfully", func(t *testing.T) {
		demoTime := types.TimestampOfDate(2025, 7, 1, 10, 0, 0, 0, time.Now().Location())
		timeBytes, err := demoTime.Time().MarshalJSON()
		Expect(err).To(BeNil())
		timeString := strings.Trim(string(timeBytes), `"`)

		quality.CreateInspectionFunc = func(c *quality.InspectionCreation, sec *session.Session) (*domain.InspectionDetail, error) {
			return &domain.InspectionDetail{
				QCInspection: domain.QCInspection{
					ID: 812, WorkspaceID: c.WorkspaceID, OrderID: c.OrderID,
					InspectionPointID: c.InspectionPointID, InspectorID: 300,
					SampleSize: c.SampleSize, Status: domain.InspectionStatusPending,
					CreateTime: demoTime,
				},
				InspectionPoint: domain.QCInspectionPoint{ID: c.InspectionPointID, WorkspaceID: c.WorkspaceID,
					Name: "Final Inspection", PassThreshold: 80, ReworkThreshold: 70, CreateTime: demoTime},
			}, nil
		}

		reqBody := `{"workspaceId":"1", "orderId":"900", "inspectionPointId":"77", "sampleSize": 20}`
		req := httptest.NewRequest(http.MethodPost, "/v1/inspections", strings.NewReader(reqBody))
		status, body := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusCreated))
		Expect(body).To(MatchJSON(`{
			"id": "812", "workspaceId": "1", "orderId": "900", "inspectionPointId": "77",
			"inspectorId": "300", "bundleId": "0", "batchNumber": "",
			"sampleSize": 20, "status": "PENDING",
			"overallScore": 0, "passQuantity": 0, "failQuantity": 0, "reworkQuantity": 0,
			"inspectionTime": 0, "notes": "", "photos": null,
			"aiAssessment": "", "aiConfidence": 0,
			"createTime": "` + timeString + `", "completeTime": null,
			"inspectionPoint": {"id": "77", "workspaceId": "1", "name": "Final Inspection", "stage": "",
				"criteria": null, "passThreshold": 80, "reworkThreshold": 70,
				"alertDefectThreshold": 0, "aiEnabled": false, "createTime": "` + timeString + `"},
			"criteriaResults": null,
			"defects": null
		}`))
	})

	t.Run("should be able to handle error when create inspection", func(t *testing.T) {
		quality.CreateInspectionFunc = func(c *quality.InspectionCreation, sec *session.Session) (*domain.InspectionDetail, error) {
			return nil, bizerror.ErrNotFound
		}
		reqBody := `{"workspaceId":"1", "orderId":"900", "inspectionPointId":"77", "sampleSize": 20}`
		req := httptest.NewRequest(http.MethodPost, "/v1/inspections", strings.NewReader(reqBody))
		status, body := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusNotFound))
		Expect(body).To(MatchJSON(`{"code":"common.record_not_found","message":"record not found","data":null}`))
	})
}

func TestCompleteInspectionRestAPI(t *testing.T) {
	RegisterTestingT(t)
	router := inspectionTestRouter()

	t.Run("should be able to validate id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/v1/inspections/zzz/completion", strings.NewReader("{}"))
		status, body := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(MatchJSON(`{"code":"common.bad_param","message":"invalid id 'zzz'","data":null}`))
	})

	t.Run("should pass the completion through", func(t *testing.T) {
		var completedId types.ID
		var c1 quality.InspectionCompletion
		quality.CompleteInspectionFunc = func(id types.ID, c *quality.InspectionCompletion, sec *session.Session) (*domain.InspectionDetail, error) {
			completedId = id
			c1 = *c
			return &domain.InspectionDetail{QCInspection: domain.QCInspection{ID: id,
				Status: domain.InspectionStatusPassed}}, nil
		}

		reqBody := `{"criteriaResults":[{"criteriaName":"stitching", "result":"PASS", "score": 95}],
			"passQuantity": 20, "inspectionTime": 300}`
		req := httptest.NewRequest(http.MethodPut, "/v1/inspections/812/completion", strings.NewReader(reqBody))
		status, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(completedId).To(Equal(types.ID(812)))
		Expect(c1.PassQuantity).To(Equal(20))
		Expect(c1.InspectionTime).To(Equal(300))
		Expect(c1.CriteriaResults).To(Equal([]quality.CriteriaResultSubmission{
			{CriteriaName: "stitching", Result: domain.CriteriaResultPass, Score: 95}}))
	})

	t.Run("should surface lifecycle conflicts", func(t *testing.T) {
		quality.CompleteInspectionFunc = func(id types.ID, c *quality.InspectionCompletion, sec *session.Session) (*domain.InspectionDetail, error) {
			return nil, bizerror.ErrInspectionFinalized
		}
		req := httptest.NewRequest(http.MethodPut, "/v1/inspections/812/completion", strings.NewReader("{}"))
		status, body := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusConflict))
		Expect(body).To(MatchJSON(`{"code":"inspection.finalized","message":"inspection is already finalized","data":null}`))

		quality.CompleteInspectionFunc = func(id types.ID, c *quality.InspectionCompletion, sec *session.Session) (*domain.InspectionDetail, error) {
			return nil, bizerror.ErrQuantityExceedSample
		}
		req = httptest.NewRequest(http.MethodPut, "/v1/inspections/812/completion", strings.NewReader("{}"))
		status, body = testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(MatchJSON(`{"code":"inspection.quantity_exceed_sample","message":"quantities exceed sample size","data":null}`))
	})
}

func TestInspectionPointRestAPI(t *testing.T) {
	RegisterTestingT(t)
	router := inspectionTestRouter()

	t.Run("should validate the workspace id on query", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/inspection-points", nil)
		status, body := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(MatchJSON(`{"code":"common.bad_param","message":"invalid workspace id ''","data":null}`))
	})

	t.Run("should pass the creation through", func(t *testing.T) {
		var c1 quality.InspectionPointCreation
		quality.CreateInspectionPointFunc = func(c *quality.InspectionPointCreation, sec *session.Session) (*domain.QCInspectionPoint, error) {
			c1 = *c
			return &domain.QCInspectionPoint{ID: 77, WorkspaceID: c.WorkspaceID, Name: c.Name}, nil
		}
		reqBody := `{"workspaceId":"1", "name":"Final Inspection", "stage":"FINISHING",
			"criteria":[{"name":"stitching", "weight": 60}],
			"passThreshold": 80, "reworkThreshold": 70, "alertDefectThreshold": 3, "aiEnabled": true}`
		req := httptest.NewRequest(http.MethodPost, "/v1/inspection-points", strings.NewReader(reqBody))
		status, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusCreated))
		Expect(c1.WorkspaceID).To(Equal(types.ID(1)))
		Expect(c1.AIEnabled).To(BeTrue())
		Expect(c1.Criteria).To(Equal([]domain.CriteriaTemplate{{Name: "stitching", Weight: 60}}))
	})

	t.Run("should query points of the workspace", func(t *testing.T) {
		var queriedWorkspace types.ID
		quality.QueryInspectionPointsFunc = func(workspaceID types.ID, sec *session.Session) (*[]domain.QCInspectionPoint, error) {
			queriedWorkspace = workspaceID
			return &[]domain.QCInspectionPoint{}, nil
		}
		req := httptest.NewRequest(http.MethodGet, "/v1/inspection-points?workspaceId=1", nil)
		status, body := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`[]`))
		Expect(queriedWorkspace).To(Equal(types.ID(1)))
	})
}

func TestDefectRestAPI(t *testing.T) {
	RegisterTestingT(t)
	router := inspectionTestRouter()

	t.Run("should validate the resolution", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/v1/defects/5001/resolution", strings.NewReader("{}"))
		status, body := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(MatchJSON(`{
			"code": "common.bad_param",
			"message": "Key: 'DefectResolution.Resolution' Error:Field validation for 'Resolution' failed on the 'required' tag",
			"data": null
		}`))
	})

	t.Run("should pass the resolution through", func(t *testing.T) {
		var resolvedId types.ID
		var r1 quality.DefectResolution
		quality.ResolveDefectFunc = func(id types.ID, r *quality.DefectResolution, sec *session.Session) (*domain.QCDefect, error) {
			resolvedId = id
			r1 = *r
			return &domain.QCDefect{ID: id, Status: domain.DefectStatusResolved}, nil
		}
		req := httptest.NewRequest(http.MethodPut, "/v1/defects/5001/resolution",
			strings.NewReader(`{"resolution":"restitched"}`))
		status, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(resolvedId).To(Equal(types.ID(5001)))
		Expect(r1.Resolution).To(Equal("restitched"))
	})

	t.Run("should pass defect query filters through", func(t *testing.T) {
		var q1 quality.DefectQuery
		quality.QueryDefectsFunc = func(q *quality.DefectQuery, sec *session.Session) (*[]domain.QCDefect, error) {
			q1 = *q
			return &[]domain.QCDefect{}, nil
		}
		req := httptest.NewRequest(http.MethodGet, "/v1/defects?workspaceId=1&status=OPEN&severity=HIGH", nil)
		status, body := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`[]`))
		Expect(q1).To(Equal(quality.DefectQuery{WorkspaceID: 1,
			Status: domain.DefectStatusOpen, Severity: domain.DefectSeverityHigh}))
	})
}

func TestQualityTrendsRestAPI(t *testing.T) {
	RegisterTestingT(t)
	router := inspectionTestRouter()

	t.Run("should validate required query parameters", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/quality-trends?workspaceId=1", nil)
		status, body := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(MatchJSON(`{
			"code": "common.bad_param",
			"message": "Key: 'TrendQuery.InspectionPointID' Error:Field validation for 'InspectionPointID' failed on the 'required' tag",
			"data": null
		}`))
	})

	t.Run("should return the trend report", func(t *testing.T) {
		quality.QueryQualityTrendsFunc = func(q *quality.TrendQuery, sec *session.Session) (*quality.TrendReport, error) {
			return &quality.TrendReport{TotalInspections: 2, TotalSample: 40, PassQuantity: 38,
				FailQuantity: 2, AverageScore: 91.5, Points: []quality.TrendPoint{}}, nil
		}
		req := httptest.NewRequest(http.MethodGet, "/v1/quality-trends?workspaceId=1&inspectionPointId=77", nil)
		status, body := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`{
			"totalInspections": 2, "totalSample": 40, "passQuantity": 38, "failQuantity": 2,
			"reworkQuantity": 0, "averageScore": 91.5,
			"hasControlLimits": false,
			"controlLimits": {"centerLine": 0, "ucl": 0, "lcl": 0, "sigma": 0},
			"points": []
		}`))
	})

	t.Run("should be able to handle error when query trends", func(t *testing.T) {
		quality.QueryQualityTrendsFunc = func(q *quality.TrendQuery, sec *session.Session) (*quality.TrendReport, error) {
			return nil, errors.New("a mocked error")
		}
		req := httptest.NewRequest(http.MethodGet, "/v1/quality-trends?workspaceId=1&inspectionPointId=77", nil)
		status, body := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusInternalServerError))
		Expect(body).To(MatchJSON(`{"code":"common.internal_server_error","message":"a mocked error","data":null}`))
	})
}
