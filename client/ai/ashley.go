package ai

import (
	"ashley/common"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/fundwit/go-commons/types"
	"github.com/sirupsen/logrus"
)

// DefaultEstimatedDuration is assumed (in hours) when the analysis
// collaborator is unreachable. Analysis results are advisory only and must
// never fail the operation that requested them.
const DefaultEstimatedDuration = 48

var (
	AnalyzeDesignWorkflowFunc = AnalyzeDesignWorkflow
	AnalyzePhotosFunc         = AnalyzePhotos
)

type WorkflowAnalysisRequest struct {
	DesignAssetID types.ID `json:"designAssetId"`
	ApproverRoles []string `json:"approverRoles"`
	Priority      string   `json:"priority"`
}

type WorkflowAnalysis struct {
	EstimatedDuration int      `json:"estimatedDuration"`
	Recommendations   []string `json:"recommendations"`
}

type DefectLocation struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Describe renders the bounding box as a human readable location.
func (l DefectLocation) Describe() string {
	if l.Width == 0 && l.Height == 0 {
		return ""
	}
	return fmt.Sprintf("x=%d,y=%d,w=%d,h=%d", l.X, l.Y, l.Width, l.Height)
}

type DetectedDefect struct {
	Type        string         `json:"type"`
	Description string         `json:"description"`
	Severity    string         `json:"severity"`
	Confidence  float64        `json:"confidence"`
	Location    DefectLocation `json:"location"`
}

type PhotoAnalysis struct {
	DefectsDetected   []DetectedDefect `json:"defectsDetected"`
	QualityScore      float64          `json:"qualityScore"`
	OverallAssessment string           `json:"overallAssessment"`
	Confidence        float64          `json:"confidence"`
}

func serviceURL() string {
	return os.ExpandEnv(os.Getenv("ASHLEY_AI_SERVICE"))
}

// AnalyzeDesignWorkflow asks the analysis collaborator for advisory workflow
// settings. Degrades to defaults when the collaborator is not configured or
// the invocation fails.
func AnalyzeDesignWorkflow(req WorkflowAnalysisRequest) WorkflowAnalysis {
	fallback := WorkflowAnalysis{EstimatedDuration: DefaultEstimatedDuration, Recommendations: []string{}}

	url := serviceURL()
	if url == "" {
		return fallback
	}

	reqBody, err := json.Marshal(&req)
	if err != nil {
		logrus.Warnf("workflow analysis request marshal failed: %v", err)
		return fallback
	}
	respBody, err := common.HttpInvokeJson(http.MethodPost, url+"/v1/analysis/design-workflow", nil, string(reqBody))
	if err != nil {
		logrus.Warnf("workflow analysis invocation failed, using defaults: %v", err)
		return fallback
	}

	analysis := WorkflowAnalysis{}
	if err := json.Unmarshal([]byte(respBody), &analysis); err != nil {
		logrus.Warnf("workflow analysis response unmarshal failed, using defaults: %v", err)
		return fallback
	}
	if analysis.EstimatedDuration <= 0 {
		analysis.EstimatedDuration = DefaultEstimatedDuration
	}
	if analysis.Recommendations == nil {
		analysis.Recommendations = []string{}
	}
	return analysis
}

// AnalyzePhotos submits inspection photos to the vision collaborator.
// Degrades to "no AI findings" when the collaborator is not configured or
// the invocation fails: a failed analysis must never fail an inspection.
func AnalyzePhotos(photoUrls []string) PhotoAnalysis {
	fallback := PhotoAnalysis{DefectsDetected: []DetectedDefect{}, QualityScore: 0, OverallAssessment: "", Confidence: 0}

	url := serviceURL()
	if url == "" || len(photoUrls) == 0 {
		return fallback
	}

	reqBody, err := json.Marshal(map[string]interface{}{"photoUrls": photoUrls})
	if err != nil {
		logrus.Warnf("photo analysis request marshal failed: %v", err)
		return fallback
	}
	respBody, err := common.HttpInvokeJson(http.MethodPost, url+"/v1/analysis/photos", nil, string(reqBody))
	if err != nil {
		logrus.Warnf("photo analysis invocation failed, proceeding with manual results only: %v", err)
		return fallback
	}

	analysis := PhotoAnalysis{}
	if err := json.Unmarshal([]byte(respBody), &analysis); err != nil {
		logrus.Warnf("photo analysis response unmarshal failed, proceeding with manual results only: %v", err)
		return fallback
	}
	if analysis.DefectsDetected == nil {
		analysis.DefectsDetected = []DetectedDefect{}
	}
	return analysis
}
