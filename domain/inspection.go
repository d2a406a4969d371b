package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/fundwit/go-commons/types"
)

type InspectionStatus string

const (
	InspectionStatusPending    InspectionStatus = "PENDING"
	InspectionStatusInProgress InspectionStatus = "IN_PROGRESS"
	InspectionStatusPassed     InspectionStatus = "PASSED"
	InspectionStatusFailed     InspectionStatus = "FAILED"
	InspectionStatusRework     InspectionStatus = "REWORK"
)

func (s InspectionStatus) IsTerminal() bool {
	return s == InspectionStatusPassed || s == InspectionStatusFailed || s == InspectionStatusRework
}

type CriteriaResultValue string

const (
	CriteriaResultPass       CriteriaResultValue = "PASS"
	CriteriaResultFail       CriteriaResultValue = "FAIL"
	CriteriaResultAcceptable CriteriaResultValue = "ACCEPTABLE"
	CriteriaResultCritical   CriteriaResultValue = "CRITICAL"
)

type DefectSeverity string

const (
	DefectSeverityLow      DefectSeverity = "LOW"
	DefectSeverityMedium   DefectSeverity = "MEDIUM"
	DefectSeverityHigh     DefectSeverity = "HIGH"
	DefectSeverityCritical DefectSeverity = "CRITICAL"
)

type DefectStatus string

const (
	DefectStatusOpen          DefectStatus = "OPEN"
	DefectStatusInvestigating DefectStatus = "INVESTIGATING"
	DefectStatusResolved      DefectStatus = "RESOLVED"
	DefectStatusClosed        DefectStatus = "CLOSED"
)

// CriteriaTemplate is one configured criterion of an inspection point.
// Weight is the criterion importance (0-100), normalized at scoring time.
type CriteriaTemplate struct {
	Name        string  `json:"name"`
	Weight      int     `json:"weight"`
	TargetValue float64 `json:"targetValue"`
	Tolerance   float64 `json:"tolerance"`
}

type CriteriaTemplates []CriteriaTemplate

type QCInspectionPoint struct {
	ID          types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	WorkspaceID types.ID `json:"workspaceId" sql:"type:BIGINT UNSIGNED NOT NULL"`

	Name  string `json:"name"`
	Stage string `json:"stage"`

	Criteria CriteriaTemplates `json:"criteria" sql:"type:TEXT"`

	// disposition policy, not hardcoded in the engine
	PassThreshold   float64 `json:"passThreshold"`
	ReworkThreshold float64 `json:"reworkThreshold"`

	// defect count of severity HIGH or CRITICAL that raises an alert
	AlertDefectThreshold int `json:"alertDefectThreshold"`

	AIEnabled bool `json:"aiEnabled"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

func (p *QCInspectionPoint) TableName() string {
	return "qc_inspection_points"
}

type QCInspection struct {
	ID          types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	WorkspaceID types.ID `json:"workspaceId" sql:"type:BIGINT UNSIGNED NOT NULL"`

	OrderID           types.ID `json:"orderId" sql:"type:BIGINT UNSIGNED NOT NULL"`
	InspectionPointID types.ID `json:"inspectionPointId" sql:"type:BIGINT UNSIGNED NOT NULL"`
	InspectorID       types.ID `json:"inspectorId" sql:"type:BIGINT UNSIGNED NOT NULL"`
	BundleID          types.ID `json:"bundleId" sql:"type:BIGINT UNSIGNED"`
	BatchNumber       string   `json:"batchNumber"`

	SampleSize int              `json:"sampleSize"`
	Status     InspectionStatus `json:"status"`

	OverallScore   float64 `json:"overallScore"`
	PassQuantity   int     `json:"passQuantity"`
	FailQuantity   int     `json:"failQuantity"`
	ReworkQuantity int     `json:"reworkQuantity"`

	// seconds spent inspecting
	InspectionTime int `json:"inspectionTime"`

	Notes  string    `json:"notes" sql:"type:TEXT"`
	Photos PhotoURLs `json:"photos" sql:"type:TEXT"`

	AIAssessment string  `json:"aiAssessment"`
	AIConfidence float64 `json:"aiConfidence"`

	CreateTime   types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
	CompleteTime types.Timestamp `json:"completeTime" sql:"type:DATETIME(6)"`
}

func (i *QCInspection) TableName() string {
	return "qc_inspections"
}

type QCCriteriaResult struct {
	ID           types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	InspectionID types.ID `json:"inspectionId" sql:"type:BIGINT UNSIGNED NOT NULL"`

	CriteriaName string              `json:"criteriaName"`
	Result       CriteriaResultValue `json:"result"`

	MeasuredValue float64 `json:"measuredValue"`
	TargetValue   float64 `json:"targetValue"`
	Tolerance     float64 `json:"tolerance"`

	Weight int     `json:"weight"`
	Score  float64 `json:"score"`

	Notes    string `json:"notes"`
	PhotoURL string `json:"photoUrl"`

	AIDetected   bool    `json:"aiDetected"`
	AIConfidence float64 `json:"aiConfidence"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

func (r *QCCriteriaResult) TableName() string {
	return "qc_criteria_results"
}

type QCDefect struct {
	ID           types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	WorkspaceID  types.ID `json:"workspaceId" sql:"type:BIGINT UNSIGNED NOT NULL"`
	InspectionID types.ID `json:"inspectionId" sql:"type:BIGINT UNSIGNED NOT NULL"`
	DefectTypeID types.ID `json:"defectTypeId" sql:"type:BIGINT UNSIGNED NOT NULL"`

	Quantity    int    `json:"quantity"`
	Location    string `json:"location"`
	Description string `json:"description" sql:"type:TEXT"`

	PhotoURLs PhotoURLs `json:"photoUrls" sql:"type:TEXT"`
	RootCause string    `json:"rootCause"`

	Severity   DefectSeverity `json:"severity"`
	Status     DefectStatus   `json:"status"`
	CostImpact float64        `json:"costImpact"`

	Resolution  string          `json:"resolution"`
	ResolverID  types.ID        `json:"resolverId" sql:"type:BIGINT UNSIGNED"`
	ResolveTime types.Timestamp `json:"resolveTime" sql:"type:DATETIME(6)"`

	AIDetected   bool    `json:"aiDetected"`
	AIConfidence float64 `json:"aiConfidence"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

func (d *QCDefect) TableName() string {
	return "qc_defects"
}

type QCDefectType struct {
	ID          types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	WorkspaceID types.ID `json:"workspaceId" sql:"type:BIGINT UNSIGNED NOT NULL"`

	Name     string `json:"name"`
	Category string `json:"category"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

func (t *QCDefectType) TableName() string {
	return "qc_defect_types"
}

type InspectionDetail struct {
	QCInspection

	InspectionPoint QCInspectionPoint  `json:"inspectionPoint" gorm:"-"`
	CriteriaResults []QCCriteriaResult `json:"criteriaResults" gorm:"-"`
	Defects         []QCDefect         `json:"defects" gorm:"-"`
}

type PhotoURLs []string

func (t PhotoURLs) Value() (driver.Value, error) {
	jsonBytes, err := json.Marshal(&t)
	if err != nil {
		return nil, err
	}
	return string(jsonBytes), nil
}

func (c *PhotoURLs) Scan(v interface{}) error {
	jsonString, ok := v.(string)
	if !ok {
		jsonByte, ok := v.([]byte)
		if !ok {
			return fmt.Errorf("type is neither string nor []byte: %T %v", v, v)
		}
		jsonString = string(jsonByte)
	}
	return json.Unmarshal([]byte(jsonString), c)
}

func (t CriteriaTemplates) Value() (driver.Value, error) {
	jsonBytes, err := json.Marshal(&t)
	if err != nil {
		return nil, err
	}
	return string(jsonBytes), nil
}

func (c *CriteriaTemplates) Scan(v interface{}) error {
	jsonString, ok := v.(string)
	if !ok {
		jsonByte, ok := v.([]byte)
		if !ok {
			return fmt.Errorf("type is neither string nor []byte: %T %v", v, v)
		}
		jsonString = string(jsonByte)
	}
	return json.Unmarshal([]byte(jsonString), c)
}
