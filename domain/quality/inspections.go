package quality

import (
	"ashley/bizerror"
	"ashley/common"
	"ashley/domain"
	"ashley/event"
	"ashley/idgen"
	"ashley/persistence"
	"ashley/session"
	"errors"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	CreateInspectionFunc   = CreateInspection
	DetailInspectionFunc   = DetailInspection
	QueryInspectionsFunc   = QueryInspections
	CompleteInspectionFunc = CompleteInspection
)

type InspectionCreation struct {
	WorkspaceID       types.ID `json:"workspaceId" validate:"required"`
	OrderID           types.ID `json:"orderId" validate:"required"`
	InspectionPointID types.ID `json:"inspectionPointId" validate:"required"`

	BundleID    types.ID `json:"bundleId"`
	BatchNumber string   `json:"batchNumber"`

	SampleSize int      `json:"sampleSize" validate:"required,min=1"`
	Photos     []string `json:"photos"`
	Notes      string   `json:"notes"`
}

type CriteriaResultSubmission struct {
	CriteriaName  string                     `json:"criteriaName" validate:"required"`
	Result        domain.CriteriaResultValue `json:"result" validate:"required"`
	MeasuredValue float64                    `json:"measuredValue"`
	Score         float64                    `json:"score"`
	Notes         string                     `json:"notes"`
	PhotoURL      string                     `json:"photoUrl"`
}

type DefectSubmission struct {
	DefectTypeID types.ID `json:"defectTypeId" validate:"required"`
	Quantity     int      `json:"quantity" validate:"required,min=1"`

	Location    string   `json:"location"`
	Description string   `json:"description"`
	RootCause   string   `json:"rootCause"`
	PhotoURLs   []string `json:"photoUrls"`

	Severity   domain.DefectSeverity `json:"severity"`
	CostImpact float64               `json:"costImpact"`
}

type InspectionCompletion struct {
	CriteriaResults []CriteriaResultSubmission `json:"criteriaResults" validate:"dive"`
	Defects         []DefectSubmission         `json:"defects" validate:"dive"`

	PassQuantity   int `json:"passQuantity" validate:"min=0"`
	FailQuantity   int `json:"failQuantity" validate:"min=0"`
	ReworkQuantity int `json:"reworkQuantity" validate:"min=0"`

	// seconds spent inspecting
	InspectionTime int `json:"inspectionTime"`

	Photos []string `json:"photos"`
	Notes  string   `json:"notes"`
}

type InspectionQuery struct {
	WorkspaceID       types.ID                `json:"workspaceId" form:"workspaceId"`
	OrderID           types.ID                `json:"orderId" form:"orderId"`
	InspectionPointID types.ID                `json:"inspectionPointId" form:"inspectionPointId"`
	Status            domain.InspectionStatus `json:"status" form:"status"`
}

func CreateInspection(c *InspectionCreation, sec *session.Session) (*domain.InspectionDetail, error) {
	if !sec.HasRoleSuffix("_" + c.WorkspaceID.String()) {
		return nil, bizerror.ErrForbidden
	}
	if c.SampleSize < 1 {
		return nil, &common.ErrBadParam{Cause: errors.New("sample size must be positive")}
	}

	now := types.CurrentTimestamp()
	detail := &domain.InspectionDetail{
		QCInspection: domain.QCInspection{
			ID:          idgen.NextID(idWorker),
			WorkspaceID: c.WorkspaceID,

			OrderID:           c.OrderID,
			InspectionPointID: c.InspectionPointID,
			InspectorID:       sec.Identity.ID,
			BundleID:          c.BundleID,
			BatchNumber:       c.BatchNumber,

			SampleSize: c.SampleSize,
			Status:     domain.InspectionStatusPending,

			Photos: c.Photos,
			Notes:  c.Notes,

			CreateTime: now,
		},
	}

	var ev *event.EventRecord
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		point, err := loadInspectionPoint(tx, c.InspectionPointID)
		if err != nil {
			return err
		}
		if point.WorkspaceID != c.WorkspaceID {
			return bizerror.ErrNotFound
		}
		detail.InspectionPoint = *point

		if err := tx.Create(&detail.QCInspection).Error; err != nil {
			return err
		}
		ev, err = CreateInspectionCreatedEvent(&detail.QCInspection, point.Name, &sec.Identity, now, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	if event.InvokeHandlersFunc != nil {
		event.InvokeHandlersFunc(ev)
	}
	return detail, nil
}

func DetailInspection(id types.ID, sec *session.Session) (*domain.InspectionDetail, error) {
	detail := domain.InspectionDetail{}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&domain.QCInspection{ID: id}).First(&detail.QCInspection).Error; err != nil {
			return err
		}
		if !sec.HasWorkspaceViewPerm(detail.WorkspaceID) {
			return bizerror.ErrForbidden
		}

		point, err := loadInspectionPoint(tx, detail.InspectionPointID)
		if err != nil {
			return err
		}
		detail.InspectionPoint = *point

		if err := tx.Where(&domain.QCCriteriaResult{InspectionID: id}).
			Find(&detail.CriteriaResults).Error; err != nil {
			return err
		}
		return tx.Where(&domain.QCDefect{InspectionID: id}).Find(&detail.Defects).Error
	})
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

func QueryInspections(query *InspectionQuery, sec *session.Session) (*[]domain.QCInspection, error) {
	var inspections []domain.QCInspection
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)

	q := db.Where(domain.QCInspection{WorkspaceID: query.WorkspaceID, OrderID: query.OrderID,
		InspectionPointID: query.InspectionPointID})
	if query.Status != "" {
		q = q.Where("status = ?", query.Status)
	}
	visibleWorkspaces := sec.VisibleWorkspaces()
	if len(visibleWorkspaces) == 0 {
		return &[]domain.QCInspection{}, nil
	}
	q = q.Where("workspace_id in (?)", visibleWorkspaces)
	if err := q.Order("create_time DESC").Find(&inspections).Error; err != nil {
		return nil, err
	}
	return &inspections, nil
}

// CompleteInspection finalizes an inspection in one transaction: it folds AI
// photo findings into the manual results, scores the inspection, derives the
// terminal disposition, and raises the follow-up alerts and CAPA task. The
// inspection row is locked so concurrent completions serialize and the
// second one fails the terminal-status guard.
func CompleteInspection(id types.ID, c *InspectionCompletion, sec *session.Session) (*domain.InspectionDetail, error) {
	if c.PassQuantity < 0 || c.FailQuantity < 0 || c.ReworkQuantity < 0 {
		return nil, &common.ErrBadParam{Cause: errors.New("quantities must not be negative")}
	}
	for _, r := range c.CriteriaResults {
		if !isValidResultValue(r.Result) {
			return nil, &common.ErrBadParam{Cause: errors.New("unknown criteria result " + string(r.Result))}
		}
	}

	now := types.CurrentTimestamp()
	detail := &domain.InspectionDetail{}
	var events []*event.EventRecord

	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		inspection := domain.QCInspection{}
		if err := tx.Set("gorm:query_option", "FOR UPDATE").
			Where(&domain.QCInspection{ID: id}).First(&inspection).Error; err != nil {
			return err
		}
		if !sec.HasRoleSuffix("_" + inspection.WorkspaceID.String()) {
			return bizerror.ErrForbidden
		}
		if inspection.Status.IsTerminal() {
			return bizerror.ErrInspectionFinalized
		}
		if c.PassQuantity+c.FailQuantity+c.ReworkQuantity > inspection.SampleSize {
			return bizerror.ErrQuantityExceedSample
		}

		point, err := loadInspectionPoint(tx, inspection.InspectionPointID)
		if err != nil {
			return err
		}

		photos := append(domain.PhotoURLs{}, inspection.Photos...)
		photos = append(photos, c.Photos...)

		results := buildCriteriaResults(id, c.CriteriaResults, point, now)
		defects := buildDefects(&inspection, c.Defects, now)

		if point.AIEnabled && len(photos) > 0 {
			analysis := PerformPhotoAnalysisFunc(photos)
			applyAIFindingsToCriteria(analysis, results)
			for _, finding := range analysis.DefectsDetected {
				if finding.Confidence < aiConfidenceFloor {
					continue
				}
				if d := aiDetectedDefect(tx, &inspection, finding); d != nil {
					d.ID = idgen.NextID(idWorker)
					d.CreateTime = now
					defects = append(defects, *d)
				}
			}
			if analysis.Confidence > 0 {
				inspection.AIAssessment = analysis.OverallAssessment
				inspection.AIConfidence = analysis.Confidence
			}
		}

		score := CalculateOverallScore(results)
		disposition := DetermineDisposition(results, defects, score,
			c.PassQuantity, c.FailQuantity, c.ReworkQuantity, point)

		for i := range results {
			if err := tx.Create(&results[i]).Error; err != nil {
				return err
			}
		}
		for i := range defects {
			if err := tx.Create(&defects[i]).Error; err != nil {
				return err
			}
		}

		notes := inspection.Notes
		if c.Notes != "" {
			notes = c.Notes
		}
		if err := tx.Model(&domain.QCInspection{}).Where(&domain.QCInspection{ID: id}).
			Updates(map[string]interface{}{
				"status":          disposition,
				"overall_score":   score,
				"pass_quantity":   c.PassQuantity,
				"fail_quantity":   c.FailQuantity,
				"rework_quantity": c.ReworkQuantity,
				"inspection_time": c.InspectionTime,
				"notes":           notes,
				"photos":          photos,
				"ai_assessment":   inspection.AIAssessment,
				"ai_confidence":   inspection.AIConfidence,
				"complete_time":   now,
			}).Error; err != nil {
			return err
		}

		inspection.Status = disposition
		inspection.OverallScore = score
		inspection.PassQuantity = c.PassQuantity
		inspection.FailQuantity = c.FailQuantity
		inspection.ReworkQuantity = c.ReworkQuantity
		inspection.InspectionTime = c.InspectionTime
		inspection.Notes = notes
		inspection.Photos = photos
		inspection.CompleteTime = now

		ev, err := CreateInspectionCompletedEvent(&inspection, point.Name, &sec.Identity, now, tx)
		if err != nil {
			return err
		}
		events = append(events, ev)

		alertEvents, err := raiseQualityAlerts(tx, &inspection, defects, point, &sec.Identity, now)
		if err != nil {
			return err
		}
		events = append(events, alertEvents...)

		if disposition == domain.InspectionStatusFailed ||
			severeDefectCount(defects) > point.AlertDefectThreshold {
			capaEvent, err := autoGenerateCAPA(tx, &inspection, point, defects, &sec.Identity, now)
			if err != nil {
				return err
			}
			if capaEvent != nil {
				events = append(events, capaEvent)
			}
		}

		detail.QCInspection = inspection
		detail.InspectionPoint = *point
		detail.CriteriaResults = results
		detail.Defects = defects
		return nil
	})
	if err != nil {
		return nil, err
	}

	if event.InvokeHandlersFunc != nil {
		for _, ev := range events {
			event.InvokeHandlersFunc(ev)
		}
	}
	return detail, nil
}

func buildCriteriaResults(inspectionID types.ID, submissions []CriteriaResultSubmission,
	point *domain.QCInspectionPoint, now types.Timestamp) []domain.QCCriteriaResult {

	templates := map[string]domain.CriteriaTemplate{}
	for _, t := range point.Criteria {
		templates[t.Name] = t
	}

	results := make([]domain.QCCriteriaResult, 0, len(submissions))
	for _, s := range submissions {
		r := domain.QCCriteriaResult{
			ID:           idgen.NextID(idWorker),
			InspectionID: inspectionID,

			CriteriaName:  s.CriteriaName,
			Result:        s.Result,
			MeasuredValue: s.MeasuredValue,
			Score:         clampScore(s.Score),

			Notes:    s.Notes,
			PhotoURL: s.PhotoURL,

			CreateTime: now,
		}
		if t, found := templates[s.CriteriaName]; found {
			r.Weight = t.Weight
			r.TargetValue = t.TargetValue
			r.Tolerance = t.Tolerance
		}
		results = append(results, r)
	}
	return results
}

func buildDefects(inspection *domain.QCInspection, submissions []DefectSubmission,
	now types.Timestamp) []domain.QCDefect {

	defects := make([]domain.QCDefect, 0, len(submissions))
	for _, s := range submissions {
		severity := s.Severity
		if severity == "" {
			severity = domain.DefectSeverityMedium
		}
		defects = append(defects, domain.QCDefect{
			ID:           idgen.NextID(idWorker),
			WorkspaceID:  inspection.WorkspaceID,
			InspectionID: inspection.ID,
			DefectTypeID: s.DefectTypeID,

			Quantity:    s.Quantity,
			Location:    s.Location,
			Description: s.Description,
			RootCause:   s.RootCause,
			PhotoURLs:   s.PhotoURLs,

			Severity:   severity,
			Status:     domain.DefectStatusOpen,
			CostImpact: s.CostImpact,

			CreateTime: now,
		})
	}
	return defects
}

func isValidResultValue(v domain.CriteriaResultValue) bool {
	return v == domain.CriteriaResultPass || v == domain.CriteriaResultFail ||
		v == domain.CriteriaResultAcceptable || v == domain.CriteriaResultCritical
}
