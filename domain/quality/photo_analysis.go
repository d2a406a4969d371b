package quality

import (
	"ashley/client/ai"
	"ashley/domain"
	"strings"

	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

// aiConfidenceFloor is the minimum confidence an AI finding needs before it
// is merged into manual results.
const aiConfidenceFloor = 0.5

var PerformPhotoAnalysisFunc = PerformPhotoAnalysis

// PerformPhotoAnalysis runs the vision collaborator over the inspection
// photos. The result is advisory and empty on any failure.
func PerformPhotoAnalysis(photoUrls []string) ai.PhotoAnalysis {
	return ai.AnalyzePhotosFunc(photoUrls)
}

// applyAIFindingsToCriteria folds detected defects into the manual criteria
// results. A finding matches a criterion when either name contains the other,
// case-insensitively. Matches only ever lower a criterion's result, never
// raise it.
func applyAIFindingsToCriteria(analysis ai.PhotoAnalysis, results []domain.QCCriteriaResult) {
	for _, finding := range analysis.DefectsDetected {
		if finding.Confidence < aiConfidenceFloor {
			continue
		}
		idx := matchCriterion(finding.Type, results)
		if idx < 0 {
			continue
		}

		r := &results[idx]
		r.AIDetected = true
		if finding.Confidence > r.AIConfidence {
			r.AIConfidence = finding.Confidence
		}

		switch strings.ToUpper(finding.Severity) {
		case string(domain.DefectSeverityCritical):
			r.Result = domain.CriteriaResultCritical
			r.Score = 0
		case string(domain.DefectSeverityHigh):
			if r.Result == domain.CriteriaResultPass || r.Result == domain.CriteriaResultAcceptable {
				r.Result = domain.CriteriaResultFail
			}
			r.Score = clampScore(r.Score - 20)
		default:
			if r.Result == domain.CriteriaResultPass {
				r.Result = domain.CriteriaResultAcceptable
			}
			r.Score = clampScore(r.Score - 5)
		}
		if r.Notes != "" {
			r.Notes += "; "
		}
		r.Notes += "AI: " + finding.Description
	}
}

func matchCriterion(defectType string, results []domain.QCCriteriaResult) int {
	t := strings.ToLower(defectType)
	if t == "" {
		return -1
	}
	for i, r := range results {
		n := strings.ToLower(r.CriteriaName)
		if strings.Contains(n, t) || strings.Contains(t, n) {
			return i
		}
	}
	return -1
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// aiDetectedDefect materializes a high-confidence unmatched finding as a
// defect record when a defect type of the same name is configured in the
// workspace. Findings with no configured type are logged and skipped.
func aiDetectedDefect(tx *gorm.DB, inspection *domain.QCInspection,
	finding ai.DetectedDefect) *domain.QCDefect {

	defectType := domain.QCDefectType{}
	err := tx.Where("workspace_id = ? AND LOWER(name) = ?", inspection.WorkspaceID,
		strings.ToLower(finding.Type)).First(&defectType).Error
	if err != nil {
		if !gorm.IsRecordNotFoundError(err) {
			logrus.Warnf("defect type lookup failed for AI finding %q: %v", finding.Type, err)
		}
		return nil
	}

	return &domain.QCDefect{
		WorkspaceID:  inspection.WorkspaceID,
		InspectionID: inspection.ID,
		DefectTypeID: defectType.ID,

		Quantity:    1,
		Location:    finding.Location.Describe(),
		Description: finding.Description,

		Severity: mapAISeverity(finding.Severity),
		Status:   domain.DefectStatusOpen,

		AIDetected:   true,
		AIConfidence: finding.Confidence,
	}
}

func mapAISeverity(severity string) domain.DefectSeverity {
	switch strings.ToUpper(severity) {
	case string(domain.DefectSeverityCritical):
		return domain.DefectSeverityCritical
	case string(domain.DefectSeverityHigh):
		return domain.DefectSeverityHigh
	case string(domain.DefectSeverityLow):
		return domain.DefectSeverityLow
	default:
		return domain.DefectSeverityMedium
	}
}
