package quality

import (
	"ashley/domain"
)

// CalculateOverallScore computes the weighted average of criteria scores.
// Weights are the configured criterion importances (0-100) normalized to sum
// to one. A CRITICAL result zeroes the criterion's score regardless of any
// partial credit. The result is a pure function of its inputs.
func CalculateOverallScore(results []domain.QCCriteriaResult) float64 {
	if len(results) == 0 {
		return 0
	}

	totalWeight := 0
	for _, r := range results {
		totalWeight += r.Weight
	}

	if totalWeight <= 0 {
		// unweighted criteria fall back to a plain average
		sum := 0.0
		for _, r := range results {
			sum += criterionScore(r)
		}
		return sum / float64(len(results))
	}

	score := 0.0
	for _, r := range results {
		score += criterionScore(r) * float64(r.Weight) / float64(totalWeight)
	}
	return score
}

func criterionScore(r domain.QCCriteriaResult) float64 {
	if r.Result == domain.CriteriaResultCritical {
		return 0
	}
	if r.Score < 0 {
		return 0
	}
	if r.Score > 100 {
		return 100
	}
	return r.Score
}

// DetermineDisposition derives the terminal inspection status from the
// criteria results, defects, quantities and the inspection point's
// thresholds. Any CRITICAL finding caps the disposition at FAILED no matter
// the numeric score.
func DetermineDisposition(results []domain.QCCriteriaResult, defects []domain.QCDefect,
	overallScore float64, passQuantity, failQuantity, reworkQuantity int,
	point *domain.QCInspectionPoint) domain.InspectionStatus {

	for _, r := range results {
		if r.Result == domain.CriteriaResultCritical {
			return domain.InspectionStatusFailed
		}
	}
	for _, d := range defects {
		if d.Severity == domain.DefectSeverityCritical {
			return domain.InspectionStatusFailed
		}
	}

	if overallScore < point.ReworkThreshold {
		return domain.InspectionStatusFailed
	}
	if overallScore < point.PassThreshold {
		return domain.InspectionStatusRework
	}
	if failQuantity > 0 || reworkQuantity > 0 {
		return domain.InspectionStatusRework
	}
	return domain.InspectionStatusPassed
}

// severeDefectCount counts defects at HIGH or CRITICAL severity.
func severeDefectCount(defects []domain.QCDefect) int {
	count := 0
	for _, d := range defects {
		if d.Severity == domain.DefectSeverityHigh || d.Severity == domain.DefectSeverityCritical {
			count += d.Quantity
		}
	}
	return count
}
