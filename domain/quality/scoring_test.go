package quality_test

import (
	"ashley/domain"
	"ashley/domain/quality"
	"testing"

	. "github.com/onsi/gomega"
)

func TestCalculateOverallScore(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should be zero without criteria results", func(t *testing.T) {
		Expect(quality.CalculateOverallScore(nil)).To(BeZero())
	})

	t.Run("should weight criteria by configured importance", func(t *testing.T) {
		results := []domain.QCCriteriaResult{
			{CriteriaName: "stitching", Result: domain.CriteriaResultPass, Score: 100, Weight: 60},
			{CriteriaName: "measurement", Result: domain.CriteriaResultAcceptable, Score: 80, Weight: 40},
		}
		Expect(quality.CalculateOverallScore(results)).To(BeNumerically("~", 92.0, 1e-9))
	})

	t.Run("should fall back to plain average when weights are absent", func(t *testing.T) {
		results := []domain.QCCriteriaResult{
			{Result: domain.CriteriaResultPass, Score: 90},
			{Result: domain.CriteriaResultFail, Score: 30},
		}
		Expect(quality.CalculateOverallScore(results)).To(BeNumerically("~", 60.0, 1e-9))
	})

	t.Run("should zero the criterion on a critical result and clamp scores", func(t *testing.T) {
		results := []domain.QCCriteriaResult{
			{Result: domain.CriteriaResultCritical, Score: 95, Weight: 50},
			{Result: domain.CriteriaResultPass, Score: 180, Weight: 25},
			{Result: domain.CriteriaResultPass, Score: -40, Weight: 25},
		}
		// critical zeroes 50%, the rest clamp to 100 and 0
		Expect(quality.CalculateOverallScore(results)).To(BeNumerically("~", 25.0, 1e-9))
	})

	t.Run("should be stable across invocations", func(t *testing.T) {
		results := []domain.QCCriteriaResult{
			{Result: domain.CriteriaResultPass, Score: 87.5, Weight: 30},
			{Result: domain.CriteriaResultAcceptable, Score: 66.25, Weight: 70},
		}
		first := quality.CalculateOverallScore(results)
		for i := 0; i < 10; i++ {
			Expect(quality.CalculateOverallScore(results)).To(Equal(first))
		}
	})
}

func TestDetermineDisposition(t *testing.T) {
	RegisterTestingT(t)

	point := &domain.QCInspectionPoint{PassThreshold: 80, ReworkThreshold: 70}

	t.Run("should fail on any critical finding regardless of score", func(t *testing.T) {
		results := []domain.QCCriteriaResult{{Result: domain.CriteriaResultCritical}}
		Expect(quality.DetermineDisposition(results, nil, 99, 10, 0, 0, point)).
			To(Equal(domain.InspectionStatusFailed))

		defects := []domain.QCDefect{{Severity: domain.DefectSeverityCritical, Quantity: 1}}
		Expect(quality.DetermineDisposition(nil, defects, 99, 10, 0, 0, point)).
			To(Equal(domain.InspectionStatusFailed))
	})

	t.Run("should map the score against the point thresholds", func(t *testing.T) {
		Expect(quality.DetermineDisposition(nil, nil, 60, 10, 0, 0, point)).
			To(Equal(domain.InspectionStatusFailed))
		Expect(quality.DetermineDisposition(nil, nil, 75, 10, 0, 0, point)).
			To(Equal(domain.InspectionStatusRework))
		Expect(quality.DetermineDisposition(nil, nil, 80, 10, 0, 0, point)).
			To(Equal(domain.InspectionStatusPassed))
	})

	t.Run("should demand rework when units failed even at a passing score", func(t *testing.T) {
		Expect(quality.DetermineDisposition(nil, nil, 95, 8, 2, 0, point)).
			To(Equal(domain.InspectionStatusRework))
		Expect(quality.DetermineDisposition(nil, nil, 95, 8, 0, 2, point)).
			To(Equal(domain.InspectionStatusRework))
	})
}
