package quality_test

import (
	"ashley/bizerror"
	"ashley/common"
	"ashley/domain"
	"ashley/domain/quality"
	"ashley/testinfra"
	"testing"

	. "github.com/onsi/gomega"
)

func TestCreateInspectionPoint(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should require a workspace manager", func(t *testing.T) {
		_, err := quality.CreateInspectionPoint(&quality.InspectionPointCreation{
			WorkspaceID: 1, Name: "Inline Inspection",
		}, testinfra.BuildSecCtx(300, "inspector_1"))
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("should validate thresholds and criteria", func(t *testing.T) {
		sec := testinfra.BuildSecCtx(101, "manager_1")

		_, err := quality.CreateInspectionPoint(&quality.InspectionPointCreation{
			WorkspaceID: 1, Name: "Inline Inspection", PassThreshold: 70, ReworkThreshold: 80,
		}, sec)
		_, ok := err.(*common.ErrBadParam)
		Expect(ok).To(BeTrue())

		_, err = quality.CreateInspectionPoint(&quality.InspectionPointCreation{
			WorkspaceID: 1, Name: "Inline Inspection", PassThreshold: 120,
		}, sec)
		_, ok = err.(*common.ErrBadParam)
		Expect(ok).To(BeTrue())

		_, err = quality.CreateInspectionPoint(&quality.InspectionPointCreation{
			WorkspaceID: 1, Name: "Inline Inspection", PassThreshold: 80, ReworkThreshold: 70,
			Criteria: []domain.CriteriaTemplate{{Name: "", Weight: 10}},
		}, sec)
		_, ok = err.(*common.ErrBadParam)
		Expect(ok).To(BeTrue())

		_, err = quality.CreateInspectionPoint(&quality.InspectionPointCreation{
			WorkspaceID: 1, Name: "Inline Inspection", PassThreshold: 80, ReworkThreshold: 70,
			Criteria: []domain.CriteriaTemplate{{Name: "stitching", Weight: -1}},
		}, sec)
		_, ok = err.(*common.ErrBadParam)
		Expect(ok).To(BeTrue())
	})

	t.Run("should persist the point with its criteria templates", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		point := createPoint(t, 1, true)
		Expect(point.ID).ToNot(BeZero())
		Expect(point.AIEnabled).To(BeTrue())
		Expect(len(point.Criteria)).To(Equal(2))

		points, err := quality.QueryInspectionPoints(1, testinfra.BuildSecCtx(300, "inspector_1"))
		Expect(err).To(BeNil())
		Expect(len(*points)).To(Equal(1))
		Expect((*points)[0].Name).To(Equal("Final Inspection"))
		Expect((*points)[0].Criteria[0].Weight).To(Equal(60))
		Expect((*points)[0].Criteria[1].Tolerance).To(BeNumerically("~", 0.5, 1e-9))

		_, err = quality.QueryInspectionPoints(1, testinfra.BuildSecCtx(300, "inspector_2"))
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})
}
