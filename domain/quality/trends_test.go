package quality_test

import (
	"ashley/bizerror"
	"ashley/domain"
	"ashley/domain/quality"
	"ashley/testinfra"
	"context"
	"testing"
	"time"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
)

func TestQueryQualityTrends(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should forbid viewers outside the workspace", func(t *testing.T) {
		_, err := quality.QueryQualityTrends(&quality.TrendQuery{WorkspaceID: 1, InspectionPointID: 1},
			testinfra.BuildSecCtx(300, "inspector_2"))
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("should aggregate finished inspections with control limits", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		db := testDatabase.DS.GormDB(context.Background())
		base := time.Now().Add(-24 * time.Hour)
		for i := 0; i < 11; i++ {
			Expect(db.Create(&domain.QCInspection{
				ID: types.ID(8000 + i), WorkspaceID: 1, OrderID: 900, InspectionPointID: 77,
				InspectorID: 300, SampleSize: 20, Status: domain.InspectionStatusPassed,
				OverallScore: 90, PassQuantity: 19, FailQuantity: 1,
				CreateTime:   types.CurrentTimestamp(),
				CompleteTime: types.Timestamp(base.Add(time.Duration(i) * time.Minute)),
			}).Error).To(BeNil())
		}
		// one spike, and one pending inspection that must stay out of the series
		Expect(db.Create(&domain.QCInspection{
			ID: 8100, WorkspaceID: 1, OrderID: 900, InspectionPointID: 77,
			InspectorID: 300, SampleSize: 20, Status: domain.InspectionStatusFailed,
			OverallScore: 55, PassQuantity: 10, FailQuantity: 10,
			CreateTime:   types.CurrentTimestamp(),
			CompleteTime: types.Timestamp(base.Add(time.Hour)),
		}).Error).To(BeNil())
		Expect(db.Create(&domain.QCInspection{
			ID: 8101, WorkspaceID: 1, OrderID: 900, InspectionPointID: 77,
			InspectorID: 300, SampleSize: 20, Status: domain.InspectionStatusPending,
			CreateTime: types.CurrentTimestamp(),
		}).Error).To(BeNil())

		report, err := quality.QueryQualityTrends(&quality.TrendQuery{
			WorkspaceID: 1, InspectionPointID: 77,
		}, testinfra.BuildSecCtx(300, "inspector_1"))
		Expect(err).To(BeNil())

		Expect(report.TotalInspections).To(Equal(12))
		Expect(report.TotalSample).To(Equal(240))
		Expect(report.PassQuantity).To(Equal(11*19 + 10))
		Expect(report.FailQuantity).To(Equal(11 + 10))
		Expect(report.AverageScore).To(BeNumerically("~", (11*90.0+55.0)/12.0, 1e-9))

		Expect(report.HasControlLimits).To(BeTrue())
		Expect(len(report.Points)).To(Equal(12))

		last := report.Points[len(report.Points)-1]
		Expect(last.InspectionID).To(Equal(types.ID(8100)))
		Expect(last.DefectRate).To(BeNumerically("~", 0.5, 1e-9))
		Expect(last.ControlStatus).To(Equal(quality.ControlStatusOutOfControlHigh))
		Expect(report.Points[0].ControlStatus).To(Equal(quality.ControlStatusInControl))
	})

	t.Run("should omit control limits for a short history", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		db := testDatabase.DS.GormDB(context.Background())
		Expect(db.Create(&domain.QCInspection{
			ID: 8000, WorkspaceID: 1, OrderID: 900, InspectionPointID: 77,
			InspectorID: 300, SampleSize: 20, Status: domain.InspectionStatusPassed,
			OverallScore: 90, PassQuantity: 20,
			CreateTime:   types.CurrentTimestamp(),
			CompleteTime: types.CurrentTimestamp(),
		}).Error).To(BeNil())

		report, err := quality.QueryQualityTrends(&quality.TrendQuery{
			WorkspaceID: 1, InspectionPointID: 77,
		}, testinfra.BuildSecCtx(300, "inspector_1"))
		Expect(err).To(BeNil())
		Expect(report.TotalInspections).To(Equal(1))
		Expect(report.HasControlLimits).To(BeFalse())
		Expect(report.Points[0].ControlStatus).To(Equal(quality.ControlStatusInControl))
	})
}
