package quality_test

import (
	"ashley/bizerror"
	"ashley/domain"
	"ashley/domain/quality"
	"ashley/testinfra"
	"context"
	"testing"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
)

func seedAlert(t *testing.T, testDatabase *testinfra.TestDatabase, id, workspaceId types.ID,
	alertType domain.AlertType, read bool) {

	db := testDatabase.DS.GormDB(context.Background())
	Expect(db.Create(&domain.QualityAlert{
		ID: id, WorkspaceID: workspaceId, AlertType: alertType,
		Severity: domain.AlertSeverityWarning, Title: "quality alert",
		OrderID: 900, InspectionID: 910, Read: read,
		CreateTime: types.CurrentTimestamp(),
	}).Error).To(BeNil())
}

func TestQueryQualityAlerts(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should filter by workspace visibility, type and read state", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)
		seedAlert(t, testDatabase, 6001, 1, domain.AlertTypeQualityDrop, false)
		seedAlert(t, testDatabase, 6002, 1, domain.AlertTypeDefectThreshold, true)
		seedAlert(t, testDatabase, 6003, 2, domain.AlertTypeQualityDrop, false)

		alerts, err := quality.QueryQualityAlerts(&quality.AlertQuery{},
			testinfra.BuildSecCtx(101, "manager_1"))
		Expect(err).To(BeNil())
		Expect(len(*alerts)).To(Equal(2))

		alerts, err = quality.QueryQualityAlerts(&quality.AlertQuery{UnreadOnly: true},
			testinfra.BuildSecCtx(101, "manager_1"))
		Expect(err).To(BeNil())
		Expect(len(*alerts)).To(Equal(1))
		Expect((*alerts)[0].ID).To(Equal(types.ID(6001)))

		alerts, err = quality.QueryQualityAlerts(&quality.AlertQuery{
			AlertType: domain.AlertTypeDefectThreshold,
		}, testinfra.BuildSecCtx(101, "manager_1"))
		Expect(err).To(BeNil())
		Expect(len(*alerts)).To(Equal(1))
		Expect((*alerts)[0].ID).To(Equal(types.ID(6002)))

		alerts, err = quality.QueryQualityAlerts(&quality.AlertQuery{}, testinfra.BuildSecCtx(101))
		Expect(err).To(BeNil())
		Expect(len(*alerts)).To(Equal(0))
	})
}

func TestMarkAlertRead(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should mark an alert read for workspace viewers only", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)
		seedAlert(t, testDatabase, 6001, 1, domain.AlertTypeQualityDrop, false)

		Expect(quality.MarkAlertRead(6001, testinfra.BuildSecCtx(101, "manager_2"))).
			To(Equal(bizerror.ErrForbidden))

		Expect(quality.MarkAlertRead(6001, testinfra.BuildSecCtx(101, "manager_1"))).To(BeNil())

		stored := domain.QualityAlert{}
		db := testDatabase.DS.GormDB(context.Background())
		Expect(db.Where(&domain.QualityAlert{ID: 6001}).First(&stored).Error).To(BeNil())
		Expect(stored.Read).To(BeTrue())
	})
}
