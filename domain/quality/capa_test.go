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
	"github.com/jinzhu/gorm"
	. "github.com/onsi/gomega"
)

func seedCAPATask(t *testing.T, testDatabase *testinfra.TestDatabase, id, workspaceId types.ID,
	status domain.CAPAStatus) {

	db := testDatabase.DS.GormDB(context.Background())
	Expect(db.Create(&domain.CAPATask{
		ID: id, WorkspaceID: workspaceId, Number: "CAPA-2026-" + id.String(), Title: "needle damage at sewing line",
		Type: domain.CAPATypeCorrective, Status: status, Priority: domain.PriorityHigh,
		Source: domain.CAPASourceInspection, InspectionID: 900,
		CreatorID: 101, CreateTime: types.CurrentTimestamp(),
	}).Error).To(BeNil())
}

func TestUpdateCAPAStatus(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should return not found for unknown task", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		_, err := quality.UpdateCAPAStatus(404, &quality.CAPAStatusChange{
			Status: domain.CAPAStatusInvestigating,
		}, testinfra.BuildSecCtx(101, "manager_1"))
		Expect(gorm.IsRecordNotFoundError(err)).To(BeTrue())
	})

	t.Run("should only allow workspace managers to progress a task", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)
		seedCAPATask(t, testDatabase, 7001, 1, domain.CAPAStatusOpen)

		_, err := quality.UpdateCAPAStatus(7001, &quality.CAPAStatusChange{
			Status: domain.CAPAStatusInvestigating,
		}, testinfra.BuildSecCtx(300, "inspector_1"))
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("should refuse to skip steps of the progression", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)
		seedCAPATask(t, testDatabase, 7001, 1, domain.CAPAStatusOpen)

		_, err := quality.UpdateCAPAStatus(7001, &quality.CAPAStatusChange{
			Status: domain.CAPAStatusActionPlan,
		}, testinfra.BuildSecCtx(101, "manager_1"))
		Expect(err).To(Equal(bizerror.ErrInvalidStatusTransition))

		_, err = quality.UpdateCAPAStatus(7001, &quality.CAPAStatusChange{
			Status: domain.CAPAStatusClosed,
		}, testinfra.BuildSecCtx(101, "manager_1"))
		Expect(err).To(Equal(bizerror.ErrInvalidStatusTransition))
	})

	t.Run("should walk the task forward one step at a time and close it", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)
		seedCAPATask(t, testDatabase, 7001, 1, domain.CAPAStatusOpen)

		sec := testinfra.BuildSecCtx(101, "manager_1")
		task, err := quality.UpdateCAPAStatus(7001, &quality.CAPAStatusChange{
			Status: domain.CAPAStatusInvestigating,
		}, sec)
		Expect(err).To(BeNil())
		Expect(task.Status).To(Equal(domain.CAPAStatusInvestigating))

		task, err = quality.UpdateCAPAStatus(7001, &quality.CAPAStatusChange{
			Status:           domain.CAPAStatusActionPlan,
			CorrectiveAction: "replace worn needles every shift",
			PreventiveAction: "add needle checks to the line checklist",
		}, sec)
		Expect(err).To(BeNil())
		Expect(task.CorrectiveAction).To(Equal("replace worn needles every shift"))
		Expect(task.PreventiveAction).To(Equal("add needle checks to the line checklist"))

		for _, next := range []domain.CAPAStatus{domain.CAPAStatusImplementing,
			domain.CAPAStatusVerifying, domain.CAPAStatusClosed} {
			task, err = quality.UpdateCAPAStatus(7001, &quality.CAPAStatusChange{Status: next}, sec)
			Expect(err).To(BeNil())
			Expect(task.Status).To(Equal(next))
		}
		Expect(time.Time(task.CloseTime).IsZero()).To(BeFalse())

		stored := domain.CAPATask{}
		db := testDatabase.DS.GormDB(context.Background())
		Expect(db.Where(&domain.CAPATask{ID: 7001}).First(&stored).Error).To(BeNil())
		Expect(stored.Status).To(Equal(domain.CAPAStatusClosed))
		Expect(stored.CorrectiveAction).To(Equal("replace worn needles every shift"))
		Expect(time.Time(stored.CloseTime).IsZero()).To(BeFalse())

		// a closed task is terminal
		_, err = quality.UpdateCAPAStatus(7001, &quality.CAPAStatusChange{
			Status: domain.CAPAStatusOpen,
		}, sec)
		Expect(err).To(Equal(bizerror.ErrInvalidStatusTransition))
	})
}

func TestQueryCAPATasks(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should filter by visible workspaces and status", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)
		seedCAPATask(t, testDatabase, 7001, 1, domain.CAPAStatusOpen)
		seedCAPATask(t, testDatabase, 7002, 1, domain.CAPAStatusClosed)
		seedCAPATask(t, testDatabase, 7003, 2, domain.CAPAStatusOpen)

		tasks, err := quality.QueryCAPATasks(&quality.CAPAQuery{},
			testinfra.BuildSecCtx(101, "manager_1"))
		Expect(err).To(BeNil())
		Expect(len(*tasks)).To(Equal(2))

		tasks, err = quality.QueryCAPATasks(&quality.CAPAQuery{Status: domain.CAPAStatusOpen},
			testinfra.BuildSecCtx(101, "manager_1"))
		Expect(err).To(BeNil())
		Expect(len(*tasks)).To(Equal(1))
		Expect((*tasks)[0].ID).To(Equal(types.ID(7001)))

		tasks, err = quality.QueryCAPATasks(&quality.CAPAQuery{}, testinfra.BuildSecCtx(101))
		Expect(err).To(BeNil())
		Expect(len(*tasks)).To(Equal(0))
	})
}
