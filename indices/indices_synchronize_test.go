package indices_test

import (
	"ashley/event"
	"ashley/indices"
	"ashley/persistence"
	"ashley/testinfra"
	"context"
	"testing"
	"time"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
)

func buildUnsyncedEvent(sourceId types.ID, timestamp types.Timestamp) event.EventRecord {
	return event.EventRecord{
		Event: event.Event{
			SourceType: "DESIGN_APPROVAL_WORKFLOW",
			SourceId:   sourceId,
			SourceDesc: "summer tee approval",

			EventCategory:     event.EventCategoryWorkflowCreated,
			UpdatedProperties: event.UpdatedProperties{},
			UpdatedRelations:  event.UpdatedRelations{},

			CreatorId:   100,
			CreatorName: "user100",
		},
		Timestamp: timestamp,
		Synced:    false,
	}
}

func TestReplayUnsyncedEvents(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should dispatch pending events and mark the handled ones synced", func(t *testing.T) {
		testDatabase := testinfra.StartMysqlTestDatabase("ashley")
		defer testinfra.StopMysqlTestDatabase(testDatabase)
		assert.Nil(t, testDatabase.DS.GormDB(context.Background()).AutoMigrate(&event.EventRecord{}).Error)
		persistence.ActiveDataSourceManager = testDatabase.DS

		db := testDatabase.DS.GormDB(context.Background())
		handled := buildUnsyncedEvent(1001, types.TimestampOfDate(2026, 1, 1, 0, 0, 0, 0, time.Local))
		failing := buildUnsyncedEvent(1002, types.TimestampOfDate(2026, 1, 2, 0, 0, 0, 0, time.Local))
		Expect(db.Create(&handled).Error).To(BeNil())
		Expect(db.Create(&failing).Error).To(BeNil())

		var dispatched []types.ID
		event.InvokeHandlersFunc = func(e *event.EventRecord) []event.EventHandleResult {
			dispatched = append(dispatched, e.SourceId)
			if e.SourceId == 1002 {
				return []event.EventHandleResult{{Success: false, Message: "index store down",
					HandlerIdentifier: "workflowIndexer"}}
			}
			return []event.EventHandleResult{{Success: true, HandlerIdentifier: "workflowIndexer"}}
		}

		Expect(indices.ReplayUnsyncedEvents()).To(BeNil())
		Expect(dispatched).To(Equal([]types.ID{1001, 1002}))

		// the failed one stays behind for the next run
		remaining, err := event.LoadUnsyncedEventsFunc(10, db)
		Expect(err).To(BeNil())
		Expect(len(remaining)).To(Equal(1))
		Expect(remaining[0].SourceId).To(Equal(types.ID(1002)))
	})
}
