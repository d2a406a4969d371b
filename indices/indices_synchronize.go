package indices

import (
	"ashley/authority"
	"ashley/bizerror"
	"ashley/domain"
	"ashley/domain/approval"
	"ashley/domain/quality"
	"ashley/event"
	"ashley/persistence"
	"ashley/session"
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

const SystemAdminRole = "system:admin"

var (
	WorkflowIndexEventHandlerName   = "workflowIndexer"
	InspectionIndexEventHandlerName = "inspectionIndexer"

	indexRobot = &session.Session{
		Token:    "index-robot",
		Identity: session.Identity{ID: 10, Name: "index-robot"},
		Perms:    authority.Permissions{"system:indexer"},
		Context:  context.Background(),
	}

	lock    sync.Mutex
	running bool

	IndicesFullSyncFunc      = IndicesFullSync
	ScheduleNewSyncRunFunc   = ScheduleNewSyncRun
	ReplayUnsyncedEventsFunc = ReplayUnsyncedEvents
)

func ScheduleNewSyncRun(sec *session.Session) (bool, error) {
	if !sec.Perms.HasRole(SystemAdminRole) {
		return false, bizerror.ErrForbidden
	}

	lock.Lock()
	if running {
		lock.Unlock()
		return false, nil
	}
	running = true
	lock.Unlock()

	waitRunning := sync.WaitGroup{}
	waitRunning.Add(1)
	go func() {
		waitRunning.Done()
		defer func() {
			lock.Lock()
			running = false
			lock.Unlock()
		}()
		IndicesFullSyncFunc()
	}()
	waitRunning.Wait()
	return true, nil
}

var SyncBatchSize = 500

func IndicesFullSync() (err error) {
	defer func() {
		if ret := recover(); ret != nil {
			e, ok := ret.(error)
			if ok {
				err = e
			} else {
				err = fmt.Errorf("error on indices full sync: %v", ret)
			}
		}
	}()

	if err := fullSyncWorkflows(); err != nil {
		return err
	}
	if err := fullSyncInspections(); err != nil {
		return err
	}
	return ReplayUnsyncedEventsFunc()
}

// ReplayUnsyncedEvents re-dispatches events whose handlers never ran, one
// batch per invocation, and marks the successfully handled ones synced.
// Events with a failing handler stay unsynced and are picked up again by
// the next run.
func ReplayUnsyncedEvents() error {
	db := persistence.ActiveDataSourceManager.GormDB(indexRobot.Context)
	records, err := event.LoadUnsyncedEventsFunc(SyncBatchSize, db)
	if err != nil {
		return err
	}

	for i := range records {
		record := &records[i]
		failed := false
		for _, r := range event.InvokeHandlersFunc(record) {
			if !r.Success {
				failed = true
				logrus.Warnf("event replay: handler %s failed for %s %d: %s",
					r.HandlerIdentifier, record.SourceType, record.SourceId, r.Message)
			}
		}
		if failed {
			continue
		}
		if err := event.MarkEventSyncedFunc(record, db); err != nil {
			return err
		}
	}
	return nil
}

func fullSyncWorkflows() error {
	db := persistence.ActiveDataSourceManager.GormDB(indexRobot.Context)
	page := 1
	for {
		var workflows []domain.DesignApprovalWorkflow
		if err := db.Order("id ASC").Offset((page - 1) * SyncBatchSize).Limit(SyncBatchSize).
			Find(&workflows).Error; err != nil {
			return err
		}
		if len(workflows) == 0 {
			logrus.Infof("indices fully sync: there are no more workflows to index")
			return nil
		}

		for _, w := range workflows {
			detail, err := approval.DetailWorkflowFunc(w.ID, indexRobot)
			if err != nil {
				logrus.Warnf("indices fully sync: error on detail workflow %d: %v", w.ID, err)
				continue
			}
			if err := IndexWorkflows([]domain.WorkflowDetail{*detail}); err != nil {
				logrus.Warnf("indices fully sync: error on index workflow %d: %v", w.ID, err)
			}
		}
		page++
	}
}

func fullSyncInspections() error {
	db := persistence.ActiveDataSourceManager.GormDB(indexRobot.Context)
	page := 1
	for {
		var inspections []domain.QCInspection
		if err := db.Order("id ASC").Offset((page - 1) * SyncBatchSize).Limit(SyncBatchSize).
			Find(&inspections).Error; err != nil {
			return err
		}
		if len(inspections) == 0 {
			logrus.Infof("indices fully sync: there are no more inspections to index")
			return nil
		}

		for _, i := range inspections {
			detail, err := quality.DetailInspectionFunc(i.ID, indexRobot)
			if err != nil {
				logrus.Warnf("indices fully sync: error on detail inspection %d: %v", i.ID, err)
				continue
			}
			if err := IndexInspections([]domain.InspectionDetail{*detail}); err != nil {
				logrus.Warnf("indices fully sync: error on index inspection %d: %v", i.ID, err)
			}
		}
		page++
	}
}

// IndexWorkflowEventHandle keeps the workflow index fresh from the domain
// event stream.
func IndexWorkflowEventHandle(e *event.EventRecord) *event.EventHandleResult {
	if e.SourceType != "DESIGN_APPROVAL_WORKFLOW" {
		return nil
	}

	detail, err := approval.DetailWorkflowFunc(e.Event.SourceId, indexRobot)
	if err != nil {
		return &event.EventHandleResult{
			Message:           fmt.Sprintf("detail workflow when index workflow %d, %v", e.Event.SourceId, err),
			HandlerIdentifier: WorkflowIndexEventHandlerName,
		}
	}
	if err := IndexWorkflows([]domain.WorkflowDetail{*detail}); err != nil {
		return &event.EventHandleResult{
			Message:           fmt.Sprintf("index workflow %d, %v", e.Event.SourceId, err),
			HandlerIdentifier: WorkflowIndexEventHandlerName,
		}
	}
	return &event.EventHandleResult{Success: true, HandlerIdentifier: WorkflowIndexEventHandlerName}
}

// IndexInspectionEventHandle keeps the inspection index fresh from the
// domain event stream.
func IndexInspectionEventHandle(e *event.EventRecord) *event.EventHandleResult {
	if e.SourceType != "QC_INSPECTION" {
		return nil
	}

	detail, err := quality.DetailInspectionFunc(e.Event.SourceId, indexRobot)
	if err != nil {
		return &event.EventHandleResult{
			Message:           fmt.Sprintf("detail inspection when index inspection %d, %v", e.Event.SourceId, err),
			HandlerIdentifier: InspectionIndexEventHandlerName,
		}
	}
	if err := IndexInspections([]domain.InspectionDetail{*detail}); err != nil {
		return &event.EventHandleResult{
			Message:           fmt.Sprintf("index inspection %d, %v", e.Event.SourceId, err),
			HandlerIdentifier: InspectionIndexEventHandlerName,
		}
	}
	return &event.EventHandleResult{Success: true, HandlerIdentifier: InspectionIndexEventHandlerName}
}
