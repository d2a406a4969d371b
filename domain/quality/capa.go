package quality

import (
	"ashley/bizerror"
	"ashley/domain"
	"ashley/event"
	"ashley/idgen"
	"ashley/persistence"
	"ashley/session"
	"fmt"
	"strings"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	UpdateCAPAStatusFunc = UpdateCAPAStatus
	QueryCAPATasksFunc   = QueryCAPATasks
)

type CAPAQuery struct {
	WorkspaceID types.ID          `json:"workspaceId" form:"workspaceId"`
	Status      domain.CAPAStatus `json:"status" form:"status"`
}

type CAPAStatusChange struct {
	Status domain.CAPAStatus `json:"status" validate:"required"`

	CorrectiveAction string `json:"correctiveAction"`
	PreventiveAction string `json:"preventiveAction"`
}

// autoGenerateCAPA opens a corrective action task for a failed inspection.
// At most one open task exists per inspection: a second failing completion
// of related work reuses the one already open.
func autoGenerateCAPA(tx *gorm.DB, inspection *domain.QCInspection, point *domain.QCInspectionPoint,
	defects []domain.QCDefect, identity *session.Identity,
	now types.Timestamp) (*event.EventRecord, error) {

	var openCount int
	if err := tx.Model(&domain.CAPATask{}).
		Where("inspection_id = ? AND status <> ?", inspection.ID, domain.CAPAStatusClosed).
		Count(&openCount).Error; err != nil {
		return nil, err
	}
	if openCount > 0 {
		return nil, nil
	}

	// the locking read serializes concurrent numbering in the workspace; the
	// unique index on (workspace_id, number) backstops it
	var yearCount int
	yearPrefix := fmt.Sprintf("CAPA-%d-", time.Time(now).Year())
	if err := tx.Model(&domain.CAPATask{}).Set("gorm:query_option", "FOR UPDATE").
		Where("workspace_id = ? AND number LIKE ?", inspection.WorkspaceID, yearPrefix+"%").
		Count(&yearCount).Error; err != nil {
		return nil, err
	}

	task := domain.CAPATask{
		ID:          idgen.NextID(idWorker),
		WorkspaceID: inspection.WorkspaceID,

		Number: fmt.Sprintf("%s%06d", yearPrefix, yearCount+1),
		Title:  "Quality failure at " + point.Name,

		Type:     domain.CAPATypeCorrective,
		Status:   domain.CAPAStatusOpen,
		Priority: capaPriority(inspection, defects),
		Source:   domain.CAPASourceInspection,

		ProblemStatement: capaProblemStatement(inspection, point, defects),

		OrderID:      inspection.OrderID,
		InspectionID: inspection.ID,

		CreatorID:   identity.ID,
		CreatorName: identity.Name,
		CreateTime:  now,
	}
	if err := tx.Create(&task).Error; err != nil {
		return nil, err
	}
	return CreateCAPAAutoGeneratedEvent(&task, identity, now, tx)
}

func capaPriority(inspection *domain.QCInspection, defects []domain.QCDefect) domain.Priority {
	for _, d := range defects {
		if d.Severity == domain.DefectSeverityCritical {
			return domain.PriorityUrgent
		}
	}
	for _, d := range defects {
		if d.Severity == domain.DefectSeverityHigh {
			return domain.PriorityHigh
		}
	}
	if inspection.Status == domain.InspectionStatusFailed {
		return domain.PriorityHigh
	}
	return domain.PriorityMedium
}

func capaProblemStatement(inspection *domain.QCInspection, point *domain.QCInspectionPoint,
	defects []domain.QCDefect) string {

	statement := fmt.Sprintf("inspection %s at %s finished %s with score %.1f",
		inspection.ID.String(), point.Name, inspection.Status, inspection.OverallScore)
	if len(defects) == 0 {
		return statement
	}

	descriptions := make([]string, 0, len(defects))
	for _, d := range defects {
		descriptions = append(descriptions, fmt.Sprintf("%dx %s (%s)",
			d.Quantity, d.Description, d.Severity))
	}
	return statement + "; defects: " + strings.Join(descriptions, ", ")
}

// UpdateCAPAStatus advances a task one step along its progression and records
// the action text gathered at that step.
func UpdateCAPAStatus(id types.ID, change *CAPAStatusChange, sec *session.Session) (*domain.CAPATask, error) {
	task := domain.CAPATask{}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Set("gorm:query_option", "FOR UPDATE").
			Where(&domain.CAPATask{ID: id}).First(&task).Error; err != nil {
			return err
		}
		if !sec.HasRoleSuffix(domain.WorkspaceRoleManager + "_" + task.WorkspaceID.String()) {
			return bizerror.ErrForbidden
		}
		if !task.Status.CanTransitionTo(change.Status) {
			return bizerror.ErrInvalidStatusTransition
		}

		changes := map[string]interface{}{"status": change.Status}
		if change.CorrectiveAction != "" {
			changes["corrective_action"] = change.CorrectiveAction
			task.CorrectiveAction = change.CorrectiveAction
		}
		if change.PreventiveAction != "" {
			changes["preventive_action"] = change.PreventiveAction
			task.PreventiveAction = change.PreventiveAction
		}
		if change.Status == domain.CAPAStatusClosed {
			closeTime := types.CurrentTimestamp()
			changes["close_time"] = closeTime
			task.CloseTime = closeTime
		}
		task.Status = change.Status

		return tx.Model(&domain.CAPATask{}).Where(&domain.CAPATask{ID: id}).
			Updates(changes).Error
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func QueryCAPATasks(query *CAPAQuery, sec *session.Session) (*[]domain.CAPATask, error) {
	var tasks []domain.CAPATask
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)

	q := db.Where(domain.CAPATask{WorkspaceID: query.WorkspaceID})
	if query.Status != "" {
		q = q.Where("status = ?", query.Status)
	}
	visibleWorkspaces := sec.VisibleWorkspaces()
	if len(visibleWorkspaces) == 0 {
		return &[]domain.CAPATask{}, nil
	}
	q = q.Where("workspace_id in (?)", visibleWorkspaces)
	if err := q.Order("create_time DESC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return &tasks, nil
}
