package quality

import (
	"ashley/bizerror"
	"ashley/common"
	"ashley/domain"
	"ashley/idgen"
	"ashley/persistence"
	"ashley/session"
	"errors"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	CreateDefectTypeFunc = CreateDefectType
	QueryDefectTypesFunc = QueryDefectTypes
	ResolveDefectFunc    = ResolveDefect
	QueryDefectsFunc     = QueryDefects
)

type DefectTypeCreation struct {
	WorkspaceID types.ID `json:"workspaceId" validate:"required"`
	Name        string   `json:"name" validate:"required"`
	Category    string   `json:"category"`
}

type DefectResolution struct {
	Resolution string `json:"resolution" validate:"required"`
}

type DefectQuery struct {
	WorkspaceID  types.ID              `json:"workspaceId" form:"workspaceId"`
	InspectionID types.ID              `json:"inspectionId" form:"inspectionId"`
	Status       domain.DefectStatus   `json:"status" form:"status"`
	Severity     domain.DefectSeverity `json:"severity" form:"severity"`
}

func CreateDefectType(c *DefectTypeCreation, sec *session.Session) (*domain.QCDefectType, error) {
	if !sec.HasRoleSuffix(domain.WorkspaceRoleManager + "_" + c.WorkspaceID.String()) {
		return nil, bizerror.ErrForbidden
	}
	if c.Name == "" {
		return nil, &common.ErrBadParam{Cause: errors.New("defect type name must not be empty")}
	}

	defectType := &domain.QCDefectType{
		ID:          idgen.NextID(idWorker),
		WorkspaceID: c.WorkspaceID,
		Name:        c.Name,
		Category:    c.Category,
		CreateTime:  types.CurrentTimestamp(),
	}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	if err := db.Create(defectType).Error; err != nil {
		return nil, err
	}
	return defectType, nil
}

func QueryDefectTypes(workspaceID types.ID, sec *session.Session) (*[]domain.QCDefectType, error) {
	if !sec.HasWorkspaceViewPerm(workspaceID) {
		return nil, bizerror.ErrForbidden
	}
	var defectTypes []domain.QCDefectType
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	if err := db.Where(&domain.QCDefectType{WorkspaceID: workspaceID}).
		Order("name ASC").Find(&defectTypes).Error; err != nil {
		return nil, err
	}
	return &defectTypes, nil
}

// ResolveDefect closes out an open defect with its resolution text.
func ResolveDefect(id types.ID, r *DefectResolution, sec *session.Session) (*domain.QCDefect, error) {
	defect := domain.QCDefect{}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Set("gorm:query_option", "FOR UPDATE").
			Where(&domain.QCDefect{ID: id}).First(&defect).Error; err != nil {
			return err
		}
		if !sec.HasRoleSuffix("_" + defect.WorkspaceID.String()) {
			return bizerror.ErrForbidden
		}
		if defect.Status == domain.DefectStatusResolved || defect.Status == domain.DefectStatusClosed {
			return bizerror.ErrInvalidStatusTransition
		}

		now := types.CurrentTimestamp()
		defect.Status = domain.DefectStatusResolved
		defect.Resolution = r.Resolution
		defect.ResolverID = sec.Identity.ID
		defect.ResolveTime = now

		return tx.Model(&domain.QCDefect{}).Where(&domain.QCDefect{ID: id}).
			Updates(map[string]interface{}{
				"status":       domain.DefectStatusResolved,
				"resolution":   r.Resolution,
				"resolver_id":  sec.Identity.ID,
				"resolve_time": now,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &defect, nil
}

func QueryDefects(query *DefectQuery, sec *session.Session) (*[]domain.QCDefect, error) {
	var defects []domain.QCDefect
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)

	q := db.Where(domain.QCDefect{WorkspaceID: query.WorkspaceID, InspectionID: query.InspectionID})
	if query.Status != "" {
		q = q.Where("status = ?", query.Status)
	}
	if query.Severity != "" {
		q = q.Where("severity = ?", query.Severity)
	}
	visibleWorkspaces := sec.VisibleWorkspaces()
	if len(visibleWorkspaces) == 0 {
		return &[]domain.QCDefect{}, nil
	}
	q = q.Where("workspace_id in (?)", visibleWorkspaces)
	if err := q.Order("create_time DESC").Find(&defects).Error; err != nil {
		return nil, err
	}
	return &defects, nil
}
