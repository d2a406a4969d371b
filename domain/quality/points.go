package quality

import (
	"ashley/bizerror"
	"ashley/common"
	"ashley/domain"
	"ashley/idgen"
	"ashley/persistence"
	"ashley/session"
	"errors"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/patrickmn/go-cache"
	"github.com/sony/sonyflake"
)

var (
	idWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateInspectionPointFunc = CreateInspectionPoint
	QueryInspectionPointsFunc = QueryInspectionPoints

	// inspection point configurations are read on every inspection and
	// change rarely
	pointCache = cache.New(10*time.Minute, 30*time.Minute)
)

type InspectionPointCreation struct {
	WorkspaceID types.ID `json:"workspaceId" validate:"required"`
	Name        string   `json:"name" validate:"required"`
	Stage       string   `json:"stage"`

	Criteria []domain.CriteriaTemplate `json:"criteria"`

	PassThreshold   float64 `json:"passThreshold"`
	ReworkThreshold float64 `json:"reworkThreshold"`

	AlertDefectThreshold int  `json:"alertDefectThreshold"`
	AIEnabled            bool `json:"aiEnabled"`
}

func CreateInspectionPoint(c *InspectionPointCreation, sec *session.Session) (*domain.QCInspectionPoint, error) {
	if !sec.HasRoleSuffix(domain.WorkspaceRoleManager + "_" + c.WorkspaceID.String()) {
		return nil, bizerror.ErrForbidden
	}
	if c.PassThreshold < 0 || c.PassThreshold > 100 || c.ReworkThreshold < 0 ||
		c.ReworkThreshold > c.PassThreshold {
		return nil, &common.ErrBadParam{Cause: errors.New("thresholds must satisfy 0 <= rework <= pass <= 100")}
	}
	for _, t := range c.Criteria {
		if t.Name == "" {
			return nil, &common.ErrBadParam{Cause: errors.New("criteria name must not be empty")}
		}
		if t.Weight < 0 {
			return nil, &common.ErrBadParam{Cause: errors.New("criteria weight must not be negative")}
		}
	}

	point := &domain.QCInspectionPoint{
		ID:          idgen.NextID(idWorker),
		WorkspaceID: c.WorkspaceID,
		Name:        c.Name,
		Stage:       c.Stage,
		Criteria:    c.Criteria,

		PassThreshold:        c.PassThreshold,
		ReworkThreshold:      c.ReworkThreshold,
		AlertDefectThreshold: c.AlertDefectThreshold,
		AIEnabled:            c.AIEnabled,

		CreateTime: types.CurrentTimestamp(),
	}

	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	if err := db.Create(point).Error; err != nil {
		return nil, err
	}
	pointCache.Set(point.ID.String(), point, cache.DefaultExpiration)
	return point, nil
}

func QueryInspectionPoints(workspaceID types.ID, sec *session.Session) (*[]domain.QCInspectionPoint, error) {
	if !sec.HasWorkspaceViewPerm(workspaceID) {
		return nil, bizerror.ErrForbidden
	}
	var points []domain.QCInspectionPoint
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	if err := db.Where(&domain.QCInspectionPoint{WorkspaceID: workspaceID}).
		Order("create_time ASC").Find(&points).Error; err != nil {
		return nil, err
	}
	return &points, nil
}

func loadInspectionPoint(db *gorm.DB, id types.ID) (*domain.QCInspectionPoint, error) {
	if cached, found := pointCache.Get(id.String()); found {
		return cached.(*domain.QCInspectionPoint), nil
	}
	point := domain.QCInspectionPoint{}
	if err := db.Where(&domain.QCInspectionPoint{ID: id}).First(&point).Error; err != nil {
		return nil, err
	}
	pointCache.Set(id.String(), &point, cache.DefaultExpiration)
	return &point, nil
}
