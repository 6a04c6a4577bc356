package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wfunc/pin-lock/internal/errors"
	"github.com/wfunc/pin-lock/internal/models"
	"gorm.io/gorm"
)

// AccessEventRepository 审计事件仓储接口
type AccessEventRepository interface {
	Create(ctx context.Context, event *models.AccessEvent) error
	BatchCreate(ctx context.Context, events []*models.AccessEvent) error
	FindByEventID(ctx context.Context, eventID string) (*models.AccessEvent, error)
	List(ctx context.Context, query *models.AccessEventQuery) ([]*models.AccessEvent, *Pagination, error)
	CountByKind(ctx context.Context, kind string, since time.Time) (int64, error)
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// accessEventRepo 审计事件仓储实现
type accessEventRepo struct {
	*BaseRepo
}

// NewAccessEventRepository 创建审计事件仓储
func NewAccessEventRepository(db *gorm.DB) AccessEventRepository {
	return &accessEventRepo{BaseRepo: NewBaseRepo(db)}
}

func prepareEvent(event *models.AccessEvent) {
	if event.EventID == "" {
		event.EventID = uuid.New().String()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
}

// Create 创建事件，自动生成 EventID
func (r *accessEventRepo) Create(ctx context.Context, event *models.AccessEvent) error {
	prepareEvent(event)
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return errors.Wrap(err, errors.ErrDatabaseInsert, "写入审计事件失败")
	}
	return nil
}

// BatchCreate 批量创建事件
func (r *accessEventRepo) BatchCreate(ctx context.Context, events []*models.AccessEvent) error {
	if len(events) == 0 {
		return nil
	}
	for _, event := range events {
		prepareEvent(event)
	}
	if err := r.db.WithContext(ctx).CreateInBatches(events, 100).Error; err != nil {
		return errors.Wrap(err, errors.ErrDatabaseInsert, "批量写入审计事件失败")
	}
	return nil
}

// FindByEventID 根据事件ID查找
func (r *accessEventRepo) FindByEventID(ctx context.Context, eventID string) (*models.AccessEvent, error) {
	var event models.AccessEvent
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&event).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.ErrNotFound, "事件不存在: "+eventID)
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return &event, nil
}

// List 按条件分页查询，最新的事件在前
func (r *accessEventRepo) List(ctx context.Context, query *models.AccessEventQuery) ([]*models.AccessEvent, *Pagination, error) {
	if query == nil {
		query = &models.AccessEventQuery{}
	}
	pagination := NewPagination(query.Page, query.PageSize)

	db := r.db.WithContext(ctx).Model(&models.AccessEvent{})
	if query.Kind != "" {
		db = db.Where("kind = ?", query.Kind)
	}
	if query.Since != nil {
		db = db.Where("occurred_at >= ?", *query.Since)
	}

	if err := db.Count(&pagination.Total).Error; err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}

	var events []*models.AccessEvent
	err := db.Scopes(Paginate(pagination)).
		Order("occurred_at DESC").
		Order("id DESC").
		Find(&events).Error
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}

	return events, pagination, nil
}

// CountByKind 统计某时间之后的指定类型事件数量
func (r *accessEventRepo) CountByKind(ctx context.Context, kind string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.AccessEvent{}).
		Where("kind = ? AND occurred_at >= ?", kind, since).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return count, nil
}

// Prune 删除指定时间之前的事件
func (r *accessEventRepo) Prune(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("occurred_at < ?", before).Delete(&models.AccessEvent{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, errors.ErrDatabaseUpdate)
	}
	return result.RowsAffected, nil
}
