package repository

import (
	"bytes"
	"context"

	"github.com/wfunc/pin-lock/internal/errors"
	"github.com/wfunc/pin-lock/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StorageBlockRepository 存储块仓储接口
type StorageBlockRepository interface {
	Get(ctx context.Context, address int) (*models.StorageBlock, error)
	Put(ctx context.Context, address int, data []byte) (bool, error)
	List(ctx context.Context) ([]*models.StorageBlock, error)
	Delete(ctx context.Context, address int) error
}

// storageBlockRepo 存储块仓储实现
type storageBlockRepo struct {
	*BaseRepo
}

// NewStorageBlockRepository 创建存储块仓储
func NewStorageBlockRepository(db *gorm.DB) StorageBlockRepository {
	return &storageBlockRepo{BaseRepo: NewBaseRepo(db)}
}

// Get 读取指定地址的块，不存在时返回 ErrNotFound
func (r *storageBlockRepo) Get(ctx context.Context, address int) (*models.StorageBlock, error) {
	var block models.StorageBlock
	err := r.db.WithContext(ctx).Where("address = ?", address).First(&block).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.Newf(errors.ErrNotFound, "地址 %d 没有数据", address)
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return &block, nil
}

// Put 写入块，内容与现有数据相同时跳过，返回是否实际写入
func (r *storageBlockRepo) Put(ctx context.Context, address int, data []byte) (bool, error) {
	written := false
	err := r.Transaction(ctx, func(tx *gorm.DB) error {
		var existing models.StorageBlock
		err := tx.Where("address = ?", address).First(&existing).Error
		switch {
		case err == nil:
			if bytes.Equal(existing.Data, data) {
				return nil
			}
			written = true
			return tx.Model(&existing).Updates(map[string]interface{}{
				"data":   data,
				"size":   len(data),
				"writes": gorm.Expr("writes + ?", 1),
			}).Error
		case err == gorm.ErrRecordNotFound:
			written = true
			return tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "address"}},
				DoUpdates: clause.AssignmentColumns([]string{"data", "size", "updated_at"}),
			}).Create(&models.StorageBlock{
				Address: address,
				Data:    data,
				Size:    len(data),
				Writes:  1,
			}).Error
		default:
			return err
		}
	})
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrStorageWrite, "写入地址 %d 失败", address)
	}
	return written, nil
}

// List 按地址列出所有块
func (r *storageBlockRepo) List(ctx context.Context) ([]*models.StorageBlock, error) {
	var blocks []*models.StorageBlock
	if err := r.db.WithContext(ctx).Order("address ASC").Find(&blocks).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return blocks, nil
}

// Delete 删除指定地址的块
func (r *storageBlockRepo) Delete(ctx context.Context, address int) error {
	if err := r.db.WithContext(ctx).Where("address = ?", address).Delete(&models.StorageBlock{}).Error; err != nil {
		return errors.Wrap(err, errors.ErrDatabaseUpdate)
	}
	return nil
}
