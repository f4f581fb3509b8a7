package service

import (
	"errors"
	"fmt"

	"github.com/carelog/internal/db"
	"gorm.io/gorm"
)

// ErrUnitNotFound 在指定单元不存在时返回
var ErrUnitNotFound = errors.New("unit not found")

// UnitService 负责生活单元的查询
type UnitService struct {
	db *gorm.DB
}

// NewUnitService 构造 UnitService
func NewUnitService(gdb *gorm.DB) *UnitService {
	return &UnitService{db: gdb}
}

// ListActive 返回启用中的单元，按 ID 升序
func (s *UnitService) ListActive() ([]db.Unit, error) {
	var units []db.Unit
	if err := s.db.
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&units).Error; err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	return units, nil
}

// Get 根据 ID 获取单元
func (s *UnitService) Get(id uint) (*db.Unit, error) {
	var unit db.Unit
	if err := s.db.First(&unit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnitNotFound
		}
		return nil, fmt.Errorf("get unit: %w", err)
	}
	return &unit, nil
}
