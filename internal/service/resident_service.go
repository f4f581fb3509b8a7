package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/carelog/internal/db"
	"gorm.io/gorm"
)

// ResidentService 负责入住者的查询与台账外的少量维护操作。
// 入住者创建后只允许软停用，不做修改和物理删除。
type ResidentService struct {
	db *gorm.DB
}

// ResidentInput 定义登记入住者时可配置字段
type ResidentInput struct {
	UnitID  uint
	Name    string
	Kubun   string
	Disease string
}

// NewResidentService 构造 ResidentService
func NewResidentService(gdb *gorm.DB) *ResidentService {
	return &ResidentService{db: gdb}
}

// ListByUnit 返回单元内启用中的入住者，按姓名排序
func (s *ResidentService) ListByUnit(unitID uint) ([]db.Resident, error) {
	var residents []db.Resident
	if err := s.db.
		Where("unit_id = ? AND is_active = ?", unitID, true).
		Order("name ASC").
		Find(&residents).Error; err != nil {
		return nil, fmt.Errorf("list residents: %w", err)
	}
	return residents, nil
}

// Get 根据 ID 获取入住者
func (s *ResidentService) Get(id uint) (*db.Resident, error) {
	var resident db.Resident
	if err := s.db.First(&resident, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResidentNotFound
		}
		return nil, fmt.Errorf("get resident: %w", err)
	}
	return &resident, nil
}

// Create 登记入住者
func (s *ResidentService) Create(input ResidentInput) (*db.Resident, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("resident name is required")
	}

	var unit db.Unit
	if err := s.db.First(&unit, input.UnitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnitNotFound
		}
		return nil, fmt.Errorf("find unit: %w", err)
	}

	resident := db.Resident{
		UnitID:   input.UnitID,
		Name:     name,
		Kubun:    strings.TrimSpace(input.Kubun),
		Disease:  strings.TrimSpace(input.Disease),
		IsActive: true,
	}
	if err := s.db.Create(&resident).Error; err != nil {
		return nil, fmt.Errorf("create resident: %w", err)
	}
	return &resident, nil
}

// Deactivate 软停用入住者：历史记录全部保留，只是不再出现在录入画面。
// 目标不存在时返回 affected=false。
func (s *ResidentService) Deactivate(id uint) (bool, error) {
	res := s.db.Model(&db.Resident{}).
		Where("id = ?", id).
		Update("is_active", false)
	if res.Error != nil {
		return false, fmt.Errorf("deactivate resident: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
