package db

import "time"

// Resident 定义了入住者模型
// 创建后除 IsActive（软停用）外不再修改；不做物理删除，级联约束仅作为存储层兜底
// Kubun（介護区分）/ Disease（病名）是后补的可选列，见 db.go 的增量迁移
type Resident struct {
	ID       uint   `gorm:"primarykey"`
	UnitID   uint   `gorm:"index;not null"`
	Unit     Unit   `gorm:"constraint:OnDelete:CASCADE"`
	Name     string `gorm:"not null"`
	Kubun    string
	Disease  string
	IsActive bool `gorm:"not null;default:true"`

	CreatedAt time.Time
}
