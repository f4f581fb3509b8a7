package db

// Unit 定义了生活单元（ユニット）模型
// Name 全局唯一；IsActive=false 时前台不再展示，但历史记录保持引用
type Unit struct {
	ID       uint   `gorm:"primarykey"`
	Name     string `gorm:"uniqueIndex;not null"`
	IsActive bool   `gorm:"not null;default:true"`

	Residents []Resident `gorm:"constraint:OnDelete:CASCADE"`
}
