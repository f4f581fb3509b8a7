package db

import "time"

// HandoverReaction 记录职员对申し送り条目的反应（👍 等）
// (RecordID, UserName, ReactionType) 唯一，保证同一人同一类型只留一条
// 反应属于社交元数据而非护理记录，允许撤销（物理删除），不受台账追加式约束
type HandoverReaction struct {
	ID       uint        `gorm:"primarykey"`
	RecordID uint        `gorm:"index;index:idx_reaction_unique,unique;not null"`
	Record   DailyRecord `gorm:"constraint:OnDelete:CASCADE"`

	UserName     string `gorm:"index:idx_reaction_unique,unique;not null"`
	ReactionType string `gorm:"index:idx_reaction_unique,unique;not null"`

	CreatedAt time.Time
}
