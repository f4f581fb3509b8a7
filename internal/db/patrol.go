package db

import "time"

// Patrol 记录一次巡视子条目，随父记录在同一事务中写入
// 写入后不再修改，没有独立生命周期；父记录软删除时随之从读取中过滤
// PatrolNo 由存储层约束为正数，越界插入会使整个 Append 事务回滚
type Patrol struct {
	ID       uint        `gorm:"primarykey"`
	RecordID uint        `gorm:"index;not null"`
	Record   DailyRecord `gorm:"constraint:OnDelete:CASCADE"`

	PatrolNo int  `gorm:"column:patrol_no;not null;check:patrol_no > 0"`
	TimeHH   *int `gorm:"column:patrol_time_hh"`
	TimeMM   *int `gorm:"column:patrol_time_mm"`

	Status     string
	Memo       string
	Intervened bool `gorm:"not null;default:false"`
	DoorOpened bool `gorm:"not null;default:false"`

	// 逗号连接的安全检查标签集合
	SafetyChecks string

	CreatedAt time.Time
}
