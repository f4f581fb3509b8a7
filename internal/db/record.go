package db

import "time"

// DailyRecord 定义了支援记录（台账的原子单位）
// 台账是追加式的：临床/叙述字段写入后不再改写，插入后唯一允许的变更是
// IsDeleted / IsConfirmed 两个单向标记（false→true），UpdatedAt 只随标记翻转而变
// 数值字段采用指针，NULL 表示“未测定”；0 在写入前统一归一化为 NULL（沿用既有数据约定）
// 列名保持与既有数据库一致，便于直接挂载历史数据文件
type DailyRecord struct {
	ID         uint     `gorm:"primarykey"`
	UnitID     uint     `gorm:"index;not null"`
	Unit       Unit     `gorm:"constraint:OnDelete:CASCADE"`
	ResidentID uint     `gorm:"index:idx_records_resident_date;not null"`
	Resident   Resident `gorm:"constraint:OnDelete:CASCADE"`

	// 事件时刻（与写入时刻无关）；日期序列化为 2006-01-02
	RecordDate   string `gorm:"column:record_date;index:idx_records_resident_date;not null"`
	RecordTimeHH *int   `gorm:"column:record_time_hh"`
	RecordTimeMM *int   `gorm:"column:record_time_mm"`

	Shift        string `gorm:"not null"`
	RecorderName string `gorm:"not null"`
	Scene        string
	SceneNote    string
	WakeupFlag   bool `gorm:"not null;default:false"`

	// バイタル（朝/夕）
	TempAM  *float64 `gorm:"column:temp_am"`
	BPSysAM *int     `gorm:"column:bp_sys_am"`
	BPDiaAM *int     `gorm:"column:bp_dia_am"`
	PulseAM *int     `gorm:"column:pulse_am"`
	SpO2AM  *int     `gorm:"column:spo2_am"`

	TempPM  *float64 `gorm:"column:temp_pm"`
	BPSysPM *int     `gorm:"column:bp_sys_pm"`
	BPDiaPM *int     `gorm:"column:bp_dia_pm"`
	PulsePM *int     `gorm:"column:pulse_pm"`
	SpO2PM  *int     `gorm:"column:spo2_pm"`

	// 食事：score 仅在 done=true 时有意义（1〜10）
	MealBFDone  bool `gorm:"column:meal_bf_done;not null;default:false"`
	MealBFScore int  `gorm:"column:meal_bf_score;not null;default:0"`
	MealLUDone  bool `gorm:"column:meal_lu_done;not null;default:false"`
	MealLUScore int  `gorm:"column:meal_lu_score;not null;default:0"`
	MealDIDone  bool `gorm:"column:meal_di_done;not null;default:false"`
	MealDIScore int  `gorm:"column:meal_di_score;not null;default:0"`

	// 服薬
	MedMorning bool `gorm:"column:med_morning;not null;default:false"`
	MedNoon    bool `gorm:"column:med_noon;not null;default:false"`
	MedEvening bool `gorm:"column:med_evening;not null;default:false"`
	MedBed     bool `gorm:"column:med_bed;not null;default:false"`

	// 特記事項：非空即视为“需要关注”
	Note string

	// IsReport 将记录放上申し送りボード；IsConfirmed 记录确认状态
	IsReport    bool `gorm:"not null;default:false"`
	IsConfirmed bool `gorm:"not null;default:false"`
	IsDeleted   bool `gorm:"index;not null;default:false"`

	// 客户端幂等令牌，防止双保存按钮导致的重复提交
	ClientToken string `gorm:"uniqueIndex;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Patrols []Patrol `gorm:"constraint:OnDelete:CASCADE"`
}

// TableName 与既有数据文件中的表名保持一致
func (DailyRecord) TableName() string {
	return "daily_records"
}
