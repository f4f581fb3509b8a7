package service

import (
	"fmt"
	"time"

	"github.com/carelog/internal/db"
	"gorm.io/gorm"
)

// SnapshotService 从不可变的台账行按需推导“当前状态”。
// 不落任何派生表、不持有缓存：同样的台账内容推导结果必然相同。
type SnapshotService struct {
	db *gorm.DB
}

// NewSnapshotService 构造 SnapshotService
func NewSnapshotService(gdb *gorm.DB) *SnapshotService {
	return &SnapshotService{db: gdb}
}

// Snapshot 是某入住者某日的推导视图。
// “最新”按写入序（UpdatedAt, ID）取值：同日多条记录时后写的赢；
// 从未翻过标记的行 UpdatedAt 等于 CreatedAt，退化为插入序，这正是期望行为。
type Snapshot struct {
	ResidentID uint
	Date       string

	// 最后写入的非空值；整日无值时为 nil
	TempAM  *float64
	BPSysAM *int
	BPDiaAM *int
	PulseAM *int
	SpO2AM  *int

	TempPM  *float64
	BPSysPM *int
	BPDiaPM *int
	PulsePM *int
	SpO2PM  *int

	// done=true 且 score>0 的最后一笔；整日无值时为 nil
	MealBF *int
	MealLU *int
	MealDI *int

	// 整日按标记独立取 OR：当天任何一条记录服过药即算服药
	MedMorning bool
	MedNoon    bool
	MedEvening bool
	MedBed     bool

	RecordCount int
	PatrolCount int

	LastPatrolHH     *int
	LastPatrolMM     *int
	LastPatrolStatus string
}

// Snapshot 重新计算入住者某日的当前状态。
// 没有未删除记录时返回 (nil, nil)，由调用方降级为占位展示。
func (s *SnapshotService) Snapshot(residentID uint, date string) (*Snapshot, error) {
	var records []db.DailyRecord
	if err := s.db.
		Where("resident_id = ? AND record_date = ? AND is_deleted = ?", residentID, date, false).
		Order("updated_at ASC, id ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("load day records: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}

	var patrols []db.Patrol
	if err := s.db.
		Where("record_id IN ?", ids).
		Order("id ASC").
		Find(&patrols).Error; err != nil {
		return nil, fmt.Errorf("load day patrols: %w", err)
	}

	snap := buildSnapshot(records, patrols)
	snap.ResidentID = residentID
	snap.Date = date
	return snap, nil
}

// buildSnapshot 是纯推导：输入按写入序排好的记录与全部巡视，输出视图。
// 单独拆出便于直接测试推导规则。
func buildSnapshot(records []db.DailyRecord, patrols []db.Patrol) *Snapshot {
	snap := &Snapshot{RecordCount: len(records), PatrolCount: len(patrols)}

	for _, r := range records {
		if v := r.TempAM; v != nil && *v != 0 {
			snap.TempAM = v
		}
		if v := r.BPSysAM; v != nil && *v != 0 {
			snap.BPSysAM = v
		}
		if v := r.BPDiaAM; v != nil && *v != 0 {
			snap.BPDiaAM = v
		}
		if v := r.PulseAM; v != nil && *v != 0 {
			snap.PulseAM = v
		}
		if v := r.SpO2AM; v != nil && *v != 0 {
			snap.SpO2AM = v
		}

		if v := r.TempPM; v != nil && *v != 0 {
			snap.TempPM = v
		}
		if v := r.BPSysPM; v != nil && *v != 0 {
			snap.BPSysPM = v
		}
		if v := r.BPDiaPM; v != nil && *v != 0 {
			snap.BPDiaPM = v
		}
		if v := r.PulsePM; v != nil && *v != 0 {
			snap.PulsePM = v
		}
		if v := r.SpO2PM; v != nil && *v != 0 {
			snap.SpO2PM = v
		}

		if r.MealBFDone && r.MealBFScore > 0 {
			score := r.MealBFScore
			snap.MealBF = &score
		}
		if r.MealLUDone && r.MealLUScore > 0 {
			score := r.MealLUScore
			snap.MealLU = &score
		}
		if r.MealDIDone && r.MealDIScore > 0 {
			score := r.MealDIScore
			snap.MealDI = &score
		}

		snap.MedMorning = snap.MedMorning || r.MedMorning
		snap.MedNoon = snap.MedNoon || r.MedNoon
		snap.MedEvening = snap.MedEvening || r.MedEvening
		snap.MedBed = snap.MedBed || r.MedBed
	}

	if last := lastPatrol(patrols); last != nil {
		snap.LastPatrolHH = last.TimeHH
		snap.LastPatrolMM = last.TimeMM
		snap.LastPatrolStatus = last.Status
	}

	return snap
}

// BoardCard 是首页利用者卡片的聚合行
type BoardCard struct {
	ResidentID uint
	Name       string
	Kubun      string
	Disease    string

	// 当日尚无记录时为 false，展示字段全部降级为占位
	HasRecord bool

	TempAM *float64
	TempPM *float64

	MealBFDone  bool
	MealBFScore int
	MealLUDone  bool
	MealLUScore int
	MealDIDone  bool
	MealDIScore int

	PatrolCount int64
	UpdatedAt   *time.Time
}

// UnitBoard 为单元内每位在住者生成当日卡片：
// 取最后写入的一条未删除记录（UpdatedAt, ID 降序）加整日巡视条数。
func (s *SnapshotService) UnitBoard(unitID uint, date string) ([]BoardCard, error) {
	var residents []db.Resident
	if err := s.db.
		Where("unit_id = ? AND is_active = ?", unitID, true).
		Order("name ASC").
		Find(&residents).Error; err != nil {
		return nil, fmt.Errorf("list residents: %w", err)
	}

	cards := make([]BoardCard, 0, len(residents))
	for _, resident := range residents {
		card := BoardCard{
			ResidentID: resident.ID,
			Name:       resident.Name,
			Kubun:      resident.Kubun,
			Disease:    resident.Disease,
		}

		var latest []db.DailyRecord
		if err := s.db.
			Where("resident_id = ? AND record_date = ? AND is_deleted = ?", resident.ID, date, false).
			Order("updated_at DESC, id DESC").
			Limit(1).
			Find(&latest).Error; err != nil {
			return nil, fmt.Errorf("latest record: %w", err)
		}

		if len(latest) > 0 {
			r := latest[0]
			card.HasRecord = true
			card.TempAM = r.TempAM
			card.TempPM = r.TempPM
			card.MealBFDone = r.MealBFDone
			card.MealBFScore = r.MealBFScore
			card.MealLUDone = r.MealLUDone
			card.MealLUScore = r.MealLUScore
			card.MealDIDone = r.MealDIDone
			card.MealDIScore = r.MealDIScore
			updated := r.UpdatedAt
			card.UpdatedAt = &updated

			if err := s.db.Model(&db.Patrol{}).
				Joins("JOIN daily_records ON daily_records.id = patrols.record_id").
				Where("daily_records.resident_id = ? AND daily_records.record_date = ? AND daily_records.is_deleted = ?", resident.ID, date, false).
				Count(&card.PatrolCount).Error; err != nil {
				return nil, fmt.Errorf("count board patrols: %w", err)
			}
		}

		cards = append(cards, card)
	}

	return cards, nil
}
