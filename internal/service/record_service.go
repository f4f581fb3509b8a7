package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carelog/internal/db"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrRecorderRequired 记录者名为空时返回
	ErrRecorderRequired = errors.New("recorder name is required")
	// ErrInvalidDate 记录日期不是 2006-01-02 形式时返回
	ErrInvalidDate = errors.New("invalid record date")
	// ErrResidentNotFound 指定入住者不存在时返回
	ErrResidentNotFound = errors.New("resident not found")
	// ErrUnitMismatch 入住者不属于指定单元时返回
	ErrUnitMismatch = errors.New("resident does not belong to unit")
	// ErrInvalidMealScore 食事 done=true 时分值不在 1〜10 内返回
	ErrInvalidMealScore = errors.New("meal score must be between 1 and 10")
	// ErrDuplicateSubmission 客户端令牌撞上唯一索引（双保存按钮连击）时返回
	ErrDuplicateSubmission = errors.New("duplicate submission")
)

const dateFormat = "2006-01-02"

// RecordService 负责台账的写入与列表读取。
// 台账是追加式的：Append 之外只有 SoftDelete / Confirm 两个标记翻转入口，
// 任何临床字段在插入后都不会被改写。
type RecordService struct {
	db *gorm.DB
}

// NewRecordService 构造 RecordService
func NewRecordService(gdb *gorm.DB) *RecordService {
	return &RecordService{db: gdb}
}

// RecordInput 定义一次支援记录写入的全部字段。
// 写入操作只接受这个结构化类型，不接受自由键值参数。
type RecordInput struct {
	UnitID     uint
	ResidentID uint
	RecordDate string

	// 显式事件时刻；二者都为 nil 时回退到巡视时刻
	TimeHH *int
	TimeMM *int

	Shift        string
	RecorderName string
	Scene        string
	SceneNote    string

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

	MealBFDone  bool
	MealBFScore int
	MealLUDone  bool
	MealLUScore int
	MealDIDone  bool
	MealDIScore int

	MedMorning bool
	MedNoon    bool
	MedEvening bool
	MedBed     bool

	Note        string
	SpecialTags []string

	IsReport    bool
	ClientToken string
}

// PatrolInput 定义随记录一起写入的巡视子条目
type PatrolInput struct {
	No         int
	TimeHH     *int
	TimeMM     *int
	Status     string
	Memo       string
	Intervened bool
	DoorOpened bool
	// 安全检查标签，落库时逗号连接
	SafetyChecks []string
}

// RecordSummary 是列表读取的行：记录本体加巡视条数
type RecordSummary struct {
	db.DailyRecord
	PatrolCount int64
}

// Append 校验并写入一条支援记录及其巡视子条目。
// 校验全部发生在写入之前；记录与巡视在同一事务中落库，要么全部成功要么全无痕迹。
// 返回的记录即落库内容，CreatedAt 与 UpdatedAt 在插入时相等。
func (s *RecordService) Append(input RecordInput, patrols []PatrolInput) (*db.DailyRecord, error) {
	recorder := strings.TrimSpace(input.RecorderName)
	if recorder == "" {
		return nil, ErrRecorderRequired
	}

	if _, err := time.Parse(dateFormat, input.RecordDate); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDate, input.RecordDate)
	}

	hh, mm, err := ResolveEventTime(input.TimeHH, input.TimeMM, patrols)
	if err != nil {
		return nil, err
	}

	var resident db.Resident
	if err := s.db.First(&resident, input.ResidentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResidentNotFound
		}
		return nil, fmt.Errorf("find resident: %w", err)
	}
	if resident.UnitID != input.UnitID {
		return nil, ErrUnitMismatch
	}

	if err := validateMeals(input); err != nil {
		return nil, err
	}

	scene := input.Scene
	if !isKnownScene(scene) {
		scene = defaultScene
	}
	sceneNote := ""
	if scene != "" {
		sceneNote = strings.TrimSpace(input.SceneNote)
	}

	token := strings.TrimSpace(input.ClientToken)
	if token == "" {
		token = uuid.NewString()
	}

	record := db.DailyRecord{
		UnitID:       input.UnitID,
		ResidentID:   input.ResidentID,
		RecordDate:   input.RecordDate,
		RecordTimeHH: &hh,
		RecordTimeMM: &mm,
		Shift:        strings.TrimSpace(input.Shift),
		RecorderName: recorder,
		Scene:        scene,
		SceneNote:    sceneNote,
		WakeupFlag:   scene == sceneWakeup,

		TempAM:  nilIfZeroFloat(input.TempAM),
		BPSysAM: nilIfZeroInt(input.BPSysAM),
		BPDiaAM: nilIfZeroInt(input.BPDiaAM),
		PulseAM: nilIfZeroInt(input.PulseAM),
		SpO2AM:  nilIfZeroInt(input.SpO2AM),

		TempPM:  nilIfZeroFloat(input.TempPM),
		BPSysPM: nilIfZeroInt(input.BPSysPM),
		BPDiaPM: nilIfZeroInt(input.BPDiaPM),
		PulsePM: nilIfZeroInt(input.PulsePM),
		SpO2PM:  nilIfZeroInt(input.SpO2PM),

		MealBFDone:  input.MealBFDone,
		MealBFScore: mealScore(input.MealBFDone, input.MealBFScore),
		MealLUDone:  input.MealLUDone,
		MealLUScore: mealScore(input.MealLUDone, input.MealLUScore),
		MealDIDone:  input.MealDIDone,
		MealDIScore: mealScore(input.MealDIDone, input.MealDIScore),

		MedMorning: input.MedMorning,
		MedNoon:    input.MedNoon,
		MedEvening: input.MedEvening,
		MedBed:     input.MedBed,

		Note:        composeNote(input.Note, input.SpecialTags),
		IsReport:    input.IsReport,
		ClientToken: token,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		for _, p := range patrols {
			patrol := db.Patrol{
				RecordID:     record.ID,
				PatrolNo:     p.No,
				TimeHH:       p.TimeHH,
				TimeMM:       p.TimeMM,
				Status:       strings.TrimSpace(p.Status),
				Memo:         strings.TrimSpace(p.Memo),
				Intervened:   p.Intervened,
				DoorOpened:   p.DoorOpened,
				SafetyChecks: strings.Join(p.SafetyChecks, ","),
			}
			if err := tx.Create(&patrol).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: daily_records.client_token") {
			return nil, ErrDuplicateSubmission
		}
		return nil, fmt.Errorf("append record: %w", err)
	}

	return &record, nil
}

// SoftDelete 置 is_deleted=1 并刷新 updated_at。
// 目标不存在时不视为错误，返回 affected=false 供调用方提示。
func (s *RecordService) SoftDelete(id uint) (bool, error) {
	res := s.db.Model(&db.DailyRecord{}).
		Where("id = ?", id).
		Update("is_deleted", true)
	if res.Error != nil {
		return false, fmt.Errorf("soft delete record: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Confirm 置 is_confirmed=1 并刷新 updated_at。
// 重复确认是无害的空操作；该标记置位后永不回退。
func (s *RecordService) Confirm(id uint) (bool, error) {
	res := s.db.Model(&db.DailyRecord{}).
		Where("id = ?", id).
		Update("is_confirmed", true)
	if res.Error != nil {
		return false, fmt.Errorf("confirm record: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ListDay 返回入住者某日的全部未删除记录，按展示序排列
func (s *RecordService) ListDay(residentID uint, date string) ([]RecordSummary, error) {
	var records []db.DailyRecord
	if err := s.db.
		Where("resident_id = ? AND record_date = ? AND is_deleted = ?", residentID, date, false).
		Order(dayOrderSQL).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list day records: %w", err)
	}

	return s.withPatrolCounts(records)
}

// ListRange 返回入住者在日期区间内的记录（月间一览/导出用），
// 最外层按日期升序，日内复用展示序
func (s *RecordService) ListRange(residentID uint, from, to string) ([]RecordSummary, error) {
	var records []db.DailyRecord
	if err := s.db.
		Where("resident_id = ? AND record_date BETWEEN ? AND ? AND is_deleted = ?", residentID, from, to, false).
		Order(rangeOrderSQL).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list range records: %w", err)
	}

	return s.withPatrolCounts(records)
}

// VitalPoint 是图表用的时间序列点，只携带时刻与数值列
type VitalPoint struct {
	RecordID   uint   `gorm:"column:id"`
	RecordDate string `gorm:"column:record_date"`
	TimeHH     *int   `gorm:"column:record_time_hh"`
	TimeMM     *int   `gorm:"column:record_time_mm"`

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
}

// VitalSeries 返回区间内的バイタル时间序列（折线图用）
func (s *RecordService) VitalSeries(residentID uint, from, to string) ([]VitalPoint, error) {
	var points []VitalPoint
	if err := s.db.Model(&db.DailyRecord{}).
		Select("id, record_date, record_time_hh, record_time_mm, temp_am, bp_sys_am, bp_dia_am, pulse_am, spo2_am, temp_pm, bp_sys_pm, bp_dia_pm, pulse_pm, spo2_pm").
		Where("resident_id = ? AND record_date BETWEEN ? AND ? AND is_deleted = ?", residentID, from, to, false).
		Order(rangeOrderSQL).
		Scan(&points).Error; err != nil {
		return nil, fmt.Errorf("vital series: %w", err)
	}
	return points, nil
}

// LatestVitals 返回入住者最近一条未删除记录（跨日期），用于录入画面预填。
// 没有记录时返回 nil。
func (s *RecordService) LatestVitals(residentID uint) (*db.DailyRecord, error) {
	var records []db.DailyRecord
	if err := s.db.
		Where("resident_id = ? AND is_deleted = ?", residentID, false).
		Order("record_date DESC, updated_at DESC, id DESC").
		Limit(1).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("latest vitals: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// Patrols 返回一条记录的巡视子条目，按序号升序
func (s *RecordService) Patrols(recordID uint) ([]db.Patrol, error) {
	var patrols []db.Patrol
	if err := s.db.
		Where("record_id = ?", recordID).
		Order("patrol_no ASC").
		Find(&patrols).Error; err != nil {
		return nil, fmt.Errorf("list patrols: %w", err)
	}
	return patrols, nil
}

func (s *RecordService) withPatrolCounts(records []db.DailyRecord) ([]RecordSummary, error) {
	summaries := make([]RecordSummary, 0, len(records))
	if len(records) == 0 {
		return summaries, nil
	}

	ids := make([]uint, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}

	var rows []struct {
		RecordID uint
		Cnt      int64
	}
	if err := s.db.Model(&db.Patrol{}).
		Select("record_id, COUNT(*) AS cnt").
		Where("record_id IN ?", ids).
		Group("record_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count patrols: %w", err)
	}

	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.RecordID] = row.Cnt
	}

	for _, r := range records {
		summaries = append(summaries, RecordSummary{DailyRecord: r, PatrolCount: counts[r.ID]})
	}
	return summaries, nil
}

func validateMeals(input RecordInput) error {
	slots := []struct {
		done  bool
		score int
	}{
		{input.MealBFDone, input.MealBFScore},
		{input.MealLUDone, input.MealLUScore},
		{input.MealDIDone, input.MealDIScore},
	}
	for _, slot := range slots {
		if slot.done && (slot.score < 1 || slot.score > 10) {
			return ErrInvalidMealScore
		}
	}
	return nil
}

func mealScore(done bool, score int) int {
	if !done {
		return 0
	}
	return score
}

// composeNote 把特記事項标签拼到正文前：【特記事項タグ：…】
func composeNote(note string, tags []string) string {
	note = strings.TrimSpace(note)
	if len(tags) == 0 {
		return note
	}

	prefix := "【特記事項タグ：" + strings.Join(tags, "、") + "】"
	if note == "" {
		return prefix
	}
	return prefix + "\n" + note
}

// 0 与空白统一归一化为 NULL：“未测定”和“测得恰好为 0”落库后无法区分，
// 这是沿用既有数据的既定行为。
func nilIfZeroFloat(v *float64) *float64 {
	if v == nil || *v == 0 {
		return nil
	}
	return v
}

func nilIfZeroInt(v *int) *int {
	if v == nil || *v == 0 {
		return nil
	}
	return v
}
