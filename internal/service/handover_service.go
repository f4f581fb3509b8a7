package service

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/carelog/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrUnknownReaction 不在候选里的反应类型
	ErrUnknownReaction = errors.New("unknown reaction type")
)

// 申し送り反应的候选类型：✅ 确认 / 👍 いいね
var reactionTypes = []string{"check", "like"}

// noteHeadLimit 一览里特記事項的截断长度（按字符数）
const noteHeadLimit = 120

// HandoverService 负责申し送りボード：筛选 is_report 记录、
// 维护确认状态（委托台账的标记翻转）和职员反应。
type HandoverService struct {
	db      *gorm.DB
	records *RecordService
}

// NewHandoverService 构造 HandoverService
func NewHandoverService(gdb *gorm.DB, records *RecordService) *HandoverService {
	return &HandoverService{db: gdb, records: records}
}

// HandoverItem 是一条可直接渲染成单行文本的申し送り条目
type HandoverItem struct {
	RecordID     uint
	ResidentID   uint
	ResidentName string

	TimeHH *int
	TimeMM *int

	Scene        string
	SceneNote    string
	RecorderName string

	// NoteHead 是截断后的摘要，Note 保留全文
	Note     string
	NoteHead string

	IsConfirmed bool
	CreatedAt   time.Time
}

// List 返回单元某日的申し送り条目：is_report=1、未删除，按展示序排列
func (s *HandoverService) List(unitID uint, date string) ([]HandoverItem, error) {
	var records []db.DailyRecord
	if err := s.db.
		Where("unit_id = ? AND record_date = ? AND is_report = ? AND is_deleted = ?", unitID, date, true, false).
		Order(dayOrderSQL).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list handovers: %w", err)
	}

	items := make([]HandoverItem, 0, len(records))
	if len(records) == 0 {
		return items, nil
	}

	names, err := s.residentNames(records)
	if err != nil {
		return nil, err
	}

	for _, r := range records {
		items = append(items, HandoverItem{
			RecordID:     r.ID,
			ResidentID:   r.ResidentID,
			ResidentName: names[r.ResidentID],
			TimeHH:       r.RecordTimeHH,
			TimeMM:       r.RecordTimeMM,
			Scene:        r.Scene,
			SceneNote:    r.SceneNote,
			RecorderName: r.RecorderName,
			Note:         r.Note,
			NoteHead:     noteHead(r.Note),
			IsConfirmed:  r.IsConfirmed,
			CreatedAt:    r.CreatedAt,
		})
	}

	return items, nil
}

// Confirm 确认一条申し送り。重复确认是空操作，不附加任何额外规则。
func (s *HandoverService) Confirm(recordID uint) (bool, error) {
	return s.records.Confirm(recordID)
}

// ToggleReaction 切换某职员对某条申し送り的反应：有则撤销，无则登记。
// 返回切换后的状态（true=已登记）。
func (s *HandoverService) ToggleReaction(recordID uint, userName, reactionType string) (bool, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" {
		return false, ErrRecorderRequired
	}
	if !slices.Contains(reactionTypes, reactionType) {
		return false, fmt.Errorf("%w: %s", ErrUnknownReaction, reactionType)
	}

	var existing []db.HandoverReaction
	if err := s.db.
		Where("record_id = ? AND user_name = ? AND reaction_type = ?", recordID, userName, reactionType).
		Limit(1).
		Find(&existing).Error; err != nil {
		return false, fmt.Errorf("find reaction: %w", err)
	}

	if len(existing) > 0 {
		if err := s.db.Delete(&existing[0]).Error; err != nil {
			return false, fmt.Errorf("remove reaction: %w", err)
		}
		return false, nil
	}

	reaction := db.HandoverReaction{
		RecordID:     recordID,
		UserName:     userName,
		ReactionType: reactionType,
	}
	if err := s.db.Create(&reaction).Error; err != nil {
		return false, fmt.Errorf("add reaction: %w", err)
	}
	return true, nil
}

// Reactions 返回一条申し送り的反应履历，按登记时间升序
func (s *HandoverService) Reactions(recordID uint) ([]db.HandoverReaction, error) {
	var reactions []db.HandoverReaction
	if err := s.db.
		Where("record_id = ?", recordID).
		Order("created_at ASC, id ASC").
		Find(&reactions).Error; err != nil {
		return nil, fmt.Errorf("list reactions: %w", err)
	}
	return reactions, nil
}

func (s *HandoverService) residentNames(records []db.DailyRecord) (map[uint]string, error) {
	ids := make([]uint, 0, len(records))
	seen := make(map[uint]struct{}, len(records))
	for _, r := range records {
		if _, ok := seen[r.ResidentID]; ok {
			continue
		}
		seen[r.ResidentID] = struct{}{}
		ids = append(ids, r.ResidentID)
	}

	var residents []db.Resident
	if err := s.db.Where("id IN ?", ids).Find(&residents).Error; err != nil {
		return nil, fmt.Errorf("load resident names: %w", err)
	}

	names := make(map[uint]string, len(residents))
	for _, resident := range residents {
		names[resident.ID] = resident.Name
	}
	return names, nil
}

func noteHead(note string) string {
	runes := []rune(note)
	if len(runes) <= noteHeadLimit {
		return note
	}
	return string(runes[:noteHeadLimit])
}
