package service

import (
	"errors"
	"testing"

	"github.com/carelog/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupServiceTestDB(t *testing.T) func() {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db.DB = gdb

	return func() {
		sqlDB, err := db.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func intPtr(v int) *int {
	return &v
}

func floatPtr(v float64) *float64 {
	return &v
}

// seededResident 返回种子数据里第一位入住者及其单元
func seededResident(t *testing.T) db.Resident {
	t.Helper()
	var resident db.Resident
	if err := db.DB.Order("id ASC").First(&resident).Error; err != nil {
		t.Fatalf("failed to load seeded resident: %v", err)
	}
	return resident
}

func baseInput(resident db.Resident) RecordInput {
	return RecordInput{
		UnitID:       resident.UnitID,
		ResidentID:   resident.ID,
		RecordDate:   "2024-05-01",
		TimeHH:       intPtr(8),
		TimeMM:       intPtr(0),
		Shift:        "日勤",
		RecorderName: "山本",
	}
}

func TestAppendValidation(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewRecordService(db.DB)
	resident := seededResident(t)

	// 记录者名缺失
	input := baseInput(resident)
	input.RecorderName = "  "
	if _, err := svc.Append(input, nil); !errors.Is(err, ErrRecorderRequired) {
		t.Fatalf("expected ErrRecorderRequired, got %v", err)
	}

	// 日期形式不正
	input = baseInput(resident)
	input.RecordDate = "2024/05/01"
	if _, err := svc.Append(input, nil); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}

	// 时刻无法解决：显式时刻与巡视时刻都没有
	input = baseInput(resident)
	input.TimeHH = nil
	input.TimeMM = nil
	if _, err := svc.Append(input, nil); !errors.Is(err, ErrTimeUnresolved) {
		t.Fatalf("expected ErrTimeUnresolved, got %v", err)
	}

	// 食事 done=true 时分值越界
	input = baseInput(resident)
	input.MealBFDone = true
	input.MealBFScore = 11
	if _, err := svc.Append(input, nil); !errors.Is(err, ErrInvalidMealScore) {
		t.Fatalf("expected ErrInvalidMealScore, got %v", err)
	}

	// 入住者不存在
	input = baseInput(resident)
	input.ResidentID = 9999
	if _, err := svc.Append(input, nil); !errors.Is(err, ErrResidentNotFound) {
		t.Fatalf("expected ErrResidentNotFound, got %v", err)
	}

	// 单元不一致
	input = baseInput(resident)
	input.UnitID = resident.UnitID + 1
	if _, err := svc.Append(input, nil); !errors.Is(err, ErrUnitMismatch) {
		t.Fatalf("expected ErrUnitMismatch, got %v", err)
	}

	// 校验全部失败于写入之前：台账里不应有任何行
	var count int64
	if err := db.DB.Model(&db.DailyRecord{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty ledger, got %d rows", count)
	}
}

func TestAppendNormalization(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewRecordService(db.DB)
	resident := seededResident(t)

	input := baseInput(resident)
	input.Scene = "起床"
	input.SceneNote = " 起床後に水分摂取 "
	input.TempAM = floatPtr(36.8)
	input.TempPM = floatPtr(0) // 0 は未測定扱い
	input.BPSysAM = intPtr(120)
	input.PulseAM = intPtr(0)
	input.Note = "普段より食欲が落ちている"
	input.SpecialTags = []string{"食事低下", "家族連絡"}

	record, err := svc.Append(input, nil)
	if err != nil {
		t.Fatalf("Append returned error: %v", err)
	}

	if record.ID == 0 {
		t.Fatal("expected record to have ID")
	}
	if !record.WakeupFlag {
		t.Fatal("expected wakeup flag for 起床 scene")
	}
	if record.SceneNote != "起床後に水分摂取" {
		t.Fatalf("unexpected scene note: %q", record.SceneNote)
	}
	if record.TempAM == nil || *record.TempAM != 36.8 {
		t.Fatalf("unexpected temp_am: %v", record.TempAM)
	}
	if record.TempPM != nil {
		t.Fatalf("expected zero temp_pm to be stored as NULL, got %v", *record.TempPM)
	}
	if record.PulseAM != nil {
		t.Fatalf("expected zero pulse_am to be stored as NULL, got %v", *record.PulseAM)
	}
	if record.Note != "【特記事項タグ：食事低下、家族連絡】\n普段より食欲が落ちている" {
		t.Fatalf("unexpected note: %q", record.Note)
	}
	if record.ClientToken == "" {
		t.Fatal("expected generated client token")
	}
	if !record.CreatedAt.Equal(record.UpdatedAt) {
		t.Fatalf("created_at and updated_at must match at insert: %v != %v", record.CreatedAt, record.UpdatedAt)
	}

	// 未知の場面は既定値へ
	input = baseInput(resident)
	input.Scene = "宇宙"
	record, err = svc.Append(input, nil)
	if err != nil {
		t.Fatalf("Append returned error: %v", err)
	}
	if record.Scene != "ご様子" {
		t.Fatalf("expected fallback scene, got %q", record.Scene)
	}
}

func TestAppendTimeFallbackFromPatrols(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewRecordService(db.DB)
	resident := seededResident(t)

	input := baseInput(resident)
	input.TimeHH = nil
	input.TimeMM = nil

	patrols := []PatrolInput{
		{No: 2, TimeHH: intPtr(6), TimeMM: intPtr(0), Status: "起きている（静か）"},
		{No: 1, TimeHH: intPtr(22), TimeMM: intPtr(30), Status: "就寝中（静か）", SafetyChecks: []string{"室温OK", "危険物なし"}},
	}

	record, err := svc.Append(input, patrols)
	if err != nil {
		t.Fatalf("Append returned error: %v", err)
	}

	// 巡視番号の小さい方の時刻が主時刻になる
	if record.RecordTimeHH == nil || *record.RecordTimeHH != 22 {
		t.Fatalf("expected hour 22, got %v", record.RecordTimeHH)
	}
	if record.RecordTimeMM == nil || *record.RecordTimeMM != 30 {
		t.Fatalf("expected minute 30, got %v", record.RecordTimeMM)
	}

	stored, err := svc.Patrols(record.ID)
	if err != nil {
		t.Fatalf("Patrols returned error: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 patrols, got %d", len(stored))
	}
	if stored[0].PatrolNo != 1 || stored[1].PatrolNo != 2 {
		t.Fatalf("expected patrols ordered by number, got %d, %d", stored[0].PatrolNo, stored[1].PatrolNo)
	}
	if stored[0].SafetyChecks != "室温OK,危険物なし" {
		t.Fatalf("unexpected safety checks: %q", stored[0].SafetyChecks)
	}
}

func TestAppendAtomicity(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewRecordService(db.DB)
	resident := seededResident(t)

	// patrol_no=0 は CHECK 制約违反：親 record 挿入後に子の書き込みが失敗し、
	// トランザクション全体がロールバックされる
	input := baseInput(resident)
	patrols := []PatrolInput{
		{No: 1, TimeHH: intPtr(22), TimeMM: intPtr(0)},
		{No: 0, TimeHH: intPtr(23), TimeMM: intPtr(0)},
	}

	if _, err := svc.Append(input, patrols); err == nil {
		t.Fatal("expected append to fail on invalid patrol number")
	}

	var recordCount, patrolCount int64
	if err := db.DB.Model(&db.DailyRecord{}).Count(&recordCount).Error; err != nil {
		t.Fatalf("count records failed: %v", err)
	}
	if err := db.DB.Model(&db.Patrol{}).Count(&patrolCount).Error; err != nil {
		t.Fatalf("count patrols failed: %v", err)
	}
	if recordCount != 0 || patrolCount != 0 {
		t.Fatalf("expected full rollback, got %d records and %d patrols", recordCount, patrolCount)
	}
}

func TestAppendDuplicateClientToken(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewRecordService(db.DB)
	resident := seededResident(t)

	input := baseInput(resident)
	input.ClientToken = "station-1-save-42"

	if _, err := svc.Append(input, nil); err != nil {
		t.Fatalf("first append failed: %v", err)
	}
	if _, err := svc.Append(input, nil); !errors.Is(err, ErrDuplicateSubmission) {
		t.Fatalf("expected ErrDuplicateSubmission, got %v", err)
	}

	var count int64
	if err := db.DB.Model(&db.DailyRecord{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}
}

func TestFlagFlipsAreMonotonicAndWriteOnce(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewRecordService(db.DB)
	resident := seededResident(t)

	input := baseInput(resident)
	input.TempAM = floatPtr(36.5)
	input.MealBFDone = true
	input.MealBFScore = 7
	input.Note = "夜間に不穏"

	record, err := svc.Append(input, []PatrolInput{{No: 1, TimeHH: intPtr(23), TimeMM: intPtr(0)}})
	if err != nil {
		t.Fatalf("Append returned error: %v", err)
	}

	affected, err := svc.Confirm(record.ID)
	if err != nil || !affected {
		t.Fatalf("Confirm failed: affected=%v err=%v", affected, err)
	}
	affected, err = svc.SoftDelete(record.ID)
	if err != nil || !affected {
		t.Fatalf("SoftDelete failed: affected=%v err=%v", affected, err)
	}

	// 再実行は実質無操作（エラーにもならない）
	if _, err := svc.Confirm(record.ID); err != nil {
		t.Fatalf("repeat confirm failed: %v", err)
	}
	if _, err := svc.SoftDelete(record.ID); err != nil {
		t.Fatalf("repeat soft delete failed: %v", err)
	}

	var stored db.DailyRecord
	if err := db.DB.First(&stored, record.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	if !stored.IsConfirmed || !stored.IsDeleted {
		t.Fatalf("flags must stay true: confirmed=%v deleted=%v", stored.IsConfirmed, stored.IsDeleted)
	}

	// 臨床フィールドは書き込み時のまま
	if stored.TempAM == nil || *stored.TempAM != 36.5 {
		t.Fatalf("temp_am changed: %v", stored.TempAM)
	}
	if !stored.MealBFDone || stored.MealBFScore != 7 {
		t.Fatalf("meal fields changed: done=%v score=%d", stored.MealBFDone, stored.MealBFScore)
	}
	if stored.Note != "夜間に不穏" {
		t.Fatalf("note changed: %q", stored.Note)
	}
	if !stored.UpdatedAt.After(stored.CreatedAt) && !stored.UpdatedAt.Equal(stored.CreatedAt) {
		t.Fatalf("updated_at must not go backwards: %v < %v", stored.UpdatedAt, stored.CreatedAt)
	}

	// 存在しない ID は警告扱い（affected=false、エラーなし）
	affected, err = svc.SoftDelete(99999)
	if err != nil {
		t.Fatalf("missing id soft delete errored: %v", err)
	}
	if affected {
		t.Fatal("expected affected=false for missing id")
	}
	affected, err = svc.Confirm(99999)
	if err != nil {
		t.Fatalf("missing id confirm errored: %v", err)
	}
	if affected {
		t.Fatal("expected affected=false for missing id")
	}
}

func TestListDayOrdering(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewRecordService(db.DB)
	resident := seededResident(t)

	// 時刻なし行は旧データにのみ存在するため、直接挿入で再現する
	noTime := db.DailyRecord{
		UnitID:       resident.UnitID,
		ResidentID:   resident.ID,
		RecordDate:   "2024-05-01",
		Shift:        "夜勤",
		RecorderName: "旧データ",
		ClientToken:  "legacy-1",
	}
	if err := db.DB.Create(&noTime).Error; err != nil {
		t.Fatalf("insert legacy row failed: %v", err)
	}

	times := [][2]int{{8, 0}, {7, 30}, {8, 0}}
	for _, tm := range times {
		input := baseInput(resident)
		input.TimeHH = intPtr(tm[0])
		input.TimeMM = intPtr(tm[1])
		if _, err := svc.Append(input, nil); err != nil {
			t.Fatalf("Append returned error: %v", err)
		}
	}

	records, err := svc.ListDay(resident.ID, "2024-05-01")
	if err != nil {
		t.Fatalf("ListDay returned error: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}

	// 07:30 → 08:00（ID昇順で2件）→ 時刻なしの順
	if *records[0].RecordTimeHH != 7 || *records[0].RecordTimeMM != 30 {
		t.Fatalf("unexpected first row: %v:%v", *records[0].RecordTimeHH, *records[0].RecordTimeMM)
	}
	if *records[1].RecordTimeHH != 8 || *records[2].RecordTimeHH != 8 {
		t.Fatal("expected the two 08:00 rows in the middle")
	}
	if records[1].ID > records[2].ID {
		t.Fatalf("equal times must order by id: %d > %d", records[1].ID, records[2].ID)
	}
	if records[3].RecordTimeHH != nil {
		t.Fatal("expected the timeless row to sort last")
	}
}

func TestListRangeAndVitalSeries(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewRecordService(db.DB)
	resident := seededResident(t)

	days := []string{"2024-05-02", "2024-05-01", "2024-05-03"}
	for i, day := range days {
		input := baseInput(resident)
		input.RecordDate = day
		input.TimeHH = intPtr(9)
		input.TimeMM = intPtr(0)
		input.TempAM = floatPtr(36.0 + float64(i)*0.5)
		if _, err := svc.Append(input, []PatrolInput{{No: 1, TimeHH: intPtr(23), TimeMM: intPtr(0)}}); err != nil {
			t.Fatalf("Append returned error: %v", err)
		}
	}

	records, err := svc.ListRange(resident.ID, "2024-05-01", "2024-05-31")
	if err != nil {
		t.Fatalf("ListRange returned error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].RecordDate != "2024-05-01" || records[2].RecordDate != "2024-05-03" {
		t.Fatalf("expected date ascending order, got %s .. %s", records[0].RecordDate, records[2].RecordDate)
	}
	if records[0].PatrolCount != 1 {
		t.Fatalf("expected patrol count 1, got %d", records[0].PatrolCount)
	}

	points, err := svc.VitalSeries(resident.ID, "2024-05-01", "2024-05-02")
	if err != nil {
		t.Fatalf("VitalSeries returned error: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if points[0].RecordDate != "2024-05-01" {
		t.Fatalf("expected series in date order, got %s first", points[0].RecordDate)
	}
	if points[0].TempAM == nil || *points[0].TempAM != 36.5 {
		t.Fatalf("unexpected temp in series: %v", points[0].TempAM)
	}
}

func TestLatestVitals(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewRecordService(db.DB)
	resident := seededResident(t)

	latest, err := svc.LatestVitals(resident.ID)
	if err != nil {
		t.Fatalf("LatestVitals returned error: %v", err)
	}
	if latest != nil {
		t.Fatal("expected nil for resident without records")
	}

	input := baseInput(resident)
	input.RecordDate = "2024-05-01"
	input.TempAM = floatPtr(36.2)
	if _, err := svc.Append(input, nil); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}

	input = baseInput(resident)
	input.RecordDate = "2024-05-02"
	input.TempAM = floatPtr(37.1)
	if _, err := svc.Append(input, nil); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}

	latest, err = svc.LatestVitals(resident.ID)
	if err != nil {
		t.Fatalf("LatestVitals returned error: %v", err)
	}
	if latest == nil || latest.TempAM == nil || *latest.TempAM != 37.1 {
		t.Fatalf("expected latest day vitals, got %+v", latest)
	}
}
