package db

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) (*gorm.DB, func()) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	return gdb, func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func TestMigrateSeedsDefaults(t *testing.T) {
	gdb, cleanup := openTestDB(t)
	defer cleanup()

	if err := Migrate(gdb); err != nil {
		t.Fatalf("Migrate returned error: %v", err)
	}

	var unitCount, residentCount int64
	if err := gdb.Model(&Unit{}).Count(&unitCount).Error; err != nil {
		t.Fatalf("count units failed: %v", err)
	}
	if err := gdb.Model(&Resident{}).Count(&residentCount).Error; err != nil {
		t.Fatalf("count residents failed: %v", err)
	}
	if unitCount != 2 {
		t.Fatalf("expected 2 seeded units, got %d", unitCount)
	}
	if residentCount != 6 {
		t.Fatalf("expected 6 seeded residents, got %d", residentCount)
	}

	// 種子は空のときだけ：再実行しても増えない
	if err := Migrate(gdb); err != nil {
		t.Fatalf("second Migrate returned error: %v", err)
	}
	if err := gdb.Model(&Unit{}).Count(&unitCount).Error; err != nil {
		t.Fatalf("count units failed: %v", err)
	}
	if err := gdb.Model(&Resident{}).Count(&residentCount).Error; err != nil {
		t.Fatalf("count residents failed: %v", err)
	}
	if unitCount != 2 || residentCount != 6 {
		t.Fatalf("migrate must be idempotent, got %d units and %d residents", unitCount, residentCount)
	}

	var units []Unit
	if err := gdb.Order("id").Find(&units).Error; err != nil {
		t.Fatalf("load units failed: %v", err)
	}
	if units[0].Name != "ユニットA" || units[1].Name != "ユニットB" {
		t.Fatalf("unexpected unit names: %q, %q", units[0].Name, units[1].Name)
	}

	var unitACount int64
	if err := gdb.Model(&Resident{}).Where("unit_id = ?", units[0].ID).Count(&unitACount).Error; err != nil {
		t.Fatalf("count unit A residents failed: %v", err)
	}
	if unitACount != 4 {
		t.Fatalf("expected 4 residents in unit A, got %d", unitACount)
	}
}

func TestMigrateAdditiveColumns(t *testing.T) {
	gdb, cleanup := openTestDB(t)
	defer cleanup()

	if err := Migrate(gdb); err != nil {
		t.Fatalf("Migrate returned error: %v", err)
	}

	migrator := gdb.Migrator()
	for _, col := range additiveColumns {
		if !migrator.HasColumn(col.model, col.field) {
			t.Fatalf("expected column %s to exist after migrate", col.field)
		}
	}
	if !migrator.HasColumn(&DailyRecord{}, "IsDeleted") {
		t.Fatal("expected is_deleted column")
	}
	if !migrator.HasColumn(&Patrol{}, "PatrolNo") {
		t.Fatal("expected patrol_no column")
	}
}
