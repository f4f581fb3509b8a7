package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DB 是一个全局的数据库连接实例
var DB *gorm.DB

// additiveColumn 描述一条只增不改的列迁移
// 列按声明顺序补齐，目标列已存在时跳过，可反复执行
type additiveColumn struct {
	model any
	field string
}

// 历史演进中后补的可选列：先上线的库里没有这些列，启动时逐条补齐
var additiveColumns = []additiveColumn{
	{&Resident{}, "Kubun"},
	{&Resident{}, "Disease"},

	{&DailyRecord{}, "TempAM"},
	{&DailyRecord{}, "BPSysAM"},
	{&DailyRecord{}, "BPDiaAM"},
	{&DailyRecord{}, "PulseAM"},
	{&DailyRecord{}, "SpO2AM"},
	{&DailyRecord{}, "TempPM"},
	{&DailyRecord{}, "BPSysPM"},
	{&DailyRecord{}, "BPDiaPM"},
	{&DailyRecord{}, "PulsePM"},
	{&DailyRecord{}, "SpO2PM"},

	{&DailyRecord{}, "SceneNote"},
	{&DailyRecord{}, "WakeupFlag"},
	{&DailyRecord{}, "ClientToken"},
}

// Init 初始化数据库连接并执行自动迁移与种子数据。
// databasePath 为空时将回退到默认值 carelog.db。
// 打开或迁移失败视为致命错误，调用方不应带着半初始化的库继续运行。
func Init(databasePath string) error {
	path := strings.TrimSpace(databasePath)
	if path == "" {
		path = "carelog.db"
	}

	if err := ensureParentDir(path); err != nil {
		return err
	}

	var err error
	DB, err = gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return err
	}

	return Migrate(DB)
}

// Migrate 为核心模型建表并补齐增量列，随后写入种子数据。
// 所有步骤幂等，可在每次启动时执行。
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&Unit{},
		&Resident{},
		&DailyRecord{},
		&Patrol{},
		&HandoverReaction{},
	); err != nil {
		return err
	}

	migrator := gdb.Migrator()
	for _, col := range additiveColumns {
		if migrator.HasColumn(col.model, col.field) {
			continue
		}
		if err := migrator.AddColumn(col.model, col.field); err != nil {
			return fmt.Errorf("add column %s: %w", col.field, err)
		}
	}

	return seedDefaults(gdb)
}

// seedDefaults 在对应表为空时写入默认的两个单元和六位入住者
func seedDefaults(gdb *gorm.DB) error {
	var unitCount int64
	if err := gdb.Model(&Unit{}).Count(&unitCount).Error; err != nil {
		return err
	}
	if unitCount == 0 {
		units := []Unit{{Name: "ユニットA"}, {Name: "ユニットB"}}
		if err := gdb.Create(&units).Error; err != nil {
			return fmt.Errorf("seed units: %w", err)
		}
	}

	var residentCount int64
	if err := gdb.Model(&Resident{}).Count(&residentCount).Error; err != nil {
		return err
	}
	if residentCount > 0 {
		return nil
	}

	var units []Unit
	if err := gdb.Order("id").Find(&units).Error; err != nil {
		return err
	}
	if len(units) == 0 {
		return errors.New("seed residents: no units available")
	}

	unitA := units[0].ID
	unitB := unitA
	if len(units) > 1 {
		unitB = units[1].ID
	}

	residents := []Resident{
		{UnitID: unitA, Name: "佐藤 太郎"},
		{UnitID: unitA, Name: "鈴木 花子"},
		{UnitID: unitA, Name: "田中 次郎"},
		{UnitID: unitA, Name: "山田 恒一"},
		{UnitID: unitB, Name: "高橋 美咲"},
		{UnitID: unitB, Name: "伊藤 恒一"},
	}
	if err := gdb.Create(&residents).Error; err != nil {
		return fmt.Errorf("seed residents: %w", err)
	}

	return nil
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
