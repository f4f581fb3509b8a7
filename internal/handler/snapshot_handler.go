package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GetSnapshot 返回入住者某日的当前状态（按需从台账推导，无缓存）。
// 当日没有记录时 snapshot 为 null，由前端降级为占位展示。
func (a *API) GetSnapshot(c *gin.Context) {
	residentID, err := parseUintQuery(c, "resident_id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "利用者IDが正しくありません")
		return
	}
	date := c.Query("date")
	if _, err := time.Parse(dateFormat, date); err != nil {
		respondError(c, http.StatusBadRequest, "日付が正しくありません")
		return
	}

	snap, err := a.snapshots.Snapshot(residentID, date)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "サマリーの取得に失敗しました")
		return
	}
	if snap == nil {
		c.JSON(http.StatusOK, gin.H{"snapshot": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"snapshot": gin.H{
		"resident_id": snap.ResidentID,
		"date":        snap.Date,

		"temp_am":   snap.TempAM,
		"bp_sys_am": snap.BPSysAM,
		"bp_dia_am": snap.BPDiaAM,
		"pulse_am":  snap.PulseAM,
		"spo2_am":   snap.SpO2AM,

		"temp_pm":   snap.TempPM,
		"bp_sys_pm": snap.BPSysPM,
		"bp_dia_pm": snap.BPDiaPM,
		"pulse_pm":  snap.PulsePM,
		"spo2_pm":   snap.SpO2PM,

		"meal_bf": snap.MealBF,
		"meal_lu": snap.MealLU,
		"meal_di": snap.MealDI,

		"med_morning": snap.MedMorning,
		"med_noon":    snap.MedNoon,
		"med_evening": snap.MedEvening,
		"med_bed":     snap.MedBed,

		"record_count": snap.RecordCount,
		"patrol_count": snap.PatrolCount,

		"last_patrol_time":   fmtEventTime(snap.LastPatrolHH, snap.LastPatrolMM),
		"last_patrol_status": snap.LastPatrolStatus,
	}})
}

// GetUnitBoard 返回单元首页的利用者卡片一览
func (a *API) GetUnitBoard(c *gin.Context) {
	unitID, err := parseUintQuery(c, "unit_id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "ユニットIDが正しくありません")
		return
	}
	date := c.Query("date")
	if _, err := time.Parse(dateFormat, date); err != nil {
		respondError(c, http.StatusBadRequest, "日付が正しくありません")
		return
	}

	cards, err := a.snapshots.UnitBoard(unitID, date)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "一覧の取得に失敗しました")
		return
	}

	items := make([]gin.H, 0, len(cards))
	for _, card := range cards {
		item := gin.H{
			"resident_id":   card.ResidentID,
			"name":          card.Name,
			"kubun":         card.Kubun,
			"disease":       card.Disease,
			"has_record":    card.HasRecord,
			"temp_am":       card.TempAM,
			"temp_pm":       card.TempPM,
			"meal_bf_done":  card.MealBFDone,
			"meal_bf_score": card.MealBFScore,
			"meal_lu_done":  card.MealLUDone,
			"meal_lu_score": card.MealLUScore,
			"meal_di_done":  card.MealDIDone,
			"meal_di_score": card.MealDIScore,
			"patrol_count":  card.PatrolCount,
		}
		if card.UpdatedAt != nil {
			item["updated_at"] = card.UpdatedAt.Format(time.RFC3339)
		}
		items = append(items, item)
	}

	c.JSON(http.StatusOK, gin.H{"cards": items})
}
