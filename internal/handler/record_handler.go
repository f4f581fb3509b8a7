package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/carelog/internal/db"
	"github.com/carelog/internal/service"
	"github.com/gin-gonic/gin"
)

const dateFormat = "2006-01-02"

type patrolPayload struct {
	No           int      `json:"no"`
	TimeHH       *int     `json:"time_hh"`
	TimeMM       *int     `json:"time_mm"`
	Status       string   `json:"status"`
	Memo         string   `json:"memo"`
	Intervened   bool     `json:"intervened"`
	DoorOpened   bool     `json:"door_opened"`
	SafetyChecks []string `json:"safety_checks"`
}

type recordPayload struct {
	UnitID     uint   `json:"unit_id"`
	ResidentID uint   `json:"resident_id"`
	RecordDate string `json:"record_date"`

	TimeHH *int `json:"time_hh"`
	TimeMM *int `json:"time_mm"`

	Shift        string `json:"shift"`
	RecorderName string `json:"recorder_name"`
	Scene        string `json:"scene"`
	SceneNote    string `json:"scene_note"`

	TempAM  *float64 `json:"temp_am"`
	BPSysAM *int     `json:"bp_sys_am"`
	BPDiaAM *int     `json:"bp_dia_am"`
	PulseAM *int     `json:"pulse_am"`
	SpO2AM  *int     `json:"spo2_am"`

	TempPM  *float64 `json:"temp_pm"`
	BPSysPM *int     `json:"bp_sys_pm"`
	BPDiaPM *int     `json:"bp_dia_pm"`
	PulsePM *int     `json:"pulse_pm"`
	SpO2PM  *int     `json:"spo2_pm"`

	MealBFDone  bool `json:"meal_bf_done"`
	MealBFScore int  `json:"meal_bf_score"`
	MealLUDone  bool `json:"meal_lu_done"`
	MealLUScore int  `json:"meal_lu_score"`
	MealDIDone  bool `json:"meal_di_done"`
	MealDIScore int  `json:"meal_di_score"`

	MedMorning bool `json:"med_morning"`
	MedNoon    bool `json:"med_noon"`
	MedEvening bool `json:"med_evening"`
	MedBed     bool `json:"med_bed"`

	Note        string   `json:"note"`
	SpecialTags []string `json:"special_tags"`

	IsReport    bool   `json:"is_report"`
	ClientToken string `json:"client_token"`

	Patrols []patrolPayload `json:"patrols"`
}

// CreateRecord 追加一条支援记录。
// 记录者名缺省时回退到会话里保存的名字；保存成功后推进会话的表单 epoch，
// 客户端以 epoch 为命名空间丢弃全部暂存输入。
func (a *API) CreateRecord(c *gin.Context) {
	var payload recordPayload
	if !bindJSON(c, &payload, "リクエストの形式が正しくありません") {
		return
	}

	if strings.TrimSpace(payload.RecorderName) == "" {
		payload.RecorderName = sessionRecorderName(c)
	}

	input := service.RecordInput{
		UnitID:     payload.UnitID,
		ResidentID: payload.ResidentID,
		RecordDate: payload.RecordDate,

		TimeHH: payload.TimeHH,
		TimeMM: payload.TimeMM,

		Shift:        payload.Shift,
		RecorderName: payload.RecorderName,
		Scene:        payload.Scene,
		SceneNote:    payload.SceneNote,

		TempAM:  payload.TempAM,
		BPSysAM: payload.BPSysAM,
		BPDiaAM: payload.BPDiaAM,
		PulseAM: payload.PulseAM,
		SpO2AM:  payload.SpO2AM,

		TempPM:  payload.TempPM,
		BPSysPM: payload.BPSysPM,
		BPDiaPM: payload.BPDiaPM,
		PulsePM: payload.PulsePM,
		SpO2PM:  payload.SpO2PM,

		MealBFDone:  payload.MealBFDone,
		MealBFScore: payload.MealBFScore,
		MealLUDone:  payload.MealLUDone,
		MealLUScore: payload.MealLUScore,
		MealDIDone:  payload.MealDIDone,
		MealDIScore: payload.MealDIScore,

		MedMorning: payload.MedMorning,
		MedNoon:    payload.MedNoon,
		MedEvening: payload.MedEvening,
		MedBed:     payload.MedBed,

		Note:        payload.Note,
		SpecialTags: payload.SpecialTags,

		IsReport:    payload.IsReport,
		ClientToken: payload.ClientToken,
	}

	patrols := make([]service.PatrolInput, 0, len(payload.Patrols))
	for _, p := range payload.Patrols {
		patrols = append(patrols, service.PatrolInput{
			No:           p.No,
			TimeHH:       p.TimeHH,
			TimeMM:       p.TimeMM,
			Status:       p.Status,
			Memo:         p.Memo,
			Intervened:   p.Intervened,
			DoorOpened:   p.DoorOpened,
			SafetyChecks: p.SafetyChecks,
		})
	}

	record, err := a.records.Append(input, patrols)
	if err != nil {
		handleRecordError(c, err)
		return
	}

	epoch := bumpSessionEpoch(c)
	c.JSON(http.StatusOK, gin.H{
		"record": recordToPayload(*record, int64(len(patrols))),
		"epoch":  epoch,
	})
}

// ListRecords 返回入住者某日的记录一览（监查向的完全时系列）
func (a *API) ListRecords(c *gin.Context) {
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

	records, err := a.records.ListDay(residentID, date)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "記録一覧の取得に失敗しました")
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": serializeRecordSummaries(records)})
}

// ListRecordRange 返回入住者在日期区间内的记录（月间帳票/CSV出力用）
func (a *API) ListRecordRange(c *gin.Context) {
	residentID, err := parseUintQuery(c, "resident_id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "利用者IDが正しくありません")
		return
	}
	start, end, ok := parseRangeQuery(c)
	if !ok {
		return
	}

	records, err := a.records.ListRange(residentID, start, end)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "記録一覧の取得に失敗しました")
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": serializeRecordSummaries(records)})
}

// GetVitalSeries 返回バイタル推移（グラフ用）
func (a *API) GetVitalSeries(c *gin.Context) {
	residentID, err := parseUintQuery(c, "resident_id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "利用者IDが正しくありません")
		return
	}
	start, end, ok := parseRangeQuery(c)
	if !ok {
		return
	}

	points, err := a.records.VitalSeries(residentID, start, end)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "バイタル推移の取得に失敗しました")
		return
	}

	items := make([]gin.H, 0, len(points))
	for _, p := range points {
		items = append(items, gin.H{
			"record_id":   p.RecordID,
			"record_date": p.RecordDate,
			"time":        fmtEventTime(p.TimeHH, p.TimeMM),
			"temp_am":     p.TempAM,
			"bp_sys_am":   p.BPSysAM,
			"bp_dia_am":   p.BPDiaAM,
			"pulse_am":    p.PulseAM,
			"spo2_am":     p.SpO2AM,
			"temp_pm":     p.TempPM,
			"bp_sys_pm":   p.BPSysPM,
			"bp_dia_pm":   p.BPDiaPM,
			"pulse_pm":    p.PulsePM,
			"spo2_pm":     p.SpO2PM,
		})
	}

	c.JSON(http.StatusOK, gin.H{"points": items})
}

// GetLatestVitals 返回最近一条记录的バイタル（录入画面预填用）
func (a *API) GetLatestVitals(c *gin.Context) {
	residentID, err := parseUintQuery(c, "resident_id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "利用者IDが正しくありません")
		return
	}

	record, err := a.records.LatestVitals(residentID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "直近バイタルの取得に失敗しました")
		return
	}
	if record == nil {
		c.JSON(http.StatusOK, gin.H{"vitals": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"vitals": gin.H{
		"temp_am":   record.TempAM,
		"bp_sys_am": record.BPSysAM,
		"bp_dia_am": record.BPDiaAM,
		"pulse_am":  record.PulseAM,
		"spo2_am":   record.SpO2AM,
		"temp_pm":   record.TempPM,
		"bp_sys_pm": record.BPSysPM,
		"bp_dia_pm": record.BPDiaPM,
		"pulse_pm":  record.PulsePM,
		"spo2_pm":   record.SpO2PM,
	}})
}

// GetRecordPatrols 返回一条记录的巡视明细
func (a *API) GetRecordPatrols(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "記録IDが正しくありません")
		return
	}

	patrols, err := a.records.Patrols(id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "巡視記録の取得に失敗しました")
		return
	}

	items := make([]gin.H, 0, len(patrols))
	for _, p := range patrols {
		items = append(items, gin.H{
			"no":            p.PatrolNo,
			"time":          fmtEventTime(p.TimeHH, p.TimeMM),
			"status":        p.Status,
			"memo":          p.Memo,
			"intervened":    p.Intervened,
			"door_opened":   p.DoorOpened,
			"safety_checks": splitSafetyChecks(p.SafetyChecks),
		})
	}

	c.JSON(http.StatusOK, gin.H{"patrols": items})
}

// DeleteRecord 软删除一条记录（论理削除，行本体保留）
func (a *API) DeleteRecord(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "記録IDが正しくありません")
		return
	}

	affected, err := a.records.SoftDelete(id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "削除に失敗しました")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": affected})
}

// ConfirmRecord 确认一条记录（申し送り用标记，重复确认是空操作）
func (a *API) ConfirmRecord(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "記録IDが正しくありません")
		return
	}

	affected, err := a.records.Confirm(id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "確認の登録に失敗しました")
		return
	}

	c.JSON(http.StatusOK, gin.H{"confirmed": affected})
}

func parseRangeQuery(c *gin.Context) (string, string, bool) {
	start := c.Query("start")
	end := c.Query("end")
	if _, err := time.Parse(dateFormat, start); err != nil {
		respondError(c, http.StatusBadRequest, "開始日が正しくありません")
		return "", "", false
	}
	if _, err := time.Parse(dateFormat, end); err != nil {
		respondError(c, http.StatusBadRequest, "終了日が正しくありません")
		return "", "", false
	}
	return start, end, true
}

func serializeRecordSummaries(records []service.RecordSummary) []gin.H {
	items := make([]gin.H, 0, len(records))
	for _, r := range records {
		items = append(items, recordToPayload(r.DailyRecord, r.PatrolCount))
	}
	return items
}

func recordToPayload(r db.DailyRecord, patrolCount int64) gin.H {
	return gin.H{
		"id":          r.ID,
		"unit_id":     r.UnitID,
		"resident_id": r.ResidentID,
		"record_date": r.RecordDate,
		"time":        fmtEventTime(r.RecordTimeHH, r.RecordTimeMM),
		"time_hh":     r.RecordTimeHH,
		"time_mm":     r.RecordTimeMM,

		"shift":         r.Shift,
		"recorder_name": r.RecorderName,
		"scene":         r.Scene,
		"scene_note":    r.SceneNote,
		"wakeup_flag":   r.WakeupFlag,

		"temp_am":   r.TempAM,
		"bp_sys_am": r.BPSysAM,
		"bp_dia_am": r.BPDiaAM,
		"pulse_am":  r.PulseAM,
		"spo2_am":   r.SpO2AM,

		"temp_pm":   r.TempPM,
		"bp_sys_pm": r.BPSysPM,
		"bp_dia_pm": r.BPDiaPM,
		"pulse_pm":  r.PulsePM,
		"spo2_pm":   r.SpO2PM,

		"meal_bf_done":  r.MealBFDone,
		"meal_bf_score": r.MealBFScore,
		"meal_lu_done":  r.MealLUDone,
		"meal_lu_score": r.MealLUScore,
		"meal_di_done":  r.MealDIDone,
		"meal_di_score": r.MealDIScore,

		"med_morning": r.MedMorning,
		"med_noon":    r.MedNoon,
		"med_evening": r.MedEvening,
		"med_bed":     r.MedBed,

		"note":         r.Note,
		"is_report":    r.IsReport,
		"is_confirmed": r.IsConfirmed,

		"patrol_count": patrolCount,
		"created_at":   r.CreatedAt.Format(time.RFC3339),
		"updated_at":   r.UpdatedAt.Format(time.RFC3339),
	}
}

func splitSafetyChecks(joined string) []string {
	if joined == "" {
		return []string{}
	}
	parts := strings.Split(joined, ",")
	labels := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			labels = append(labels, trimmed)
		}
	}
	return labels
}

func handleRecordError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRecorderRequired):
		respondError(c, http.StatusBadRequest, "記録者名（必須）を入力してください")
	case errors.Is(err, service.ErrInvalidDate):
		respondError(c, http.StatusBadRequest, "日付が正しくありません")
	case errors.Is(err, service.ErrTimeUnresolved):
		respondError(c, http.StatusBadRequest, "時刻（時・分）を選択してください")
	case errors.Is(err, service.ErrInvalidEventTime):
		respondError(c, http.StatusBadRequest, "時刻の値が範囲外です")
	case errors.Is(err, service.ErrInvalidMealScore):
		respondError(c, http.StatusBadRequest, "食事量は1〜10で入力してください")
	case errors.Is(err, service.ErrResidentNotFound):
		respondError(c, http.StatusNotFound, "利用者が見つかりません")
	case errors.Is(err, service.ErrUnitMismatch):
		respondError(c, http.StatusBadRequest, "利用者と所属ユニットが一致しません")
	case errors.Is(err, service.ErrDuplicateSubmission):
		respondError(c, http.StatusConflict, "同じ記録がすでに保存されています")
	default:
		respondError(c, http.StatusInternalServerError, "記録の保存に失敗しました")
	}
}
