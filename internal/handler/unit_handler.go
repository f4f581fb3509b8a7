package handler

import (
	"errors"
	"net/http"

	"github.com/carelog/internal/service"
	"github.com/gin-gonic/gin"
)

// ListUnits 返回启用中的单元
func (a *API) ListUnits(c *gin.Context) {
	units, err := a.units.ListActive()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ユニット一覧の取得に失敗しました")
		return
	}

	items := make([]gin.H, 0, len(units))
	for _, unit := range units {
		items = append(items, gin.H{"id": unit.ID, "name": unit.Name})
	}

	c.JSON(http.StatusOK, gin.H{"units": items})
}

// ListUnitResidents 返回单元内启用中的入住者
func (a *API) ListUnitResidents(c *gin.Context) {
	unitID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "ユニットIDが正しくありません")
		return
	}

	residents, err := a.residents.ListByUnit(unitID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "利用者一覧の取得に失敗しました")
		return
	}

	items := make([]gin.H, 0, len(residents))
	for _, resident := range residents {
		items = append(items, gin.H{
			"id":      resident.ID,
			"unit_id": resident.UnitID,
			"name":    resident.Name,
			"kubun":   resident.Kubun,
			"disease": resident.Disease,
		})
	}

	c.JSON(http.StatusOK, gin.H{"residents": items})
}

// CreateResident 登记入住者
func (a *API) CreateResident(c *gin.Context) {
	var payload struct {
		UnitID  uint   `json:"unit_id"`
		Name    string `json:"name"`
		Kubun   string `json:"kubun"`
		Disease string `json:"disease"`
	}
	if !bindJSON(c, &payload, "リクエストの形式が正しくありません") {
		return
	}

	resident, err := a.residents.Create(service.ResidentInput{
		UnitID:  payload.UnitID,
		Name:    payload.Name,
		Kubun:   payload.Kubun,
		Disease: payload.Disease,
	})
	if err != nil {
		if errors.Is(err, service.ErrUnitNotFound) {
			respondError(c, http.StatusNotFound, "ユニットが見つかりません")
			return
		}
		respondError(c, http.StatusBadRequest, "利用者の登録に失敗しました")
		return
	}

	c.JSON(http.StatusOK, gin.H{"resident": gin.H{
		"id":      resident.ID,
		"unit_id": resident.UnitID,
		"name":    resident.Name,
		"kubun":   resident.Kubun,
		"disease": resident.Disease,
	}})
}

// DeactivateResident 软停用入住者（历史记录保留）
func (a *API) DeactivateResident(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "利用者IDが正しくありません")
		return
	}

	affected, err := a.residents.Deactivate(id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "利用者の停止に失敗しました")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deactivated": affected})
}
