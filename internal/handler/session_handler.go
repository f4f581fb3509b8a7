package handler

import (
	"net/http"
	"strings"

	"github.com/carelog/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// 会话里只放两样东西：记录者名（各端点的缺省署名）和表单 epoch。
// epoch 是单调递增的计数器，每次保存成功加一；客户端把输入控件的
// 标识挂在当前 epoch 下，epoch 前进即等价于丢弃全部暂存输入。
const (
	sessionRecorderKey = "recorder_name"
	sessionEpochKey    = "form_epoch"
)

func sessionRecorderName(c *gin.Context) string {
	session := sessions.Default(c)
	if name, ok := session.Get(sessionRecorderKey).(string); ok {
		return name
	}
	return ""
}

func sessionEpoch(c *gin.Context) int {
	session := sessions.Default(c)
	if epoch, ok := session.Get(sessionEpochKey).(int); ok {
		return epoch
	}
	return 0
}

func bumpSessionEpoch(c *gin.Context) int {
	session := sessions.Default(c)
	epoch := sessionEpoch(c) + 1
	session.Set(sessionEpochKey, epoch)
	_ = session.Save()
	return epoch
}

// GetSession 返回当前会话状态与录入画面用的固定词表
func (a *API) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"recorder_name": sessionRecorderName(c),
		"epoch":         sessionEpoch(c),
		"vocab": gin.H{
			"scenes":          service.Scenes,
			"patrol_statuses": service.PatrolStatuses,
			"safety_checks":   service.SafetyCheckLabels,
			"special_tags":    service.SpecialTags,
			"shifts":          []string{"日勤", "夜勤"},
		},
	})
}

// UpdateSession 保存记录者名（申し送りの表示名にも使う）
func (a *API) UpdateSession(c *gin.Context) {
	var payload struct {
		RecorderName string `json:"recorder_name"`
	}
	if !bindJSON(c, &payload, "リクエストの形式が正しくありません") {
		return
	}

	name := strings.TrimSpace(payload.RecorderName)
	session := sessions.Default(c)
	session.Set(sessionRecorderKey, name)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "セッションの保存に失敗しました")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recorder_name": name,
		"epoch":         sessionEpoch(c),
	})
}
