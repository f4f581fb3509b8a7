package handler

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/carelog/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	noteMarkdown = goldmark.New(
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
	noteSanitizer = bluemonday.UGCPolicy()
)

// renderNoteHTML 把特記事項按 Markdown 渲染成可嵌入的 HTML 片段。
// 记录本体始终保留原文；渲染只发生在展示侧，输出经过白名单过滤。
func renderNoteHTML(note string) string {
	if note == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := noteMarkdown.Convert([]byte(note), &buf); err != nil {
		return ""
	}
	return noteSanitizer.Sanitize(buf.String())
}

// ListHandovers 返回单元某日的申し送り一览。
// 每条携带渲染单行文本所需的全部字段；拼接成可复制文本是前端的事。
func (a *API) ListHandovers(c *gin.Context) {
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

	items, err := a.handovers.List(unitID, date)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "申し送りの取得に失敗しました")
		return
	}

	payload := make([]gin.H, 0, len(items))
	for _, item := range items {
		payload = append(payload, gin.H{
			"record_id":     item.RecordID,
			"resident_id":   item.ResidentID,
			"resident_name": item.ResidentName,
			"time":          fmtEventTime(item.TimeHH, item.TimeMM),
			"scene":         item.Scene,
			"scene_note":    item.SceneNote,
			"recorder_name": item.RecorderName,
			"note":          item.Note,
			"note_head":     item.NoteHead,
			"note_html":     renderNoteHTML(item.Note),
			"is_confirmed":  item.IsConfirmed,
			"created_at":    item.CreatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{"handovers": payload})
}

// ConfirmHandover 确认一条申し送り（委托台账的标记翻转）
func (a *API) ConfirmHandover(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "記録IDが正しくありません")
		return
	}

	affected, err := a.handovers.Confirm(id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "確認の登録に失敗しました")
		return
	}

	c.JSON(http.StatusOK, gin.H{"confirmed": affected})
}

// ToggleHandoverReaction 切换当前记录者对申し送りの反应（👍 等）
func (a *API) ToggleHandoverReaction(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "記録IDが正しくありません")
		return
	}

	var payload struct {
		ReactionType string `json:"reaction_type"`
		UserName     string `json:"user_name"`
	}
	if !bindJSON(c, &payload, "リクエストの形式が正しくありません") {
		return
	}
	if payload.UserName == "" {
		payload.UserName = sessionRecorderName(c)
	}

	active, err := a.handovers.ToggleReaction(id, payload.UserName, payload.ReactionType)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecorderRequired):
			respondError(c, http.StatusBadRequest, "記録者名を入力するとリアクションを残せます")
		case errors.Is(err, service.ErrUnknownReaction):
			respondError(c, http.StatusBadRequest, "リアクションの種類が正しくありません")
		default:
			respondError(c, http.StatusInternalServerError, "リアクションの登録に失敗しました")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"active": active})
}

// ListHandoverReactions 返回申し送りの反应履历（誰がいつ）
func (a *API) ListHandoverReactions(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "記録IDが正しくありません")
		return
	}

	reactions, err := a.handovers.Reactions(id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "リアクション履歴の取得に失敗しました")
		return
	}

	items := make([]gin.H, 0, len(reactions))
	for _, r := range reactions {
		items = append(items, gin.H{
			"user_name":     r.UserName,
			"reaction_type": r.ReactionType,
			"created_at":    r.CreatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{"reactions": items})
}
