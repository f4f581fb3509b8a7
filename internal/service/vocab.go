package service

import "slices"

// 记录画面使用的固定词表，来自运营方的纸质记录样式。
// 词表只在服务端维护，前端通过 /api/session 级联取得。

// Scenes 场面标签；空串表示“未選択”
var Scenes = []string{
	"", "起床", "ご様子", "食事", "入浴", "就寝前",
	"外出", "通所", "服薬", "対人", "金銭", "その他",
}

// defaultScene 未知场面落库前的回退值
const defaultScene = "ご様子"

// sceneWakeup 该场面会同时置起床标记
const sceneWakeup = "起床"

// PatrolStatuses 巡视状况的候选
var PatrolStatuses = []string{
	"", "就寝中（静か）", "起きている（静か）", "起きている（落ち着かない）", "不穏", "不在",
}

// SafetyCheckLabels 巡视安全检查标签
var SafetyCheckLabels = []string{"室温OK", "体調変化なし", "危険物なし", "転倒リスクなし"}

// SpecialTags 特記事項的分类标签
var SpecialTags = []string{
	"不穏", "発熱", "転倒・ヒヤリハット", "食事低下", "服薬関連",
	"対人", "金銭", "外出/外泊", "医療連携", "家族連絡", "その他",
}

func isKnownScene(scene string) bool {
	return slices.Contains(Scenes, scene)
}
