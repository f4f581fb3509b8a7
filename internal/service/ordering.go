package service

import (
	"errors"
	"sort"

	"github.com/carelog/internal/db"
)

var (
	// ErrTimeUnresolved 当显式时刻与巡视时刻都无法给出完整的时/分时返回
	ErrTimeUnresolved = errors.New("event time could not be resolved")
	// ErrInvalidEventTime 当时/分超出 0-23 / 0-59 范围时返回
	ErrInvalidEventTime = errors.New("event time out of range")
)

// dayOrderSQL 是一天之内记录列表的展示排序：
// 无时刻的行排在有时刻的行之后，其余按时、分、插入 ID 升序。
// 月间列表在最外层再加 record_date 升序复用同一排序。
const dayOrderSQL = "(record_time_hh IS NULL) ASC, record_time_hh ASC, record_time_mm ASC, id ASC"

const rangeOrderSQL = "record_date ASC, " + dayOrderSQL

// ResolveEventTime 把输入解析为确定的事件时刻。
// 显式给出的时/分优先；否则回退到巡视条目里第一个（按 PatrolNo 升序）
// 同时带有时和分的时刻；两者都取不到时整次写入被拒绝。
func ResolveEventTime(hh, mm *int, patrols []PatrolInput) (int, int, error) {
	if hh != nil && mm != nil {
		if *hh < 0 || *hh > 23 || *mm < 0 || *mm > 59 {
			return 0, 0, ErrInvalidEventTime
		}
		return *hh, *mm, nil
	}

	sorted := make([]PatrolInput, len(patrols))
	copy(sorted, patrols)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].No < sorted[j].No
	})

	for _, p := range sorted {
		if p.TimeHH == nil || p.TimeMM == nil {
			continue
		}
		if *p.TimeHH < 0 || *p.TimeHH > 23 || *p.TimeMM < 0 || *p.TimeMM > 59 {
			return 0, 0, ErrInvalidEventTime
		}
		return *p.TimeHH, *p.TimeMM, nil
	}

	return 0, 0, ErrTimeUnresolved
}

// lastPatrol 返回“最后一次巡视”：按事件时刻排序（无时刻的排最后），
// 相同时刻取 ID 更大的条目；没有巡视时返回 nil。
func lastPatrol(patrols []db.Patrol) *db.Patrol {
	if len(patrols) == 0 {
		return nil
	}

	sorted := make([]db.Patrol, len(patrols))
	copy(sorted, patrols)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := sorted[i], sorted[j]
		iTimed := pi.TimeHH != nil && pi.TimeMM != nil
		jTimed := pj.TimeHH != nil && pj.TimeMM != nil
		if iTimed != jTimed {
			return iTimed
		}
		if iTimed && jTimed {
			if *pi.TimeHH != *pj.TimeHH {
				return *pi.TimeHH < *pj.TimeHH
			}
			if *pi.TimeMM != *pj.TimeMM {
				return *pi.TimeMM < *pj.TimeMM
			}
		}
		return pi.ID < pj.ID
	})

	return &sorted[len(sorted)-1]
}
