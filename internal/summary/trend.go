package summary

import (
	"sort"
	"strconv"

	"github.com/samber/lo"

	"attendx/pkg/contracts/domain"
)

// BuildTrend folds text statistics into per-week per-label totals. Points are
// ordered by week (numerically) and then by the given label order. Every
// (week, label) pair is present, with zero totals where nothing was counted,
// so each label forms a complete series.
func BuildTrend(stats []domain.TextStatistic, labels []domain.Label) []domain.TrendPoint {
	if len(labels) == 0 {
		labels = domain.DefaultLabels
	}

	totals := make(map[string]map[domain.Label]int)
	for _, s := range stats {
		byLabel, ok := totals[s.Week]
		if !ok {
			byLabel = make(map[domain.Label]int)
			totals[s.Week] = byLabel
		}
		byLabel[s.Label] += s.Count
	}

	weeks := SortWeeks(lo.Keys(totals))
	points := make([]domain.TrendPoint, 0, len(weeks)*len(labels))
	for _, week := range weeks {
		for _, label := range labels {
			points = append(points, domain.TrendPoint{Week: week, Label: label, Total: totals[week][label]})
		}
	}
	return points
}

// SortWeeks returns the weeks ordered numerically. Non-numeric weeks follow
// the numeric ones in lexical order.
func SortWeeks(weeks []string) []string {
	sorted := lo.Uniq(weeks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return lessWeek(sorted[i], sorted[j])
	})
	return sorted
}

func lessWeek(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		if na != nb {
			return na < nb
		}
		return a < b
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
