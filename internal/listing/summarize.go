package listing

import (
	"slices"
	"strconv"
	"strings"

	"festdir/internal/model"
)

// SummarizeInstances orders instances for display: those with a known start
// day first, ascending by that day, then the rest by year. The input slice is
// left untouched.
//
// Dateless instances compare their years as strings, not numbers. The two
// agree while every year has four digits.
func SummarizeInstances(instances []model.ExpandedInstance) []model.ExpandedInstance {
	dated := make([]model.ExpandedInstance, 0, len(instances))
	undated := make([]model.ExpandedInstance, 0)

	for _, inst := range instances {
		if inst.Start != nil {
			dated = append(dated, inst)
		} else {
			undated = append(undated, inst)
		}
	}

	slices.SortStableFunc(dated, func(a, b model.ExpandedInstance) int {
		return a.Start.Compare(*b.Start)
	})
	slices.SortStableFunc(undated, func(a, b model.ExpandedInstance) int {
		return strings.Compare(strconv.Itoa(a.Year), strconv.Itoa(b.Year))
	})

	return append(dated, undated...)
}
