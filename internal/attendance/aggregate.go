// Package attendance turns a weekly timetable and its attendance history into
// per-subject percentages.
package attendance

import (
	"sort"

	"github.com/example/campus-planner/internal/domain"
)

// SubjectSummary is the weighted attendance of every academic slot sharing a title.
type SubjectSummary struct {
	SubjectTitle  string
	Percentage    int
	PresentWeight int
	CountedWeight int
	SlotIDs       []string
}

// Aggregate groups academic slots by title and weighs each record by its slot's
// attendance weight. Cancelled records count towards neither side of the ratio.
// Records whose slot is missing or not academic are skipped. The result is
// sorted by title and does not depend on the order of either input.
func Aggregate(slots []domain.Slot, history []domain.AttendanceRecord) []SubjectSummary {
	bySlot := make(map[string]domain.Slot, len(slots))
	subjects := make(map[string]*SubjectSummary)

	for _, slot := range slots {
		if slot.Kind != domain.SlotKindAcademic {
			continue
		}
		bySlot[slot.ID] = slot
		summary, ok := subjects[slot.Title]
		if !ok {
			summary = &SubjectSummary{SubjectTitle: slot.Title}
			subjects[slot.Title] = summary
		}
		summary.SlotIDs = append(summary.SlotIDs, slot.ID)
	}

	for _, record := range history {
		slot, ok := bySlot[record.SlotID]
		if !ok {
			continue
		}
		summary := subjects[slot.Title]
		weight := slot.Weight()
		switch record.Status {
		case domain.AttendancePresent:
			summary.PresentWeight += weight
			summary.CountedWeight += weight
		case domain.AttendanceAbsent:
			summary.CountedWeight += weight
		}
	}

	out := make([]SubjectSummary, 0, len(subjects))
	for _, summary := range subjects {
		summary.Percentage = Percentage(summary.PresentWeight, summary.CountedWeight)
		sort.Strings(summary.SlotIDs)
		out = append(out, *summary)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SubjectTitle < out[j].SubjectTitle
	})
	return out
}

// Percentage rounds present/counted×100 half up and clamps the result to [0, 100].
func Percentage(present, counted int) int {
	if counted <= 0 || present <= 0 {
		return 0
	}
	if present >= counted {
		return 100
	}
	return (present*200 + counted) / (2 * counted)
}
