package main

import (
	"fmt"
	"regexp"
	"slices"
)

// Subgroup columns are named "КН-1", "КН-2" or "ЕК/1з": group label plus a
// /N or -N suffix, occasionally with a trailing marker letter.
var subgroupSuffix = regexp.MustCompile(`[/-]\d+\D?$`)

func groupNameOf(subgroup string) string {
	return subgroupSuffix.ReplaceAllString(subgroup, "")
}

// resolveGroups folds subgroup columns into their groups, keeping first-seen
// order of the groups and of the columns inside each group. A column without
// a subgroup suffix forms its own group.
func resolveGroups(columns []string) ([]string, map[string][]string) {
	var order []string
	subgroups := map[string][]string{}
	for _, column := range columns {
		group := groupNameOf(column)
		if _, ok := subgroups[group]; !ok {
			order = append(order, group)
		}
		subgroups[group] = append(subgroups[group], column)
	}
	return order, subgroups
}

func allSame(values []string) bool {
	for _, v := range values {
		if v != values[0] {
			return false
		}
	}
	return true
}

func allEmpty(values []string) bool {
	for _, v := range values {
		if v != "" {
			return false
		}
	}
	return true
}

func fillGroups(sub *SubEvent, label string) {
	if len(sub.Groups) == 0 {
		sub.Groups = []string{label}
	}
}

// parseStack parses one sub-event per subgroup column, leaving nil where the
// column carries nothing. Sub-events without their own group list inherit the
// column they came from.
func parseStack(columns, values []string) ([]*SubEvent, error) {
	stack := make([]*SubEvent, len(values))
	for i, value := range values {
		if value == "" {
			continue
		}
		sub, err := parseEvent(value)
		if err != nil {
			return nil, err
		}
		fillGroups(sub, columns[i])
		stack[i] = sub
	}
	return stack, nil
}

// reconcileSide shapes one week-half of a horizontally split slot. All columns
// carrying the same text collapse to a single spanning sub-event; an entirely
// free side is nil.
func reconcileSide(entity string, columns, values []string) (*EventSide, error) {
	if allEmpty(values) {
		return nil, nil
	}
	if allSame(values) {
		sub, err := parseEvent(values[0])
		if err != nil {
			return nil, err
		}
		fillGroups(sub, entity)
		return &EventSide{SpansAllSubcolumns: true, Events: []*SubEvent{sub}}, nil
	}
	stack, err := parseStack(columns, values)
	if err != nil {
		return nil, err
	}
	return &EventSide{Events: stack}, nil
}

// reconcileSlot merges the odd- and even-week value vectors of one (day, slot)
// coordinate into a single event. Equality is plain textual equality of the
// trimmed cell texts, with absent cells equal to each other. Returns nil when
// both weeks are free everywhere, so the caller drops the slot.
func reconcileSlot(entity string, columns, odd, even []string) (*Event, error) {
	if allEmpty(odd) && allEmpty(even) {
		return nil, nil
	}

	if slices.Equal(odd, even) {
		if allSame(odd) {
			sub, err := parseEvent(odd[0])
			if err != nil {
				return nil, err
			}
			fillGroups(sub, entity)
			return &Event{SpansBothWeeks: true, Simple: sub}, nil
		}
		stack, err := parseStack(columns, odd)
		if err != nil {
			return nil, err
		}
		return &Event{SpansBothWeeks: true, Events: stack}, nil
	}

	nominator, err := reconcileSide(entity, columns, odd)
	if err != nil {
		return nil, err
	}
	denominator, err := reconcileSide(entity, columns, even)
	if err != nil {
		return nil, err
	}
	return &Event{Nominator: nominator, Denominator: denominator}, nil
}

func slotIndexOf(start string) int {
	for i, t := range eventStartTimes {
		if t == start {
			return i
		}
	}
	return -1
}

type slotVectors struct {
	odd  []string
	even []string
}

// buildEntitySchedule walks the grid for one entity. First pass accumulates an
// explicit (day, slot) table of odd/even value vectors, one element per
// subgroup column; second pass reconciles each slot and emits days in fixed
// weekday order, slots in start-time order, dropping whatever came out empty.
func buildEntitySchedule(grid *Grid, entity string, columns []string) ([]DaySchedule, error) {
	table := map[string]map[string]*slotVectors{}

	for _, row := range grid.Rows {
		if slotIndexOf(row.Start) < 0 {
			return nil, fmt.Errorf("%w: unknown slot start time %q", ErrMalformedSheet, row.Start)
		}

		byStart := table[row.Day]
		if byStart == nil {
			byStart = map[string]*slotVectors{}
			table[row.Day] = byStart
		}
		vectors := byStart[row.Start]
		if vectors == nil {
			vectors = &slotVectors{
				odd:  make([]string, len(columns)),
				even: make([]string, len(columns)),
			}
			byStart[row.Start] = vectors
		}

		side := vectors.odd
		if row.Even {
			side = vectors.even
		}
		for i, column := range columns {
			if value, ok := row.Cells[column]; ok {
				side[i] = value
			}
		}
	}

	result := []DaySchedule{}
	for _, day := range days {
		byStart := table[day]
		if byStart == nil {
			continue
		}

		var events []Event
		for i, start := range eventStartTimes {
			vectors := byStart[start]
			if vectors == nil {
				continue
			}
			event, err := reconcileSlot(entity, columns, vectors.odd, vectors.even)
			if err != nil {
				return nil, err
			}
			if event == nil {
				continue
			}
			event.StartTime = start
			event.EndTime = eventEndTimes[i]
			event.Order = i + 1
			events = append(events, *event)
		}

		if len(events) > 0 {
			result = append(result, DaySchedule{Day: day, Events: events})
		}
	}

	return result, nil
}

// buildStudentsSchedule assembles the per-group documents of a students sheet,
// one entity per resolved group with all its subgroup columns.
func buildStudentsSchedule(grid *Grid) (*Schedule, error) {
	order, subgroups := resolveGroups(grid.Columns)

	schedule := &Schedule{}
	for _, group := range order {
		daySchedules, err := buildEntitySchedule(grid, group, subgroups[group])
		if err != nil {
			return nil, err
		}
		schedule.add(group, EntitySchedule{
			Group:     group,
			Subgroups: subgroups[group],
			Schedule:  daySchedules,
		})
	}
	return schedule, nil
}

// buildTeachersSchedule assembles the per-teacher documents: every column is
// its own entity, so each slot degenerates to the single-column cases.
func buildTeachersSchedule(grid *Grid) (*Schedule, error) {
	schedule := &Schedule{}
	for _, teacher := range grid.Columns {
		daySchedules, err := buildEntitySchedule(grid, teacher, []string{teacher})
		if err != nil {
			return nil, err
		}
		schedule.add(teacher, EntitySchedule{
			Teacher:  teacher,
			Schedule: daySchedules,
		})
	}
	return schedule, nil
}
