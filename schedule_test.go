package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	lectureCell  = "Математичний аналіз лек.\nПроцах Н.П.\nа.4 к.А"
	labCell      = "Фізика лаб.\nЛизанчук Т.С.\nа.2 к.Б"
	practiceCell = "Філософія практ.\nКоваль І.І.\nа.7 к.В"
)

func TestGroupNameOf(t *testing.T) {
	tests := []struct {
		subgroup string
		want     string
	}{
		{"КН-1", "КН"},
		{"КН-2", "КН"},
		{"ЕК/1", "ЕК"},
		{"ІПЗ-11с", "ІПЗ"},
		{"АРХ", "АРХ"},
		{"ЛІС-2024", "ЛІС"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, groupNameOf(tt.subgroup), tt.subgroup)
	}
}

func TestResolveGroupsOrdering(t *testing.T) {
	columns := []string{"КН-1", "ЕК/1", "КН-2", "АРХ", "ЕК/2"}

	order, subgroups := resolveGroups(columns)

	assert.Equal(t, []string{"КН", "ЕК", "АРХ"}, order)
	assert.Equal(t, []string{"КН-1", "КН-2"}, subgroups["КН"])
	assert.Equal(t, []string{"ЕК/1", "ЕК/2"}, subgroups["ЕК"])
	assert.Equal(t, []string{"АРХ"}, subgroups["АРХ"])
}

func TestResolveGroupsIdempotent(t *testing.T) {
	columns := []string{"КН-1", "КН-2", "ЕК/1"}

	order1, subgroups1 := resolveGroups(columns)
	order2, subgroups2 := resolveGroups(columns)

	assert.Equal(t, order1, order2)
	assert.Equal(t, subgroups1, subgroups2)
}

func TestReconcileSlotAllAbsent(t *testing.T) {
	event, err := reconcileSlot("КН", []string{"КН-1", "КН-2"}, []string{"", ""}, []string{"", ""})
	require.NoError(t, err)
	assert.Nil(t, event)
}

func TestReconcileSlotSingle(t *testing.T) {
	event, err := reconcileSlot("КН", []string{"КН-1"}, []string{lectureCell}, []string{lectureCell})
	require.NoError(t, err)
	require.NotNil(t, event)

	assert.True(t, event.SpansBothWeeks)
	require.NotNil(t, event.Simple)
	assert.Nil(t, event.Events)
	assert.Nil(t, event.Nominator)
	assert.Nil(t, event.Denominator)
	assert.Equal(t, typeLecture, event.Simple.Type)
	assert.Equal(t, []string{"КН"}, event.Simple.Groups, "groups default to the entity label")
}

func TestReconcileSlotVertical(t *testing.T) {
	odd := []string{lectureCell, labCell, ""}
	even := []string{lectureCell, labCell, ""}

	event, err := reconcileSlot("КН", []string{"КН-1", "КН-2", "КН-3"}, odd, even)
	require.NoError(t, err)
	require.NotNil(t, event)

	assert.True(t, event.SpansBothWeeks)
	assert.Nil(t, event.Simple)
	require.Len(t, event.Events, 3)
	assert.Equal(t, []string{"КН-1"}, event.Events[0].Groups, "groups default to the subgroup column")
	assert.Equal(t, typeLab, event.Events[1].Type)
	assert.Nil(t, event.Events[2], "free column stays an empty marker")
}

func TestReconcileSlotHorizontal(t *testing.T) {
	event, err := reconcileSlot("КН", []string{"КН-1"}, []string{lectureCell}, []string{labCell})
	require.NoError(t, err)
	require.NotNil(t, event)

	assert.False(t, event.SpansBothWeeks)
	require.NotNil(t, event.Nominator)
	require.NotNil(t, event.Denominator)
	assert.Equal(t, "Процах Н.П.", event.Nominator.Events[0].Tutor)
	assert.Equal(t, "Лизанчук Т.С.", event.Denominator.Events[0].Tutor)
	assert.Equal(t, []string{"КН"}, event.Nominator.Events[0].Groups)
	assert.Equal(t, []string{"КН"}, event.Denominator.Events[0].Groups)
}

func TestReconcileSlotHorizontalOneSideFree(t *testing.T) {
	event, err := reconcileSlot("КН", []string{"КН-1"}, []string{lectureCell}, []string{""})
	require.NoError(t, err)
	require.NotNil(t, event)

	require.NotNil(t, event.Nominator)
	assert.Nil(t, event.Denominator)
}

func TestReconcileSlotHorizontalSideCollapse(t *testing.T) {
	odd := []string{lectureCell, lectureCell}
	even := []string{labCell, practiceCell}

	event, err := reconcileSlot("КН", []string{"КН-1", "КН-2"}, odd, even)
	require.NoError(t, err)
	require.NotNil(t, event)

	require.NotNil(t, event.Nominator)
	assert.True(t, event.Nominator.SpansAllSubcolumns)
	require.Len(t, event.Nominator.Events, 1)
	assert.Equal(t, []string{"КН"}, event.Nominator.Events[0].Groups)

	require.NotNil(t, event.Denominator)
	assert.False(t, event.Denominator.SpansAllSubcolumns)
	require.Len(t, event.Denominator.Events, 2)
	assert.Equal(t, []string{"КН-1"}, event.Denominator.Events[0].Groups)
	assert.Equal(t, []string{"КН-2"}, event.Denominator.Events[1].Groups)
}

func TestReconcileSlotIdenticalWeeksNeverHorizontal(t *testing.T) {
	vectors := [][]string{
		{lectureCell},
		{lectureCell, lectureCell},
		{lectureCell, ""},
		{"", labCell, lectureCell},
	}
	columns := []string{"КН-1", "КН-2", "КН-3"}

	for _, vector := range vectors {
		event, err := reconcileSlot("КН", columns[:len(vector)], vector, vector)
		require.NoError(t, err)
		require.NotNil(t, event)
		assert.Nil(t, event.Nominator)
		assert.Nil(t, event.Denominator)
		assert.True(t, event.SpansBothWeeks)
	}
}

func TestReconcileSlotParseFailureStopsRun(t *testing.T) {
	_, err := reconcileSlot("КН", []string{"КН-1"}, []string{"зламана клітинка"}, []string{"зламана клітинка"})
	assert.ErrorIs(t, err, ErrInvalidEventFormat)
}

func testGrid(rows []GridRow, columns ...string) *Grid {
	return &Grid{Columns: columns, Rows: rows}
}

func cellRow(day, start string, even bool, cells map[string]string) GridRow {
	return GridRow{Day: day, Start: start, Even: even, Cells: cells}
}

func TestBuildEntityScheduleDayOrder(t *testing.T) {
	grid := testGrid([]GridRow{
		cellRow("friday", "08:30", false, map[string]string{"КН-1": lectureCell}),
		cellRow("friday", "08:30", true, map[string]string{"КН-1": lectureCell}),
		cellRow("monday", "10:20", false, map[string]string{"КН-1": labCell}),
		cellRow("monday", "10:20", true, map[string]string{"КН-1": labCell}),
	}, "КН-1")

	schedule, err := buildEntitySchedule(grid, "КН", []string{"КН-1"})
	require.NoError(t, err)

	require.Len(t, schedule, 2)
	assert.Equal(t, "monday", schedule[0].Day)
	assert.Equal(t, "friday", schedule[1].Day)
}

func TestBuildEntityScheduleSlotOrderAndTimes(t *testing.T) {
	grid := testGrid([]GridRow{
		cellRow("monday", "16:20", false, map[string]string{"КН-1": labCell}),
		cellRow("monday", "16:20", true, map[string]string{"КН-1": labCell}),
		cellRow("monday", "08:30", false, map[string]string{"КН-1": lectureCell}),
		cellRow("monday", "08:30", true, map[string]string{"КН-1": lectureCell}),
	}, "КН-1")

	schedule, err := buildEntitySchedule(grid, "КН", []string{"КН-1"})
	require.NoError(t, err)

	require.Len(t, schedule, 1)
	events := schedule[0].Events
	require.Len(t, events, 2)
	assert.Equal(t, "08:30", events[0].StartTime)
	assert.Equal(t, "10:05", events[0].EndTime)
	assert.Equal(t, 1, events[0].Order)
	assert.Equal(t, "16:20", events[1].StartTime)
	assert.Equal(t, "17:35", events[1].EndTime)
	assert.Equal(t, 5, events[1].Order)
}

func TestBuildEntityScheduleOmitsEmptySlotsAndDays(t *testing.T) {
	grid := testGrid([]GridRow{
		cellRow("monday", "08:30", false, map[string]string{}),
		cellRow("monday", "08:30", true, map[string]string{}),
		cellRow("tuesday", "08:30", false, map[string]string{"КН-1": lectureCell}),
		cellRow("tuesday", "08:30", true, map[string]string{"КН-1": lectureCell}),
	}, "КН-1")

	schedule, err := buildEntitySchedule(grid, "КН", []string{"КН-1"})
	require.NoError(t, err)

	require.Len(t, schedule, 1)
	assert.Equal(t, "tuesday", schedule[0].Day)
}

func TestBuildEntityScheduleUnknownStartTime(t *testing.T) {
	grid := testGrid([]GridRow{
		cellRow("monday", "09:00", false, map[string]string{"КН-1": lectureCell}),
	}, "КН-1")

	_, err := buildEntitySchedule(grid, "КН", []string{"КН-1"})
	assert.ErrorIs(t, err, ErrMalformedSheet)
}

func TestBuildEntityScheduleHorizontalFromParityRows(t *testing.T) {
	grid := testGrid([]GridRow{
		cellRow("monday", "08:30", false, map[string]string{"КН-1": lectureCell}),
		cellRow("monday", "08:30", true, map[string]string{"КН-1": labCell}),
	}, "КН-1")

	schedule, err := buildEntitySchedule(grid, "КН", []string{"КН-1"})
	require.NoError(t, err)

	require.Len(t, schedule, 1)
	event := schedule[0].Events[0]
	assert.False(t, event.SpansBothWeeks)
	assert.Equal(t, "Процах Н.П.", event.Nominator.Events[0].Tutor)
	assert.Equal(t, "Лизанчук Т.С.", event.Denominator.Events[0].Tutor)
}

func TestBuildStudentsScheduleGroupsColumns(t *testing.T) {
	grid := testGrid([]GridRow{
		cellRow("monday", "08:30", false, map[string]string{"КН-1": lectureCell, "КН-2": lectureCell, "ЕК": labCell}),
		cellRow("monday", "08:30", true, map[string]string{"КН-1": lectureCell, "КН-2": lectureCell, "ЕК": labCell}),
	}, "КН-1", "КН-2", "ЕК")

	schedule, err := buildStudentsSchedule(grid)
	require.NoError(t, err)

	require.Len(t, schedule.entries, 2)
	assert.Equal(t, "КН", schedule.entries[0].name)
	assert.Equal(t, []string{"КН-1", "КН-2"}, schedule.entries[0].doc.Subgroups)
	assert.Equal(t, "ЕК", schedule.entries[1].name)

	kn := schedule.entries[0].doc.Schedule
	require.Len(t, kn, 1)
	event := kn[0].Events[0]
	require.NotNil(t, event.Simple, "identical subgroup columns collapse to a single event")
	assert.Equal(t, []string{"КН"}, event.Simple.Groups)
}

func TestBuildTeachersScheduleSingletonEntities(t *testing.T) {
	grid := testGrid([]GridRow{
		cellRow("monday", "08:30", false, map[string]string{"Процах Н.П.": lectureCell}),
		cellRow("monday", "08:30", true, map[string]string{"Процах Н.П.": labCell}),
	}, "Процах Н.П.", "Коваль І.І.")

	schedule, err := buildTeachersSchedule(grid)
	require.NoError(t, err)

	require.Len(t, schedule.entries, 2)
	assert.Equal(t, "Процах Н.П.", schedule.entries[0].doc.Teacher)
	assert.Empty(t, schedule.entries[0].doc.Subgroups)
	require.Len(t, schedule.entries[0].doc.Schedule, 1)
	assert.Empty(t, schedule.entries[1].doc.Schedule, "teacher without lessons gets an empty schedule")
}

func TestScheduleMarshalKeepsSheetOrder(t *testing.T) {
	schedule := &Schedule{}
	schedule.add("ЮІЮ", EntitySchedule{Group: "ЮІЮ", Schedule: []DaySchedule{}})
	schedule.add("АБВ", EntitySchedule{Group: "АБВ", Schedule: []DaySchedule{}})

	data, err := json.Marshal(schedule)
	require.NoError(t, err)

	text := string(data)
	assert.True(t, strings.Index(text, "ЮІЮ") < strings.Index(text, "АБВ"), text)
}
