package main

import (
	"bytes"
	"encoding/json"
	"errors"
)

var (
	ErrInvalidEventFormat = errors.New("unexpected event format")
	ErrFetchSchedule      = errors.New("could not retrieve schedule")
	ErrMalformedSheet     = errors.New("malformed schedule sheet")
	ErrBadSheetURL        = errors.New("unsupported sheet url")
)

var eventStartTimes = []string{
	"08:30",
	"10:20",
	"12:10",
	"14:30",
	"16:20",
}

var eventEndTimes = []string{
	"10:05",
	"11:55",
	"13:45",
	"16:05",
	"17:35",
}

var days = []string{
	"monday",
	"tuesday",
	"wednesday",
	"thursday",
	"friday",
}

var rawDayToDay = map[string]string{
	"Понеділок": "monday",
	"Вівторок":  "tuesday",
	"Середа":    "wednesday",
	"Четвер":    "thursday",
	"Пятниця":   "friday",
	"П'ятниця":  "friday",
}

// The sheet marks the two week halves with чисельник/знаменник tokens in the
// time column ("08:30_ч", "08:30_з"). Everything that is not the denominator
// token counts as the odd week.
const evenWeekToken = "з"

var subEventNormalizers = [][2]string{
	{"лек.", "лекція"},
	{"лаб.", "лабораторна"},
	{"практ.", "практичні"},
}

const (
	typeLecture    = "лекція"
	typeLab        = "лабораторна"
	typePracticum  = "практичні"
	typeAdaptation = "адаптаційний курс"
)

const adaptationCourseName = "Адаптаційний курс"

// Cells the sheet authors use as visual fillers; treated as no event at all.
var emptyCells = []string{"---", "-x-"}

// SubEvent is one parsed lesson: a lecture, lab, practicum or the adaptation
// course, with whatever the cell text carried.
type SubEvent struct {
	Type     string   `json:"type"`
	Name     string   `json:"name,omitempty"`
	Location string   `json:"location,omitempty"`
	Tutor    string   `json:"tutor,omitempty"`
	Groups   []string `json:"groups,omitempty"`
}

// EventSide is one week-half of a horizontally split slot. When the entity has
// several subgroup columns and they all carry the same text, the side collapses
// to a single sub-event and spansAllSubcolumns is set; otherwise Events holds
// one entry per subgroup column, null where that column is free.
type EventSide struct {
	SpansAllSubcolumns bool        `json:"spansAllSubcolumns"`
	Events             []*SubEvent `json:"events"`
}

// Event is one reconciled timetable slot. Exactly one of Simple, Events or the
// Nominator/Denominator pair is populated:
//   - Simple: same single lesson on both weeks (spansBothWeeks is true),
//   - Events: several lessons stacked in the slot, identical on both weeks,
//     one entry per subgroup column with null marking a free column,
//   - Nominator/Denominator: odd-week and even-week content differ.
type Event struct {
	StartTime      string      `json:"startTime"`
	EndTime        string      `json:"endTime"`
	Order          int         `json:"order"`
	SpansBothWeeks bool        `json:"spansBothWeeks"`
	Simple         *SubEvent   `json:"simple,omitempty"`
	Events         []*SubEvent `json:"events,omitempty"`
	Nominator      *EventSide  `json:"nominator,omitempty"`
	Denominator    *EventSide  `json:"denominator,omitempty"`
}

type DaySchedule struct {
	Day    string  `json:"day"`
	Events []Event `json:"events"`
}

// EntitySchedule is the per-group (or per-teacher) document. Group/Subgroups
// are set for the students sheet, Teacher for the teachers sheet.
type EntitySchedule struct {
	Group     string        `json:"group,omitempty"`
	Teacher   string        `json:"teacher,omitempty"`
	Subgroups []string      `json:"subgroups,omitempty"`
	Schedule  []DaySchedule `json:"schedule"`
}

type scheduleEntry struct {
	name string
	doc  EntitySchedule
}

// Schedule maps entity names to their documents, keeping the order in which
// the columns appeared in the sheet.
type Schedule struct {
	entries []scheduleEntry
}

func (s *Schedule) add(name string, doc EntitySchedule) {
	s.entries = append(s.entries, scheduleEntry{name: name, doc: doc})
}

// MarshalJSON emits an object with keys in sheet order. encoding/json sorts
// map keys alphabetically, which would scramble the column order.
func (s *Schedule) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range s.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(entry.doc)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// GridRow is one sheet row after loading: a normalized day, a slot start label,
// the week parity and the per-column cell texts. A column absent from Cells has
// no event in that row.
type GridRow struct {
	Day   string
	Start string
	Even  bool
	Cells map[string]string
}

// Grid is the in-memory sheet the engine walks. Columns keeps the entity
// columns in sheet order; the day and time columns are already folded into
// the rows.
type Grid struct {
	Columns []string
	Rows    []GridRow
}
