package main

import (
	"fmt"
	"strings"
)

func expandAbbreviations(text string) string {
	for _, sub := range subEventNormalizers {
		text = strings.ReplaceAll(text, sub[0], sub[1])
	}
	return text
}

func isKnownEventType(t string) bool {
	switch t {
	case typeLecture, typeLab, typePracticum, typeAdaptation:
		return true
	}
	return false
}

// splitSubject separates "Математичний аналіз лекція" into the subject name
// and its trailing type token. Sheet authors sometimes quote or underscore the
// type, so those characters are stripped before classification.
func splitSubject(subject string) (name, eventType string, ok bool) {
	fields := strings.Fields(subject)
	if len(fields) < 2 {
		return "", "", false
	}
	eventType = fields[len(fields)-1]
	name = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(subject), eventType))
	eventType = strings.Trim(strings.Trim(eventType, `"`), "_")
	return name, eventType, true
}

func splitGroups(line string) []string {
	var groups []string
	seen := map[string]bool{}
	for _, g := range strings.Split(line, ",") {
		g = strings.TrimSpace(g)
		if g == "" || seen[g] {
			continue
		}
		seen[g] = true
		groups = append(groups, g)
	}
	return groups
}

// parseEvent turns one raw timetable cell into a SubEvent. Recognized shapes,
// after abbreviation expansion and line trimming:
//
//	groups / subject+type / tutor / location  (4 lines)
//	subject+type / tutor / location           (3 lines, groups filled later)
//	groups / anything / адаптаційний курс     (3 lines, adaptation course)
//
// Anything else is ErrInvalidEventFormat carrying the original cell text.
func parseEvent(text string) (*SubEvent, error) {
	expanded := expandAbbreviations(text)

	lines := strings.Split(strings.TrimSpace(expanded), "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}

	if len(lines) == 3 && lines[2] == typeAdaptation {
		return &SubEvent{
			Type:   typeAdaptation,
			Name:   adaptationCourseName,
			Groups: splitGroups(lines[0]),
		}, nil
	}

	var groups []string
	rest := lines
	if len(lines) == 4 {
		groups = splitGroups(lines[0])
		rest = lines[1:]
	}
	if len(rest) != 3 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEventFormat, text)
	}

	name, eventType, ok := splitSubject(rest[0])
	if !ok || !isKnownEventType(eventType) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEventFormat, text)
	}

	return &SubEvent{
		Type:     eventType,
		Name:     name,
		Tutor:    rest[1],
		Location: rest[2],
		Groups:   groups,
	}, nil
}
