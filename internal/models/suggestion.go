package models

import (
	"bytes"
	"encoding/json"
)

// SuggestedCourse is one entry of the suggestions payload stored on a simulation attempt:
//
//	[{"id": 5, "name": "Química", "topics": [{"id": 9, "name": "Estequiometría"}]}]
type SuggestedCourse struct {
	ID     uint             `json:"id"`
	Name   string           `json:"name"`
	Topics []SuggestedTopic `json:"topics"`
}

type SuggestedTopic struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// ParseSuggestions decodes a stored payload. ok is false when the payload is
// not valid JSON or is not a list; callers skip such payloads. Entries that are
// not objects with a non-zero id are dropped, at course and topic level.
func ParseSuggestions(raw []byte) (courses []SuggestedCourse, ok bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}

	var entries []*suggestedCourseEntry
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, false
	}

	courses = make([]SuggestedCourse, 0, len(entries))
	for _, entry := range entries {
		if entry == nil || entry.ID == 0 {
			continue
		}
		course := SuggestedCourse{ID: entry.ID, Name: entry.Name, Topics: make([]SuggestedTopic, 0, len(entry.Topics))}
		for _, topic := range entry.Topics {
			if topic == nil || topic.ID == 0 {
				continue
			}
			course.Topics = append(course.Topics, *topic)
		}
		courses = append(courses, course)
	}
	return courses, true
}

// suggestedCourseEntry keeps null topics distinguishable from empty ones
type suggestedCourseEntry struct {
	ID     uint              `json:"id"`
	Name   string            `json:"name"`
	Topics []*SuggestedTopic `json:"topics"`
}
