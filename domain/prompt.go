package domain

import (
	"fmt"
	"strings"
)

// Semester is the study year half a student is in, from FirstSemester to EighthSemester.
type Semester int

const (
	FirstSemester Semester = iota + 1
	SecondSemester
	ThirdSemester
	FourthSemester
	FifthSemester
	SixthSemester
	SeventhSemester
	EighthSemester
)

var semesterNames = [...]string{"", "1st", "2nd", "3rd", "4th", "5th", "6th", "7th", "8th"}

// Semesters lists every semester in order.
func Semesters() []Semester {
	out := make([]Semester, 0, EighthSemester)
	for s := FirstSemester; s <= EighthSemester; s++ {
		out = append(out, s)
	}
	return out
}

// ParseSemester accepts the ordinal form ("3rd") and the label form ("Semester-3rd").
func ParseSemester(v string) (Semester, error) {
	v = strings.TrimPrefix(strings.TrimSpace(v), "Semester-")
	for s := FirstSemester; s <= EighthSemester; s++ {
		if semesterNames[s] == v {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown semester %q", v)
}

func (s Semester) Valid() bool {
	return s >= FirstSemester && s <= EighthSemester
}

func (s Semester) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Semester(%d)", int(s))
	}
	return semesterNames[s]
}

// Label is the human readable form shown in selectors.
func (s Semester) Label() string {
	return "Semester-" + s.String()
}

func (s Semester) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid semester %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Semester) UnmarshalText(text []byte) error {
	parsed, err := ParseSemester(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// PromptContext is everything the student chose before asking.
type PromptContext struct {
	Role          string   `json:"role"`
	TeachingStyle string   `json:"teaching_style"`
	Semester      Semester `json:"semester"`
	Question      string   `json:"question"`
}

// Compose renders the context into the single instruction sent to the model.
// Fields are substituted verbatim.
func (p PromptContext) Compose() string {
	return fmt.Sprintf(
		"You are an %s %s teaching to a %s. %s . Format the result with markdown.",
		p.Role, p.TeachingStyle, p.Semester, p.Question,
	)
}
