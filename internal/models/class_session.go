package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DayOfWeek partitions the weekly timetable.
type DayOfWeek string

const (
	Monday    DayOfWeek = "Monday"
	Tuesday   DayOfWeek = "Tuesday"
	Wednesday DayOfWeek = "Wednesday"
	Thursday  DayOfWeek = "Thursday"
	Friday    DayOfWeek = "Friday"
	Saturday  DayOfWeek = "Saturday"
	Sunday    DayOfWeek = "Sunday"
)

// Days lists the weekdays in timetable order.
var Days = []DayOfWeek{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// ParseDayOfWeek accepts a day name in any letter case.
func ParseDayOfWeek(raw string) (DayOfWeek, bool) {
	raw = strings.TrimSpace(raw)
	for _, d := range Days {
		if strings.EqualFold(raw, string(d)) {
			return d, true
		}
	}
	return "", false
}

// Index returns the zero-based position of the day in the week, or -1 when unknown.
func (d DayOfWeek) Index() int {
	for i, day := range Days {
		if day == d {
			return i
		}
	}
	return -1
}

// Term is one of the four academic periods that partition the schedule.
type Term string

const (
	FirstTerm  Term = "First Term"
	SecondTerm Term = "Second Term"
	ThirdTerm  Term = "Third Term"
	FourthTerm Term = "Fourth Term"
)

// Terms lists the academic terms in calendar order.
var Terms = []Term{FirstTerm, SecondTerm, ThirdTerm, FourthTerm}

// legacy rows were written with this spelling.
const legacyFourthTerm = "Forth Term"

// ParseTerm accepts a term label in any letter case.
func ParseTerm(raw string) (Term, bool) {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, legacyFourthTerm) {
		return FourthTerm, true
	}
	for _, t := range Terms {
		if strings.EqualFold(raw, string(t)) {
			return t, true
		}
	}
	return "", false
}

// Valid reports whether t is one of the canonical term labels.
func (t Term) Valid() bool {
	for _, term := range Terms {
		if t == term {
			return true
		}
	}
	return false
}

// ClockTime is a wall-clock time of day in minutes after midnight.
type ClockTime int

const minutesPerDay = 24 * 60

// ErrClockSeconds rejects times that are not on a whole minute.
var ErrClockSeconds = errors.New("clock time has non-zero seconds; times have minute precision")

// ParseClockTime parses "HH:MM" or "HH:MM:SS". Sessions are booked to the
// minute, so a non-zero seconds part is rejected with ErrClockSeconds.
func ParseClockTime(raw string) (ClockTime, error) {
	t, err := parseClock(raw)
	if err != nil {
		return 0, err
	}
	if t.Second() != 0 {
		return 0, fmt.Errorf("%q: %w", strings.TrimSpace(raw), ErrClockSeconds)
	}
	return ClockTime(t.Hour()*60 + t.Minute()), nil
}

func parseClock(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid clock time %q", raw)
}

// MustClock is ParseClockTime for constants and tests.
func MustClock(raw string) ClockTime {
	c, err := ParseClockTime(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// String renders the time as "HH:MM".
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Valid reports whether c falls within a single day.
func (c ClockTime) Valid() bool {
	return c >= 0 && c < minutesPerDay
}

// Value stores the time in a Postgres TIME column.
func (c ClockTime) Value() (driver.Value, error) {
	return c.String(), nil
}

// Scan reads a Postgres TIME column, which lib/pq returns as text.
func (c *ClockTime) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*c = 0
		return nil
	case time.Time:
		*c = ClockTime(v.Hour()*60 + v.Minute())
		return nil
	case []byte:
		return c.scanString(string(v))
	case string:
		return c.scanString(v)
	default:
		return fmt.Errorf("cannot scan %T into ClockTime", src)
	}
}

func (c *ClockTime) scanString(raw string) error {
	if len(raw) > 8 {
		raw = raw[:8]
	}
	t, err := parseClock(raw)
	if err != nil {
		return err
	}
	*c = ClockTime(t.Hour()*60 + t.Minute())
	return nil
}

// MarshalJSON renders the time as "HH:MM".
func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts "HH:MM" or "HH:MM:SS".
func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseClockTime(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ClassSession is a weekly recurring booking of a room (and optionally a teacher) for a course.
type ClassSession struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	TeacherID *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	RoomID    string    `db:"room_id" json:"room_id"`
	DayOfWeek DayOfWeek `db:"day_of_week" json:"day_of_week"`
	StartTime ClockTime `db:"start_time" json:"start_time"`
	EndTime   ClockTime `db:"end_time" json:"end_time"`
	Term      Term      `db:"term" json:"term"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Overlaps reports whether the two half-open intervals [start,end) intersect.
// Sessions that merely touch (one ends when the other starts) do not overlap.
func Overlaps(start1, end1, start2, end2 ClockTime) bool {
	return start1 < end2 && end1 > start2
}

// OverlapsWith reports whether s occupies any of the same minutes as other on the same day and term.
func (s ClassSession) OverlapsWith(other ClassSession) bool {
	return s.DayOfWeek == other.DayOfWeek &&
		s.Term == other.Term &&
		Overlaps(s.StartTime, s.EndTime, other.StartTime, other.EndTime)
}

// HasTeacher reports whether a teacher is assigned.
func (s ClassSession) HasTeacher() bool {
	return s.TeacherID != nil && *s.TeacherID != ""
}

// ClassSessionDetail joins display names for listings and timetables.
type ClassSessionDetail struct {
	ClassSession
	CourseName  string  `db:"course_name" json:"course_name"`
	TeacherName *string `db:"teacher_name" json:"teacher_name,omitempty"`
}

// ClassSessionFilter describes query params for listing sessions.
type ClassSessionFilter struct {
	Term      Term
	DayOfWeek DayOfWeek
	RoomID    string
	TeacherID string
	CourseID  string
	Page      int
	PageSize  int
}

// OverlapFilter selects sessions competing for the same room or teacher.
// Exactly one of RoomID and TeacherID is set.
type OverlapFilter struct {
	RoomID    string
	TeacherID string
	DayOfWeek DayOfWeek
	Term      Term
	StartTime ClockTime
	EndTime   ClockTime
	ExcludeID string
}

// ConflictKind tags the outcome of a conflict check.
type ConflictKind string

const (
	ConflictNone    ConflictKind = "NONE"
	ConflictRoom    ConflictKind = "ROOM"
	ConflictTeacher ConflictKind = "TEACHER"
)

// ConflictResult is the outcome of checking a candidate booking.
type ConflictResult struct {
	Kind      ConflictKind  `json:"kind"`
	SessionID string        `json:"session_id,omitempty"`
	Existing  *ClassSession `json:"existing,omitempty"`
}

// HasConflict reports whether the candidate was rejected.
func (r ConflictResult) HasConflict() bool {
	return r.Kind != ConflictNone && r.Kind != ""
}

// ScheduleConflict describes an existing session that causes a conflict.
type ScheduleConflict struct {
	SessionID string       `json:"session_id"`
	CourseID  string       `json:"course_id"`
	TeacherID *string      `json:"teacher_id,omitempty"`
	RoomID    string       `json:"room_id"`
	DayOfWeek DayOfWeek    `json:"day_of_week"`
	StartTime ClockTime    `json:"start_time"`
	EndTime   ClockTime    `json:"end_time"`
	Term      Term         `json:"term"`
	Dimension ConflictKind `json:"dimension"`
}

// ScheduleConflictError is returned when a session collides with an existing one.
type ScheduleConflictError struct {
	Type     ConflictKind     `json:"type"`
	Message  string           `json:"message"`
	Conflict ScheduleConflict `json:"conflict"`
}

// Error implements the error interface for conflict errors.
func (e *ScheduleConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
