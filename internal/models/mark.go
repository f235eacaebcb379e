package models

import "time"

// Mark is a student's grade in a course on a 0..100 scale.
type Mark struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	Grade     float64   `db:"grade" json:"grade"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// MarkDetail joins student and course names for listings.
type MarkDetail struct {
	Mark
	StudentName string  `db:"student_name" json:"student_name"`
	CourseName  string  `db:"course_name" json:"course_name"`
	TeacherID   *string `db:"teacher_id" json:"teacher_id,omitempty"`
}

// MarkFilter captures filtering criteria for listing marks. TeacherID
// restricts results to courses owned by that teacher.
type MarkFilter struct {
	StudentID string
	CourseID  string
	TeacherID string
	Page      int
	PageSize  int
}

// StudentCourseGrade is one row of a student's grade report.
type StudentCourseGrade struct {
	CourseID    string  `db:"course_id" json:"course_id"`
	CourseName  string  `db:"course_name" json:"course_name"`
	Department  *string `db:"department" json:"department,omitempty"`
	TeacherName *string `db:"teacher_name" json:"teacher_name,omitempty"`
	Grade       float64 `db:"grade" json:"grade"`
	Letter      string  `db:"-" json:"letter"`
	Points      float64 `db:"-" json:"points"`
	Credits     int     `db:"-" json:"credits"`
}

// GradeReport summarises a student's marks.
type GradeReport struct {
	StudentID    string               `json:"student_id"`
	StudentName  string               `json:"student_name"`
	Year         int                  `json:"year"`
	Courses      []StudentCourseGrade `json:"courses"`
	TotalCredits int                  `json:"total_credits"`
	GPA          float64              `json:"gpa"`
}

// LetterGrade buckets a numeric grade into a letter and its grade points.
func LetterGrade(grade float64) (string, float64) {
	switch {
	case grade >= 90:
		return "A", 4.0
	case grade >= 80:
		return "B", 3.0
	case grade >= 70:
		return "C", 2.0
	case grade >= 60:
		return "D", 1.0
	default:
		return "F", 0.0
	}
}
