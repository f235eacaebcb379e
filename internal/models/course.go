package models

// Course is a subject offering, optionally owned by a teacher.
type Course struct {
	ID         string  `db:"id" json:"id"`
	Name       string  `db:"name" json:"name"`
	Department *string `db:"department" json:"department,omitempty"`
	TeacherID  *string `db:"teacher_id" json:"teacher_id,omitempty"`
}

// CourseDetail joins the owning teacher's name.
type CourseDetail struct {
	Course
	TeacherName *string `db:"teacher_name" json:"teacher_name,omitempty"`
}

// CourseFilter captures filtering criteria for listing courses.
type CourseFilter struct {
	Department string
	TeacherID  string
	Search     string
	Page       int
	PageSize   int
}
