package models

// Teacher is a teacher profile.
type Teacher struct {
	ID    string  `db:"id" json:"id"`
	Name  string  `db:"name" json:"name"`
	Email string  `db:"email" json:"email"`
	Major *string `db:"major" json:"major,omitempty"`
}

// TeacherFilter captures filtering criteria for listing teachers.
type TeacherFilter struct {
	Search   string
	Major    string
	Page     int
	PageSize int
}
