package models

// Student is a student profile.
type Student struct {
	ID    string `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Email string `db:"email" json:"email"`
	Age   *int   `db:"age" json:"age,omitempty"`
	Sex   string `db:"sex" json:"sex"`
	Year  int    `db:"year" json:"year"`
}

// StudentFilter captures filtering criteria for listing students.
type StudentFilter struct {
	Search   string
	Year     int
	Page     int
	PageSize int
}
