package domain

// Enrollment records a student's membership in a course. Enrollments live
// in a file-backed store rather than the relational database and are
// purely additive; no update or delete path exists.
type Enrollment struct {
	ID             int64  `json:"id"`
	StudentID      string `json:"studentId"`
	StudentName    string `json:"studentName"`
	CourseName     string `json:"courseName"`
	EnrollmentDate string `json:"enrollmentDate"` // YYYY-MM-DD
	Status         string `json:"status"`
}

// CourseSummary aggregates enrollments per course for listings.
type CourseSummary struct {
	Name          string `json:"name"`
	StudentsCount int    `json:"studentsCount"`
}
