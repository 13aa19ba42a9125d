package models

// DashboardStats aggregates registration figures for the admin dashboard.
type DashboardStats struct {
	TotalStudents       int                           `json:"total_students"`
	RecentRegistrations int                           `json:"recent_registrations"`
	CourseStatistics    map[string]int                `json:"course_statistics"`
	CourseOptions       []string                      `json:"course_options"`
	PaymentMethods      []string                      `json:"payment_methods"`
	GenderStatistics    map[string]int                `json:"gender_statistics"`
	AgeGroups           AgeGroups                     `json:"age_groups"`
	PaymentStatistics   map[string]PaymentMethodTotal `json:"payment_statistics"`
}

// AgeGroups buckets students by age in whole years.
type AgeGroups struct {
	Adults  int `db:"adults" json:"adults"`
	Minors  int `db:"minors" json:"minors"`
	Unknown int `db:"unknown_age" json:"unknown_age"`
	Total   int `db:"total" json:"total"`
}

// CountByKey is a generic grouped count row.
type CountByKey struct {
	Key   string `db:"key"`
	Count int    `db:"count"`
}

// CourseOptions lists the configured registration whitelists.
type CourseOptions struct {
	Courses        []string `json:"courses"`
	PaymentMethods []string `json:"payment_methods"`
}
