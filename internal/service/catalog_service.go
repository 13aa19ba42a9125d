package service

import "github.com/pediforte/registration-api/internal/models"

// CatalogService exposes the configured registration whitelists.
type CatalogService struct {
	courses        []string
	paymentMethods []string
}

// NewCatalogService copies the configured options.
func NewCatalogService(courses, paymentMethods []string) *CatalogService {
	return &CatalogService{
		courses:        append([]string{}, courses...),
		paymentMethods: append([]string{}, paymentMethods...),
	}
}

// Options returns copies of the course and payment method lists.
func (s *CatalogService) Options() models.CourseOptions {
	if s == nil {
		return models.CourseOptions{Courses: []string{}, PaymentMethods: []string{}}
	}
	return models.CourseOptions{
		Courses:        append([]string{}, s.courses...),
		PaymentMethods: append([]string{}, s.paymentMethods...),
	}
}

// Courses returns the course whitelist.
func (s *CatalogService) Courses() []string {
	return s.Options().Courses
}
