package model

// Inquiry is an enterprise contact request submitted from the site.
type Inquiry struct {
	CompanyName  string `json:"company_name"`
	CompanySize  string `json:"company_size,omitempty"`
	Industry     string `json:"industry,omitempty"`
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
	JobTitle     string `json:"job_title"`
	UseCase      string `json:"use_case"`
	BookedCall   bool   `json:"booked_call"`
}
