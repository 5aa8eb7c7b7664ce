// internal/app/features/jobs/types.go
package jobsfeature

import (
	"strings"

	jobstore "github.com/dalemusser/kaziocha/internal/app/store/jobs"
	"github.com/dalemusser/kaziocha/internal/app/system/normalize"
	"github.com/dalemusser/kaziocha/internal/domain/models"
)

// createInput is the POST body. Unknown fields are ignored.
type createInput struct {
	Title        string `json:"title" validate:"max=200" label:"Title"`
	Description  string `json:"description" validate:"max=5000" label:"Description"`
	Category     string `json:"category" validate:"max=100" label:"Category"`
	Location     string `json:"location" validate:"max=200" label:"Location"`
	Salary       string `json:"salary" validate:"max=100" label:"Salary"`
	JobType      string `json:"jobType" validate:"max=100" label:"Job type"`
	Phone        string `json:"phone" validate:"max=32" label:"Phone"`
	Whatsapp     string `json:"whatsapp" validate:"max=32" label:"WhatsApp"`
	EmployerID   string `json:"employerId" validate:"max=100" label:"Employer ID"`
	EmployerName string `json:"employerName" validate:"max=200" label:"Employer name"`
}

// missingRequired reports whether any of title, description or location is
// blank, or the phone has no digits once normalized.
func (in createInput) missingRequired() bool {
	for _, v := range []string{in.Title, in.Description, in.Location} {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return normalize.Phone(in.Phone) == ""
}

func (in createInput) toJob() models.Job {
	return models.Job{
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Category:     strings.TrimSpace(in.Category),
		Location:     strings.TrimSpace(in.Location),
		Salary:       strings.TrimSpace(in.Salary),
		JobType:      strings.TrimSpace(in.JobType),
		Phone:        in.Phone,
		Whatsapp:     in.Whatsapp,
		EmployerID:   strings.TrimSpace(in.EmployerID),
		EmployerName: strings.TrimSpace(in.EmployerName),
	}
}

// updateInput is the PUT body. Absent fields are left unchanged.
type updateInput struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	Category     *string `json:"category"`
	Location     *string `json:"location"`
	Salary       *string `json:"salary"`
	JobType      *string `json:"jobType"`
	Phone        *string `json:"phone"`
	Whatsapp     *string `json:"whatsapp"`
	EmployerName *string `json:"employerName"`
	IsActive     *bool   `json:"isActive"`
}

// clearsPhone reports whether the body sets phone to a value with no digits.
func (in updateInput) clearsPhone() bool {
	return in.Phone != nil && normalize.Phone(*in.Phone) == ""
}

func (in updateInput) toUpdate() jobstore.Update {
	return jobstore.Update{
		Title:        in.Title,
		Description:  in.Description,
		Category:     in.Category,
		Location:     in.Location,
		Salary:       in.Salary,
		JobType:      in.JobType,
		Phone:        in.Phone,
		Whatsapp:     in.Whatsapp,
		EmployerName: in.EmployerName,
		IsActive:     in.IsActive,
	}
}

// Pagination describes the page returned by GET /api/jobs.
type Pagination struct {
	Current int64 `json:"current"`
	Pages   int64 `json:"pages"`
	Total   int64 `json:"total"`
}

// ListResponse is the GET /api/jobs body.
type ListResponse struct {
	Success    bool         `json:"success"`
	Jobs       []models.Job `json:"jobs"`
	Pagination Pagination   `json:"pagination"`
}

// JobResponse carries a single job, with a message on writes.
type JobResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Job     *models.Job `json:"job"`
}
