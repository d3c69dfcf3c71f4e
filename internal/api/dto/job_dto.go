package dto

import (
	"time"

	"github.com/TekupDK/tekup-sub000/internal/domain"
)

type CreateJobRequest struct {
	CustomerID          string                 `json:"customer_id" binding:"required,uuid"`
	ServiceType         string                 `json:"service_type" binding:"required"`
	ScheduledDate       time.Time              `json:"scheduled_date" binding:"required"`
	EstimatedDuration   int                    `json:"estimated_duration" binding:"required,gt=0"`
	Location            LocationDTO            `json:"location" binding:"required"`
	SpecialInstructions string                 `json:"special_instructions"`
	Checklist           []domain.ChecklistItem `json:"checklist"`
}

type LocationDTO struct {
	Street  string `json:"street" binding:"required"`
	City    string `json:"city"`
	ZipCode string `json:"zip_code"`
}

type UpdateJobStatusRequest struct {
	Status            string                `json:"status" binding:"required"`
	ActualDuration    *int                  `json:"actual_duration"`
	QualityScore      *int                  `json:"quality_score" binding:"omitempty,min=1,max=5"`
	CustomerSignature *string               `json:"customer_signature"`
	Profitability     *domain.Profitability `json:"profitability"`
}

type AssignJobRequest struct {
	Assignments []AssignmentDTO `json:"assignments" binding:"required,min=1,dive"`
}

type AssignmentDTO struct {
	TeamMemberID string `json:"team_member_id" binding:"required,uuid"`
	Role         string `json:"role" binding:"required"`
}

type RescheduleJobRequest struct {
	NewDate time.Time `json:"new_date" binding:"required"`
}

type ListJobsRequest struct {
	Status     string `form:"status"`
	CustomerID string `form:"customer_id"`
	DateFrom   string `form:"date_from"`
	DateTo     string `form:"date_to"`
	PageSize   int    `form:"page_size"`
	Cursor     string `form:"cursor"`
}

type ListJobsResponse struct {
	Jobs       []JobDTO `json:"jobs"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

type JobDTO struct {
	ID                  string                 `json:"id"`
	CustomerID          string                 `json:"customer_id"`
	ServiceType         string                 `json:"service_type"`
	Status              string                 `json:"status"`
	ScheduledDate       string                 `json:"scheduled_date"`
	EstimatedDuration   int                    `json:"estimated_duration"`
	ActualDuration      *int                   `json:"actual_duration,omitempty"`
	QualityScore        *int                   `json:"quality_score,omitempty"`
	CustomerSignature   *string                `json:"customer_signature,omitempty"`
	Profitability       *domain.Profitability  `json:"profitability,omitempty"`
	Location            domain.Location        `json:"location"`
	SpecialInstructions string                 `json:"special_instructions,omitempty"`
	Checklist           []domain.ChecklistItem `json:"checklist"`
	ParentJobID         *string                `json:"parent_job_id,omitempty"`
	CreatedAt           string                 `json:"created_at"`
	UpdatedAt           string                 `json:"updated_at"`
}

type AssignmentResponseDTO struct {
	ID           string `json:"id"`
	TeamMemberID string `json:"team_member_id"`
	Role         string `json:"role"`
	MemberName   string `json:"member_name,omitempty"`
	MemberEmail  string `json:"member_email,omitempty"`
}

// NewJobDTO maps a domain job onto the wire representation.
func NewJobDTO(job *domain.Job) JobDTO {
	return JobDTO{
		ID:                  job.ID,
		CustomerID:          job.CustomerID,
		ServiceType:         job.ServiceType,
		Status:              string(job.Status),
		ScheduledDate:       job.ScheduledDate.Format(time.RFC3339),
		EstimatedDuration:   job.EstimatedDuration,
		ActualDuration:      job.ActualDuration,
		QualityScore:        job.QualityScore,
		CustomerSignature:   job.CustomerSignature,
		Profitability:       job.Profitability,
		Location:            job.Location,
		SpecialInstructions: job.SpecialInstructions,
		Checklist:           job.Checklist,
		ParentJobID:         job.ParentJobID,
		CreatedAt:           job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           job.UpdatedAt.Format(time.RFC3339),
	}
}
