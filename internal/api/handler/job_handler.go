package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/TekupDK/tekup-sub000/internal/api/dto"
	"github.com/TekupDK/tekup-sub000/internal/api/service"
	"github.com/TekupDK/tekup-sub000/internal/api/storage"
	"github.com/TekupDK/tekup-sub000/internal/domain"
)

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	logger *slog.Logger
	jobs   *service.JobService
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger: deps.Logger,
		jobs:   deps.Jobs,
	}
}

// CreateJob handles POST /api/v1/jobs
func (h *JobHandler) CreateJob(c *gin.Context) {
	identity := IdentityFrom(c)

	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	job, err := h.jobs.Create(c.Request.Context(), identity.TenantID, service.CreateJobInput{
		CustomerID:        req.CustomerID,
		ServiceType:       req.ServiceType,
		ScheduledDate:     req.ScheduledDate,
		EstimatedDuration: req.EstimatedDuration,
		Location: domain.Location{
			Street:  req.Location.Street,
			City:    req.Location.City,
			ZipCode: req.Location.ZipCode,
		},
		SpecialInstructions: req.SpecialInstructions,
		Checklist:           req.Checklist,
	})
	if err != nil {
		h.logger.Error("Failed to create job", slog.String("error", err.Error()))
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewJobDTO(job))
}

// GetJob handles GET /api/v1/jobs/:job_id
func (h *JobHandler) GetJob(c *gin.Context) {
	identity := IdentityFrom(c)

	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	job, err := h.jobs.Get(c.Request.Context(), identity.TenantID, jobID)
	if err != nil {
		h.logger.Error("Failed to get job", slog.String("job_id", jobID), slog.String("error", err.Error()))
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewJobDTO(job))
}

// ListJobs handles GET /api/v1/jobs
func (h *JobHandler) ListJobs(c *gin.Context) {
	identity := IdentityFrom(c)

	var req dto.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = 20
	}

	if req.PageSize > 100 {
		req.PageSize = 100
	}

	cursor, err := storage.ParseJobCursor(req.Cursor)
	if err != nil {
		h.logger.Error("Invalid cursor", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	filter := storage.JobFilter{
		Status:     req.Status,
		CustomerID: req.CustomerID,
		PageSize:   req.PageSize,
		Cursor:     cursor,
	}

	if req.DateFrom != "" {
		from, err := time.Parse(time.RFC3339, req.DateFrom)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "date_from must be RFC3339",
			})
			return
		}
		filter.DateFrom = &from
	}

	if req.DateTo != "" {
		to, err := time.Parse(time.RFC3339, req.DateTo)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "date_to must be RFC3339",
			})
			return
		}
		filter.DateTo = &to
	}

	jobs, err := h.jobs.List(c.Request.Context(), identity.TenantID, filter)
	if err != nil {
		h.logger.Error("Failed to list jobs", slog.String("error", err.Error()))
		writeDomainError(c, err)
		return
	}

	hasMore := len(jobs) > req.PageSize
	if hasMore {
		jobs = jobs[:req.PageSize]
	}

	jobResponse := make([]dto.JobDTO, len(jobs))
	for i := range jobs {
		jobResponse[i] = dto.NewJobDTO(&jobs[i])
	}

	var nextCursor string
	if hasMore {
		lastJob := jobs[len(jobs)-1]
		next := storage.JobCursor{
			CreatedAt: lastJob.CreatedAt,
			JobID:     lastJob.ID,
		}
		nextCursor = next.Encode()
	}

	c.JSON(http.StatusOK, dto.ListJobsResponse{
		Jobs:       jobResponse,
		NextCursor: nextCursor,
	})
}

// UpdateJobStatus handles PATCH /api/v1/jobs/:job_id/status
func (h *JobHandler) UpdateJobStatus(c *gin.Context) {
	identity := IdentityFrom(c)

	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	var req dto.UpdateJobStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	status := domain.JobStatus(req.Status)
	if !status.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Unknown job status",
		})
		return
	}

	var details *domain.CompletionDetails
	if req.ActualDuration != nil || req.QualityScore != nil || req.CustomerSignature != nil || req.Profitability != nil {
		details = &domain.CompletionDetails{
			ActualDuration:    req.ActualDuration,
			QualityScore:      req.QualityScore,
			CustomerSignature: req.CustomerSignature,
			Profitability:     req.Profitability,
		}
	}

	job, err := h.jobs.UpdateStatus(c.Request.Context(), identity.TenantID, jobID, status, details)
	if err != nil {
		h.logger.Error("Failed to update job status",
			slog.String("job_id", jobID),
			slog.String("status", req.Status),
			slog.String("error", err.Error()),
		)
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewJobDTO(job))
}

// AssignJob handles PUT /api/v1/jobs/:job_id/assignments
func (h *JobHandler) AssignJob(c *gin.Context) {
	identity := IdentityFrom(c)

	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	var req dto.AssignJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	inputs := make([]storage.AssignmentInput, len(req.Assignments))
	for i, a := range req.Assignments {
		inputs[i] = storage.AssignmentInput{
			TeamMemberID: a.TeamMemberID,
			Role:         a.Role,
		}
	}

	assignments, err := h.jobs.Assign(c.Request.Context(), identity.TenantID, jobID, inputs)
	if err != nil {
		h.logger.Error("Failed to assign job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeDomainError(c, err)
		return
	}

	response := make([]dto.AssignmentResponseDTO, len(assignments))
	for i, a := range assignments {
		response[i] = dto.AssignmentResponseDTO{
			ID:           a.ID,
			TeamMemberID: a.TeamMemberID,
			Role:         a.Role,
			MemberName:   a.MemberName,
			MemberEmail:  a.MemberEmail,
		}
	}

	c.JSON(http.StatusOK, gin.H{"assignments": response})
}

// RescheduleJob handles POST /api/v1/jobs/:job_id/reschedule
func (h *JobHandler) RescheduleJob(c *gin.Context) {
	identity := IdentityFrom(c)

	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	var req dto.RescheduleJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	newJob, err := h.jobs.Reschedule(c.Request.Context(), identity.TenantID, jobID, req.NewDate)
	if err != nil {
		h.logger.Error("Failed to reschedule job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewJobDTO(newJob))
}

// DeleteJob handles DELETE /api/v1/jobs/:job_id
func (h *JobHandler) DeleteJob(c *gin.Context) {
	identity := IdentityFrom(c)

	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	if err := h.jobs.Delete(c.Request.Context(), identity.TenantID, jobID); err != nil {
		h.logger.Error("Failed to delete job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
