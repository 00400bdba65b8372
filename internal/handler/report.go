package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/YvesMatteo/GapIntel-sub002/internal/middleware"
	"github.com/YvesMatteo/GapIntel-sub002/internal/model"
	"github.com/YvesMatteo/GapIntel-sub002/internal/repository"
	"github.com/YvesMatteo/GapIntel-sub002/internal/service"
)

type ReportHandler struct {
	svc *service.JobService
}

func NewReportHandler(svc *service.JobService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// Get handles GET /api/jobs/:accessKey/report
func (h *ReportHandler) Get(c fiber.Ctx) error {
	accessKey, errMsg := middleware.ValidateAccessKey(c.Params("accessKey"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	payload, err := h.svc.Report(c.Context(), accessKey)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrJobNotFound):
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Job not found")
		case errors.Is(err, repository.ErrReportNotFound):
			return h.notReady(c, accessKey)
		}
		log.Error().Err(err).Str("component", "handler").Msg("report fetch failed")
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch report")
	}

	c.Set("Content-Type", "application/json")
	return c.Send(payload)
}

// notReady distinguishes a report that does not exist yet from one that
// never will. A pending or processing job answers 202 with the job state so
// clients can keep polling; a failed job answers 409 with the error.
func (h *ReportHandler) notReady(c fiber.Ctx, accessKey string) error {
	job, err := h.svc.Status(c.Context(), accessKey)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Report not found")
	}

	if job.Status == model.JobFailed {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "JOB_FAILED",
				"message": "Analysis failed; reset the job to retry",
			},
			"job": job,
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status": "processing",
		"job":    job,
	})
}
