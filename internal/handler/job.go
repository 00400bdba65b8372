package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/YvesMatteo/GapIntel-sub002/internal/middleware"
	"github.com/YvesMatteo/GapIntel-sub002/internal/repository"
	"github.com/YvesMatteo/GapIntel-sub002/internal/service"
)

type JobHandler struct {
	svc   *service.JobService
	cache *service.CacheService
}

func NewJobHandler(svc *service.JobService, cache *service.CacheService) *JobHandler {
	return &JobHandler{svc: svc, cache: cache}
}

type submitJobRequest struct {
	ChannelID string `json:"channelId"`
	Owner     string `json:"owner"`
}

// Submit handles POST /api/jobs
func (h *JobHandler) Submit(c fiber.Ctx) error {
	var req submitJobRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	channelID, errMsg := middleware.ValidateChannelID(req.ChannelID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	owner, errMsg := middleware.ValidateOwner(req.Owner)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	job, err := h.svc.Submit(c.Context(), channelID, owner)
	if err != nil {
		if errors.Is(err, repository.ErrJobConflict) {
			return middleware.ErrorResponse(c, fiber.StatusConflict, "JOB_EXISTS",
				"An analysis for this channel is already pending or processing")
		}
		log.Error().Err(err).Str("component", "handler").Msg("job submit failed")
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to submit job")
	}

	return c.Status(fiber.StatusCreated).JSON(job)
}

// Status handles GET /api/jobs/:accessKey
func (h *JobHandler) Status(c fiber.Ctx) error {
	accessKey, errMsg := middleware.ValidateAccessKey(c.Params("accessKey"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	if h.cache != nil {
		if data, err := h.cache.GetJobStatus(c.Context(), accessKey); err == nil && data != nil {
			c.Set("Content-Type", "application/json")
			return c.Send(data)
		}
	}

	job, err := h.svc.Status(c.Context(), accessKey)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Job not found")
		}
		log.Error().Err(err).Str("component", "handler").Msg("job status lookup failed")
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch job")
	}

	if h.cache != nil {
		if err := h.cache.SetJobStatus(c.Context(), accessKey, job); err != nil {
			log.Warn().Err(err).Str("component", "handler").Msg("status cache write failed")
		}
	}

	return c.JSON(job)
}

// Reset handles POST /api/jobs/:accessKey/reset
func (h *JobHandler) Reset(c fiber.Ctx) error {
	accessKey, errMsg := middleware.ValidateAccessKey(c.Params("accessKey"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	job, err := h.svc.Reset(c.Context(), accessKey)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrJobNotFound):
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Job not found")
		case errors.Is(err, repository.ErrJobNotActive):
			return middleware.ErrorResponse(c, fiber.StatusConflict, "JOB_NOT_RESETTABLE",
				"Only failed or stale jobs can be reset")
		}
		log.Error().Err(err).Str("component", "handler").Msg("job reset failed")
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to reset job")
	}

	return c.JSON(job)
}
