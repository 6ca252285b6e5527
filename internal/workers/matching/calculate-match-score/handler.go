// internal/workers/matching/calculate-match-score/handler.go
package calculatematchscore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "dealmatch-workers/internal/common/errors"
	"dealmatch-workers/internal/common/logger"
	"dealmatch-workers/internal/common/validation"
	"dealmatch-workers/internal/matching"
	"dealmatch-workers/internal/workers/matching/candidates"
)

const (
	TaskType = "calculate-match-score"
)

type Handler struct {
	config    *Config
	resolver  *candidates.Resolver
	validator *validation.Validator
	logger    logger.Logger
	errors    *apperrors.ErrorHandler
}

func NewHandler(config *Config, resolver *candidates.Resolver, validator *validation.Validator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		resolver:  resolver,
		validator: validator,
		logger:    log,
		errors:    apperrors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	if err := h.validator.ValidateInput(TaskType, job.Variables); err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errors.HandleJobError(ctx, client, job, apperrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, apperrors.NewInvalidInputError("input cannot be nil")
	}

	buyer, err := h.resolver.Buyer(ctx, input.BuyerID, input.Buyer)
	if err != nil {
		return nil, err
	}
	listing, err := h.resolver.Listing(ctx, input.ListingID, input.Listing)
	if err != nil {
		return nil, err
	}

	bd := matching.Score(buyer, listing)

	h.logger.Info("match score calculated", map[string]interface{}{
		"buyerId":   buyer.ID,
		"listingId": listing.ID,
		"score":     bd.Total,
		"breakdown": bd,
	})

	return &Output{
		BuyerID:    buyer.ID,
		ListingID:  listing.ID,
		MatchScore: bd.Total,
		Breakdown:  bd,
		IsMatch:    bd.IsMatch(),
		Reasons:    bd.Reasons(),
		Threshold:  matching.Threshold,
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err = cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
