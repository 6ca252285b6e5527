package queryelasticsearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"

	apperrors "dealmatch-workers/internal/common/errors"
	"dealmatch-workers/internal/common/logger"
	"dealmatch-workers/internal/common/validation"
	"dealmatch-workers/internal/workers/data-access/query-elasticsearch/queries"
)

const (
	TaskType = "query-elasticsearch"
)

type Handler struct {
	config    *Config
	client    *elasticsearch.Client
	validator *validation.Validator
	logger    logger.Logger
	errors    *apperrors.ErrorHandler
}

func NewHandler(config *Config, client *elasticsearch.Client, validator *validation.Validator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		client:    client,
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

	sr := queries.SearchRequest{
		Index:     input.IndexName,
		QueryType: input.QueryType,
		Filters:   input.Filters,
	}
	if sr.Index == "" {
		sr.Index = h.defaultIndex(input.QueryType)
	}
	sr.Pagination.From = input.Pagination.From
	sr.Pagination.Size = input.Pagination.Size

	result, err := queries.Execute(ctx, h.client, sr)
	if err != nil {
		return nil, classify(ctx, sr, err)
	}

	h.logger.Debug("search executed", map[string]interface{}{
		"queryType": input.QueryType,
		"index":     sr.Index,
		"totalHits": result.TotalHits,
		"tookMs":    result.Took,
	})
	return &Output{
		IDs:       result.IDs,
		Data:      result.Data,
		TotalHits: result.TotalHits,
		MaxScore:  result.MaxScore,
		Took:      result.Took,
	}, nil
}

func (h *Handler) defaultIndex(queryType string) string {
	if queryType == queries.QueryTypeBuyerCandidates {
		return h.config.BuyersIndex
	}
	return h.config.ListingsIndex
}

// classify maps query package errors onto coded errors.
func classify(ctx context.Context, sr queries.SearchRequest, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewSearchTimeoutError(sr.QueryType)
	case errors.Is(err, queries.ErrUnknownQueryType):
		return apperrors.NewInvalidQueryTypeError(sr.QueryType)
	case errors.Is(err, queries.ErrMissingIndex):
		return apperrors.NewInvalidInputError(err.Error())
	case errors.Is(err, queries.ErrIndexNotFound):
		return apperrors.NewIndexNotFoundError(sr.Index)
	case errors.Is(err, queries.ErrTransport):
		return apperrors.NewElasticsearchConnectionFailedError(err)
	default:
		return apperrors.NewSearchQueryFailedError(sr.QueryType, err)
	}
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
