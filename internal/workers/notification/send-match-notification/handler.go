// internal/workers/notification/send-match-notification/handler.go
package sendmatchnotification

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	awsclients "dealmatch-workers/internal/common/aws"
	apperrors "dealmatch-workers/internal/common/errors"
	"dealmatch-workers/internal/common/logger"
	"dealmatch-workers/internal/common/metrics"
	"dealmatch-workers/internal/common/validation"
	"dealmatch-workers/internal/models"
)

const (
	TaskType = "send-match-notification"
)

// ContactSource resolves where a recipient is reached.
type ContactSource interface {
	GetBuyer(ctx context.Context, id string) (*models.Buyer, error)
	SellerContact(ctx context.Context, sellerID string) (*models.Contact, error)
}

type Handler struct {
	config    *Config
	contacts  ContactSource
	sesClient awsclients.SESAPI
	snsClient awsclients.SNSAPI
	validator *validation.Validator
	logger    logger.Logger
	errors    *apperrors.ErrorHandler
	limiter   *rate.Limiter
	now       func() time.Time
}

func NewHandler(config *Config, contacts ContactSource, sesClient awsclients.SESAPI, snsClient awsclients.SNSAPI,
	validator *validation.Validator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	limit := rate.Inf
	if config.SendRate > 0 {
		limit = rate.Limit(config.SendRate)
	}
	return &Handler{
		config:    config,
		contacts:  contacts,
		sesClient: sesClient,
		snsClient: snsClient,
		validator: validator,
		logger:    log,
		errors:    apperrors.NewErrorHandler(log),
		limiter:   rate.NewLimiter(limit, 1),
		now:       time.Now,
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
	if len(input.Matches) == 0 {
		return &Output{Notifications: []models.Notification{}, Skipped: true}, nil
	}

	notificationType, err := typeFor(input.RecipientType)
	if err != nil {
		return nil, err
	}

	contact, err := h.contact(ctx, input.RecipientType, input.RecipientID)
	if err != nil {
		return nil, err
	}
	if contact.Email == "" && contact.Phone == "" {
		return nil, apperrors.NewRecipientNotFoundError(input.RecipientType, input.RecipientID)
	}

	matches := append([]MatchSummary(nil), input.Matches...)
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	top := matches[0]

	tmpl := templates[notificationType]
	data := map[string]interface{}{
		"name":     contact.Name,
		"count":    len(matches),
		"list":     matchList(matches, h.config.MaxListed),
		"topTitle": top.Title,
		"topScore": top.Score,
	}
	payload := map[string]interface{}{
		"matchCount": len(matches),
		"topMatchId": top.ID,
		"topScore":   top.Score,
	}

	base := models.Notification{
		RecipientID:   input.RecipientID,
		RecipientType: input.RecipientType,
		Type:          notificationType,
		Payload:       payload,
	}

	var (
		out     = &Output{Notifications: []models.Notification{}}
		lastErr error
		failed  string
	)

	if h.wants(input, ChannelEmail) {
		n := h.attempt(base, ChannelEmail, h.config.EmailEnabled && contact.Email != "", func() error {
			return h.sendEmail(ctx, contact.Email, renderTemplate(tmpl.subject, data), renderTemplate(tmpl.body, data))
		})
		if n.err != nil {
			lastErr, failed = n.err, ChannelEmail
		}
		out.add(n.Notification)
	}

	if h.wants(input, ChannelSMS) && top.Score >= h.config.HighScoreAlert {
		n := h.attempt(base, ChannelSMS, h.config.SMSEnabled && contact.Phone != "", func() error {
			return h.sendSMS(ctx, contact.Phone, renderTemplate(tmpl.sms, data))
		})
		if n.err != nil {
			lastErr, failed = n.err, ChannelSMS
		}
		out.add(n.Notification)
	}

	if out.SentCount == 0 && lastErr != nil {
		return nil, apperrors.NewNotificationSendFailedError(failed, lastErr)
	}

	h.logger.Info("match notification processed", map[string]interface{}{
		"recipientId":   input.RecipientID,
		"recipientType": input.RecipientType,
		"sentCount":     out.SentCount,
		"topScore":      top.Score,
	})
	return out, nil
}

type attemptResult struct {
	models.Notification
	err error
}

// attempt runs send when enabled and records the outcome as a notification.
func (h *Handler) attempt(base models.Notification, channel string, enabled bool, send func() error) attemptResult {
	n := base
	n.ID = uuid.New().String()
	n.Channel = channel
	n.SentAt = h.now().UTC().Format(time.RFC3339)

	if !enabled {
		n.Status = StatusDisabled
		metrics.NotificationsSent.WithLabelValues(channel, StatusDisabled).Inc()
		return attemptResult{Notification: n}
	}

	if err := send(); err != nil {
		h.logger.Error("notification send failed", map[string]interface{}{
			"channel":     channel,
			"recipientId": base.RecipientID,
			"error":       err,
		})
		n.Status = StatusFailed
		metrics.NotificationsSent.WithLabelValues(channel, StatusFailed).Inc()
		return attemptResult{Notification: n, err: err}
	}

	n.Status = StatusSent
	metrics.NotificationsSent.WithLabelValues(channel, StatusSent).Inc()
	return attemptResult{Notification: n}
}

func (o *Output) add(n models.Notification) {
	o.Notifications = append(o.Notifications, n)
	if n.Status == StatusSent {
		o.SentCount++
	}
}

func (h *Handler) wants(input *Input, channel string) bool {
	if len(input.Channels) == 0 {
		return true
	}
	for _, c := range input.Channels {
		if c == channel {
			return true
		}
	}
	return false
}

func typeFor(recipientType string) (string, error) {
	switch recipientType {
	case RecipientTypeBuyer:
		return TypeBuyerMatches, nil
	case RecipientTypeSeller:
		return TypeListingMatches, nil
	default:
		return "", apperrors.NewInvalidInputError(fmt.Sprintf("invalid recipient type: %s", recipientType))
	}
}

func (h *Handler) contact(ctx context.Context, recipientType, id string) (*models.Contact, error) {
	if recipientType == RecipientTypeSeller {
		return h.contacts.SellerContact(ctx, id)
	}
	buyer, err := h.contacts.GetBuyer(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.Contact{Name: buyer.Name, Email: buyer.Email, Phone: buyer.Phone}, nil
}

func (h *Handler) sendEmail(ctx context.Context, to, subject, body string) error {
	if err := h.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	return err
}

func (h *Handler) sendSMS(ctx context.Context, to, message string) error {
	in := &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	}
	if err := h.limiter.Wait(ctx); err != nil {
		return err
	}
	if h.config.SenderID != "" {
		in.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {DataType: aws.String("String"), StringValue: aws.String(h.config.SenderID)},
			"AWS.SNS.SMS.SMSType":  {DataType: aws.String("String"), StringValue: aws.String("Transactional")},
		}
	}
	_, err := h.snsClient.Publish(ctx, in)
	return err
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
