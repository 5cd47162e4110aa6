package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/osa911/formrelay/internal/api/constants"
	"github.com/osa911/formrelay/internal/api/dto/common"
	"github.com/osa911/formrelay/internal/form"
	"github.com/osa911/formrelay/internal/logging"
	"github.com/osa911/formrelay/internal/observability/metrics"
	"github.com/osa911/formrelay/internal/service"
	"github.com/osa911/formrelay/internal/utils"

	"github.com/gin-gonic/gin"
)

// BotVerifier checks a client-supplied bot verification token
type BotVerifier interface {
	VerifyToken(ctx context.Context, token, remoteIP string) (bool, error)
}

type FormHandler struct {
	verifier   BotVerifier
	normalizer *form.Normalizer
	mailer     service.MailSender
	metrics    *metrics.FormMetrics
	logger     *logging.Logger
}

func NewFormHandler(verifier BotVerifier, mailer service.MailSender, m *metrics.FormMetrics, logger *logging.Logger) *FormHandler {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &FormHandler{
		verifier:   verifier,
		normalizer: form.NewNormalizer(),
		mailer:     mailer,
		metrics:    m,
		logger:     logger,
	}
}

// Submit verifies the bot token, renders the submission and relays it.
// The steps run strictly in that order and the first failure ends the request.
func (h *FormHandler) Submit(c *gin.Context) {
	// Set by the DecodeSubmission middleware, which also counts bad bodies
	value, exists := c.Get(constants.ContextKeySubmission)
	submission, ok := value.(*form.Submission)
	if !exists || !ok {
		utils.HandleAPIError(c, h.logger, nil, http.StatusInternalServerError, common.MsgInternalError)
		return
	}

	ctx := c.Request.Context()

	isValid, err := h.verifier.VerifyToken(ctx, submission.Token(), utils.GetRealIP(c))
	if err != nil || !isValid {
		utils.HandleAPIError(c, h.logger, err, http.StatusForbidden, common.MsgVerificationFailed)
		h.metrics.ObserveSubmission(submission.Type, metrics.OutcomeVerificationFailed)
		return
	}

	email, err := h.normalizer.Normalize(submission)
	switch {
	case errors.Is(err, form.ErrUnknownFormType):
		utils.HandleAPIError(c, h.logger, err, http.StatusBadRequest, fmt.Sprintf(common.MsgInvalidFormType, submission.Type))
		h.metrics.ObserveSubmission(submission.Type, metrics.OutcomeInvalidType)
		return
	case errors.Is(err, form.ErrMissingFields):
		utils.HandleAPIError(c, h.logger, err, http.StatusBadRequest, common.MsgMissingFields)
		h.metrics.ObserveSubmission(submission.Type, metrics.OutcomeMissingFields)
		return
	case err != nil:
		utils.HandleAPIError(c, h.logger, err, http.StatusBadRequest, common.MsgMissingFields)
		h.metrics.ObserveSubmission(submission.Type, metrics.OutcomeMissingFields)
		return
	}

	start := time.Now()
	err = h.mailer.Send(ctx, email)
	h.metrics.ObserveRelayLatency(email.FormType, time.Since(start).Seconds())
	if err != nil {
		utils.HandleAPIError(c, h.logger, err, http.StatusInternalServerError, fmt.Sprintf(common.MsgRelayFailed, err))
		h.metrics.ObserveSubmission(email.FormType, metrics.OutcomeRelayFailed)
		return
	}

	h.metrics.ObserveSubmission(email.FormType, metrics.OutcomeSent)
	utils.HandleMessage(c, common.MsgEmailSent)
}
