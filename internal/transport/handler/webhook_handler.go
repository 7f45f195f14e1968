package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/google/go-github/v66/github"
	"github.com/niklvrr/dotbounty/internal/transport/dto/response"
	"github.com/niklvrr/dotbounty/internal/usecase/service"
	"github.com/niklvrr/dotbounty/pkg/metrics"
	"go.uber.org/zap"
)

const maxWebhookBody = 5 << 20

type WebhookService interface {
	HandlePullRequest(ctx context.Context, ev *service.PullRequestEvent) (*service.WebhookResult, error)
	HandleIssue(ctx context.Context, ev *service.IssueEvent) (*service.WebhookResult, error)
}

type WebhookHandler struct {
	svc        WebhookService
	secret     []byte
	skipVerify bool
	log        *zap.Logger
}

func NewWebhookHandler(svc WebhookService, secret string, skipVerify bool, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		svc:        svc,
		secret:     []byte(secret),
		skipVerify: skipVerify,
		log:        log,
	}
}

// GitHub принимает доставки pull_request и issues. Любое событие, которое
// не удалось сопоставить, подтверждается 200, чтобы GitHub не ретраил его.
func (h *WebhookHandler) GitHub(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: ErrorDetail{
				Code:    service.CodeInvalidInput,
				Message: "payload too large",
			}})
			return
		}
		writeFailure(w, service.WrapError(service.ErrInvalidInput, err))
		return
	}

	if !h.skipVerify {
		if err := h.verify(r, payload); err != nil {
			h.log.Warn("webhook signature rejected",
				zap.String("delivery", github.DeliveryID(r)),
				zap.Error(err),
			)
			WriteError(w, http.StatusUnauthorized, ErrorResponse{Error: ErrorDetail{
				Code:    service.CodeUnauthorized,
				Message: "invalid signature",
			}})
			return
		}
	}

	eventType := github.WebHookType(r)
	if eventType != service.EventPullRequest && eventType != service.EventIssues {
		writeJSON(w, http.StatusOK, &response.WebhookResponse{
			Message: "event ignored",
			Outcome: string(service.OutcomeDropped),
			Reason:  "unsupported event " + eventType,
		})
		return
	}

	event, err := github.ParseWebHook(eventType, payload)
	if err != nil {
		h.log.Warn("malformed webhook payload",
			zap.String("event", eventType),
			zap.String("delivery", github.DeliveryID(r)),
			zap.Error(err),
		)
		dropMalformed(w, eventType)
		return
	}

	var res *service.WebhookResult
	switch e := event.(type) {
	case *github.PullRequestEvent:
		res, err = h.svc.HandlePullRequest(r.Context(), pullRequestEvent(e))
	case *github.IssuesEvent:
		res, err = h.svc.HandleIssue(r.Context(), issueEvent(e))
	default:
		dropMalformed(w, eventType)
		return
	}
	if err != nil {
		h.log.Error("webhook processing failed",
			zap.String("event", eventType),
			zap.String("delivery", github.DeliveryID(r)),
			zap.Error(err),
		)
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &response.WebhookResponse{
		Message: "webhook processed",
		Outcome: string(res.Outcome),
		Reason:  res.Reason,
	})
}

// Подписанную, но неразбираемую доставку подтверждаем как отброшенную
func dropMalformed(w http.ResponseWriter, eventType string) {
	metrics.WebhookEvents.WithLabelValues(eventType, "", string(service.OutcomeDropped)).Inc()
	writeJSON(w, http.StatusOK, &response.WebhookResponse{
		Message: "event ignored",
		Outcome: string(service.OutcomeDropped),
		Reason:  service.ErrMalformedEvent.Message,
	})
}

func (h *WebhookHandler) verify(r *http.Request, payload []byte) error {
	if len(h.secret) == 0 {
		return errors.New("webhook secret is not configured")
	}
	return github.ValidateSignature(r.Header.Get(github.SHA256SignatureHeader), payload, h.secret)
}

func pullRequestEvent(e *github.PullRequestEvent) *service.PullRequestEvent {
	pr := e.GetPullRequest()
	return &service.PullRequestEvent{
		Action:      e.GetAction(),
		Number:      pr.GetNumber(),
		Title:       pr.GetTitle(),
		Body:        pr.GetBody(),
		HTMLURL:     pr.GetHTMLURL(),
		Merged:      pr.GetMerged(),
		AuthorLogin: pr.GetUser().GetLogin(),
		RepoURL:     e.GetRepo().GetHTMLURL(),
	}
}

func issueEvent(e *github.IssuesEvent) *service.IssueEvent {
	issue := e.GetIssue()
	labels := make([]string, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, l.GetName())
	}
	return &service.IssueEvent{
		Action:  e.GetAction(),
		Number:  issue.GetNumber(),
		Title:   issue.GetTitle(),
		Body:    issue.GetBody(),
		HTMLURL: issue.GetHTMLURL(),
		Labels:  labels,
		RepoURL: e.GetRepo().GetHTMLURL(),
	}
}
