package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/niklvrr/dotbounty/internal/domain"
	"github.com/niklvrr/dotbounty/internal/infrastructure/models/dto"
	"github.com/niklvrr/dotbounty/internal/infrastructure/models/result"
	"github.com/niklvrr/dotbounty/internal/infrastructure/repository"
	"github.com/niklvrr/dotbounty/pkg/metrics"
	"go.uber.org/zap"
)

const (
	EventPullRequest = "pull_request"
	EventIssues      = "issues"

	ActionOpened = "opened"
	ActionClosed = "closed"
)

type WebhookOutcome string

const (
	OutcomeProcessed WebhookOutcome = "processed"
	OutcomeDropped   WebhookOutcome = "dropped"
)

// Причины, по которым событие пропускается без ошибки
const (
	reasonActionIgnored      = "action ignored"
	reasonNoIssueReference   = "no issue reference"
	reasonTaskNotFound       = "task not found"
	reasonRepoMismatch       = "repository mismatch"
	reasonProfileNotFound    = "contributor profile not found"
	reasonAlreadyApproved    = "contributor already approved on task"
	reasonContributionAbsent = "contribution not found"
	reasonContributionFinal  = "contribution already finalized"
	reasonProjectNotFound    = "project not found"
	reasonNoRewardLabel      = "no reward label"
	reasonTaskExists         = "task already exists"
)

type PullRequestEvent struct {
	Action      string
	Number      int
	Title       string
	Body        string
	HTMLURL     string
	Merged      bool
	AuthorLogin string
	RepoURL     string
}

type IssueEvent struct {
	Action  string
	Number  int
	Title   string
	Body    string
	HTMLURL string
	Labels  []string
	RepoURL string
}

// WebhookResult - итог обработки доставки. Пропуск события - не ошибка.
type WebhookResult struct {
	Event   string
	Action  string
	Outcome WebhookOutcome
	Reason  string
}

// ContributionTransitions - переходы вклада, общие с ручным одобрением
type ContributionTransitions interface {
	ApproveMerged(ctx context.Context, contributionId uuid.UUID) (*ApprovalResult, error)
	RejectClosed(ctx context.Context, contributionId uuid.UUID) (*domain.Contribution, error)
}

type WebhookService struct {
	tasks         TaskRepository
	contributions ContributionRepository
	projects      ProjectRepository
	profiles      ProfileRepository
	transitions   ContributionTransitions
	log           *zap.Logger
}

func NewWebhookService(
	tasks TaskRepository,
	contributions ContributionRepository,
	projects ProjectRepository,
	profiles ProfileRepository,
	transitions ContributionTransitions,
	log *zap.Logger,
) *WebhookService {
	return &WebhookService{
		tasks:         tasks,
		contributions: contributions,
		projects:      projects,
		profiles:      profiles,
		transitions:   transitions,
		log:           log,
	}
}

func (s *WebhookService) HandlePullRequest(ctx context.Context, ev *PullRequestEvent) (*WebhookResult, error) {
	res := &WebhookResult{Event: EventPullRequest, Action: ev.Action}

	if ev.Action != ActionOpened && ev.Action != ActionClosed {
		return s.finish(res, OutcomeDropped, reasonActionIgnored), nil
	}
	if ev.Number <= 0 || ev.RepoURL == "" || ev.AuthorLogin == "" {
		return s.finish(res, OutcomeDropped, ErrMalformedEvent.Message), nil
	}

	issueNumber, ok := extractIssueNumber(ev.Body, ev.Title)
	if !ok {
		return s.finish(res, OutcomeDropped, reasonNoIssueReference), nil
	}

	task, reason, err := s.resolveTask(ctx, issueNumber, ev.RepoURL)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return s.finish(res, OutcomeDropped, reason), nil
	}

	if ev.Action == ActionOpened {
		return s.openContribution(ctx, res, task, ev)
	}
	return s.closeContribution(ctx, res, task, ev)
}

func (s *WebhookService) HandleIssue(ctx context.Context, ev *IssueEvent) (*WebhookResult, error) {
	res := &WebhookResult{Event: EventIssues, Action: ev.Action}

	if ev.Action != ActionOpened && ev.Action != ActionClosed {
		return s.finish(res, OutcomeDropped, reasonActionIgnored), nil
	}
	if ev.Number <= 0 || ev.RepoURL == "" {
		return s.finish(res, OutcomeDropped, ErrMalformedEvent.Message), nil
	}

	project, err := s.projects.GetByRepoURL(ctx, ev.RepoURL)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.finish(res, OutcomeDropped, reasonProjectNotFound), nil
		}
		return nil, mapRepoError(err, nil)
	}

	if ev.Action == ActionClosed {
		// закрытие issue закрывает задачу в любом статусе, escrow не трогается
		n, err := s.tasks.CloseByIssue(ctx, project.Id, ev.Number)
		if err != nil {
			return nil, mapRepoError(err, nil)
		}
		if n == 0 {
			return s.finish(res, OutcomeDropped, reasonTaskNotFound), nil
		}
		return s.finish(res, OutcomeProcessed, "task closed"), nil
	}

	reward, ok := parseRewardLabel(ev.Labels)
	if !ok {
		return s.finish(res, OutcomeDropped, reasonNoRewardLabel), nil
	}

	task, created, err := s.tasks.CreateFromIssue(ctx, &dto.CreateTaskFromIssueDTO{
		ProjectId:   project.Id,
		Title:       ev.Title,
		Description: ev.Body,
		IssueNumber: ev.Number,
		IssueURL:    ev.HTMLURL,
		Reward:      reward,
		Tags:        ev.Labels,
	})
	if err != nil {
		return nil, mapRepoError(err, nil)
	}
	if !created {
		return s.finish(res, OutcomeDropped, reasonTaskExists), nil
	}

	s.log.Info("task created from issue",
		zap.String("task_id", task.Id.String()),
		zap.Int("issue_number", ev.Number),
		zap.String("reward", reward.String()),
	)
	return s.finish(res, OutcomeProcessed, "task created"), nil
}

// resolveTask находит задачу по номеру issue в репозитории PR.
// nil без ошибки означает пропуск события с причиной reason.
func (s *WebhookService) resolveTask(ctx context.Context, issueNumber int, repoURL string) (*domain.Task, string, error) {
	candidates, err := s.tasks.ListByIssueNumber(ctx, issueNumber)
	if err != nil {
		return nil, "", mapRepoError(err, nil)
	}
	if len(candidates) == 0 {
		return nil, reasonTaskNotFound, nil
	}

	var match *result.TaskWithProject
	for _, c := range candidates {
		if c.Project.RepoURL == repoURL {
			match = c
			break
		}
	}
	if match == nil {
		s.log.Warn("pull request repository does not match task repository",
			zap.Int("issue_number", issueNumber),
			zap.String("repo_url", repoURL),
		)
		return nil, reasonRepoMismatch, nil
	}
	return &match.Task, "", nil
}

func (s *WebhookService) openContribution(ctx context.Context, res *WebhookResult, task *domain.Task, ev *PullRequestEvent) (*WebhookResult, error) {
	profile, err := s.profiles.GetByGitHubUsername(ctx, ev.AuthorLogin)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.finish(res, OutcomeDropped, reasonProfileNotFound), nil
		}
		return nil, mapRepoError(err, nil)
	}

	approved, err := s.contributions.HasApproved(ctx, task.Id, profile.Id)
	if err != nil {
		return nil, mapRepoError(err, nil)
	}
	if approved {
		return s.finish(res, OutcomeDropped, reasonAlreadyApproved), nil
	}

	c, created, err := s.contributions.UpsertPending(ctx, &dto.UpsertContributionDTO{
		TaskId:        task.Id,
		ContributorId: profile.Id,
		PrNumber:      ev.Number,
		PrURL:         ev.HTMLURL,
	})
	if err != nil {
		return nil, mapRepoError(err, nil)
	}

	s.log.Info("contribution tracked",
		zap.String("contribution_id", c.Id.String()),
		zap.String("task_id", task.Id.String()),
		zap.Bool("created", created),
	)
	if created {
		return s.finish(res, OutcomeProcessed, "contribution created"), nil
	}
	return s.finish(res, OutcomeProcessed, "contribution updated"), nil
}

func (s *WebhookService) closeContribution(ctx context.Context, res *WebhookResult, task *domain.Task, ev *PullRequestEvent) (*WebhookResult, error) {
	c, err := s.contributions.FindByTaskAndPr(ctx, task.Id, ev.Number)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.finish(res, OutcomeDropped, reasonContributionAbsent), nil
		}
		return nil, mapRepoError(err, nil)
	}
	if c.Status.IsTerminal() {
		return s.finish(res, OutcomeDropped, reasonContributionFinal), nil
	}

	if !ev.Merged {
		if _, err := s.transitions.RejectClosed(ctx, c.Id); err != nil {
			return s.transitionError(res, err)
		}
		return s.finish(res, OutcomeProcessed, "contribution rejected"), nil
	}

	approval, err := s.transitions.ApproveMerged(ctx, c.Id)
	if err != nil {
		return s.transitionError(res, err)
	}
	reason := fmt.Sprintf("contribution approved, payout %s", approval.Payout.Status)
	return s.finish(res, OutcomeProcessed, reason), nil
}

// transitionError: гонка с параллельной доставкой - пропуск, остальное - ошибка
func (s *WebhookService) transitionError(res *WebhookResult, err error) (*WebhookResult, error) {
	if errors.Is(err, ErrContributionFinalized) || errors.Is(err, ErrContributionNotFound) {
		return s.finish(res, OutcomeDropped, reasonContributionFinal), nil
	}
	return nil, err
}

func (s *WebhookService) finish(res *WebhookResult, outcome WebhookOutcome, reason string) *WebhookResult {
	res.Outcome = outcome
	res.Reason = reason
	metrics.WebhookEvents.WithLabelValues(res.Event, res.Action, string(outcome)).Inc()

	s.log.Info("webhook event handled",
		zap.String("event", res.Event),
		zap.String("action", res.Action),
		zap.String("outcome", string(outcome)),
		zap.String("reason", reason),
	)
	return res
}
