package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/niklvrr/dotbounty/internal/domain"
	"github.com/niklvrr/dotbounty/internal/infrastructure/models/dto"
	"github.com/niklvrr/dotbounty/internal/infrastructure/models/result"
	"github.com/niklvrr/dotbounty/internal/infrastructure/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// memStore - хранилище в памяти с теми же условными переходами, что и SQL репозитории
type memStore struct {
	mu            sync.Mutex
	profiles      map[uuid.UUID]*domain.Profile
	projects      map[uuid.UUID]*domain.Project
	tasks         map[uuid.UUID]*domain.Task
	contributions map[uuid.UUID]*domain.Contribution
	payouts       map[uuid.UUID]*domain.Payout
	payoutOrder   []uuid.UUID
	clock         time.Time
}

func newMemStore() *memStore {
	return &memStore{
		profiles:      make(map[uuid.UUID]*domain.Profile),
		projects:      make(map[uuid.UUID]*domain.Project),
		tasks:         make(map[uuid.UUID]*domain.Task),
		contributions: make(map[uuid.UUID]*domain.Contribution),
		payouts:       make(map[uuid.UUID]*domain.Payout),
		clock:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *memStore) now() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memStore) addProfile(login, address string) *domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &domain.Profile{
		Id:              uuid.New(),
		DisplayName:     login,
		GitHubUsername:  login,
		PolkadotAddress: address,
		CreatedAt:       s.now(),
	}
	s.profiles[p.Id] = p
	return p
}

func (s *memStore) addProject(maintainer uuid.UUID, owner, repo string) *domain.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &domain.Project{
		Id:           uuid.New(),
		MaintainerId: maintainer,
		Owner:        owner,
		RepoName:     repo,
		RepoURL:      fmt.Sprintf("https://github.com/%s/%s", owner, repo),
		IsActive:     true,
		CreatedAt:    s.now(),
	}
	s.projects[p.Id] = p
	return p
}

func (s *memStore) addTask(projectId uuid.UUID, issue int, reward string) *domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := issue
	t := &domain.Task{
		Id:           uuid.New(),
		ProjectId:    projectId,
		Title:        fmt.Sprintf("issue %d", issue),
		Reward:       decimal.RequireFromString(reward),
		Status:       domain.TaskOpen,
		EscrowStatus: domain.EscrowPending,
		IssueNumber:  &n,
		CreatedAt:    s.now(),
	}
	s.tasks[t.Id] = t
	return t
}

func (s *memStore) addContribution(taskId, contributorId uuid.UUID, pr int) *domain.Contribution {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &domain.Contribution{
		Id:            uuid.New(),
		TaskId:        taskId,
		ContributorId: contributorId,
		PrNumber:      pr,
		PrURL:         fmt.Sprintf("https://github.com/pr/%d", pr),
		Status:        domain.ContributionPending,
		SubmittedAt:   s.now(),
	}
	s.contributions[c.Id] = c
	return c
}

func (s *memStore) task(id uuid.UUID) domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.tasks[id]
}

func (s *memStore) contribution(id uuid.UUID) domain.Contribution {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.contributions[id]
}

func (s *memStore) payoutsFor(contributionId uuid.UUID) []domain.Payout {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Payout
	for _, id := range s.payoutOrder {
		if p := s.payouts[id]; p.ContributionId == contributionId {
			out = append(out, *p)
		}
	}
	return out
}

func (s *memStore) contributionsFor(taskId uuid.UUID) []domain.Contribution {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Contribution
	for _, c := range s.contributions {
		if c.TaskId == taskId {
			out = append(out, *c)
		}
	}
	return out
}

// TaskRepository

func (s *memStore) GetWithProject(_ context.Context, taskId uuid.UUID) (*result.TaskWithProject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskId]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &result.TaskWithProject{Task: *t, Project: *s.projects[t.ProjectId]}, nil
}

func (s *memStore) ListByIssueNumber(_ context.Context, issueNumber int) ([]*result.TaskWithProject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*result.TaskWithProject
	for _, t := range s.tasks {
		if t.IssueNumber != nil && *t.IssueNumber == issueNumber {
			out = append(out, &result.TaskWithProject{Task: *t, Project: *s.projects[t.ProjectId]})
		}
	}
	return out, nil
}

func (s *memStore) CreateFromIssue(_ context.Context, d *dto.CreateTaskFromIssueDTO) (*domain.Task, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.ProjectId == d.ProjectId && t.IssueNumber != nil && *t.IssueNumber == d.IssueNumber {
			return nil, false, nil
		}
	}
	n := d.IssueNumber
	t := &domain.Task{
		Id:           uuid.New(),
		ProjectId:    d.ProjectId,
		Title:        d.Title,
		Description:  d.Description,
		Reward:       d.Reward,
		Status:       domain.TaskOpen,
		EscrowStatus: domain.EscrowPending,
		IssueNumber:  &n,
		IssueURL:     d.IssueURL,
		Tags:         d.Tags,
		CreatedAt:    s.now(),
	}
	s.tasks[t.Id] = t
	cp := *t
	return &cp, true, nil
}

func (s *memStore) FundEscrow(_ context.Context, taskId uuid.UUID, amount decimal.Decimal) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskId]
	if !ok || t.EscrowStatus != domain.EscrowPending {
		return false, nil
	}
	now := s.now()
	t.EscrowStatus = domain.EscrowFunded
	t.EscrowAmount = decimal.NewNullDecimal(amount)
	t.EscrowFundedAt = &now
	return true, nil
}

func (s *memStore) UpdateEscrowStatus(_ context.Context, taskId uuid.UUID, from, to domain.EscrowStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskId]
	if !ok || t.EscrowStatus != from {
		return false, nil
	}
	t.EscrowStatus = to
	return true, nil
}

func (s *memStore) CloseByIssue(_ context.Context, projectId uuid.UUID, issueNumber int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, t := range s.tasks {
		if t.ProjectId == projectId && t.IssueNumber != nil && *t.IssueNumber == issueNumber {
			t.Status = domain.TaskClosed
			n++
		}
	}
	return n, nil
}

func (s *memStore) ListStale(_ context.Context, createdBefore time.Time) ([]*result.StaleTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*result.StaleTask
	for _, t := range s.tasks {
		if t.Status == domain.TaskOpen && t.CreatedAt.Before(createdBefore) {
			p := s.projects[t.ProjectId]
			out = append(out, &result.StaleTask{Task: *t, RepoName: p.RepoName, MaintainerId: p.MaintainerId})
		}
	}
	return out, nil
}

// ContributionRepository

func (s *memStore) GetContext(_ context.Context, contributionId uuid.UUID) (*result.ContributionContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contributions[contributionId]
	if !ok {
		return nil, repository.ErrNotFound
	}
	t := s.tasks[c.TaskId]
	res := &result.ContributionContext{
		Contribution: *c,
		Task:         *t,
		Project:      *s.projects[t.ProjectId],
	}
	if p, ok := s.profiles[c.ContributorId]; ok {
		res.ContributorAddress = p.PolkadotAddress
	}
	return res, nil
}

func (s *memStore) UpsertPending(_ context.Context, d *dto.UpsertContributionDTO) (*domain.Contribution, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.contributions {
		if c.TaskId == d.TaskId && c.ContributorId == d.ContributorId && c.Status == domain.ContributionPending {
			c.PrNumber = d.PrNumber
			c.PrURL = d.PrURL
			cp := *c
			return &cp, false, nil
		}
	}
	c := &domain.Contribution{
		Id:            uuid.New(),
		TaskId:        d.TaskId,
		ContributorId: d.ContributorId,
		PrNumber:      d.PrNumber,
		PrURL:         d.PrURL,
		Status:        domain.ContributionPending,
		SubmittedAt:   s.now(),
	}
	s.contributions[c.Id] = c
	cp := *c
	return &cp, true, nil
}

func (s *memStore) HasApproved(_ context.Context, taskId, contributorId uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.contributions {
		if c.TaskId == taskId && c.ContributorId == contributorId && c.Status == domain.ContributionApproved {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) FindByTaskAndPr(_ context.Context, taskId uuid.UUID, prNumber int) (*domain.Contribution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *domain.Contribution
	for _, c := range s.contributions {
		if c.TaskId != taskId || c.PrNumber != prNumber {
			continue
		}
		switch {
		case best == nil:
			best = c
		case c.Status == domain.ContributionPending && best.Status != domain.ContributionPending:
			best = c
		case (c.Status == domain.ContributionPending) == (best.Status == domain.ContributionPending) && c.SubmittedAt.After(best.SubmittedAt):
			best = c
		}
	}
	if best == nil {
		return nil, repository.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (s *memStore) Approve(_ context.Context, contributionId, taskId uuid.UUID, d *dto.CreatePayoutDTO) (*domain.Payout, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contributions[contributionId]
	if !ok || c.Status != domain.ContributionPending {
		return nil, false, nil
	}
	now := s.now()
	c.Status = domain.ContributionApproved
	c.ApprovedAt = &now
	t := s.tasks[taskId]
	t.Status = domain.TaskCompleted
	t.CompletedAt = &now

	p := s.insertPayout(&dto.CreatePayoutDTO{
		ContributionId: contributionId,
		RecipientId:    d.RecipientId,
		Amount:         d.Amount,
		Address:        d.Address,
		Status:         domain.PayoutPending,
	})
	return &p, true, nil
}

func (s *memStore) Reject(_ context.Context, contributionId uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contributions[contributionId]
	if !ok || c.Status != domain.ContributionPending {
		return false, nil
	}
	c.Status = domain.ContributionRejected
	return true, nil
}

// PayoutRepository

func (s *memStore) Create(_ context.Context, d *dto.CreatePayoutDTO) (*domain.Payout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.insertPayout(d)
	return &p, nil
}

func (s *memStore) insertPayout(d *dto.CreatePayoutDTO) domain.Payout {
	p := &domain.Payout{
		Id:             uuid.New(),
		ContributionId: d.ContributionId,
		RecipientId:    d.RecipientId,
		Amount:         d.Amount,
		Address:        d.Address,
		Status:         d.Status,
		FailureReason:  d.FailureReason,
		CreatedAt:      s.now(),
	}
	s.payouts[p.Id] = p
	s.payoutOrder = append(s.payoutOrder, p.Id)
	return *p
}

func (s *memStore) GetByID(_ context.Context, payoutId uuid.UUID) (*domain.Payout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payouts[payoutId]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) GetPendingByContribution(_ context.Context, contributionId uuid.UUID) (*domain.Payout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.payoutOrder {
		if p := s.payouts[id]; p.ContributionId == contributionId && p.Status == domain.PayoutPending {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) Claim(_ context.Context, payoutId uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payouts[payoutId]
	if !ok || p.Status != domain.PayoutPending {
		return false, nil
	}
	p.Status = domain.PayoutProcessing
	return true, nil
}

func (s *memStore) MarkCompleted(_ context.Context, payoutId uuid.UUID, address, txHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payouts[payoutId]
	if !ok || p.Status != domain.PayoutProcessing {
		return repository.ErrNotFound
	}
	for _, other := range s.payouts {
		if other.ContributionId == p.ContributionId && other.Status == domain.PayoutCompleted {
			return repository.ErrAlreadyExists
		}
	}
	now := s.now()
	p.Status = domain.PayoutCompleted
	p.Address = address
	p.TransactionHash = txHash
	p.FailureReason = ""
	p.PaidAt = &now
	return nil
}

func (s *memStore) MarkFailed(_ context.Context, payoutId uuid.UUID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payouts[payoutId]
	if !ok || (p.Status != domain.PayoutPending && p.Status != domain.PayoutProcessing) {
		return repository.ErrNotFound
	}
	p.Status = domain.PayoutFailed
	p.FailureReason = reason
	return nil
}

func (s *memStore) ResetToPending(_ context.Context, payoutId uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payouts[payoutId]
	if !ok || p.Status != domain.PayoutFailed {
		return false, nil
	}
	p.Status = domain.PayoutPending
	p.FailureReason = ""
	return true, nil
}

func (s *memStore) ListPending(_ context.Context, limit int) ([]*result.PendingPayout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*result.PendingPayout
	for _, id := range s.payoutOrder {
		p := s.payouts[id]
		if p.Status != domain.PayoutPending {
			continue
		}
		c := s.contributions[p.ContributionId]
		t := s.tasks[c.TaskId]
		address := p.Address
		if prof, ok := s.profiles[p.RecipientId]; ok && prof.PolkadotAddress != "" {
			address = prof.PolkadotAddress
		}
		out = append(out, &result.PendingPayout{
			Payout:         *p,
			TaskId:         t.Id,
			EscrowStatus:   t.EscrowStatus,
			CurrentAddress: address,
		})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *memStore) HasCompletedForTask(_ context.Context, taskId uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payouts {
		if p.Status == domain.PayoutCompleted && s.contributions[p.ContributionId].TaskId == taskId {
			return true, nil
		}
	}
	return false, nil
}

// ProjectRepository

func (s *memStore) GetByRepoURL(_ context.Context, repoURL string) (*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		if p.RepoURL == repoURL {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) ListActive(_ context.Context) ([]*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Project
	for _, p := range s.projects {
		if p.IsActive {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memStore) UpdateRepoStats(_ context.Context, d *dto.RepoStatsDTO) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[d.ProjectId]
	if !ok {
		return repository.ErrNotFound
	}
	now := s.now()
	p.Stars, p.Forks, p.OpenIssues = d.Stars, d.Forks, d.OpenIssues
	p.LastSyncedAt = &now
	return nil
}

// ProfileRepository

func (s *memStore) GetByGitHubUsername(_ context.Context, login string) (*domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.profiles {
		if strings.EqualFold(p.GitHubUsername, login) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) UpdateWalletAddress(_ context.Context, userId uuid.UUID, address string) (*domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userId]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p.PolkadotAddress = address
	cp := *p
	return &cp, nil
}

// fakeChain считает переводы и может отказывать
type fakeChain struct {
	mu        sync.Mutex
	fail      bool
	transfers []string
}

var errChainDown = errors.New("rpc endpoint unavailable")

func (c *fakeChain) Transfer(_ context.Context, to string, amount decimal.Decimal) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return "", errChainDown
	}
	c.transfers = append(c.transfers, to+":"+amount.String())
	return fmt.Sprintf("0x%064x", len(c.transfers)), nil
}

func (c *fakeChain) setFail(fail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = fail
}

func (c *fakeChain) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.transfers)
}

// harness собирает сервисы поверх memStore так же, как composition root
type harness struct {
	store     *memStore
	chain     *fakeChain
	escrow    *EscrowService
	lifecycle *LifecycleService
	webhook   *WebhookService
	sweep     *SweepService
}

func newHarness() *harness {
	log := zap.NewNop()
	store := newMemStore()
	chain := &fakeChain{}
	escrow := NewEscrowService(store, store, store, chain, log)
	lifecycle := NewLifecycleService(store, store, escrow, log)
	return &harness{
		store:     store,
		chain:     chain,
		escrow:    escrow,
		lifecycle: lifecycle,
		webhook:   NewWebhookService(store, store, store, store, lifecycle, log),
		sweep:     NewSweepService(store, store, store, escrow, nil, log),
	}
}
