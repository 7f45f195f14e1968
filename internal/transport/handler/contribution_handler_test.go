package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/niklvrr/dotbounty/internal/domain"
	"github.com/niklvrr/dotbounty/internal/transport/dto/response"
	"github.com/niklvrr/dotbounty/internal/transport/middleware"
	"github.com/niklvrr/dotbounty/internal/usecase/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func approveRequest(t *testing.T, caller, contributionId uuid.UUID) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/contributions/"+contributionId.String()+"/approve", nil)
	if caller != uuid.Nil {
		req = req.WithContext(middleware.WithUserID(req.Context(), caller))
	}
	return withURLParam(req, "id", contributionId.String())
}

func TestContributionHandler_Approve_PayoutFailureStillOK(t *testing.T) {
	svc := new(MockContributionService)
	handler := NewContributionHandler(svc, zap.NewNop())

	caller := uuid.New()
	contribution := domain.Contribution{Id: uuid.New(), TaskId: uuid.New(), Status: domain.ContributionApproved}
	svc.On("Approve", mock.Anything, caller, contribution.Id).Return(&service.ApprovalResult{
		Contribution: contribution,
		TaskStatus:   domain.TaskCompleted,
		Payout: service.PayoutOutcome{
			Status: domain.PayoutFailed,
			Error:  service.ErrWalletMissing.Message,
		},
	}, nil)

	w := httptest.NewRecorder()
	handler.Approve(w, approveRequest(t, caller, contribution.Id))

	require.Equal(t, http.StatusOK, w.Code)
	var resp response.ApproveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "approved", resp.Status)
	assert.Equal(t, "completed", resp.TaskStatus)
	assert.Equal(t, contribution.TaskId.String(), resp.TaskId)
	assert.Equal(t, "failed", resp.Payout.Status)
	assert.Nil(t, resp.Payout.PayoutId)
	require.NotNil(t, resp.Payout.Error)
	assert.Equal(t, service.ErrWalletMissing.Message, *resp.Payout.Error)
	svc.AssertExpectations(t)
}

func TestContributionHandler_Approve_Paid(t *testing.T) {
	svc := new(MockContributionService)
	handler := NewContributionHandler(svc, zap.NewNop())

	caller := uuid.New()
	payoutId := uuid.New()
	contribution := domain.Contribution{Id: uuid.New(), TaskId: uuid.New(), Status: domain.ContributionApproved}
	svc.On("Approve", mock.Anything, caller, contribution.Id).Return(&service.ApprovalResult{
		Contribution: contribution,
		TaskStatus:   domain.TaskCompleted,
		Payout: service.PayoutOutcome{
			Status:          domain.PayoutCompleted,
			PayoutId:        &payoutId,
			TransactionHash: "0xabc",
		},
	}, nil)

	w := httptest.NewRecorder()
	handler.Approve(w, approveRequest(t, caller, contribution.Id))

	require.Equal(t, http.StatusOK, w.Code)
	var resp response.ApproveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Payout.PayoutId)
	assert.Equal(t, payoutId.String(), *resp.Payout.PayoutId)
	require.NotNil(t, resp.Payout.TransactionHash)
	assert.Equal(t, "0xabc", *resp.Payout.TransactionHash)
	assert.Nil(t, resp.Payout.Error)
}

func TestContributionHandler_Approve_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"anonymous", service.ErrUnauthorized, http.StatusUnauthorized, service.CodeUnauthorized},
		{"not found", service.ErrContributionNotFound, http.StatusNotFound, service.CodeNotFound},
		{"not maintainer", service.ErrNotMaintainer, http.StatusForbidden, service.CodeForbidden},
		{"finalized", service.ErrContributionFinalized, http.StatusConflict, service.CodeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockContributionService)
			handler := NewContributionHandler(svc, zap.NewNop())
			id := uuid.New()
			svc.On("Approve", mock.Anything, uuid.Nil, id).Return(nil, tt.err)

			w := httptest.NewRecorder()
			handler.Approve(w, approveRequest(t, uuid.Nil, id))

			assert.Equal(t, tt.wantStatus, w.Code)
			var body errorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Error.Code)
		})
	}
}

func TestContributionHandler_InvalidId(t *testing.T) {
	svc := new(MockContributionService)
	handler := NewContributionHandler(svc, zap.NewNop())

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/contributions/xyz/reject", nil), "id", "xyz")
	w := httptest.NewRecorder()
	handler.Reject(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Reject", mock.Anything, mock.Anything, mock.Anything)
}

func TestContributionHandler_Reject(t *testing.T) {
	svc := new(MockContributionService)
	handler := NewContributionHandler(svc, zap.NewNop())

	caller := uuid.New()
	c := &domain.Contribution{Id: uuid.New(), TaskId: uuid.New(), Status: domain.ContributionRejected}
	svc.On("Reject", mock.Anything, caller, c.Id).Return(c, nil)

	req := httptest.NewRequest(http.MethodPost, "/contributions/"+c.Id.String()+"/reject", nil)
	req = withURLParam(req.WithContext(middleware.WithUserID(req.Context(), caller)), "id", c.Id.String())
	w := httptest.NewRecorder()
	handler.Reject(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp response.RejectResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "rejected", resp.Status)
}
