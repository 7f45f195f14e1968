package handler

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/niklvrr/dotbounty/internal/domain"
	"github.com/niklvrr/dotbounty/internal/infrastructure/models/dto"
	"github.com/niklvrr/dotbounty/internal/infrastructure/models/result"
	"github.com/niklvrr/dotbounty/internal/transport/dto/response"
	"github.com/niklvrr/dotbounty/internal/transport/middleware"
	"github.com/niklvrr/dotbounty/internal/usecase/service"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const qrSize = 256

type EscrowService interface {
	FundEscrow(ctx context.Context, caller, taskId uuid.UUID) (*domain.Task, error)
	RefundEscrow(ctx context.Context, caller, taskId uuid.UUID) (*domain.Task, error)
}

type TaskQueryService interface {
	ListTasks(ctx context.Context, f *dto.TaskFilterDTO) (*result.TaskListResult, error)
	GetTask(ctx context.Context, taskId uuid.UUID) (*result.TaskWithProject, error)
	EscrowFundingURI(ctx context.Context, taskId uuid.UUID) (string, error)
}

type TaskHandler struct {
	escrow  EscrowService
	queries TaskQueryService
	log     *zap.Logger
}

func NewTaskHandler(escrow EscrowService, queries TaskQueryService, log *zap.Logger) *TaskHandler {
	return &TaskHandler{
		escrow:  escrow,
		queries: queries,
		log:     log,
	}
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	filter, err := parseTaskFilter(r.URL.Query())
	if err != nil {
		writeFailure(w, err)
		return
	}

	res, err := h.queries.ListTasks(r.Context(), filter)
	if err != nil {
		h.log.Error("failed to list tasks", zap.Error(err))
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response.NewTaskListResponse(res))
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	taskId, err := uuidParam(r, "id")
	if err != nil {
		writeFailure(w, err)
		return
	}

	res, err := h.queries.GetTask(r.Context(), taskId)
	if err != nil {
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response.NewTaskWithProjectResponse(res))
}

func (h *TaskHandler) FundEscrow(w http.ResponseWriter, r *http.Request) {
	h.escrowAction(w, r, "fund", EscrowService.FundEscrow)
}

func (h *TaskHandler) RefundEscrow(w http.ResponseWriter, r *http.Request) {
	h.escrowAction(w, r, "refund", EscrowService.RefundEscrow)
}

func (h *TaskHandler) escrowAction(
	w http.ResponseWriter,
	r *http.Request,
	name string,
	action func(svc EscrowService, ctx context.Context, caller, taskId uuid.UUID) (*domain.Task, error),
) {
	taskId, err := uuidParam(r, "id")
	if err != nil {
		writeFailure(w, err)
		return
	}

	task, err := action(h.escrow, r.Context(), middleware.UserID(r.Context()), taskId)
	if err != nil {
		h.log.Info("escrow action refused",
			zap.String("action", name),
			zap.String("task_id", taskId.String()),
			zap.Error(err),
		)
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response.NewTaskResponse(task))
}

// EscrowQR отдает PNG с платежной ссылкой на адрес платформы
func (h *TaskHandler) EscrowQR(w http.ResponseWriter, r *http.Request) {
	taskId, err := uuidParam(r, "id")
	if err != nil {
		writeFailure(w, err)
		return
	}

	uri, err := h.queries.EscrowFundingURI(r.Context(), taskId)
	if err != nil {
		writeFailure(w, err)
		return
	}

	png, err := qrcode.Encode(uri, qrcode.Medium, qrSize)
	if err != nil {
		h.log.Error("failed to render qr code", zap.Error(err))
		writeFailure(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func parseTaskFilter(q url.Values) (*dto.TaskFilterDTO, error) {
	f := &dto.TaskFilterDTO{Difficulty: q.Get("difficulty")}

	var err error
	if f.Limit, err = intQuery(q, "limit"); err != nil {
		return nil, err
	}
	if f.Offset, err = intQuery(q, "offset"); err != nil {
		return nil, err
	}
	if f.MinReward, err = decimalQuery(q, "minReward"); err != nil {
		return nil, err
	}
	if f.MaxReward, err = decimalQuery(q, "maxReward"); err != nil {
		return nil, err
	}
	if v := q.Get("projectId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, service.WrapError(service.ErrInvalidInput, err)
		}
		f.ProjectId = &id
	}
	if v := q.Get("tags"); v != "" {
		for _, tag := range strings.Split(v, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				f.Tags = append(f.Tags, tag)
			}
		}
	}
	return f, nil
}

func intQuery(q url.Values, key string) (int, error) {
	v := q.Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, service.WrapError(service.ErrInvalidInput, err)
	}
	return n, nil
}

func decimalQuery(q url.Values, key string) (*decimal.Decimal, error) {
	v := q.Get(key)
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, service.WrapError(service.ErrInvalidInput, err)
	}
	return &d, nil
}
