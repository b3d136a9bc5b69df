package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/fasthttp/router"
	"github.com/nimasrn/customer-gateway/internal/model"
	"github.com/nimasrn/customer-gateway/internal/repository"
	"github.com/nimasrn/customer-gateway/internal/services"
	xhttp "github.com/nimasrn/customer-gateway/pkg/http"
)

type ImportService interface {
	Submit(ctx context.Context, req services.ImportRequest) (*model.ImportJob, error)
	ListRuns(ctx context.Context, f model.ImportRunFilter) ([]*model.ImportRun, int64, error)
	GetRun(ctx context.Context, id int64) (*model.ImportRun, error)
}

type ImportHandler struct {
	svc ImportService
}

func RegisterImportRoutes(e *router.Group, h *ImportHandler) {
	e.POST("/imports", h.SubmitImport)
	e.GET("/imports", h.ListImportRuns)
	e.GET("/imports/{id}", h.GetImportRun)
}

func NewImportHandler(importService ImportService) *ImportHandler {
	return &ImportHandler{
		svc: importService,
	}
}

type importRunListResponse struct {
	Items []*model.ImportRun `json:"items"`
	Total int64              `json:"total"`
}

func (h *ImportHandler) SubmitImport(ctx *xhttp.RequestCtx) {
	var req services.ImportRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	job, err := h.svc.Submit(ctx, req)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 202, job)
}

func (h *ImportHandler) ListImportRuns(ctx *xhttp.RequestCtx) {
	var f model.ImportRunFilter

	if v := query(ctx, "job_id"); v != "" {
		f.JobID = &v
	}
	if v := query(ctx, "status"); v != "" {
		status := model.ImportRunStatus(v)
		f.Status = &status
	}
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Limit = n
		}
	}
	if v := query(ctx, "offset"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Offset = n
		}
	}
	f.Desc = true // latest runs first

	items, total, err := h.svc.ListRuns(ctx, f)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, importRunListResponse{Items: items, Total: total})
}

func (h *ImportHandler) GetImportRun(ctx *xhttp.RequestCtx) {
	idStr, _ := ctx.UserValue("id").(string)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(ctx, 400, "invalid run id")
		return
	}

	run, err := h.svc.GetRun(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrImportRunNotFound) {
			writeError(ctx, 404, "import run not found")
			return
		}
		writeError(ctx, 500, err.Error())
		return
	}
	writeJSON(ctx, 200, run)
}
