package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/fasthttp/router"
	"github.com/nimasrn/customer-gateway/internal/model"
	"github.com/nimasrn/customer-gateway/internal/repository"
	"github.com/nimasrn/customer-gateway/internal/services"
	xhttp "github.com/nimasrn/customer-gateway/pkg/http"
)

type CustomerService interface {
	List(ctx context.Context, f model.CustomerFilter) ([]*model.Customer, int64, error)
	GetByCustomerID(ctx context.Context, customerID string) (*model.Customer, error)
}

type CustomerHandler struct {
	svc CustomerService
}

func RegisterCustomerRoutes(e *router.Group, h *CustomerHandler) {
	e.GET("/customers", h.ListCustomers)
	e.GET("/customers/{customer_id}", h.GetCustomer)
}

func NewCustomerHandler(customerService CustomerService) *CustomerHandler {
	return &CustomerHandler{
		svc: customerService,
	}
}

type customerListResponse struct {
	Items []*model.Customer `json:"items"`
	Total int64             `json:"total"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *CustomerHandler) ListCustomers(ctx *xhttp.RequestCtx) {
	var f model.CustomerFilter

	if v := query(ctx, "country"); v != "" {
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
			if parts[i] != "" {
				f.Countries = append(f.Countries, parts[i])
			}
		}
	}
	if v := query(ctx, "first_name_prefix"); v != "" {
		f.FirstNamePrefix = &v
	}
	if v := query(ctx, "last_name_prefix"); v != "" {
		f.LastNamePrefix = &v
	}
	if v := query(ctx, "order_by"); v != "" {
		f.OrderBy = model.CustomerOrder(v)
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
	if strings.EqualFold(query(ctx, "order"), "desc") {
		f.Desc = true
	}

	items, total, err := h.svc.List(ctx, f)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, customerListResponse{Items: items, Total: total})
}

func (h *CustomerHandler) GetCustomer(ctx *xhttp.RequestCtx) {
	customerID, _ := ctx.UserValue("customer_id").(string)

	customer, err := h.svc.GetByCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) || errors.Is(err, services.ErrNotFound) {
			writeError(ctx, 404, "customer not found")
			return
		}
		writeError(ctx, 500, err.Error())
		return
	}
	writeJSON(ctx, 200, customer)
}

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	body := ctx.PostBody()
	return json.Unmarshal(body, dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}
