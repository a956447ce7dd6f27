package api

import (
	"context"
	"fmt"
	"net/http"

	"recibos/internal/core"
)

// ReceiptService is the typed wrapper over /recibo, including the unified
// PDF generation endpoint.
type ReceiptService struct {
	c *Client
}

// UnifiedEmployeeLine is one employee's share inside a unified receipt
// generation request.
type UnifiedEmployeeLine struct {
	ID       int64  `json:"id"`
	Name     string `json:"nome"`
	RoleName string `json:"cargo"`
	Days     int    `json:"dias"`
	Cents    int64  `json:"valor"`
}

// UnifiedReceiptRequest asks the document service for one combined PDF
// covering several employees of the same company, type and period.
type UnifiedReceiptRequest struct {
	CompanyID   int64                 `json:"empresaId"`
	Reference   string                `json:"referencia"`
	PeriodStart string                `json:"periodoInicio"`
	PeriodEnd   string                `json:"periodoFim"`
	DailyCents  int64                 `json:"valorDia"`
	Employees   []UnifiedEmployeeLine `json:"funcionarios"`
}

func (s *ReceiptService) List(ctx context.Context, token string) ([]core.Receipt, error) {
	var out []core.Receipt
	err := s.c.do(ctx, http.MethodGet, "/recibo", token, nil, &out)
	return out, err
}

func (s *ReceiptService) Get(ctx context.Context, token string, id int64) (core.Receipt, error) {
	var out core.Receipt
	err := s.c.do(ctx, http.MethodGet, fmt.Sprintf("/recibo/%d", id), token, nil, &out)
	return out, err
}

func (s *ReceiptService) Create(ctx context.Context, token string, receipt core.Receipt) (core.Receipt, error) {
	receipt.ID = 0
	var out core.Receipt
	err := s.c.do(ctx, http.MethodPost, "/recibo", token, receipt, &out)
	return out, err
}

func (s *ReceiptService) Delete(ctx context.Context, token string, id int64) error {
	return s.c.do(ctx, http.MethodDelete, fmt.Sprintf("/recibo/%d", id), token, nil, nil)
}

// GenerateUnifiedPDF returns the combined document bytes. Document
// rendering belongs to the backend; this side only streams the result.
func (s *ReceiptService) GenerateUnifiedPDF(ctx context.Context, token string, req UnifiedReceiptRequest) ([]byte, error) {
	return s.c.doRaw(ctx, http.MethodPost, "/recibo/pdf-multiplo", token, req)
}
