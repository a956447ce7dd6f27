package api

import (
	"context"
	"fmt"
	"net/http"

	"recibos/internal/core"
)

// CompanyService is the typed CRUD wrapper over /empresa. Shape
// translation only; failures propagate unchanged.
type CompanyService struct {
	c *Client
}

func (s *CompanyService) List(ctx context.Context, token string) ([]core.Company, error) {
	var out []core.Company
	err := s.c.do(ctx, http.MethodGet, "/empresa", token, nil, &out)
	return out, err
}

func (s *CompanyService) Get(ctx context.Context, token string, id int64) (core.Company, error) {
	var out core.Company
	err := s.c.do(ctx, http.MethodGet, fmt.Sprintf("/empresa/%d", id), token, nil, &out)
	return out, err
}

func (s *CompanyService) Create(ctx context.Context, token string, company core.Company) (core.Company, error) {
	company.ID = 0
	var out core.Company
	err := s.c.do(ctx, http.MethodPost, "/empresa", token, company, &out)
	return out, err
}

func (s *CompanyService) Update(ctx context.Context, token string, id int64, company core.Company) (core.Company, error) {
	var out core.Company
	err := s.c.do(ctx, http.MethodPut, fmt.Sprintf("/empresa/%d", id), token, company, &out)
	return out, err
}

func (s *CompanyService) Delete(ctx context.Context, token string, id int64) error {
	return s.c.do(ctx, http.MethodDelete, fmt.Sprintf("/empresa/%d", id), token, nil, nil)
}
