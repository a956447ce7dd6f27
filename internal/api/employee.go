package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"recibos/internal/core"
)

// EmployeeService is the typed CRUD wrapper over /funcionario.
type EmployeeService struct {
	c *Client
}

// List returns every employee, or only one company's when companyID > 0.
func (s *EmployeeService) List(ctx context.Context, token string, companyID int64) ([]core.Employee, error) {
	path := "/funcionario"
	if companyID > 0 {
		q := url.Values{"empresaId": {strconv.FormatInt(companyID, 10)}}
		path += "?" + q.Encode()
	}
	var out []core.Employee
	err := s.c.do(ctx, http.MethodGet, path, token, nil, &out)
	return out, err
}

func (s *EmployeeService) Get(ctx context.Context, token string, id int64) (core.Employee, error) {
	var out core.Employee
	err := s.c.do(ctx, http.MethodGet, fmt.Sprintf("/funcionario/%d", id), token, nil, &out)
	return out, err
}

func (s *EmployeeService) Create(ctx context.Context, token string, employee core.Employee) (core.Employee, error) {
	employee.ID = 0
	var out core.Employee
	err := s.c.do(ctx, http.MethodPost, "/funcionario", token, employee, &out)
	return out, err
}

func (s *EmployeeService) Update(ctx context.Context, token string, id int64, employee core.Employee) (core.Employee, error) {
	var out core.Employee
	err := s.c.do(ctx, http.MethodPut, fmt.Sprintf("/funcionario/%d", id), token, employee, &out)
	return out, err
}

func (s *EmployeeService) Delete(ctx context.Context, token string, id int64) error {
	return s.c.do(ctx, http.MethodDelete, fmt.Sprintf("/funcionario/%d", id), token, nil, nil)
}
