package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"recibos/internal/core"
	"recibos/internal/listing"
)

type dashboardData struct {
	Viewer         core.Viewer
	CompanyCount   int
	EmployeeCount  int
	ReceiptCount   int
	RecentReceipts []core.Receipt
	TotalIssued    string
}

// handleDashboard fans the three backend lists out concurrently; one slow
// endpoint should not serialize the whole page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, sess core.Session) {
	viewer := core.NewViewer(sess.Identity)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var (
		companies []core.Company
		employees []core.Employee
		receipts  []core.Receipt
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		receipts, err = s.listReceipts(gctx, sess.Token)
		return err
	})
	if viewer.IsAdmin() {
		g.Go(func() error {
			var err error
			companies, err = s.listCompanies(gctx, sess.Token)
			return err
		})
		g.Go(func() error {
			var err error
			employees, err = s.listEmployees(gctx, sess.Token)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		if s.handleAPIError(w, r, err) {
			return
		}
	}

	visible := listing.FilterReceipts(receipts, viewer, listing.ReceiptFilter{
		Company:     listing.All,
		BenefitType: listing.All,
		ShowUnified: viewer.CanSeeUnified(),
	})

	var totalCents int64
	for _, rc := range visible {
		totalCents += rc.Amount.Cents
	}

	recent := visible
	if len(recent) > 5 {
		recent = recent[:5]
	}

	slog.InfoContext(r.Context(), "Dashboard rendered",
		"role", string(viewer.Role),
		"receipts", len(visible))

	s.render(w, r, "dashboard.html", dashboardData{
		Viewer:         viewer,
		CompanyCount:   len(companies),
		EmployeeCount:  len(employees),
		ReceiptCount:   len(visible),
		RecentReceipts: recent,
		TotalIssued:    core.Money{Cents: totalCents}.FormatBRL(),
	})
}

// listCompanies and friends go through the LRU caches keyed by token, so
// each user session sees its own view of the backend.
func (s *Server) listCompanies(ctx context.Context, token string) ([]core.Company, error) {
	key := "companies:" + token
	if items, ok := s.companiesCache.Get(key); ok {
		return items, nil
	}
	items, err := s.apiClient.Companies.List(ctx, token)
	if err != nil {
		return nil, err
	}
	s.companiesCache.Set(key, items)
	return items, nil
}

func (s *Server) listEmployees(ctx context.Context, token string) ([]core.Employee, error) {
	key := "employees:" + token
	if items, ok := s.employeesCache.Get(key); ok {
		return items, nil
	}
	items, err := s.apiClient.Employees.List(ctx, token, 0)
	if err != nil {
		return nil, err
	}
	s.employeesCache.Set(key, items)
	return items, nil
}

func (s *Server) listReceipts(ctx context.Context, token string) ([]core.Receipt, error) {
	key := "receipts:" + token
	if items, ok := s.receiptsCache.Get(key); ok {
		return items, nil
	}
	items, err := s.apiClient.Receipts.List(ctx, token)
	if err != nil {
		return nil, err
	}
	s.receiptsCache.Set(key, items)
	return items, nil
}
