package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/yurawu27/splittie/internal/apperr"
	"github.com/yurawu27/splittie/internal/billing"
	"github.com/yurawu27/splittie/internal/middleware"
	"github.com/yurawu27/splittie/internal/money"
	"github.com/yurawu27/splittie/internal/view"
	api "github.com/yurawu27/splittie/pkg/api"
	"github.com/yurawu27/splittie/pkg/api/apiconnect"
)

var _ apiconnect.BillServiceHandler = (*BillService)(nil)

// BillService implements the BillService RPC interface on top of the bill
// lifecycle manager.
type BillService struct {
	manager   *billing.Manager
	formatter *money.Formatter
	logger    *slog.Logger
}

// NewBillService creates a new bill service.
func NewBillService(manager *billing.Manager, formatter *money.Formatter, logger *slog.Logger) *BillService {
	return &BillService{
		manager:   manager,
		formatter: formatter,
		logger:    logger,
	}
}

// CreateBill splits a new bill and attaches it to every participant.
func (s *BillService) CreateBill(ctx context.Context, req *connect.Request[api.CreateBillRequest]) (*connect.Response[api.CreateBillResponse], error) {
	actorID := middleware.GetAccountID(ctx)
	s.logger.Info("CreateBill request", "account_id", actorID)

	if req.Msg.Bill == nil {
		return nil, connectError("CreateBill", apperr.Validation(apperr.CodeMissingTitle, "bill is required"))
	}

	res, err := s.manager.Create(ctx, actorID, billInput(req.Msg.Bill, 0))
	if err != nil {
		return nil, connectError("CreateBill", err)
	}

	return connect.NewResponse(&api.CreateBillResponse{
		Bill:    view.Bill(res.Bill, s.formatter),
		Warning: warningText(res.Warning),
	}), nil
}

// UpdateBill replaces every field of an existing bill.
func (s *BillService) UpdateBill(ctx context.Context, req *connect.Request[api.UpdateBillRequest]) (*connect.Response[api.UpdateBillResponse], error) {
	actorID := middleware.GetAccountID(ctx)
	s.logger.Info("UpdateBill request", "account_id", actorID, "bill_id", req.Msg.BillId)

	if req.Msg.Bill == nil {
		return nil, connectError("UpdateBill", apperr.Validation(apperr.CodeMissingTitle, "bill is required"))
	}

	res, err := s.manager.Update(ctx, actorID, req.Msg.BillId, billInput(req.Msg.Bill, req.Msg.ExpectedVersion))
	if err != nil {
		return nil, connectError("UpdateBill", err)
	}

	return connect.NewResponse(&api.UpdateBillResponse{
		Bill:    view.Bill(res.Bill, s.formatter),
		Warning: warningText(res.Warning),
	}), nil
}

// DeleteBill removes a bill. Deleting a bill that is already gone succeeds
// with AlreadyGone set.
func (s *BillService) DeleteBill(ctx context.Context, req *connect.Request[api.DeleteBillRequest]) (*connect.Response[api.DeleteBillResponse], error) {
	actorID := middleware.GetAccountID(ctx)
	s.logger.Info("DeleteBill request", "account_id", actorID, "bill_id", req.Msg.BillId)

	res, err := s.manager.Delete(ctx, actorID, req.Msg.BillId)
	if err != nil {
		return nil, connectError("DeleteBill", err)
	}

	return connect.NewResponse(&api.DeleteBillResponse{
		AlreadyGone: res.AlreadyGone,
		Warning:     warningText(res.Warning),
	}), nil
}

// GetBill returns one bill the caller participates in.
func (s *BillService) GetBill(ctx context.Context, req *connect.Request[api.GetBillRequest]) (*connect.Response[api.GetBillResponse], error) {
	bill, err := s.manager.Get(ctx, middleware.GetAccountID(ctx), req.Msg.BillId)
	if err != nil {
		return nil, connectError("GetBill", err)
	}
	return connect.NewResponse(&api.GetBillResponse{Bill: view.Bill(bill, s.formatter)}), nil
}

// ListBills returns every bill the caller pays for or splits.
func (s *BillService) ListBills(ctx context.Context, req *connect.Request[api.ListBillsRequest]) (*connect.Response[api.ListBillsResponse], error) {
	bills, err := s.manager.List(ctx, middleware.GetAccountID(ctx))
	if err != nil {
		return nil, connectError("ListBills", err)
	}
	return connect.NewResponse(&api.ListBillsResponse{Bills: view.Bills(bills, s.formatter)}), nil
}

// GetBalances returns net balances and pairwise debts across the caller's bills.
func (s *BillService) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	balances, debts, err := s.manager.Balances(ctx, middleware.GetAccountID(ctx))
	if err != nil {
		return nil, connectError("GetBalances", err)
	}
	return connect.NewResponse(view.Balances(balances, debts, s.formatter)), nil
}

func billInput(in *api.BillInput, expectedVersion int64) billing.BillInput {
	return billing.BillInput{
		Title:           in.Title,
		Subtotal:        in.Subtotal,
		Tax:             in.Tax,
		Tip:             in.Tip,
		PayerUsername:   in.PayerUsername,
		Splitters:       view.SplitterInputs(in.Splitters),
		Complete:        in.Complete,
		ExpectedVersion: expectedVersion,
	}
}
