package service

import (
	"context"
	"fmt"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/hangout/internal/calculator"
	"github.com/mmynk/hangout/internal/models"
	"github.com/mmynk/hangout/internal/planner"
	"github.com/mmynk/hangout/internal/storage"
	"github.com/mmynk/hangout/pkg/api"
	"github.com/mmynk/hangout/pkg/api/apiconnect"
)

// BillService implements the Connect BillService. The bill stays editable
// after the event is finalized.
type BillService struct {
	eventAccess
}

var _ apiconnect.BillServiceHandler = (*BillService)(nil)

// NewBillService creates a new BillService with the given storage backend.
func NewBillService(store storage.Store, opts ...Option) *BillService {
	return &BillService{eventAccess: newEventAccess(store, opts)}
}

func parseSplitMode(mode string) (models.SplitMode, error) {
	m := models.SplitMode(strings.ToUpper(strings.TrimSpace(mode)))
	if m != "" && !m.Valid() {
		return "", fmt.Errorf("%w: split mode must be EVEN or ITEM", planner.ErrValidation)
	}
	return m, nil
}

// SetBill sets the bill total and optionally the split mode.
func (s *BillService) SetBill(ctx context.Context, req *connect.Request[api.SetBillRequest]) (*connect.Response[api.SetBillResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("SetBill request received", "code", req.Msg.Code, "total", req.Msg.Total, "split_mode", req.Msg.SplitMode)

	mode, err := parseSplitMode(req.Msg.SplitMode)
	if err != nil {
		return nil, toConnectError(err)
	}
	ev, err := s.load(ctx, req.Msg.Code)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := s.engine.SetBill(ev, userID, req.Msg.Total, mode, s.clock()); err != nil {
		return nil, toConnectError(err)
	}
	if err := s.save(ctx, ev); err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.SetBillResponse{Bill: toAPIBill(ev.Bill)}), nil
}

// AddBillItem adds an itemized cost assigned to a member.
func (s *BillService) AddBillItem(ctx context.Context, req *connect.Request[api.AddBillItemRequest]) (*connect.Response[api.AddBillItemResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("AddBillItem request received",
		"code", req.Msg.Code,
		"name", req.Msg.Name,
		"cost", req.Msg.Cost,
		"assignee", req.Msg.AssigneeMemberID,
	)

	ev, err := s.load(ctx, req.Msg.Code)
	if err != nil {
		return nil, toConnectError(err)
	}
	item, err := s.engine.AddBillItem(ev, userID, req.Msg.Name, req.Msg.Cost, req.Msg.AssigneeMemberID, s.clock())
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := s.save(ctx, ev); err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.AddBillItemResponse{
		Item: toAPIBillItem(item),
		Bill: toAPIBill(ev.Bill),
	}), nil
}

// RemoveBillItem deletes an item added by the caller, or any item if the
// caller owns the event.
func (s *BillService) RemoveBillItem(ctx context.Context, req *connect.Request[api.RemoveBillItemRequest]) (*connect.Response[api.RemoveBillItemResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	ev, err := s.load(ctx, req.Msg.Code)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := s.engine.RemoveBillItem(ev, userID, req.Msg.ItemID, s.clock()); err != nil {
		return nil, toConnectError(err)
	}
	if err := s.save(ctx, ev); err != nil {
		return nil, toConnectError(err)
	}
	s.logger.Info("Bill item removed", "code", ev.Code, "item_id", req.Msg.ItemID)

	return connect.NewResponse(&api.RemoveBillItemResponse{Bill: toAPIBill(ev.Bill)}), nil
}

// GetFinalSplit computes what each member owes.
func (s *BillService) GetFinalSplit(ctx context.Context, req *connect.Request[api.GetFinalSplitRequest]) (*connect.Response[api.GetFinalSplitResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	ev, _, err := s.loadAsMember(ctx, req.Msg.Code, userID)
	if err != nil {
		return nil, toConnectError(err)
	}

	bill := toAPIBill(ev.Bill)
	return connect.NewResponse(&api.GetFinalSplitResponse{
		Total:     bill.Total,
		SplitMode: bill.SplitMode,
		Rows:      toAPISplitRows(calculator.ComputeSplit(ev.Members, ev.Bill)),
	}), nil
}

// PreviewSplit computes a split for ad-hoc input without touching any event.
func (s *BillService) PreviewSplit(ctx context.Context, req *connect.Request[api.PreviewSplitRequest]) (*connect.Response[api.PreviewSplitResponse], error) {
	s.logger.Info("PreviewSplit request received",
		"members", len(req.Msg.Members),
		"total", req.Msg.Total,
		"items", len(req.Msg.Items),
	)

	members, bill, err := previewInput(req.Msg)
	if err != nil {
		return nil, toConnectError(err)
	}

	rows := calculator.ComputeSplit(members, bill)
	return connect.NewResponse(&api.PreviewSplitResponse{
		Total: calculator.Total(rows),
		Rows:  toAPISplitRows(rows),
	}), nil
}

// previewInput validates a preview request the same way the bill mutations
// validate their input.
func previewInput(msg *api.PreviewSplitRequest) ([]models.Member, models.Bill, error) {
	if len(msg.Members) == 0 {
		return nil, models.Bill{}, fmt.Errorf("%w: at least one member is required", planner.ErrValidation)
	}
	mode, err := parseSplitMode(msg.SplitMode)
	if err != nil {
		return nil, models.Bill{}, err
	}
	if mode == "" {
		mode = models.SplitEven
	}

	members := make([]models.Member, 0, len(msg.Members))
	known := make(map[string]bool, len(msg.Members))
	for _, m := range msg.Members {
		if m == nil || m.ID == "" {
			return nil, models.Bill{}, fmt.Errorf("%w: member id is required", planner.ErrValidation)
		}
		if known[m.ID] {
			return nil, models.Bill{}, fmt.Errorf("%w: duplicate member %q", planner.ErrValidation, m.ID)
		}
		known[m.ID] = true
		members = append(members, models.Member{ID: m.ID, UserID: m.UserID, Name: m.Name})
	}

	bill := models.Bill{Total: msg.Total, SplitMode: mode}
	for _, item := range msg.Items {
		if item == nil {
			return nil, models.Bill{}, fmt.Errorf("%w: item is required", planner.ErrValidation)
		}
		if !known[item.AssigneeMemberID] {
			return nil, models.Bill{}, fmt.Errorf("%w: assignee %q is not a member", planner.ErrInvalidReference, item.AssigneeMemberID)
		}
		bill.Items = append(bill.Items, models.BillItem{
			ID:               item.ID,
			Name:             item.Name,
			Cost:             item.Cost,
			AssigneeMemberID: item.AssigneeMemberID,
		})
	}
	if err := planner.ValidateBillAmounts(bill); err != nil {
		return nil, models.Bill{}, err
	}
	return members, bill, nil
}
