package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/hangout/pkg/api"
)

const BillServiceName = "hangout.v1.BillService"

const (
	BillServiceSetBillProcedure        = "/hangout.v1.BillService/SetBill"
	BillServiceAddBillItemProcedure    = "/hangout.v1.BillService/AddBillItem"
	BillServiceRemoveBillItemProcedure = "/hangout.v1.BillService/RemoveBillItem"
	BillServiceGetFinalSplitProcedure  = "/hangout.v1.BillService/GetFinalSplit"
	BillServicePreviewSplitProcedure   = "/hangout.v1.BillService/PreviewSplit"
)

// BillServiceHandler is implemented by the bill splitting service.
type BillServiceHandler interface {
	SetBill(context.Context, *connect.Request[api.SetBillRequest]) (*connect.Response[api.SetBillResponse], error)
	AddBillItem(context.Context, *connect.Request[api.AddBillItemRequest]) (*connect.Response[api.AddBillItemResponse], error)
	RemoveBillItem(context.Context, *connect.Request[api.RemoveBillItemRequest]) (*connect.Response[api.RemoveBillItemResponse], error)
	GetFinalSplit(context.Context, *connect.Request[api.GetFinalSplitRequest]) (*connect.Response[api.GetFinalSplitResponse], error)
	PreviewSplit(context.Context, *connect.Request[api.PreviewSplitRequest]) (*connect.Response[api.PreviewSplitResponse], error)
}

// NewBillServiceHandler returns the mount path and handler for svc.
func NewBillServiceHandler(svc BillServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	r := routes{}
	handle(r, BillServiceSetBillProcedure, svc.SetBill, opts)
	handle(r, BillServiceAddBillItemProcedure, svc.AddBillItem, opts)
	handle(r, BillServiceRemoveBillItemProcedure, svc.RemoveBillItem, opts)
	handle(r, BillServiceGetFinalSplitProcedure, svc.GetFinalSplit, opts)
	handle(r, BillServicePreviewSplitProcedure, svc.PreviewSplit, opts)
	return r.serve("/" + BillServiceName + "/")
}

// BillServiceClient calls the bill splitting service.
type BillServiceClient struct {
	setBill        *connect.Client[api.SetBillRequest, api.SetBillResponse]
	addBillItem    *connect.Client[api.AddBillItemRequest, api.AddBillItemResponse]
	removeBillItem *connect.Client[api.RemoveBillItemRequest, api.RemoveBillItemResponse]
	getFinalSplit  *connect.Client[api.GetFinalSplitRequest, api.GetFinalSplitResponse]
	previewSplit   *connect.Client[api.PreviewSplitRequest, api.PreviewSplitResponse]
}

func NewBillServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *BillServiceClient {
	return &BillServiceClient{
		setBill:        newClient[api.SetBillRequest, api.SetBillResponse](httpClient, baseURL, BillServiceSetBillProcedure, opts),
		addBillItem:    newClient[api.AddBillItemRequest, api.AddBillItemResponse](httpClient, baseURL, BillServiceAddBillItemProcedure, opts),
		removeBillItem: newClient[api.RemoveBillItemRequest, api.RemoveBillItemResponse](httpClient, baseURL, BillServiceRemoveBillItemProcedure, opts),
		getFinalSplit:  newClient[api.GetFinalSplitRequest, api.GetFinalSplitResponse](httpClient, baseURL, BillServiceGetFinalSplitProcedure, opts),
		previewSplit:   newClient[api.PreviewSplitRequest, api.PreviewSplitResponse](httpClient, baseURL, BillServicePreviewSplitProcedure, opts),
	}
}

func (c *BillServiceClient) SetBill(ctx context.Context, req *connect.Request[api.SetBillRequest]) (*connect.Response[api.SetBillResponse], error) {
	return c.setBill.CallUnary(ctx, req)
}

func (c *BillServiceClient) AddBillItem(ctx context.Context, req *connect.Request[api.AddBillItemRequest]) (*connect.Response[api.AddBillItemResponse], error) {
	return c.addBillItem.CallUnary(ctx, req)
}

func (c *BillServiceClient) RemoveBillItem(ctx context.Context, req *connect.Request[api.RemoveBillItemRequest]) (*connect.Response[api.RemoveBillItemResponse], error) {
	return c.removeBillItem.CallUnary(ctx, req)
}

func (c *BillServiceClient) GetFinalSplit(ctx context.Context, req *connect.Request[api.GetFinalSplitRequest]) (*connect.Response[api.GetFinalSplitResponse], error) {
	return c.getFinalSplit.CallUnary(ctx, req)
}

func (c *BillServiceClient) PreviewSplit(ctx context.Context, req *connect.Request[api.PreviewSplitRequest]) (*connect.Response[api.PreviewSplitResponse], error) {
	return c.previewSplit.CallUnary(ctx, req)
}
