package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	api "github.com/yurawu27/splittie/pkg/api"
)

// BillServiceName is the fully-qualified name of the BillService service.
const BillServiceName = "splittie.v1.BillService"

const (
	BillServiceCreateBillProcedure  = "/splittie.v1.BillService/CreateBill"
	BillServiceUpdateBillProcedure  = "/splittie.v1.BillService/UpdateBill"
	BillServiceDeleteBillProcedure  = "/splittie.v1.BillService/DeleteBill"
	BillServiceGetBillProcedure     = "/splittie.v1.BillService/GetBill"
	BillServiceListBillsProcedure   = "/splittie.v1.BillService/ListBills"
	BillServiceGetBalancesProcedure = "/splittie.v1.BillService/GetBalances"
)

// BillServiceHandler is implemented by the server.
type BillServiceHandler interface {
	CreateBill(context.Context, *connect.Request[api.CreateBillRequest]) (*connect.Response[api.CreateBillResponse], error)
	UpdateBill(context.Context, *connect.Request[api.UpdateBillRequest]) (*connect.Response[api.UpdateBillResponse], error)
	DeleteBill(context.Context, *connect.Request[api.DeleteBillRequest]) (*connect.Response[api.DeleteBillResponse], error)
	GetBill(context.Context, *connect.Request[api.GetBillRequest]) (*connect.Response[api.GetBillResponse], error)
	ListBills(context.Context, *connect.Request[api.ListBillsRequest]) (*connect.Response[api.ListBillsResponse], error)
	GetBalances(context.Context, *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error)
}

// NewBillServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewBillServiceHandler(svc BillServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec(opts, connect.HandlerOption(connect.WithCodec(JSONCodec{})))
	createBill := connect.NewUnaryHandler(BillServiceCreateBillProcedure, svc.CreateBill, opts...)
	updateBill := connect.NewUnaryHandler(BillServiceUpdateBillProcedure, svc.UpdateBill, opts...)
	deleteBill := connect.NewUnaryHandler(BillServiceDeleteBillProcedure, svc.DeleteBill, opts...)
	getBill := connect.NewUnaryHandler(BillServiceGetBillProcedure, svc.GetBill, opts...)
	listBills := connect.NewUnaryHandler(BillServiceListBillsProcedure, svc.ListBills, opts...)
	getBalances := connect.NewUnaryHandler(BillServiceGetBalancesProcedure, svc.GetBalances, opts...)

	return "/" + BillServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case BillServiceCreateBillProcedure:
			createBill.ServeHTTP(w, r)
		case BillServiceUpdateBillProcedure:
			updateBill.ServeHTTP(w, r)
		case BillServiceDeleteBillProcedure:
			deleteBill.ServeHTTP(w, r)
		case BillServiceGetBillProcedure:
			getBill.ServeHTTP(w, r)
		case BillServiceListBillsProcedure:
			listBills.ServeHTTP(w, r)
		case BillServiceGetBalancesProcedure:
			getBalances.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// BillServiceClient is a client for the splittie.v1.BillService service.
type BillServiceClient interface {
	CreateBill(context.Context, *connect.Request[api.CreateBillRequest]) (*connect.Response[api.CreateBillResponse], error)
	UpdateBill(context.Context, *connect.Request[api.UpdateBillRequest]) (*connect.Response[api.UpdateBillResponse], error)
	DeleteBill(context.Context, *connect.Request[api.DeleteBillRequest]) (*connect.Response[api.DeleteBillResponse], error)
	GetBill(context.Context, *connect.Request[api.GetBillRequest]) (*connect.Response[api.GetBillResponse], error)
	ListBills(context.Context, *connect.Request[api.ListBillsRequest]) (*connect.Response[api.ListBillsResponse], error)
	GetBalances(context.Context, *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error)
}

// NewBillServiceClient constructs a client for the splittie.v1.BillService
// service. baseURL is the server root, e.g. http://localhost:8080.
func NewBillServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) BillServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = withCodec(opts, connect.ClientOption(connect.WithCodec(JSONCodec{})))
	return &billServiceClient{
		createBill:  connect.NewClient[api.CreateBillRequest, api.CreateBillResponse](httpClient, baseURL+BillServiceCreateBillProcedure, opts...),
		updateBill:  connect.NewClient[api.UpdateBillRequest, api.UpdateBillResponse](httpClient, baseURL+BillServiceUpdateBillProcedure, opts...),
		deleteBill:  connect.NewClient[api.DeleteBillRequest, api.DeleteBillResponse](httpClient, baseURL+BillServiceDeleteBillProcedure, opts...),
		getBill:     connect.NewClient[api.GetBillRequest, api.GetBillResponse](httpClient, baseURL+BillServiceGetBillProcedure, opts...),
		listBills:   connect.NewClient[api.ListBillsRequest, api.ListBillsResponse](httpClient, baseURL+BillServiceListBillsProcedure, opts...),
		getBalances: connect.NewClient[api.GetBalancesRequest, api.GetBalancesResponse](httpClient, baseURL+BillServiceGetBalancesProcedure, opts...),
	}
}

type billServiceClient struct {
	createBill  *connect.Client[api.CreateBillRequest, api.CreateBillResponse]
	updateBill  *connect.Client[api.UpdateBillRequest, api.UpdateBillResponse]
	deleteBill  *connect.Client[api.DeleteBillRequest, api.DeleteBillResponse]
	getBill     *connect.Client[api.GetBillRequest, api.GetBillResponse]
	listBills   *connect.Client[api.ListBillsRequest, api.ListBillsResponse]
	getBalances *connect.Client[api.GetBalancesRequest, api.GetBalancesResponse]
}

func (c *billServiceClient) CreateBill(ctx context.Context, req *connect.Request[api.CreateBillRequest]) (*connect.Response[api.CreateBillResponse], error) {
	return c.createBill.CallUnary(ctx, req)
}

func (c *billServiceClient) UpdateBill(ctx context.Context, req *connect.Request[api.UpdateBillRequest]) (*connect.Response[api.UpdateBillResponse], error) {
	return c.updateBill.CallUnary(ctx, req)
}

func (c *billServiceClient) DeleteBill(ctx context.Context, req *connect.Request[api.DeleteBillRequest]) (*connect.Response[api.DeleteBillResponse], error) {
	return c.deleteBill.CallUnary(ctx, req)
}

func (c *billServiceClient) GetBill(ctx context.Context, req *connect.Request[api.GetBillRequest]) (*connect.Response[api.GetBillResponse], error) {
	return c.getBill.CallUnary(ctx, req)
}

func (c *billServiceClient) ListBills(ctx context.Context, req *connect.Request[api.ListBillsRequest]) (*connect.Response[api.ListBillsResponse], error) {
	return c.listBills.CallUnary(ctx, req)
}

func (c *billServiceClient) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	return c.getBalances.CallUnary(ctx, req)
}
