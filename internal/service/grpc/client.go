package grpcsvc

import (
	"context"

	"google.golang.org/grpc"
)

// OrderServiceClient вызывает cafe.v1.OrderService; на проводе обычный protobuf.
type OrderServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewOrderServiceClient оборачивает соединение.
func NewOrderServiceClient(cc grpc.ClientConnInterface) *OrderServiceClient {
	return &OrderServiceClient{cc: cc}
}

func (c *OrderServiceClient) CreateOrder(ctx context.Context, in *CreateOrderRequest, opts ...grpc.CallOption) (*CreateOrderResponse, error) {
	return invoke[CreateOrderResponse](ctx, c.cc, MethodCreateOrder, in, opts)
}

func (c *OrderServiceClient) GetOrder(ctx context.Context, in *GetOrderRequest, opts ...grpc.CallOption) (*GetOrderResponse, error) {
	return invoke[GetOrderResponse](ctx, c.cc, MethodGetOrder, in, opts)
}

func (c *OrderServiceClient) ListOrders(ctx context.Context, in *ListOrdersRequest, opts ...grpc.CallOption) (*ListOrdersResponse, error) {
	return invoke[ListOrdersResponse](ctx, c.cc, MethodListOrders, in, opts)
}

func (c *OrderServiceClient) AdvanceOrder(ctx context.Context, in *AdvanceOrderRequest, opts ...grpc.CallOption) (*AdvanceOrderResponse, error) {
	return invoke[AdvanceOrderResponse](ctx, c.cc, MethodAdvanceOrder, in, opts)
}

func (c *OrderServiceClient) CancelOrder(ctx context.Context, in *CancelOrderRequest, opts ...grpc.CallOption) (*CancelOrderResponse, error) {
	return invoke[CancelOrderResponse](ctx, c.cc, MethodCancelOrder, in, opts)
}

func (c *OrderServiceClient) QuoteCart(ctx context.Context, in *QuoteCartRequest, opts ...grpc.CallOption) (*QuoteCartResponse, error) {
	return invoke[QuoteCartResponse](ctx, c.cc, MethodQuoteCart, in, opts)
}

func invoke[Resp, Req any](ctx context.Context, cc grpc.ClientConnInterface, method string, in *Req, opts []grpc.CallOption) (*Resp, error) {
	req, err := encode(in, messageName[Req]())
	if err != nil {
		return nil, err
	}
	reply := newMessage(messageName[Resp]())
	if err := cc.Invoke(ctx, method, req, reply, opts...); err != nil {
		return nil, err
	}
	out := new(Resp)
	if err := decode(reply, out); err != nil {
		return nil, err
	}
	return out, nil
}
