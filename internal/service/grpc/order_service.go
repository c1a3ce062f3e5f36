package grpcsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/cart"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/idempotency"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/orders"
)

const (
	ServiceName = "cafe.v1.OrderService"

	MethodCreateOrder  = "/" + ServiceName + "/CreateOrder"
	MethodGetOrder     = "/" + ServiceName + "/GetOrder"
	MethodListOrders   = "/" + ServiceName + "/ListOrders"
	MethodAdvanceOrder = "/" + ServiceName + "/AdvanceOrder"
	MethodCancelOrder  = "/" + ServiceName + "/CancelOrder"
	MethodQuoteCart    = "/" + ServiceName + "/QuoteCart"

	// IdempotencyKeyHeader — ключ metadata для повторяемого CreateOrder.
	IdempotencyKeyHeader = "idempotency-key"
)

// OrderServiceServer — серверная сторона cafe.v1.OrderService.
type OrderServiceServer interface {
	CreateOrder(context.Context, *CreateOrderRequest) (*CreateOrderResponse, error)
	GetOrder(context.Context, *GetOrderRequest) (*GetOrderResponse, error)
	ListOrders(context.Context, *ListOrdersRequest) (*ListOrdersResponse, error)
	AdvanceOrder(context.Context, *AdvanceOrderRequest) (*AdvanceOrderResponse, error)
	CancelOrder(context.Context, *CancelOrderRequest) (*CancelOrderResponse, error)
	QuoteCart(context.Context, *QuoteCartRequest) (*QuoteCartResponse, error)
}

// OrderService реализует gRPC API поверх сервиса заказов.
type OrderService struct {
	orders   *orders.Service
	executor *idempotency.Executor
	logger   *log.Entry
}

var _ OrderServiceServer = (*OrderService)(nil)

// NewOrderService конструирует сервис. executor == nil отключает идемпотентность.
func NewOrderService(svc *orders.Service, executor *idempotency.Executor, logger *log.Entry) *OrderService {
	if logger == nil {
		logger = log.WithField("component", "grpc-order-service")
	}
	if executor == nil {
		executor = idempotency.NewExecutor(nil)
	}
	return &OrderService{orders: svc, executor: executor, logger: logger}
}

type failurePayload struct {
	Code    uint32 `json:"code"`
	Message string `json:"message"`
}

// CreateOrder оформляет заказ. Итог считается корзиной на сервере.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "request is not serializable")
	}

	var created *CreateOrderResponse
	run := func(ctx context.Context) (idempotency.Response, error) {
		lines := toCartLines(req.Lines)
		order, err := s.orders.CreateOrder(ctx, orders.CreateOrderInput{
			CustomerName: req.CustomerName,
			TableNumber:  req.TableNumber,
			Lines:        lines,
			Total:        cart.ComputeTotals(lines).Total,
		})
		if err != nil {
			return idempotency.Response{}, err
		}
		created = &CreateOrderResponse{Order: toWireOrder(order)}
		payload, err := json.Marshal(created)
		if err != nil {
			return idempotency.Response{}, err
		}
		return idempotency.Response{Body: payload, StatusCode: int(codes.OK)}, nil
	}

	outcome, err := s.executor.Execute(ctx, MethodCreateOrder, idempotencyKey(ctx), body, run, encodeFailure)
	if err != nil {
		return nil, s.toStatus(err, "CreateOrder")
	}
	if !outcome.Replayed {
		return created, nil
	}
	if outcome.Failed {
		return nil, decodeFailure(outcome.Body)
	}
	var replayed CreateOrderResponse
	if err := json.Unmarshal(outcome.Body, &replayed); err != nil {
		s.logger.WithError(err).Warn("failed to decode cached idempotency response")
		return nil, status.Error(codes.Internal, "failed to decode cached idempotency response")
	}
	return &replayed, nil
}

// GetOrder возвращает заказ и его ленту событий.
func (s *OrderService) GetOrder(ctx context.Context, req *GetOrderRequest) (*GetOrderResponse, error) {
	if req == nil || strings.TrimSpace(req.OrderID) == "" {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}
	details, err := s.orders.Get(ctx, req.OrderID)
	if err != nil {
		return nil, s.toStatus(err, "GetOrder")
	}
	return &GetOrderResponse{Order: toWireOrder(details.Order), Timeline: toWireTimeline(details.Timeline)}, nil
}

// ListOrders возвращает заказы, новые первыми.
func (s *OrderService) ListOrders(ctx context.Context, req *ListOrdersRequest) (*ListOrdersResponse, error) {
	var filter domain.OrderStatus
	if req != nil {
		filter = domain.OrderStatus(strings.TrimSpace(req.Status))
	}
	list, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, s.toStatus(err, "ListOrders")
	}
	result := make([]Order, 0, len(list))
	for _, order := range list {
		result = append(result, toWireOrder(order))
	}
	return &ListOrdersResponse{Orders: result}, nil
}

func (s *OrderService) AdvanceOrder(ctx context.Context, req *AdvanceOrderRequest) (*AdvanceOrderResponse, error) {
	if req == nil || strings.TrimSpace(req.OrderID) == "" {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}
	order, err := s.orders.Advance(ctx, req.OrderID)
	if err != nil {
		return nil, s.toStatus(err, "AdvanceOrder")
	}
	return &AdvanceOrderResponse{Order: toWireOrder(order)}, nil
}

func (s *OrderService) CancelOrder(ctx context.Context, req *CancelOrderRequest) (*CancelOrderResponse, error) {
	if req == nil || strings.TrimSpace(req.OrderID) == "" {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}
	order, err := s.orders.Cancel(ctx, req.OrderID)
	if err != nil {
		return nil, s.toStatus(err, "CancelOrder")
	}
	return &CancelOrderResponse{Order: toWireOrder(order)}, nil
}

// QuoteCart считает итоги корзины без сохранения.
func (s *OrderService) QuoteCart(_ context.Context, req *QuoteCartRequest) (*QuoteCartResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	for idx, line := range req.Lines {
		if line.UnitPrice.IsNegative() {
			return nil, status.Errorf(codes.InvalidArgument, "lines[%d].unit_price must be >= 0", idx)
		}
	}
	c := cart.FromLines(toCartLines(req.Lines))
	totals := c.ComputeTotals()
	return &QuoteCartResponse{
		Lines:    fromCartLines(c.Lines()),
		Subtotal: totals.Subtotal,
		Tax:      totals.Tax,
		Total:    totals.Total,
	}, nil
}

// CodeFor сопоставляет ошибку сервиса с gRPC-кодом.
func CodeFor(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, domain.ErrIdempotencyHashMismatch):
		return codes.InvalidArgument
	case errors.Is(err, domain.ErrIdempotencyKeyInProgress):
		return codes.Aborted
	case domain.IsValidation(err):
		return codes.InvalidArgument
	case domain.IsNotFound(err):
		return codes.NotFound
	case domain.IsConflict(err):
		return codes.FailedPrecondition
	default:
		return codes.Internal
	}
}

func (s *OrderService) toStatus(err error, operation string) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	code := CodeFor(err)
	if code == codes.Internal {
		s.logger.WithError(err).WithField("operation", operation).Error("order operation failed")
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(code, err.Error())
}

func encodeFailure(err error) idempotency.Response {
	code := CodeFor(err)
	msg := err.Error()
	if code == codes.Internal {
		msg = "internal error"
	}
	payload, _ := json.Marshal(failurePayload{Code: uint32(code), Message: msg})
	return idempotency.Response{Body: payload, StatusCode: int(code)}
}

func decodeFailure(body []byte) error {
	var payload failurePayload
	if err := json.Unmarshal(body, &payload); err != nil || payload.Code == uint32(codes.OK) || payload.Code > uint32(codes.Unauthenticated) {
		return status.Error(codes.Internal, "previous request with the same idempotency key failed")
	}
	if payload.Message == "" {
		payload.Message = "previous request with the same idempotency key failed"
	}
	return status.Error(codes.Code(payload.Code), payload.Message)
}

func idempotencyKey(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, value := range md.Get(IdempotencyKeyHeader) {
		if v := strings.TrimSpace(value); v != "" {
			return v
		}
	}
	return ""
}

// RegisterOrderServiceServer регистрирует srv на gRPC-сервере.
func RegisterOrderServiceServer(registrar grpc.ServiceRegistrar, srv OrderServiceServer) {
	registrar.RegisterService(&OrderServiceDesc, srv)
}

// OrderServiceDesc описывает cafe.v1.OrderService; сообщения объявлены в ProtoFile.
var OrderServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OrderServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateOrder", Handler: unaryHandler(MethodCreateOrder, OrderServiceServer.CreateOrder)},
		{MethodName: "GetOrder", Handler: unaryHandler(MethodGetOrder, OrderServiceServer.GetOrder)},
		{MethodName: "ListOrders", Handler: unaryHandler(MethodListOrders, OrderServiceServer.ListOrders)},
		{MethodName: "AdvanceOrder", Handler: unaryHandler(MethodAdvanceOrder, OrderServiceServer.AdvanceOrder)},
		{MethodName: "CancelOrder", Handler: unaryHandler(MethodCancelOrder, OrderServiceServer.CancelOrder)},
		{MethodName: "QuoteCart", Handler: unaryHandler(MethodQuoteCart, OrderServiceServer.QuoteCart)},
	},
	Metadata: ProtoFile,
}

// unaryHandler принимает динамическое protobuf-сообщение, переводит его в Req и
// кодирует ответ Resp обратно. Interceptor'ы видят protobuf-сообщения.
func unaryHandler[Req, Resp any](fullMethod string, call func(OrderServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	reqName, respName := messageName[Req](), messageName[Resp]()
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		wire := newMessage(reqName)
		if err := dec(wire); err != nil {
			return nil, err
		}
		server, ok := srv.(OrderServiceServer)
		if !ok {
			return nil, status.Error(codes.Internal, fmt.Sprintf("unexpected server type %T", srv))
		}
		handler := func(ctx context.Context, req any) (any, error) {
			msg, ok := req.(proto.Message)
			if !ok {
				return nil, status.Errorf(codes.Internal, "unexpected request type %T", req)
			}
			in := new(Req)
			if err := decode(msg, in); err != nil {
				return nil, status.Error(codes.InvalidArgument, err.Error())
			}
			out, err := call(server, ctx, in)
			if err != nil {
				return nil, err
			}
			reply, err := encode(out, respName)
			if err != nil {
				return nil, status.Error(codes.Internal, err.Error())
			}
			return reply, nil
		}
		if interceptor == nil {
			return handler(ctx, wire)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, wire, info, handler)
	}
}
