package grpcsvc

import (
	"fmt"
	"reflect"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
	_ "google.golang.org/protobuf/types/known/timestamppb"
)

const (
	// ProtoFile — путь дескриптора в protoregistry и в server reflection.
	ProtoFile    = "cafe/v1/order_service.proto"
	protoPackage = "cafe.v1"
	timestampRef = ".google.protobuf.Timestamp"
)

// orderServiceFile собирается при инициализации пакета и регистрируется в
// protoregistry.GlobalFiles, откуда его берут reflection и protojson.
var orderServiceFile protoreflect.FileDescriptor

func init() {
	fd, err := protodesc.NewFile(orderServiceProto(), protoregistry.GlobalFiles)
	if err != nil {
		panic(fmt.Sprintf("build %s: %v", ProtoFile, err))
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic(fmt.Sprintf("register %s: %v", ProtoFile, err))
	}
	orderServiceFile = fd
}

// Descriptor возвращает дескриптор cafe.v1.OrderService.
func Descriptor() protoreflect.ServiceDescriptor {
	return orderServiceFile.Services().ByName("OrderService")
}

// messageName — имя protobuf-сообщения совпадает с именем Go-типа.
func messageName[T any]() string {
	return reflect.TypeFor[T]().Name()
}

func newMessage(name string) *dynamicpb.Message {
	desc := orderServiceFile.Messages().ByName(protoreflect.Name(name))
	if desc == nil {
		panic(fmt.Sprintf("message %s.%s is not declared in %s", protoPackage, name, ProtoFile))
	}
	return dynamicpb.NewMessage(desc)
}

func orderServiceProto() *descriptorpb.FileDescriptorProto {
	rpc := func(name string) *descriptorpb.MethodDescriptorProto {
		return &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(name),
			InputType:  proto.String(typeRef(name + "Request")),
			OutputType: proto.String(typeRef(name + "Response")),
		}
	}
	byID := func(name string) *descriptorpb.DescriptorProto {
		return messageOf(name, text("order_id", 1))
	}
	withOrder := func(name string) *descriptorpb.DescriptorProto {
		return messageOf(name, nested("order", 1, "Order"))
	}

	order := messageOf("Order",
		text("id", 1),
		text("order_number", 2),
		text("customer_name", 3),
		optional(number("table_number", 4, descriptorpb.FieldDescriptorProto_TYPE_INT32), 0),
		text("total_amount", 5),
		text("status", 6),
		nested("order_time", 7, timestampRef),
		repeated(nested("lines", 8, "OrderLine")),
	)
	order.OneofDecl = []*descriptorpb.OneofDescriptorProto{{Name: proto.String("_table_number")}}

	create := messageOf("CreateOrderRequest",
		text("customer_name", 1),
		optional(number("table_number", 2, descriptorpb.FieldDescriptorProto_TYPE_INT32), 0),
		repeated(nested("lines", 3, "CartLine")),
	)
	create.OneofDecl = []*descriptorpb.OneofDescriptorProto{{Name: proto.String("_table_number")}}

	return &descriptorpb.FileDescriptorProto{
		Name:       proto.String(ProtoFile),
		Package:    proto.String(protoPackage),
		Dependency: []string{"google/protobuf/timestamp.proto"},
		Syntax:     proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			messageOf("CartLine",
				text("menu_item_id", 1),
				text("name", 2),
				text("unit_price", 3),
				number("quantity", 4, descriptorpb.FieldDescriptorProto_TYPE_INT32),
			),
			messageOf("OrderLine",
				text("id", 1),
				text("menu_item_id", 2),
				text("item_name", 3),
				number("quantity", 4, descriptorpb.FieldDescriptorProto_TYPE_INT32),
				text("unit_price", 5),
			),
			order,
			messageOf("TimelineEvent",
				text("type", 1),
				text("from", 2),
				text("to", 3),
				text("reason", 4),
				number("unix_time", 5, descriptorpb.FieldDescriptorProto_TYPE_INT64),
				nested("occurred", 6, timestampRef),
			),
			create,
			withOrder("CreateOrderResponse"),
			byID("GetOrderRequest"),
			messageOf("GetOrderResponse",
				nested("order", 1, "Order"),
				repeated(nested("timeline", 2, "TimelineEvent")),
			),
			messageOf("ListOrdersRequest", text("status", 1)),
			messageOf("ListOrdersResponse", repeated(nested("orders", 1, "Order"))),
			byID("AdvanceOrderRequest"),
			withOrder("AdvanceOrderResponse"),
			byID("CancelOrderRequest"),
			withOrder("CancelOrderResponse"),
			messageOf("QuoteCartRequest", repeated(nested("lines", 1, "CartLine"))),
			messageOf("QuoteCartResponse",
				repeated(nested("lines", 1, "CartLine")),
				text("subtotal", 2),
				text("tax", 3),
				text("total", 4),
			),
		},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String("OrderService"),
			Method: []*descriptorpb.MethodDescriptorProto{
				rpc("CreateOrder"),
				rpc("GetOrder"),
				rpc("ListOrders"),
				rpc("AdvanceOrder"),
				rpc("CancelOrder"),
				rpc("QuoteCart"),
			},
		}},
		Options: &descriptorpb.FileOptions{
			GoPackage: proto.String("github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/grpc;grpcsvc"),
		},
	}
}

func messageOf(name string, fields ...*descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
	return &descriptorpb.DescriptorProto{Name: proto.String(name), Field: fields}
}

// typeRef дополняет локальное имя сообщения пакетом; полные имена не меняются.
func typeRef(name string) string {
	if name != "" && name[0] == '.' {
		return name
	}
	return "." + protoPackage + "." + name
}

func number(name string, n int32, kind descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(n),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:   kind.Enum(),
	}
}

// text — строковое поле; денежные суммы передаются строкой decimal без потери точности.
func text(name string, n int32) *descriptorpb.FieldDescriptorProto {
	return number(name, n, descriptorpb.FieldDescriptorProto_TYPE_STRING)
}

func nested(name string, n int32, message string) *descriptorpb.FieldDescriptorProto {
	f := number(name, n, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE)
	f.TypeName = proto.String(typeRef(message))
	return f
}

func repeated(f *descriptorpb.FieldDescriptorProto) *descriptorpb.FieldDescriptorProto {
	f.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
	return f
}

// optional делает поле proto3 optional в синтетическом oneof с индексом oneof.
func optional(f *descriptorpb.FieldDescriptorProto, oneof int32) *descriptorpb.FieldDescriptorProto {
	f.Proto3Optional = proto.Bool(true)
	f.OneofIndex = proto.Int32(oneof)
	return f
}
