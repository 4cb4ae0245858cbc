package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const CartService = "bestsellers.cart.Cart"

// CartServer applies user intents to the session cart. Every method answers
// with the cart as it is afterwards; RequestClear reports its prompt in
// CartView.PendingClear.
type CartServer interface {
	GetCart(context.Context, *Empty) (*CartView, error)
	AddToCart(context.Context, *BookRef) (*CartView, error)
	ChangeQuantity(context.Context, *QuantityChange) (*CartView, error)
	SetDiscount(context.Context, *DiscountToggle) (*CartView, error)
	RequestClear(context.Context, *Empty) (*CartView, error)
	ConfirmClear(context.Context, *ClearDecision) (*CartView, error)
	CancelClear(context.Context, *ClearDecision) (*CartView, error)
}

var CartServiceDesc = grpc.ServiceDesc{
	ServiceName: CartService,
	HandlerType: (*CartServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(CartService, "GetCart", CartServer.GetCart),
		unary(CartService, "AddToCart", CartServer.AddToCart),
		unary(CartService, "ChangeQuantity", CartServer.ChangeQuantity),
		unary(CartService, "SetDiscount", CartServer.SetDiscount),
		unary(CartService, "RequestClear", CartServer.RequestClear),
		unary(CartService, "ConfirmClear", CartServer.ConfirmClear),
		unary(CartService, "CancelClear", CartServer.CancelClear),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bestsellers/cart",
}

func RegisterCartServer(s grpc.ServiceRegistrar, srv CartServer) {
	s.RegisterService(&CartServiceDesc, srv)
}

type CartClient interface {
	GetCart(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*CartView, error)
	AddToCart(ctx context.Context, in *BookRef, opts ...grpc.CallOption) (*CartView, error)
	ChangeQuantity(ctx context.Context, in *QuantityChange, opts ...grpc.CallOption) (*CartView, error)
	SetDiscount(ctx context.Context, in *DiscountToggle, opts ...grpc.CallOption) (*CartView, error)
	RequestClear(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*CartView, error)
	ConfirmClear(ctx context.Context, in *ClearDecision, opts ...grpc.CallOption) (*CartView, error)
	CancelClear(ctx context.Context, in *ClearDecision, opts ...grpc.CallOption) (*CartView, error)
}

type cartClient struct{ cc grpc.ClientConnInterface }

func NewCartClient(cc grpc.ClientConnInterface) CartClient { return &cartClient{cc: cc} }

func (c *cartClient) GetCart(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*CartView, error) {
	return invoke[CartView](ctx, c.cc, CartService, "GetCart", in, opts)
}

func (c *cartClient) AddToCart(ctx context.Context, in *BookRef, opts ...grpc.CallOption) (*CartView, error) {
	return invoke[CartView](ctx, c.cc, CartService, "AddToCart", in, opts)
}

func (c *cartClient) ChangeQuantity(ctx context.Context, in *QuantityChange, opts ...grpc.CallOption) (*CartView, error) {
	return invoke[CartView](ctx, c.cc, CartService, "ChangeQuantity", in, opts)
}

func (c *cartClient) SetDiscount(ctx context.Context, in *DiscountToggle, opts ...grpc.CallOption) (*CartView, error) {
	return invoke[CartView](ctx, c.cc, CartService, "SetDiscount", in, opts)
}

func (c *cartClient) RequestClear(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*CartView, error) {
	return invoke[CartView](ctx, c.cc, CartService, "RequestClear", in, opts)
}

func (c *cartClient) ConfirmClear(ctx context.Context, in *ClearDecision, opts ...grpc.CallOption) (*CartView, error) {
	return invoke[CartView](ctx, c.cc, CartService, "ConfirmClear", in, opts)
}

func (c *cartClient) CancelClear(ctx context.Context, in *ClearDecision, opts ...grpc.CallOption) (*CartView, error) {
	return invoke[CartView](ctx, c.cc, CartService, "CancelClear", in, opts)
}
