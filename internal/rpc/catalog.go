package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const CatalogService = "bestsellers.catalog.Catalog"

type CatalogServer interface {
	ListBooks(context.Context, *Empty) (*BookList, error)
	GetBook(context.Context, *BookRef) (*Book, error)
	Status(context.Context, *Empty) (*CatalogStatus, error)
	Reload(context.Context, *Empty) (*CatalogStatus, error)
}

var CatalogServiceDesc = grpc.ServiceDesc{
	ServiceName: CatalogService,
	HandlerType: (*CatalogServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(CatalogService, "ListBooks", CatalogServer.ListBooks),
		unary(CatalogService, "GetBook", CatalogServer.GetBook),
		unary(CatalogService, "Status", CatalogServer.Status),
		unary(CatalogService, "Reload", CatalogServer.Reload),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bestsellers/catalog",
}

func RegisterCatalogServer(s grpc.ServiceRegistrar, srv CatalogServer) {
	s.RegisterService(&CatalogServiceDesc, srv)
}

type CatalogClient interface {
	ListBooks(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*BookList, error)
	GetBook(ctx context.Context, in *BookRef, opts ...grpc.CallOption) (*Book, error)
	Status(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*CatalogStatus, error)
	Reload(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*CatalogStatus, error)
}

type catalogClient struct{ cc grpc.ClientConnInterface }

func NewCatalogClient(cc grpc.ClientConnInterface) CatalogClient { return &catalogClient{cc: cc} }

func (c *catalogClient) ListBooks(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*BookList, error) {
	return invoke[BookList](ctx, c.cc, CatalogService, "ListBooks", in, opts)
}

func (c *catalogClient) GetBook(ctx context.Context, in *BookRef, opts ...grpc.CallOption) (*Book, error) {
	return invoke[Book](ctx, c.cc, CatalogService, "GetBook", in, opts)
}

func (c *catalogClient) Status(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*CatalogStatus, error) {
	return invoke[CatalogStatus](ctx, c.cc, CatalogService, "Status", in, opts)
}

func (c *catalogClient) Reload(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*CatalogStatus, error) {
	return invoke[CatalogStatus](ctx, c.cc, CatalogService, "Reload", in, opts)
}
