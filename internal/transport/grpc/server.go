// Package grpc exposes read-only cart queries over gRPC for internal callers.
package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/abgdnv/stitchnstyle/internal/cart"
	sferrors "github.com/abgdnv/stitchnstyle/internal/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	CartQueryServiceName = "storefront.v1.CartQuery"
	GetSummaryFullMethod = "/" + CartQueryServiceName + "/GetSummary"
)

// CartSummarizer prices an account's cart.
type CartSummarizer interface {
	Summary(ctx context.Context, owner string) (cart.Summary, error)
}

// CartQueryServer is the server API of storefront.v1.CartQuery.
type CartQueryServer interface {
	// GetSummary returns the cart summary of the account named in the request.
	GetSummary(ctx context.Context, account *wrapperspb.StringValue) (*structpb.Struct, error)
}

// CartQueryServiceDesc describes storefront.v1.CartQuery. Requests and responses are
// well-known types, so no generated code is involved.
var CartQueryServiceDesc = grpc.ServiceDesc{
	ServiceName: CartQueryServiceName,
	HandlerType: (*CartQueryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetSummary", Handler: getSummaryHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "storefront/v1/cart_query.proto",
}

func getSummaryHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CartQueryServer).GetSummary(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetSummaryFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CartQueryServer).GetSummary(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// RegisterCartQueryServer registers srv with s.
func RegisterCartQueryServer(s grpc.ServiceRegistrar, srv CartQueryServer) {
	s.RegisterService(&CartQueryServiceDesc, srv)
}

type Server struct {
	carts  CartSummarizer
	logger *slog.Logger
}

func NewServer(carts CartSummarizer, logger *slog.Logger) *Server {
	return &Server{carts: carts, logger: logger.With("component", "grpc")}
}

func (s *Server) GetSummary(ctx context.Context, account *wrapperspb.StringValue) (*structpb.Struct, error) {
	owner := account.GetValue()
	logger := s.logger.With("account", owner)
	logger.DebugContext(ctx, "received grpc request GetSummary")

	summary, err := s.carts.Summary(ctx, owner)
	if err != nil {
		if code := codeOf(err); code != codes.Internal {
			return nil, status.Error(code, err.Error())
		}
		logger.ErrorContext(ctx, "carts.Summary failed", "error", err)
		return nil, status.Error(codes.Internal, "internal server error")
	}
	out, err := toStruct(summary)
	if err != nil {
		logger.ErrorContext(ctx, "encode summary failed", "error", err)
		return nil, status.Error(codes.Internal, "internal server error")
	}
	return out, nil
}

// toStruct converts v through its JSON form, so money stays a decimal string.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

func codeOf(err error) codes.Code {
	switch {
	case errors.Is(err, sferrors.ErrValidation):
		return codes.InvalidArgument
	case errors.Is(err, sferrors.ErrNotFound):
		return codes.NotFound
	case errors.Is(err, sferrors.ErrStateConflict), errors.Is(err, sferrors.ErrOptimisticLock):
		return codes.FailedPrecondition
	case errors.Is(err, sferrors.ErrAccessDenied):
		return codes.PermissionDenied
	case errors.Is(err, sferrors.ErrOwnerRequired):
		return codes.Unauthenticated
	default:
		return codes.Internal
	}
}

// CartQueryClient is the client API of storefront.v1.CartQuery.
type CartQueryClient struct {
	cc grpc.ClientConnInterface
}

func NewCartQueryClient(cc grpc.ClientConnInterface) *CartQueryClient {
	return &CartQueryClient{cc: cc}
}

func (c *CartQueryClient) GetSummary(ctx context.Context, account string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetSummaryFullMethod, wrapperspb.String(account), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
