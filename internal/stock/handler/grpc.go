package handler

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/fekuna/omnipos-donation-service/internal/apperr"
	"github.com/fekuna/omnipos-donation-service/internal/auth"
	"github.com/fekuna/omnipos-donation-service/internal/respond"
	"github.com/fekuna/omnipos-donation-service/internal/stock"
	"github.com/fekuna/omnipos-donation-service/internal/stock/dto"
	"github.com/fekuna/omnipos-donation-service/pkg/logger"
)

const (
	StockServiceName     = "omnipos.donation.v1.StockService"
	replenishFullMethod  = "/" + StockServiceName + "/Replenish"
	deductManyFullMethod = "/" + StockServiceName + "/DeductMany"
)

// StockServiceServer exchanges google.protobuf.Struct messages shaped like
// the HTTP JSON bodies.
type StockServiceServer interface {
	Replenish(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	DeductMany(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var StockServiceDesc = grpc.ServiceDesc{
	ServiceName: StockServiceName,
	HandlerType: (*StockServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Replenish", Handler: replenishHandler},
		{MethodName: "DeductMany", Handler: deductManyHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "omnipos/donation/v1/stock.proto",
}

func RegisterStockServiceServer(s grpc.ServiceRegistrar, srv StockServiceServer) {
	s.RegisterService(&StockServiceDesc, srv)
}

func replenishHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StockServiceServer).Replenish(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: replenishFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(StockServiceServer).Replenish(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func deductManyHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StockServiceServer).DeductMany(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: deductManyFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(StockServiceServer).DeductMany(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// StockClient calls StockService over an existing connection.
type StockClient struct {
	cc grpc.ClientConnInterface
}

func NewStockClient(cc grpc.ClientConnInterface) *StockClient {
	return &StockClient{cc: cc}
}

func (c *StockClient) Replenish(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, replenishFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *StockClient) DeductMany(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, deductManyFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

type StockGRPCHandler struct {
	uc     stock.UseCase
	resp   *respond.Responder
	logger logger.ZapLogger
}

func NewStockGRPCHandler(uc stock.UseCase, resp *respond.Responder, log logger.ZapLogger) *StockGRPCHandler {
	return &StockGRPCHandler{
		uc:     uc,
		resp:   resp,
		logger: log,
	}
}

type grpcReplenishRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *StockGRPCHandler) Replenish(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in grpcReplenishRequest
	if err := decodeStruct(req, &in); err != nil {
		return nil, h.statusError(ctx, apperr.Validation("validation.invalid_request", "invalid request"))
	}

	txn, err := h.uc.Replenish(ctx, &dto.ReplenishInput{
		AssociationID: auth.GetAssociationID(ctx),
		ProductID:     in.ProductID,
		Quantity:      in.Quantity,
	})
	if err != nil {
		return nil, h.statusError(ctx, err)
	}
	return h.encode(txn)
}

func (h *StockGRPCHandler) DeductMany(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in dto.DonationRequest
	if err := decodeStruct(req, &in); err != nil {
		return nil, h.statusError(ctx, apperr.Validation("validation.invalid_request", "invalid request"))
	}

	txns, err := h.uc.DeductMany(ctx, &dto.DeductManyInput{
		AssociationID: auth.GetAssociationID(ctx),
		Items:         in.Items,
		AllOrNothing:  in.AllOrNothing,
	})
	if err != nil {
		return nil, h.statusError(ctx, err)
	}
	return h.encode(dto.DonationResponse{Success: true, Transactions: txns})
}

// statusError renders err as a gRPC status. The error envelope travels
// in the status details so callers can read the code and product id.
func (h *StockGRPCHandler) statusError(ctx context.Context, err error) error {
	body := h.resp.Body(acceptLanguage(ctx), err)
	st := status.New(apperr.GRPCCode(apperr.Kind(body.Code)), body.Error)

	details, derr := structpb.NewStruct(map[string]interface{}{
		"success":    false,
		"code":       body.Code,
		"error":      body.Error,
		"product_id": body.ProductID,
	})
	if derr != nil {
		return st.Err()
	}
	withDetails, derr := st.WithDetails(details)
	if derr != nil {
		h.logger.Warn("failed to attach status details", zap.Error(derr))
		return st.Err()
	}
	return withDetails.Err()
}

func (h *StockGRPCHandler) encode(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
		return nil, status.Error(codes.Internal, "internal error")
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(data, out); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

func decodeStruct(in *structpb.Struct, dst interface{}) error {
	data, err := protojson.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

func acceptLanguage(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if val := md.Get("accept-language"); len(val) > 0 {
			return val[0]
		}
	}
	return ""
}
