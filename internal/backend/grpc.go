package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tOgg1/mosaic/internal/models"
)

// gRPC service identifiers.
const (
	ServiceName    = "mosaic.v1.Navigator"
	navigateMethod = "/" + ServiceName + "/Navigate"
)

// NavigatorServiceDesc describes the Navigator service. Requests and
// responses are google.protobuf.Struct messages; an empty response means
// no item.
var NavigatorServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Navigator)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Navigate",
			Handler:    navigateHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "mosaic/v1/navigator.proto",
}

// RegisterNavigatorServer registers srv on s.
func RegisterNavigatorServer(s grpc.ServiceRegistrar, srv Navigator) {
	s.RegisterService(&NavigatorServiceDesc, srv)
}

func navigateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	call := func(ctx context.Context, req any) (any, error) {
		navReq, err := StructToRequest(req.(*structpb.Struct))
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		item, err := srv.(Navigator).Navigate(ctx, navReq)
		if err != nil {
			return nil, toStatus(err)
		}
		return ItemToStruct(item)
	}
	if interceptor == nil {
		return call(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: navigateMethod}
	return interceptor(ctx, in, info, call)
}

func toStatus(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	var verr *models.ValidationErrors
	switch {
	case errors.As(err, &verr), errors.Is(err, models.ErrInvalidSelector):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// GRPCOptions configures a GRPCClient.
type GRPCOptions struct {
	Token   string
	Timeout time.Duration
	// DialOptions are appended to the defaults (tests).
	DialOptions []grpc.DialOption
}

// GRPCClient calls a remote Navigator service.
type GRPCClient struct {
	conn    *grpc.ClientConn
	token   string
	timeout time.Duration
}

var _ Client = (*GRPCClient)(nil)

// NewGRPCClient creates a client for the service at addr. The connection is
// established lazily.
func NewGRPCClient(addr string, opts GRPCOptions) (*GRPCClient, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("grpc address is required")
	}
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, opts.DialOptions...)
	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("grpc client %s: %w", addr, err)
	}
	return &GRPCClient{conn: conn, token: opts.Token, timeout: opts.Timeout}, nil
}

// Navigate implements Navigator.
func (c *GRPCClient) Navigate(ctx context.Context, req models.NavRequest) (*models.WireItem, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	in, err := RequestToStruct(req)
	if err != nil {
		return nil, err
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if c.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
	}

	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, navigateMethod, in, out); err != nil {
		return nil, fromStatus(err)
	}
	return StructToItem(out)
}

// Close closes the connection.
func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return nil
	case codes.Unavailable:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	case codes.DeadlineExceeded:
		return fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
	default:
		return err
	}
}

// RequestToStruct encodes a navigation request.
func RequestToStruct(req models.NavRequest) (*structpb.Struct, error) {
	fields := map[string]any{"selector": string(req.Selector)}
	if req.Key != "" {
		fields["key"] = req.Key
	}
	if !req.Timestamp.IsZero() {
		fields["timestamp"] = models.FormatTimestamp(req.Timestamp)
	}
	return structpb.NewStruct(fields)
}

// StructToRequest decodes a navigation request.
func StructToRequest(s *structpb.Struct) (models.NavRequest, error) {
	fields := s.GetFields()
	selector, err := models.ParseSelector(fields["selector"].GetStringValue())
	if err != nil {
		return models.NavRequest{}, err
	}
	req := models.NavRequest{
		Selector: selector,
		Key:      fields["key"].GetStringValue(),
	}
	if raw := fields["timestamp"].GetStringValue(); raw != "" {
		ts, ok := models.ParseTimestamp(raw)
		if !ok {
			return models.NavRequest{}, fmt.Errorf("invalid timestamp %q", raw)
		}
		req.Timestamp = ts
	}
	return req, req.Validate()
}

// ItemToStruct encodes an item; nil encodes as an empty struct.
func ItemToStruct(item *models.WireItem) (*structpb.Struct, error) {
	if item == nil {
		return &structpb.Struct{}, nil
	}
	fields := map[string]any{"key": item.Key}
	if item.TakenAt != "" {
		fields["taken_at"] = item.TakenAt
	}
	if item.ContentRef != "" {
		fields["content_ref"] = item.ContentRef
	}
	if item.Metadata != nil && item.Metadata.OriginalTakenAt != "" {
		fields["metadata"] = map[string]any{"original_taken_at": item.Metadata.OriginalTakenAt}
	}
	return structpb.NewStruct(fields)
}

// StructToItem decodes an item; an empty struct decodes as nil.
func StructToItem(s *structpb.Struct) (*models.WireItem, error) {
	fields := s.GetFields()
	if len(fields) == 0 {
		return nil, nil
	}
	key := fields["key"].GetStringValue()
	if key == "" {
		return nil, errors.New("decode item: missing key")
	}
	item := &models.WireItem{
		Key:        key,
		TakenAt:    fields["taken_at"].GetStringValue(),
		ContentRef: fields["content_ref"].GetStringValue(),
	}
	if meta := fields["metadata"].GetStructValue(); meta != nil {
		if orig := meta.GetFields()["original_taken_at"].GetStringValue(); orig != "" {
			item.Metadata = &models.WireMetadata{OriginalTakenAt: orig}
		}
	}
	return item, nil
}
