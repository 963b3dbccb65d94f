package grpc_control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"nday-analyzer/src/helpers"
	"nday-analyzer/src/interfaces"
	"nday-analyzer/src/logger"
	"nday-analyzer/src/models"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName      = "nday.AnalysisControl"
	defaultListLimit = 20
)

// RunAnalyzer executes one analysis request.
type RunAnalyzer interface {
	Analyze(ctx context.Context, req models.MAnalysisRequest) (*models.MAnalysisRun, error)
}

// AnalysisControlServer is the server API for nday.AnalysisControl.
// Messages are google.protobuf.Struct carrying the JSON shapes of the
// HTTP API.
type AnalysisControlServer interface {
	Analyze(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ListRuns(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	GetRun(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

// ControlService implements AnalysisControlServer
type ControlService struct {
	Analyzer RunAnalyzer
	DB       interfaces.IDatabase // optional
	Logger   *logger.Logger
}

// NewControlService creates a new instance of ControlService
func NewControlService(analyzer RunAnalyzer, db interfaces.IDatabase, log *logger.Logger) *ControlService {
	return &ControlService{
		Analyzer: analyzer,
		DB:       db,
		Logger:   log,
	}
}

// -----------------------------------------------------------------------------

func (s *ControlService) Analyze(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req models.MAnalysisRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}

	run, err := s.Analyzer.Analyze(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(run)
}

// -----------------------------------------------------------------------------

func (s *ControlService) ListRuns(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if s.DB == nil {
		return nil, status.Error(codes.FailedPrecondition, "storage is disabled")
	}

	var req struct {
		Symbol string `json:"symbol"`
		Limit  int    `json:"limit"`
	}
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	if req.Limit <= 0 {
		req.Limit = defaultListLimit
	}

	runs, err := s.DB.ListAnalysisRuns(req.Symbol, req.Limit)
	if err != nil {
		return nil, toStatus(err)
	}
	if runs == nil {
		runs = []models.MAnalysisRun{}
	}
	return toStruct(map[string]interface{}{"runs": runs})
}

// -----------------------------------------------------------------------------

func (s *ControlService) GetRun(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if s.DB == nil {
		return nil, status.Error(codes.FailedPrecondition, "storage is disabled")
	}

	id := in.GetFields()["id"].GetStringValue()
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}

	run, err := s.DB.GetAnalysisRun(id)
	if err != nil {
		return nil, toStatus(err)
	}
	if run == nil {
		return nil, status.Errorf(codes.NotFound, "run %s not found", id)
	}
	return toStruct(map[string]interface{}{"run": run, "outcomes": run.Result.Outcomes})
}

// -----------------------------------------------------------------------------
// Conversion
// -----------------------------------------------------------------------------

func fromStruct(in *structpb.Struct, out interface{}) error {
	data, err := json.Marshal(in.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// -----------------------------------------------------------------------------

func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// -----------------------------------------------------------------------------

// toStatus maps the error taxonomy to gRPC codes.
func toStatus(err error) error {
	var (
		vErr  *helpers.ValidationError
		dsErr *helpers.DataSourceError
		nErr  *helpers.NetworkError
	)

	switch {
	case errors.As(err, &vErr):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.As(err, &dsErr), errors.As(err, &nErr):
		return status.Error(codes.Unavailable, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

// -----------------------------------------------------------------------------
// Service registration
// -----------------------------------------------------------------------------

func unaryHandler(method func(AnalysisControlServer, context.Context, *structpb.Struct) (*structpb.Struct, error), fullMethod string) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return method(srv.(AnalysisControlServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return method(srv.(AnalysisControlServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc describes nday.AnalysisControl for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AnalysisControlServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Analyze", Handler: unaryHandler(AnalysisControlServer.Analyze, "/"+ServiceName+"/Analyze")},
		{MethodName: "ListRuns", Handler: unaryHandler(AnalysisControlServer.ListRuns, "/"+ServiceName+"/ListRuns")},
		{MethodName: "GetRun", Handler: unaryHandler(AnalysisControlServer.GetRun, "/"+ServiceName+"/GetRun")},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "nday/analysis_control",
}

// -----------------------------------------------------------------------------

// NewServer builds a grpc.Server with the control service registered.
func NewServer(svc AnalysisControlServer, log *logger.Logger) *grpc.Server {
	srv := grpc.NewServer(grpc.UnaryInterceptor(loggingInterceptor(log)))
	srv.RegisterService(&ServiceDesc, svc)
	return srv
}

// -----------------------------------------------------------------------------

func loggingInterceptor(log *logger.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		started := time.Now()
		resp, err := handler(ctx, req)
		if err != nil {
			log.Warning("gRPC: %s failed after %s: %v", info.FullMethod, time.Since(started), err)
		} else {
			log.Debug("gRPC: %s ok in %s", info.FullMethod, time.Since(started))
		}
		return resp, err
	}
}

// -----------------------------------------------------------------------------
// Client
// -----------------------------------------------------------------------------

// Client calls nday.AnalysisControl over an existing connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in *structpb.Struct) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fmt.Sprintf("/%s/%s", ServiceName, method), in, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Analyze sends one request and decodes the run.
func (c *Client) Analyze(ctx context.Context, req models.MAnalysisRequest) (*models.MAnalysisRun, error) {
	in, err := toStruct(req)
	if err != nil {
		return nil, err
	}
	out, err := c.invoke(ctx, "Analyze", in)
	if err != nil {
		return nil, err
	}
	var run models.MAnalysisRun
	if err := fromStruct(out, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (c *Client) ListRuns(ctx context.Context, symbol string, limit int) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]interface{}{"symbol": symbol, "limit": limit})
	if err != nil {
		return nil, err
	}
	return c.invoke(ctx, "ListRuns", in)
}

func (c *Client) GetRun(ctx context.Context, id string) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]interface{}{"id": id})
	if err != nil {
		return nil, err
	}
	return c.invoke(ctx, "GetRun", in)
}
