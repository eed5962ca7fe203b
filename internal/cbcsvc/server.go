// Package cbcsvc implements CompileService: a gRPC front end over
// parser.Compile (through cbccache.Cache.CompileCached when a cache is set)
// and cbc.Unmarshal, so a remote caller can
// submit source and get back a compiled blob or a literal-kind summary
// without a local toolchain. Method dispatch is wired by hand through a
// grpc.ServiceDesc instead of protoc-gen-go-grpc stubs, matching
// api/cbcpb's hand-built descriptor.
package cbcsvc

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jhump/protoreflect/desc"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/funvibe/cbcjs/api/cbcpb"
	"github.com/funvibe/cbcjs/internal/cbc"
	"github.com/funvibe/cbcjs/internal/cbccache"
	"github.com/funvibe/cbcjs/internal/cbcconfig"
	"github.com/funvibe/cbcjs/internal/parser"
)

// Logger receives a one-line description of every request and response
// CompileService handles. Server.Logf defaults to a no-op.
type Logger func(format string, args ...any)

// Server implements CompileService's two RPCs. Cache is optional; when nil,
// every Compile call recompiles from source.
type Server struct {
	Config *cbcconfig.Config
	Cache  *cbccache.Cache
	Logf   Logger
}

// NewServer builds a Server. cfg may be nil, in which case
// cbcconfig.Default() is used.
func NewServer(cfg *cbcconfig.Config, cache *cbccache.Cache) *Server {
	if cfg == nil {
		cfg = cbcconfig.Default()
	}
	return &Server{Config: cfg, Cache: cache, Logf: func(string, ...any) {}}
}

func (s *Server) log(format string, args ...any) {
	if s.Logf != nil {
		s.Logf(format, args...)
	}
}

// Compile compiles req's source under req's goal kind, returning the
// serialized bytecode. A blank correlation_id is stamped with a fresh
// random one before being echoed back.
func (s *Server) Compile(ctx context.Context, req *dynamicpb.Message) (*dynamicpb.Message, error) {
	s.log("Compile request: %s", describeMessage(req))

	correlationID := cbcpb.GetString(req, "correlation_id")
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	resp := cbcpb.NewCompileResponse()
	cbcpb.SetString(resp, "correlation_id", correlationID)

	goal, err := goalKind(cbcpb.GetString(req, "goal"))
	if err != nil {
		cbcpb.AppendString(resp, "diagnostics", err.Error())
		return resp, nil
	}

	source := cbcpb.GetString(req, "source")
	var code *cbc.CompiledCode
	if s.Cache != nil && goal == parser.GoalProgram {
		code, err = s.Cache.CompileCached(source, goal)
	} else {
		code, err = parser.Compile(source, goal)
	}
	if err != nil {
		cbcpb.AppendString(resp, "diagnostics", err.Error())
		return resp, nil
	}

	blob, err := cbc.Marshal(code)
	if err != nil {
		cbcpb.AppendString(resp, "diagnostics", fmt.Sprintf("serializing result: %s", err))
		return resp, nil
	}
	cbcpb.SetBytes(resp, "blob", blob)

	s.log("Compile response: %s", describeMessage(resp))
	return resp, nil
}

// Describe unmarshals req's blob and reports the kind of every literal in
// its top-level literal pool.
func (s *Server) Describe(ctx context.Context, req *dynamicpb.Message) (*dynamicpb.Message, error) {
	s.log("Describe request: %s", describeMessage(req))

	resp := cbcpb.NewDescribeResponse()

	code, err := cbc.Unmarshal(cbcpb.GetBytes(req, "blob"))
	if err != nil {
		return nil, fmt.Errorf("unmarshaling blob: %w", err)
	}
	for _, lit := range code.Literals {
		cbcpb.AppendString(resp, "literal_kinds", literalKindName(lit.Kind))
	}

	s.log("Describe response: %s", describeMessage(resp))
	return resp, nil
}

func goalKind(s string) (parser.GoalKind, error) {
	switch s {
	case "", "program":
		return parser.GoalProgram, nil
	case "eval":
		return parser.GoalEval, nil
	case "function":
		return parser.GoalFunction, nil
	default:
		return 0, fmt.Errorf("unknown goal kind %q", s)
	}
}

func literalKindName(k cbc.LiteralKind) string {
	switch k {
	case cbc.LiteralIdent:
		return "ident"
	case cbc.LiteralString:
		return "string"
	case cbc.LiteralNumber:
		return "number"
	case cbc.LiteralFunction:
		return "function"
	case cbc.LiteralRegexp:
		return "regexp"
	default:
		return "unknown"
	}
}

// describeMessage renders a dynamic message's populated fields for logging,
// using protoreflect's descriptor wrapper rather than dynamicpb's own
// (unexported) text formatting.
func describeMessage(m *dynamicpb.Message) string {
	md, err := desc.WrapMessage(m.Descriptor())
	if err != nil {
		return string(m.Descriptor().FullName().Name()) + " (undescribable)"
	}
	fields := md.GetFields()
	out := md.GetName() + "{"
	for i, fd := range fields {
		if i > 0 {
			out += ", "
		}
		out += fd.GetName()
	}
	return out + "}"
}

func compileHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := cbcpb.NewCompileRequest()
	if err := dec(req); err != nil {
		return nil, err
	}
	s := srv.(*Server)
	if interceptor == nil {
		return s.Compile(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: s, FullMethod: "/cbcpb.CompileService/Compile"}
	handler := func(ctx context.Context, req any) (any, error) {
		return s.Compile(ctx, req.(*dynamicpb.Message))
	}
	return interceptor(ctx, req, info, handler)
}

func describeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := cbcpb.NewDescribeRequest()
	if err := dec(req); err != nil {
		return nil, err
	}
	s := srv.(*Server)
	if interceptor == nil {
		return s.Describe(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: s, FullMethod: "/cbcpb.CompileService/Describe"}
	handler := func(ctx context.Context, req any) (any, error) {
		return s.Describe(ctx, req.(*dynamicpb.Message))
	}
	return interceptor(ctx, req, info, handler)
}

// ServiceDesc is CompileService's grpc registration descriptor, built by
// hand in place of protoc-gen-go-grpc's generated _grpc.pb.go output.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: "cbcpb.CompileService",
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Compile", Handler: compileHandler},
		{MethodName: "Describe", Handler: describeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cbc.proto",
}

// Register attaches Server to a grpc.Server under CompileService.
func Register(gs *grpc.Server, s *Server) {
	gs.RegisterService(&ServiceDesc, s)
}
