// Package rpcservice exposes Elaborate/Normalize/Infer as a gRPC
// service over messages described by a .proto schema loaded at
// server-start rather than generated by protoc, mirroring the dynamic
// proto-descriptor pattern the teacher's evaluator/builtins_grpc.go
// and modules/virtual_packages_grpc.go use to expose a GrpcServer
// object to scripts without a compiled stub.
package rpcservice

import (
	"context"
	"fmt"

	"github.com/jhump/protoreflect/desc/protoparse"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/dtlc-lang/telescope/internal/cxt"
	"github.com/dtlc-lang/telescope/internal/elab"
	"github.com/dtlc-lang/telescope/internal/meta"
	"github.com/dtlc-lang/telescope/internal/nbe"
	"github.com/dtlc-lang/telescope/internal/parser"
	"github.com/dtlc-lang/telescope/internal/printer"
	"github.com/dtlc-lang/telescope/internal/syntax"
	"github.com/dtlc-lang/telescope/internal/value"
)

// Server implements the Telescope service against dynamically typed
// request/response messages. It holds no elaboration state of its
// own: every call gets a fresh metacontext and context, matching
// spec.md §5's single-threaded-per-elaboration model.
type Server struct {
	file protoreflect.FileDescriptor

	elabReqDesc, elabRespDesc protoreflect.MessageDescriptor
	nfReqDesc, nfRespDesc     protoreflect.MessageDescriptor
	inferReqDesc, inferRespDesc protoreflect.MessageDescriptor
}

// New parses schemaSource and returns a Server ready to be registered
// on a grpc.Server via ServiceDesc().
func New() (*Server, error) {
	p := protoparse.Parser{
		Accessor: protoparse.FileContentsFromMap(map[string]string{"telescope.proto": schemaSource}),
	}
	fds, err := p.ParseFiles("telescope.proto")
	if err != nil {
		return nil, fmt.Errorf("parsing telescope.proto: %w", err)
	}

	fd, err := protodesc.NewFile(fds[0].AsFileDescriptorProto(), protoregistry.GlobalFiles)
	if err != nil {
		return nil, fmt.Errorf("building file descriptor: %w", err)
	}

	msg := func(name string) protoreflect.MessageDescriptor {
		return fd.Messages().ByName(protoreflect.Name(name))
	}

	return &Server{
		file:         fd,
		elabReqDesc:  msg("ElaborateRequest"),
		elabRespDesc: msg("ElaborateResponse"),
		nfReqDesc:    msg("NormalizeRequest"),
		nfRespDesc:   msg("NormalizeResponse"),
		inferReqDesc: msg("InferRequest"),
		inferRespDesc: msg("InferResponse"),
	}, nil
}

func getString(m *dynamicpb.Message, field string) string {
	fd := m.Descriptor().Fields().ByName(protoreflect.Name(field))
	if fd == nil {
		return ""
	}
	return m.Get(fd).String()
}

func setString(m *dynamicpb.Message, field, val string) {
	fd := m.Descriptor().Fields().ByName(protoreflect.Name(field))
	if fd == nil {
		return
	}
	m.Set(fd, protoreflect.ValueOfString(val))
}

// elaborateWithExpected parses source and, when expected is empty,
// infers it via elab.InferTopLams (postulate-binding top-level lambdas,
// the same entry point telescope elab/nf use). When expected is
// non-empty it's parsed and checked against U first, then source is
// checked against its value via elab.Check instead of merely inferred,
// per the RPC front-end's optional second-source-string contract.
func elaborateWithExpected(source, expected string) (syntax.Tm, value.Val, *meta.Metacontext, error) {
	mctx := meta.New()

	if expected == "" {
		raw, perr := parser.Parse(source)
		if perr != nil {
			return nil, nil, nil, perr
		}
		tm, ty, eerr := elab.InferTopLams(mctx, cxt.Empty(), raw)
		if eerr != nil {
			return nil, nil, nil, eerr
		}
		return tm, ty, mctx, nil
	}

	expRaw, perr := parser.Parse(expected)
	if perr != nil {
		return nil, nil, nil, perr
	}
	expTm, eerr := elab.Check(mctx, cxt.Empty(), expRaw, value.VU{})
	if eerr != nil {
		return nil, nil, nil, eerr
	}
	expVal := nbe.Eval(mctx, nil, expTm)

	raw, perr := parser.Parse(source)
	if perr != nil {
		return nil, nil, nil, perr
	}
	tm, eerr := elab.Check(mctx, cxt.Empty(), raw, expVal)
	if eerr != nil {
		return nil, nil, nil, eerr
	}
	return tm, expVal, mctx, nil
}

// runSource elaborates source (against expected, if given) and
// returns its normal form and inferred/checked type, printed.
func runSource(source, expected string) (result string, typ string, err error) {
	tm, ty, mctx, eerr := elaborateWithExpected(source, expected)
	if eerr != nil {
		return "", "", eerr
	}
	zonked := printer.Zonk(mctx, 0, tm)
	normal := nbe.Nf(mctx, zonked)
	return printer.Print(normal, nil), printer.Print(nbe.Quote(mctx, 0, ty), nil), nil
}

// Elaborate decodes an ElaborateRequest, elaborates its source (against
// expected, if set) and returns the zonked (but not normalized) core term.
func (s *Server) handleElaborate(ctx context.Context, in *dynamicpb.Message) (*dynamicpb.Message, error) {
	source := getString(in, "source")
	expected := getString(in, "expected")
	out := dynamicpb.NewMessage(s.elabRespDesc)

	tm, _, mctx, eerr := elaborateWithExpected(source, expected)
	if eerr != nil {
		setString(out, "error", eerr.Error())
		return out, nil
	}
	setString(out, "result", printer.Print(printer.Zonk(mctx, 0, tm), nil))
	return out, nil
}

// Normalize decodes a NormalizeRequest and returns the term's normal form.
func (s *Server) handleNormalize(ctx context.Context, in *dynamicpb.Message) (*dynamicpb.Message, error) {
	source := getString(in, "source")
	expected := getString(in, "expected")
	out := dynamicpb.NewMessage(s.nfRespDesc)

	result, _, err := runSource(source, expected)
	if err != nil {
		setString(out, "error", err.Error())
		return out, nil
	}
	setString(out, "result", result)
	return out, nil
}

// Infer decodes an InferRequest and returns the term's inferred (or
// checked, if expected is set) type.
func (s *Server) handleInfer(ctx context.Context, in *dynamicpb.Message) (*dynamicpb.Message, error) {
	source := getString(in, "source")
	expected := getString(in, "expected")
	out := dynamicpb.NewMessage(s.inferRespDesc)

	_, ty, err := runSource(source, expected)
	if err != nil {
		setString(out, "error", err.Error())
		return out, nil
	}
	setString(out, "type", ty)
	return out, nil
}

func elaborateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	s := srv.(*Server)
	in := dynamicpb.NewMessage(s.elabReqDesc)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return s.handleElaborate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/telescope.Telescope/Elaborate"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return s.handleElaborate(ctx, req.(*dynamicpb.Message))
	}
	return interceptor(ctx, in, info, handler)
}

func normalizeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	s := srv.(*Server)
	in := dynamicpb.NewMessage(s.nfReqDesc)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return s.handleNormalize(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/telescope.Telescope/Normalize"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return s.handleNormalize(ctx, req.(*dynamicpb.Message))
	}
	return interceptor(ctx, in, info, handler)
}

func inferHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	s := srv.(*Server)
	in := dynamicpb.NewMessage(s.inferReqDesc)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return s.handleInfer(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/telescope.Telescope/Infer"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return s.handleInfer(ctx, req.(*dynamicpb.Message))
	}
	return interceptor(ctx, in, info, handler)
}

// ServiceDesc builds the hand-written grpc.ServiceDesc that registers
// s on a grpc.Server — there is no protoc-generated _grpc.pb.go, so
// this plays that role directly, the same low-level registration the
// teacher's VM uses for script-exposed GrpcServer objects.
func (s *Server) ServiceDesc() *grpc.ServiceDesc {
	return &grpc.ServiceDesc{
		ServiceName: "telescope.Telescope",
		HandlerType: (*interface{})(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "Elaborate", Handler: elaborateHandler},
			{MethodName: "Normalize", Handler: normalizeHandler},
			{MethodName: "Infer", Handler: inferHandler},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "telescope.proto",
	}
}

// Register registers s on srv.
func Register(srv *grpc.Server, s *Server) {
	srv.RegisterService(s.ServiceDesc(), s)
}
