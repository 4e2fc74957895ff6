package rpcservice

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/dynamicpb"
)

// dialBufconn wires a Server to an in-process grpc.Server reachable
// only through a bufconn listener, the standard way to round-trip a
// gRPC service in a test without touching a real socket.
func dialBufconn(t *testing.T) (*grpc.ClientConn, *Server) {
	t.Helper()
	srv, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	lis := bufconn.Listen(1024 * 1024)
	gs := grpc.NewServer()
	Register(gs, srv)
	go gs.Serve(lis)
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("grpc.NewClient: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn, srv
}

func TestElaborateRoundTrip(t *testing.T) {
	conn, srv := dialBufconn(t)

	req := dynamicpb.NewMessage(srv.elabReqDesc)
	setString(req, "source", "let id : {A : U} -> A -> A = \\x. x; id U")
	resp := dynamicpb.NewMessage(srv.elabRespDesc)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.Invoke(ctx, "/telescope.Telescope/Elaborate", req, resp); err != nil {
		t.Fatalf("Elaborate invoke: %v", err)
	}
	if got := getString(resp, "error"); got != "" {
		t.Fatalf("Elaborate returned error: %s", got)
	}
	if got := getString(resp, "result"); got == "" {
		t.Fatalf("Elaborate returned empty result")
	}
}

func TestNormalizeRoundTrip(t *testing.T) {
	conn, srv := dialBufconn(t)

	req := dynamicpb.NewMessage(srv.nfReqDesc)
	setString(req, "source", "(\\x. x) U")
	resp := dynamicpb.NewMessage(srv.nfRespDesc)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.Invoke(ctx, "/telescope.Telescope/Normalize", req, resp); err != nil {
		t.Fatalf("Normalize invoke: %v", err)
	}
	if got := getString(resp, "error"); got != "" {
		t.Fatalf("Normalize returned error: %s", got)
	}
	if got := getString(resp, "result"); got != "U" {
		t.Fatalf("Normalize result = %q, want U", got)
	}
}

func TestInferRoundTrip(t *testing.T) {
	conn, srv := dialBufconn(t)

	req := dynamicpb.NewMessage(srv.inferReqDesc)
	setString(req, "source", "U")
	resp := dynamicpb.NewMessage(srv.inferRespDesc)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.Invoke(ctx, "/telescope.Telescope/Infer", req, resp); err != nil {
		t.Fatalf("Infer invoke: %v", err)
	}
	if got := getString(resp, "error"); got != "" {
		t.Fatalf("Infer returned error: %s", got)
	}
	if got := getString(resp, "type"); got != "U" {
		t.Fatalf("Infer type = %q, want U", got)
	}
}

func TestInferChecksAgainstExpectedType(t *testing.T) {
	conn, srv := dialBufconn(t)

	req := dynamicpb.NewMessage(srv.inferReqDesc)
	setString(req, "source", "U")
	setString(req, "expected", "U")
	resp := dynamicpb.NewMessage(srv.inferRespDesc)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.Invoke(ctx, "/telescope.Telescope/Infer", req, resp); err != nil {
		t.Fatalf("Infer invoke: %v", err)
	}
	if got := getString(resp, "error"); got != "" {
		t.Fatalf("Infer returned error: %s", got)
	}
	if got := getString(resp, "type"); got != "U" {
		t.Fatalf("Infer type = %q, want U", got)
	}
}

func TestInferRejectsMismatchedExpectedType(t *testing.T) {
	conn, srv := dialBufconn(t)

	req := dynamicpb.NewMessage(srv.inferReqDesc)
	setString(req, "source", "U")
	setString(req, "expected", "U -> U")
	resp := dynamicpb.NewMessage(srv.inferRespDesc)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.Invoke(ctx, "/telescope.Telescope/Infer", req, resp); err != nil {
		t.Fatalf("Infer invoke: %v", err)
	}
	if got := getString(resp, "error"); got == "" {
		t.Fatal("expected an error checking U against U -> U")
	}
}

func TestElaborateRoundTripReportsParseError(t *testing.T) {
	conn, srv := dialBufconn(t)

	req := dynamicpb.NewMessage(srv.elabReqDesc)
	setString(req, "source", "->")
	resp := dynamicpb.NewMessage(srv.elabRespDesc)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.Invoke(ctx, "/telescope.Telescope/Elaborate", req, resp); err != nil {
		t.Fatalf("Elaborate invoke: %v", err)
	}
	if got := getString(resp, "error"); got == "" {
		t.Fatalf("expected a parse error in the response, got none")
	}
}
