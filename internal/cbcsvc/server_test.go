package cbcsvc

import (
	"context"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/funvibe/cbcjs/api/cbcpb"
	"github.com/funvibe/cbcjs/internal/cbc"
)

func startTestServer(t *testing.T) *Client {
	t.Helper()

	lis := bufconn.Listen(1024 * 1024)
	gs := grpc.NewServer()
	Register(gs, NewServer(nil, nil))
	go func() {
		if err := gs.Serve(lis); err != nil {
			t.Logf("serve: %v", err)
		}
	}()
	t.Cleanup(gs.Stop)

	dialer := func(context.Context, string) (net.Conn, error) { return lis.Dial() }
	cc, err := grpc.NewClient("passthrough:///bufconn",
		grpc.WithContextDialer(dialer),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dialing: %v", err)
	}
	t.Cleanup(func() { cc.Close() })

	return NewClient(cc)
}

func TestCompile_RoundTrip(t *testing.T) {
	client := startTestServer(t)

	resp, err := client.Compile(context.Background(), "var x = 1 + 2;", "program", "")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(cbcpb.RepeatedStrings(resp, "diagnostics")) != 0 {
		t.Fatalf("unexpected diagnostics: %v", cbcpb.RepeatedStrings(resp, "diagnostics"))
	}
	if cbcpb.GetString(resp, "correlation_id") == "" {
		t.Error("expected a stamped correlation id")
	}
	blob := cbcpb.GetBytes(resp, "blob")
	if len(blob) == 0 {
		t.Fatal("expected non-empty compiled blob")
	}

	code, err := cbc.Unmarshal(blob)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(code.Code) == 0 {
		t.Error("expected non-empty bytecode")
	}
}

func TestCompile_BadGoal(t *testing.T) {
	client := startTestServer(t)

	resp, err := client.Compile(context.Background(), "var x = 1;", "not-a-goal", "")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	diags := cbcpb.RepeatedStrings(resp, "diagnostics")
	if len(diags) == 0 {
		t.Fatal("expected a diagnostic for an unknown goal kind")
	}
}

func TestCompile_SyntaxError(t *testing.T) {
	client := startTestServer(t)

	resp, err := client.Compile(context.Background(), "var x = ;", "program", "")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(cbcpb.RepeatedStrings(resp, "diagnostics")) == 0 {
		t.Fatal("expected a diagnostic for a syntax error")
	}
}

func TestDescribe_RoundTrip(t *testing.T) {
	client := startTestServer(t)
	ctx := context.Background()

	compiled, err := client.Compile(ctx, `var s = "hi"; var n = 1;`, "program", "")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	blob := cbcpb.GetBytes(compiled, "blob")

	resp, err := client.Describe(ctx, blob)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	kinds := cbcpb.RepeatedStrings(resp, "literal_kinds")
	if len(kinds) == 0 {
		t.Fatal("expected at least one literal kind")
	}
}

func TestCompile_CorrelationIDPreserved(t *testing.T) {
	client := startTestServer(t)

	resp, err := client.Compile(context.Background(), "var x = 1;", "program", "caller-supplied-id")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if got := cbcpb.GetString(resp, "correlation_id"); got != "caller-supplied-id" {
		t.Errorf("correlation_id = %q, want %q", got, "caller-supplied-id")
	}
}
