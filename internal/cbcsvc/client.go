package cbcsvc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/funvibe/cbcjs/api/cbcpb"
)

// Client is a thin CompileService caller built directly on grpc.ClientConn,
// in place of a generated CompileServiceClient.
type Client struct {
	cc *grpc.ClientConn
}

// NewClient wraps an established connection.
func NewClient(cc *grpc.ClientConn) *Client {
	return &Client{cc: cc}
}

// Compile calls CompileService.Compile with the given source and goal kind
// ("", "program", "eval", or "function").
func (c *Client) Compile(ctx context.Context, source, goal, correlationID string) (*dynamicpb.Message, error) {
	req := cbcpb.NewCompileRequest()
	cbcpb.SetString(req, "source", source)
	cbcpb.SetString(req, "goal", goal)
	cbcpb.SetString(req, "correlation_id", correlationID)

	resp := cbcpb.NewCompileResponse()
	if err := c.cc.Invoke(ctx, "/cbcpb.CompileService/Compile", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Describe calls CompileService.Describe with a previously compiled blob.
func (c *Client) Describe(ctx context.Context, blob []byte) (*dynamicpb.Message, error) {
	req := cbcpb.NewDescribeRequest()
	cbcpb.SetBytes(req, "blob", blob)

	resp := cbcpb.NewDescribeResponse()
	if err := c.cc.Invoke(ctx, "/cbcpb.CompileService/Describe", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}
