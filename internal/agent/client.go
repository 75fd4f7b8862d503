package agent

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// NextActionMethod is the full gRPC method name served by the model side.
const NextActionMethod = "/geomboard.v1.AgentService/NextAction"

// #region types
// Observation is what the agent sees before choosing an action.
type Observation struct {
	InstanceID string
	Step       int
	Current    string
	Goal       string
	Geoms      []string
	Actions    []string
	LastError  string
}

// Reply is the agent's answer. Action is free text expected to parse as
// "<kind> <i>[ <direction>]".
type Reply struct {
	Action    string
	Reasoning string
}

// #endregion types

// #region client-struct
// Client wraps the gRPC connection to the model service. Messages travel as
// google.protobuf.Struct so no generated stubs are needed.
type Client struct {
	conn *grpc.ClientConn
	cc   grpc.ClientConnInterface
}

// #endregion client-struct

// #region constructor
// NewClient connects to the model service at addr.
func NewClient(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn, cc: conn}, nil
}

// NewClientWithConn creates a Client over an injected connection.
// Used for testing without a real gRPC server.
func NewClientWithConn(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// #endregion constructor

// #region close
// Close shuts down the gRPC connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion close

// #region next-action
// NextAction sends an observation and returns the agent's reply.
func (c *Client) NextAction(ctx context.Context, obs Observation) (Reply, error) {
	req, err := structpb.NewStruct(map[string]any{
		"instance_id": obs.InstanceID,
		"step":        obs.Step,
		"current":     obs.Current,
		"goal":        obs.Goal,
		"geoms":       toList(obs.Geoms),
		"actions":     toList(obs.Actions),
		"last_error":  obs.LastError,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("encode observation: %w", err)
	}

	resp := &structpb.Struct{}
	if err := c.cc.Invoke(ctx, NextActionMethod, req, resp); err != nil {
		return Reply{}, fmt.Errorf("next action rpc: %w", err)
	}

	fields := resp.GetFields()
	act, ok := fields["action"]
	if !ok {
		return Reply{}, fmt.Errorf("next action rpc: reply has no action field")
	}
	return Reply{
		Action:    act.GetStringValue(),
		Reasoning: fields["reasoning"].GetStringValue(),
	}, nil
}

// #endregion next-action

// #region helpers
func toList(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// #endregion helpers
