package agent

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region mock
type mockConn struct {
	grpc.ClientConnInterface

	reply *structpb.Struct
	err   error

	method  string
	lastReq *structpb.Struct
}

func (m *mockConn) Invoke(_ context.Context, method string, args, reply any, _ ...grpc.CallOption) error {
	m.method = method
	m.lastReq = args.(*structpb.Struct)
	if m.err != nil {
		return m.err
	}
	proto.Merge(reply.(*structpb.Struct), m.reply)
	return nil
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	return s
}

// #endregion mock

// #region constructor-tests
func TestNewClientLazyDial(t *testing.T) {
	client, err := NewClient("localhost:0")
	if err != nil {
		t.Fatalf("unexpected error creating client: %v", err)
	}
	defer client.Close()
}

func TestNewClientWithConn(t *testing.T) {
	c := NewClientWithConn(&mockConn{})
	if c.cc == nil {
		t.Fatal("expected non-nil internal conn")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close without owned conn: %v", err)
	}
}

// #endregion constructor-tests

// #region next-action-tests
func TestNextAction_Success(t *testing.T) {
	mock := &mockConn{reply: mustStruct(t, map[string]any{
		"action":    "move 0 right",
		"reasoning": "geom 0 is one cell left of its goal",
	})}
	c := NewClientWithConn(mock)

	obs := Observation{
		InstanceID: "geom_board_b_4_4_g_1_c1_1_c2_0_i_0",
		Step:       2,
		Current:    "[0:0@1] . . .",
		Goal:       ". [0:0@1] . .",
		Geoms:      []string{"red cube"},
		Actions:    []string{"move"},
	}
	reply, err := c.NextAction(context.Background(), obs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Action != "move 0 right" {
		t.Errorf("expected action 'move 0 right', got %q", reply.Action)
	}
	if reply.Reasoning == "" {
		t.Error("expected reasoning to be carried through")
	}
	if mock.method != NextActionMethod {
		t.Errorf("expected method %s, got %s", NextActionMethod, mock.method)
	}

	fields := mock.lastReq.GetFields()
	if fields["instance_id"].GetStringValue() != obs.InstanceID {
		t.Errorf("instance id not sent: %v", fields["instance_id"])
	}
	if fields["step"].GetNumberValue() != 2 {
		t.Errorf("expected step 2, got %v", fields["step"])
	}
	if got := fields["geoms"].GetListValue().GetValues(); len(got) != 1 || got[0].GetStringValue() != "red cube" {
		t.Errorf("geoms not sent: %v", got)
	}
}

func TestNextAction_Error(t *testing.T) {
	mock := &mockConn{err: errors.New("rpc failed")}
	c := NewClientWithConn(mock)

	_, err := c.NextAction(context.Background(), Observation{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, mock.err) {
		t.Errorf("expected wrapped rpc error, got: %v", err)
	}
}

func TestNextAction_MissingAction(t *testing.T) {
	mock := &mockConn{reply: mustStruct(t, map[string]any{"reasoning": "thinking"})}
	c := NewClientWithConn(mock)

	if _, err := c.NextAction(context.Background(), Observation{}); err == nil {
		t.Fatal("expected error for reply without action")
	}
}

// #endregion next-action-tests
