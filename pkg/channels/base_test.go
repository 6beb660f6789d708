package channels

import (
	"context"
	"testing"

	"github.com/ironiklabs/ironbot/pkg/agent"
)

// --- IsAllowed ---

func TestIsAllowed_EmptyList(t *testing.T) {
	bc := NewBaseChannel("test", nil, nil, []string{})
	if !bc.IsAllowed("anyone") {
		t.Error("empty allow list should allow everyone")
	}
}

func TestIsAllowed_SimpleMatch(t *testing.T) {
	bc := NewBaseChannel("test", nil, nil, []string{"alice", "bob"})
	if !bc.IsAllowed("alice") {
		t.Error("alice should be allowed")
	}
	if !bc.IsAllowed("bob") {
		t.Error("bob should be allowed")
	}
	if bc.IsAllowed("eve") {
		t.Error("eve should not be allowed")
	}
}

func TestIsAllowed_AtPrefix(t *testing.T) {
	bc := NewBaseChannel("test", nil, nil, []string{"@bob"})
	if !bc.IsAllowed("bob") {
		t.Error("bob should match after stripping @")
	}
}

func TestIsAllowed_CompoundSender(t *testing.T) {
	tests := []struct {
		name   string
		allow  []string
		sender string
		want   bool
	}{
		{"compound sender matches bare id", []string{"12345"}, "12345|alice", true},
		{"compound sender matches username entry", []string{"alice"}, "12345|alice", true},
		{"id-only sender matches compound entry", []string{"12345|alice"}, "12345", true},
		{"compound sender matches compound entry", []string{"12345|alice"}, "12345|alice", true},
		{"no match", []string{"12345|alice"}, "99999|eve", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bc := NewBaseChannel("test", nil, nil, tt.allow)
			if got := bc.IsAllowed(tt.sender); got != tt.want {
				t.Errorf("IsAllowed(%q) = %v, want %v", tt.sender, got, tt.want)
			}
		})
	}
}

// --- Dispatch ---

type recordingHandler struct {
	handled []agent.Message
	after   int
	reply   string
}

func (h *recordingHandler) HandleMessage(ctx context.Context, msg agent.Message) agent.Reply {
	h.handled = append(h.handled, msg)
	return agent.Reply{Text: h.reply}
}

func (h *recordingHandler) AfterReply(r agent.Reply) {
	h.after++
}

type fakeAdmin struct {
	reply   string
	handled bool
}

func (a *fakeAdmin) Handle(ctx context.Context, msg agent.Message) (string, bool) {
	return a.reply, a.handled
}

func TestDispatch_DeniedSender(t *testing.T) {
	h := &recordingHandler{reply: "hi"}
	bc := NewBaseChannel("test", h, nil, []string{"alice"})

	_, _, ok := bc.Dispatch(context.Background(), agent.Message{UserID: "eve", Content: "hi"})
	if ok {
		t.Fatal("denied sender should not dispatch")
	}
	if len(h.handled) != 0 {
		t.Errorf("handler called for denied sender")
	}
}

func TestDispatch_DeliversAndDefersAfter(t *testing.T) {
	h := &recordingHandler{reply: "hello"}
	bc := NewBaseChannel("test", h, nil, nil)

	text, after, ok := bc.Dispatch(context.Background(), agent.Message{UserID: "u1", Content: "hi"})
	if !ok || text != "hello" {
		t.Fatalf("Dispatch = %q %v", text, ok)
	}
	if h.after != 0 {
		t.Fatal("AfterReply ran before delivery")
	}
	after()
	if h.after != 1 {
		t.Errorf("AfterReply ran %d times, want 1", h.after)
	}
}

func TestDispatch_OwnerCommandShortCircuits(t *testing.T) {
	h := &recordingHandler{reply: "model reply"}
	bc := NewBaseChannel("test", h, &fakeAdmin{reply: "status: ok", handled: true}, nil)

	text, after, ok := bc.Dispatch(context.Background(), agent.Message{UserID: "o1", Content: "/status", IsOwner: true})
	if !ok || text != "status: ok" {
		t.Fatalf("Dispatch = %q %v", text, ok)
	}
	after()
	if len(h.handled) != 0 {
		t.Errorf("agent invoked for admin command")
	}
}

func TestDispatch_AdminIgnoresNonOwner(t *testing.T) {
	h := &recordingHandler{reply: "model reply"}
	bc := NewBaseChannel("test", h, &fakeAdmin{reply: "status: ok", handled: true}, nil)

	text, _, ok := bc.Dispatch(context.Background(), agent.Message{UserID: "u1", Content: "/status"})
	if !ok || text != "model reply" {
		t.Fatalf("Dispatch = %q %v, want agent reply", text, ok)
	}
}

func TestDispatch_UnhandledCommandFallsThrough(t *testing.T) {
	h := &recordingHandler{reply: "model reply"}
	bc := NewBaseChannel("test", h, &fakeAdmin{handled: false}, nil)

	text, _, ok := bc.Dispatch(context.Background(), agent.Message{UserID: "o1", Content: "not a command", IsOwner: true})
	if !ok || text != "model reply" {
		t.Fatalf("Dispatch = %q %v, want agent reply", text, ok)
	}
}
