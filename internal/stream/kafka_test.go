package stream

import "testing"

func TestDecodeInbound(t *testing.T) {
	msg, err := decodeInbound([]byte(`{"id":"1419","sender":"alice","text":"@TipBot !balance"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.ID != "1419" || msg.Sender != "alice" || msg.Text != "@TipBot !balance" {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestDecodeInboundRejectsIncompleteEvents(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"not json", "not json at all"},
		{"missing sender", `{"id":"1","text":"hi"}`},
		{"missing text", `{"id":"1","sender":"alice"}`},
		{"empty object", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodeInbound([]byte(tt.value)); err == nil {
				t.Fatal("expected decode error")
			}
		})
	}
}
