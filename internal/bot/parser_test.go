package bot

import "testing"

func TestParseExtractsCommands(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Parsed
	}{
		{"bare command", "@TipBot !balance", Parsed{Name: "balance"}},
		{"command with args", "@TipBot !tip @bob 0.005", Parsed{Name: "tip", Args: "@bob 0.005"}},
		{"text before mention discarded", "hey there @TipBot !address", Parsed{Name: "address"}},
		{"lower-cased mention", "@tipbot !help", Parsed{Name: "help"}},
		{"args trimmed", "@TipBot !tip   @bob   1", Parsed{Name: "tip", Args: "@bob   1"}},
		{"unknown command still parses", "@TipBot !foo bar", Parsed{Name: "foo", Args: "bar"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.text, "TipBot")
			if !ok {
				t.Fatalf("expected %q to parse", tt.text)
			}
			if got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestParseRejectsNonCommands(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no mention", "!tip @bob 1"},
		{"mention without command", "@TipBot how do I use this?"},
		{"mention with bare prefix", "@TipBot !"},
		{"prefix not right after mention", "@TipBot please !tip @bob 1"},
		{"different handle", "@OtherBot !balance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if parsed, ok := Parse(tt.text, "TipBot"); ok {
				t.Fatalf("expected %q not to parse, got %+v", tt.text, parsed)
			}
		})
	}
}
