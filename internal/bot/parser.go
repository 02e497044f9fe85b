// Package bot contains the command pipeline: mention parsing, the
// closed command set, per-sender rate limiting and the dispatcher that
// turns valid commands into wallet operations and replies.
package bot

import "strings"

// Parsed is a command extracted from an inbound message: the token after
// the "!" prefix and the untouched remainder handed to per-command
// argument parsing.
type Parsed struct {
	Name string
	Args string
}

// Parse extracts a command from raw message text. A message qualifies
// only when it mentions the bot handle and the text right after the
// first qualifying mention starts with "!". Text before the mention is
// discarded. The command name is case-sensitive.
func Parse(text, handle string) (Parsed, bool) {
	body, ok := afterMention(text, handle)
	if !ok {
		return Parsed{}, false
	}
	if !strings.HasPrefix(body, "!") {
		return Parsed{}, false
	}
	rest := body[1:]
	name := rest
	args := ""
	if i := strings.IndexAny(rest, " \t\n"); i >= 0 {
		name = rest[:i]
		args = strings.TrimSpace(rest[i+1:])
	}
	if name == "" {
		return Parsed{}, false
	}
	return Parsed{Name: name, Args: args}, true
}

// afterMention returns the text following the first "@handle " mention.
// The handle is matched in its configured case or fully lower-cased,
// which is how people actually type it.
func afterMention(text, handle string) (string, bool) {
	for _, mention := range []string{"@" + handle + " ", "@" + strings.ToLower(handle) + " "} {
		if i := strings.Index(text, mention); i >= 0 {
			return strings.TrimLeft(text[i+len(mention):], " "), true
		}
	}
	return "", false
}
