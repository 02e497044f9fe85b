// Package stream is the boundary to the social-media firehose. The bot
// does not speak to the platform API directly: a bridge relays inbound
// mentions onto a broker topic and posts replies from an outbound topic.
package stream

import "context"

// Message is one inbound public message addressed at (or near) the bot.
type Message struct {
	ID     string `json:"id"`
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// Handler consumes one inbound message.
type Handler func(ctx context.Context, msg Message)

// Source delivers inbound messages until ctx is canceled.
type Source interface {
	Run(ctx context.Context, h Handler) error
}
