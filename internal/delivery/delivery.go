// Package delivery hands approved nudges to an outbound channel.
package delivery

import (
	"context"
	"fmt"
	"log"
)

// Sink receives the rendered nudge instruction for a session.
type Sink interface {
	Send(ctx context.Context, sessionID, text string) error
}

// Instruction renders the directive handed to the downstream responder. The
// topic comes from the second oracle phase verbatim.
func Instruction(topic string) string {
	return fmt.Sprintf(
		"The user has been quiet for a while. Start a new conversation with them about the following topic, phrased naturally in your own voice: %s",
		topic,
	)
}

// LogSink writes nudges to the process log. It is the default sink when no
// platform adapter is wired in.
type LogSink struct{}

// Send implements Sink.
func (LogSink) Send(ctx context.Context, sessionID, text string) error {
	log.Printf("delivery: session=%s nudge=%q", sessionID, text)
	return nil
}
