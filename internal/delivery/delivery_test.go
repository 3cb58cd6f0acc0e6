package delivery

import (
	"context"
	"strings"
	"testing"
)

func TestInstructionEmbedsTopic(t *testing.T) {
	got := Instruction("ask about the marathon")
	if !strings.Contains(got, "ask about the marathon") {
		t.Errorf("instruction missing topic: %q", got)
	}
}

func TestLogSinkSend(t *testing.T) {
	if err := (LogSink{}).Send(context.Background(), "telegram:private:alice", "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}
}
