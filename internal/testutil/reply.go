package testutil

import (
	"encoding/json"
	"fmt"
)

// Reply renders a structured model reply as a bare JSON object.
func Reply(title, content, nextAction string) string {
	b, err := json.Marshal(map[string]string{
		"title":       title,
		"content":     content,
		"next_action": nextAction,
	})
	if err != nil {
		panic(fmt.Sprintf("testutil: marshal reply: %v", err))
	}
	return string(b)
}

// FencedReply wraps Reply in a ```json fence the way chat models usually
// answer.
func FencedReply(title, content, nextAction string) string {
	return "```json\n" + Reply(title, content, nextAction) + "\n```"
}
