package services

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// Rule-based responder used when no LLM is configured or generation fails.
// Matching is case-insensitive substring search, first category wins.

type intent struct {
	category string
	patterns []string
	replies  []string
}

var intents = []intent{
	{
		category: "greeting",
		patterns: []string{"hello", "hi ", "hey", "good morning", "good evening", "xin chào", "xin chao", "chào bạn", "chao ban"},
		replies: []string{
			"Hello! How can I help you today?",
			"Hey there! What's on your mind?",
			"Xin chào! Mình có thể giúp gì cho bạn?",
		},
	},
	{
		category: "time",
		patterns: []string{"what time", "time is it", "mấy giờ", "may gio"},
	},
	{
		category: "date",
		patterns: []string{"what day", "what date", "today's date", "hôm nay là ngày", "ngày mấy"},
	},
	{
		category: "support",
		patterns: []string{"sad", "lonely", "tired", "stressed", "depressed", "buồn", "mệt", "cô đơn"},
		replies: []string{
			"I'm sorry you're feeling that way. I'm here if you want to talk about it.",
			"That sounds tough. Take a deep breath — do you want to tell me more?",
			"Mình ở đây nghe bạn. Bạn muốn kể thêm không?",
		},
	},
}

var fallbackReplies = []string{
	"Interesting! Tell me more.",
	"I see. What else is on your mind?",
	"Got it. Anything else I can help with?",
}

func classify(text string) string {
	lowered := strings.ToLower(text)
	for _, in := range intents {
		for _, p := range in.patterns {
			if strings.Contains(lowered, p) {
				return in.category
			}
		}
	}
	return "fallback"
}

// RuleBasedReply always returns a non-empty reply for the incoming text.
func RuleBasedReply(text string) string {
	switch category := classify(text); category {
	case "time":
		return fmt.Sprintf("It's %s right now.", time.Now().Format("15:04"))
	case "date":
		return fmt.Sprintf("Today is %s.", time.Now().Format("Monday, January 2, 2006"))
	case "fallback":
		return fallbackReplies[rand.Intn(len(fallbackReplies))]
	default:
		for _, in := range intents {
			if in.category == category {
				return in.replies[rand.Intn(len(in.replies))]
			}
		}
		return fallbackReplies[0]
	}
}
