package model

import "time"

// ChatMessage is one line of per-area chat history.
type ChatMessage struct {
	ID        int64      `json:"id"`
	Area      AreaID     `json:"area"`
	Author    PlayerName `json:"author"`
	Text      string     `json:"text"`
	CreatedAt time.Time  `json:"createdAt"`
}
