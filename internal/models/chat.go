package models

// ChatMessage is a single turn of the advisor conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatReply is the parsed model response for a chat turn. RelatedReportIDs
// lists the stored reports the model considered relevant to its answer.
type ChatReply struct {
	Message          string  `json:"message"`
	RelatedReportIDs []int64 `json:"relatedReportIds"`
}
