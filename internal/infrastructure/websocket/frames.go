package websocket

import "encoding/json"

// Frame types exchanged with the browser. Client-to-server frames drive a chat
// session; server-to-client frames mirror its state.
const (
	FrameTypePing       = "ping"
	FrameTypePong       = "pong"
	FrameTypeSetFilter  = "set_filter"
	FrameTypeSelectChat = "select_chat"
	FrameTypeCompose    = "compose"
	FrameTypeSend       = "send_message"
	FrameTypeMarkRead   = "mark_read"

	FrameTypeChatList   = "chat_list"
	FrameTypeActiveChat = "active_chat"
	FrameTypeMessages   = "messages"
	FrameTypeTyping     = "typing"
	FrameTypePresence   = "presence"
	FrameTypeError      = "error"
)

// Frame is the wire envelope for both directions.
type Frame struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

type SetFilterData struct {
	ChatType string `json:"chat_type"`
}

type SelectChatData struct {
	ChatID string `json:"chat_id"`
}

type ComposeData struct {
	Text string `json:"text"`
}

type SendData struct {
	Type      string  `json:"type"`
	Text      string  `json:"text,omitempty"`
	FileURL   string  `json:"file_url,omitempty"`
	FileName  string  `json:"file_name,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

type ErrorData struct {
	Message string `json:"message"`
}
