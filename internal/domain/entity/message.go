package entity

import "time"

const (
	MessageTypeText     = "text"
	MessageTypeFile     = "file"
	MessageTypeLocation = "location"
)

type Message struct {
	ID        string    `json:"id" firestore:"id"`
	ChatID    string    `json:"chat_id" firestore:"chatId"`
	SenderID  string    `json:"sender_id" firestore:"senderId"`
	Type      string    `json:"type" firestore:"type"` // "text", "file", "location"
	Text      string    `json:"text,omitempty" firestore:"text,omitempty"`
	FileURL   string    `json:"file_url,omitempty" firestore:"fileUrl,omitempty"`
	FileName  string    `json:"file_name,omitempty" firestore:"fileName,omitempty"`
	Latitude  float64   `json:"latitude,omitempty" firestore:"latitude,omitempty"`
	Longitude float64   `json:"longitude,omitempty" firestore:"longitude,omitempty"`
	Read      bool      `json:"read" firestore:"read"`
	Edited    bool      `json:"edited,omitempty" firestore:"edited,omitempty"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}
