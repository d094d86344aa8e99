package entity

import "time"

const (
	ChatTypeAd           = "ad"
	ChatTypeDirect       = "dm"
	ChatTypeOrganisation = "organisation"
)

// ParticipantProfile is a denormalized snapshot of a participant, stored on the
// chat document so the list view never needs per-user lookups.
type ParticipantProfile struct {
	DisplayName string `json:"display_name" firestore:"displayName"`
	AvatarURL   string `json:"avatar_url,omitempty" firestore:"avatarUrl,omitempty"`
	Verified    bool   `json:"verified" firestore:"verified"`
}

// ChatSubject carries the listing or organisation the conversation is about.
// Which fields are set depends on the chat type.
type ChatSubject struct {
	AdID           string `json:"ad_id,omitempty" firestore:"adId,omitempty"`
	AdTitle        string `json:"ad_title,omitempty" firestore:"adTitle,omitempty"`
	OrganisationID string `json:"organisation_id,omitempty" firestore:"organisationId,omitempty"`
	TradeName      string `json:"trade_name,omitempty" firestore:"tradeName,omitempty"`
	ImageURL       string `json:"image_url,omitempty" firestore:"imageUrl,omitempty"`
}

type LastMessage struct {
	Text     string    `json:"text" firestore:"text"`
	SenderID string    `json:"sender_id" firestore:"senderId"`
	At       time.Time `json:"at" firestore:"at"`
}

type Chat struct {
	ID           string                        `json:"id" firestore:"id"`
	Type         string                        `json:"type" firestore:"type"` // "ad", "dm", "organisation"
	Participants []string                      `json:"participants" firestore:"participants"`
	Profiles     map[string]ParticipantProfile `json:"profiles" firestore:"profiles"`
	InitiatorID  string                        `json:"initiator_id" firestore:"initiatorId"`
	Subject      ChatSubject                   `json:"subject,omitempty" firestore:"subject,omitempty"`
	LastMessage  *LastMessage                  `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	UnreadCount  map[string]int                `json:"unread_count" firestore:"unreadCount"`
	OnlineStatus map[string]bool               `json:"online_status" firestore:"onlineStatus"`
	LastSeenAt   map[string]time.Time          `json:"last_seen_at" firestore:"lastSeenAt"`
	CreatedAt    time.Time                     `json:"created_at" firestore:"createdAt"`
	UpdatedAt    time.Time                     `json:"updated_at" firestore:"updatedAt"`
}

// OtherParticipant returns the participant id that is not the given user, or ""
// for degenerate chats.
func (c *Chat) OtherParticipant(userID string) string {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

// HasParticipant reports whether the user belongs to the chat.
func (c *Chat) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}
