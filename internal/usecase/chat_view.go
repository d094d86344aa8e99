package usecase

import (
	"fmt"
	"time"

	"annoncia/internal/domain/entity"
)

// ChatViewModel is the UI-ready shape of a chat record. Derived, never stored.
type ChatViewModel struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	DisplayName     string `json:"display_name"`
	AvatarURL       string `json:"avatar_url,omitempty"`
	Verified        bool   `json:"verified"`
	SubjectID       string `json:"subject_id,omitempty"`
	SubjectTitle    string `json:"subject_title,omitempty"`
	LastMessageText string `json:"last_message_text,omitempty"`
	LastMessageTime string `json:"last_message_time,omitempty"`
	UnreadCount     int    `json:"unread_count"`
	OtherUserOnline bool   `json:"other_user_online"`
	LastSeen        string `json:"last_seen"`
	IsOwner         bool   `json:"is_owner"`
}

type MessageViewModel struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	Text      string  `json:"text,omitempty"`
	FileURL   string  `json:"file_url,omitempty"`
	FileName  string  `json:"file_name,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
	Time      string  `json:"time"`
	Mine      bool    `json:"mine"`
	Read      bool    `json:"read"`
	Edited    bool    `json:"edited,omitempty"`
}

// BuildChatViewModel maps a chat record to its list-entry shape as seen by the
// given viewer.
func BuildChatViewModel(chat *entity.Chat, viewerID string, now time.Time) ChatViewModel {
	vm := ChatViewModel{
		ID:   chat.ID,
		Type: chat.Type,
	}

	other := chat.OtherParticipant(viewerID)
	otherProfile := chat.Profiles[other]

	vm.DisplayName = otherProfile.DisplayName
	vm.AvatarURL = otherProfile.AvatarURL
	vm.Verified = otherProfile.Verified

	// Organisation chats answered by the organisation side keep the company as
	// the conversation's face; only the initiator sees a personal profile.
	if chat.Type == entity.ChatTypeOrganisation && chat.InitiatorID != viewerID {
		vm.DisplayName = chat.Subject.TradeName
		vm.AvatarURL = chat.Subject.ImageURL
	}

	switch chat.Type {
	case entity.ChatTypeAd:
		vm.SubjectID = chat.Subject.AdID
		vm.SubjectTitle = chat.Subject.AdTitle
	case entity.ChatTypeOrganisation:
		vm.SubjectID = chat.Subject.OrganisationID
		vm.SubjectTitle = chat.Subject.TradeName
	}

	if chat.LastMessage != nil {
		vm.LastMessageText = chat.LastMessage.Text
		vm.LastMessageTime = FormatMessageTime(chat.LastMessage.At, now)
	}

	vm.UnreadCount = chat.UnreadCount[viewerID]
	if other != "" {
		vm.OtherUserOnline = chat.OnlineStatus[other]
		vm.LastSeen = FormatLastSeen(chat.LastSeenAt[other], now)
	} else {
		vm.LastSeen = FormatLastSeen(time.Time{}, now)
	}

	vm.IsOwner = chat.Type != entity.ChatTypeDirect && chat.InitiatorID != viewerID

	return vm
}

func BuildMessageViewModel(message *entity.Message, viewerID string, now time.Time) MessageViewModel {
	return MessageViewModel{
		ID:        message.ID,
		Type:      message.Type,
		Text:      message.Text,
		FileURL:   message.FileURL,
		FileName:  message.FileName,
		Latitude:  message.Latitude,
		Longitude: message.Longitude,
		Time:      FormatMessageTime(message.CreatedAt, now),
		Mine:      message.SenderID == viewerID,
		Read:      message.Read,
		Edited:    message.Edited,
	}
}

// FormatMessageTime renders a timestamp for list rows and message bubbles:
// under a day old as HH:MM, under a week as the weekday, otherwise as a date.
// Zero timestamps render as "".
func FormatMessageTime(t time.Time, now time.Time) string {
	if t.IsZero() {
		return ""
	}

	age := now.Sub(t)
	if age < 0 {
		age = 0
	}

	switch {
	case age < 24*time.Hour:
		return t.Format("15:04")
	case age < 7*24*time.Hour:
		return t.Format("Mon")
	default:
		return t.Format("01/02/06")
	}
}

// FormatLastSeen renders a relative last-seen phrase. Missing timestamps fall
// back to "Recently" instead of failing.
func FormatLastSeen(t time.Time, now time.Time) string {
	if t.IsZero() {
		return "Recently"
	}

	age := now.Sub(t)
	if age < 0 {
		age = 0
	}

	switch {
	case age < time.Minute:
		return "Just now"
	case age < time.Hour:
		minutes := int(age.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	case age < 24*time.Hour:
		hours := int(age.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case age < 7*24*time.Hour:
		days := int(age.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("01/02/06")
	}
}
