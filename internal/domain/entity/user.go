package entity

import "time"

type User struct {
	ID       string `json:"id" firestore:"id"`
	Email    string `json:"email" firestore:"email"`
	Username string `json:"username" firestore:"username"`
	FullName string `json:"full_name,omitempty" firestore:"fullName,omitempty"`
	Phone    string `json:"phone,omitempty" firestore:"phone,omitempty"`

	AvatarURL string `json:"avatar_url,omitempty" firestore:"avatarUrl,omitempty"`
	Verified  bool   `json:"verified" firestore:"verified"`

	// FCMToken is the device registration token used for push notifications.
	FCMToken string `json:"-" firestore:"fcmToken,omitempty"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}
