package entity

import "time"

// Ad is the slim listing snapshot the chat layer reads for subject
// denormalization. Listing CRUD lives in a separate service.
type Ad struct {
	ID        string    `json:"id" firestore:"id"`
	OwnerID   string    `json:"owner_id" firestore:"ownerId"`
	Title     string    `json:"title" firestore:"title"`
	ImageURL  string    `json:"image_url,omitempty" firestore:"imageUrl,omitempty"`
	Category  string    `json:"category,omitempty" firestore:"category,omitempty"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}
