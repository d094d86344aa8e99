package entity

import "time"

// Organisation is the slim employer/company snapshot used when an
// organisation-type chat is created.
type Organisation struct {
	ID        string    `json:"id" firestore:"id"`
	OwnerID   string    `json:"owner_id" firestore:"ownerId"`
	TradeName string    `json:"trade_name" firestore:"tradeName"`
	ImageURL  string    `json:"image_url,omitempty" firestore:"imageUrl,omitempty"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}
