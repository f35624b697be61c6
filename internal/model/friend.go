package model

import "time"

// Friend request states. pending moves to exactly one of the other two.
const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestRejected = "rejected"
)

// FriendRequest is directed: Sender asked Recipient.
type FriendRequest struct {
	ID             string       `json:"id"`
	SenderEmail    string       `json:"sender_email"`
	RecipientEmail string       `json:"recipient_email"`
	Status         string       `json:"status"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      *time.Time   `json:"updated_at,omitempty"`
	Sender         *UserSummary `json:"sender,omitempty"`
}

// Friendship is an undirected edge created when a request is accepted.
type Friendship struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"request_id"`
	User1Email string    `json:"user1_email"`
	User2Email string    `json:"user2_email"`
	CreatedAt  time.Time `json:"created_at"`
}

// Other returns the party that is not email.
func (f *Friendship) Other(email string) string {
	if f.User1Email == email {
		return f.User2Email
	}
	return f.User1Email
}
