package subscriptions

import "time"

type Follow struct {
	UserID    int64
	AuthorID  int64
	CreatedAt time.Time
}

// FollowedAuthor: строка ленты подписок.
type FollowedAuthor struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Since     time.Time `json:"-"`
}
