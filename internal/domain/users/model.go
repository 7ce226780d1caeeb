package users

import "time"

type User struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	TelegramChatID *int64    `json:"-"`
	CreatedAt      time.Time `json:"-"`
}

// Profile: данные для создания пользователя. Учётки заводит внешний сервис
// авторизации, здесь только профиль.
type Profile struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
}
