package model

import (
	"strings"
	"time"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleMentor  Role = "mentor"
)

// User запись из Identity Store. Движок только читает её
// и атомарно увеличивает счётчик SessionsCompleted.
type User struct {
	ID                int64     `json:"id"`
	TelegramID        *int64    `json:"telegram_id"` // nil - пользователь не подключил бота
	Username          string    `json:"username"`
	FirstName         string    `json:"first_name"`
	LastName          string    `json:"last_name"`
	IsMentor          bool      `json:"is_mentor"`
	PricePerSession   int64     `json:"price_per_session"`  // в минимальных единицах валюты, только для менторов
	SessionsCompleted int64     `json:"sessions_completed"` // только для менторов
	CreatedAt         time.Time `json:"created_at"`
}

// Role возвращает роль пользователя
func (u *User) Role() Role {
	if u.IsMentor {
		return RoleMentor
	}
	return RoleStudent
}

// DisplayName возвращает имя для снапшотов в заявках и сессиях
func (u *User) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name != "" {
		return name
	}
	return u.Username
}

// ParseRole разбирает роль из строки запроса
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleStudent:
		return RoleStudent, true
	case RoleMentor:
		return RoleMentor, true
	}
	return "", false
}
