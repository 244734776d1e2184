package entity

// User представляет строку таблицы myapp_user.
// Таблица принадлежит основному веб-приложению, здесь она только читается.
type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Username  string `gorm:"size:150;not null;uniqueIndex" json:"username"`
	FirstName string `gorm:"size:150" json:"first_name"`
}

// TableName задает имя таблицы для модели User
func (User) TableName() string {
	return "myapp_user"
}
