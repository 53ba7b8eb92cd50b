package entities

import "time"

type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Email        string `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Username     string `gorm:"size:150;uniqueIndex;not null" json:"username"`
	FirstName    string `gorm:"size:150;not null" json:"first_name"`
	LastName     string `gorm:"size:150;not null" json:"last_name"`
	PasswordHash string `gorm:"not null" json:"-"`
	AvatarURL    string `json:"avatar,omitempty"`

	Timestamp
}

// Subscription links a follower (UserID) to the author they follow.
type Subscription struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_subscription_user_author" json:"user_id"`
	AuthorID  uint      `gorm:"not null;index;uniqueIndex:idx_subscription_user_author;check:chk_subscription_not_self,user_id <> author_id" json:"author_id"`
	CreatedAt time.Time `json:"created_at"`

	User   *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Author *User `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
}
