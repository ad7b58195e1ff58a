package model

import "time"

// Child represents a child profile owned by a parent account.
type Child struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	Birthdate time.Time `db:"birthdate" json:"birthdate"`
	AvatarURL string    `db:"avatar_url" json:"avatar_url"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AgeInMonths returns the child's age in whole months at the given instant.
// Used to select which milestone templates apply.
func (c *Child) AgeInMonths(at time.Time) int {
	months := (at.Year()-c.Birthdate.Year())*12 + int(at.Month()) - int(c.Birthdate.Month())
	if at.Day() < c.Birthdate.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
