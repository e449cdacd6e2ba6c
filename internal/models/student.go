package models

// Student holds the contact data used for waiting-list notifications.
type Student struct {
	ID     string `db:"id" json:"id"`
	Name   string `db:"name" json:"name"`
	Email  string `db:"email" json:"email"`
	Mobile string `db:"mobile" json:"mobile"`
}
