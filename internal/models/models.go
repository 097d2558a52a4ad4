package models

import "time"

// Status reports whether the account holder has an active session. Accounts
// go ONLINE on registration and on login; there is no logout, so nothing ever
// transitions an account back to OFFLINE.
type Status string

const (
	StatusOnline  Status = "ONLINE"
	StatusOffline Status = "OFFLINE"
)

// Account is the persisted user entity. Password is never serialised. Token
// IS serialised — registration and login must hand the fresh session
// credential back to the caller — so Account itself is only returned from
// those two operations; everything else returns an AccountView.
type Account struct {
	ID               int64     `json:"id"`
	Username         string    `json:"username"`
	DisplayName      string    `json:"displayName"`
	Password         string    `json:"-"`
	Token            string    `json:"token"`
	Status           Status    `json:"status"`
	Birthday         *Date     `json:"birthday,omitempty"`
	RegistrationDate Date      `json:"registrationDate"`
	LastSeenDate     time.Time `json:"lastSeenDate"`
}

// AccountView is the read projection of an account. It never exposes the
// password or the session token.
type AccountView struct {
	ID               int64     `json:"id"`
	Username         string    `json:"username"`
	DisplayName      string    `json:"displayName"`
	Status           Status    `json:"status"`
	Birthday         *Date     `json:"birthday,omitempty"`
	RegistrationDate Date      `json:"registrationDate"`
	LastSeenDate     time.Time `json:"lastSeenDate"`
}

func (a *Account) View() *AccountView {
	return &AccountView{
		ID:               a.ID,
		Username:         a.Username,
		DisplayName:      a.DisplayName,
		Status:           a.Status,
		Birthday:         a.Birthday,
		RegistrationDate: a.RegistrationDate,
		LastSeenDate:     a.LastSeenDate,
	}
}
