package models

const (
	UserTypeCustomer = "customer"
	UserTypeDriver   = "driver"
	UserTypeAdmin    = "admin"
)

type UserProfile struct {
	ID       string `json:"id"`
	UserType string `json:"userType"`
}
