package domain

import "regexp"

// Rider is the delivery agent attached to an order during fulfillment.
type Rider struct {
	ID    string
	Name  string
	Phone string
}

// DefaultRider is used when an express delivery is started without an explicit rider.
var DefaultRider = Rider{ID: "rider-1", Name: "QuickRider", Phone: "+8801700000000"}

// rePhone is a regex to validate rider phone numbers
var rePhone = regexp.MustCompile(`^\+[0-9]{8,15}$`)

// ValidatePhone validates the phone number format
func ValidatePhone(s string) bool {
	return rePhone.MatchString(s)
}
