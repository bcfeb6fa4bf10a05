package user

// User is a person signed in through Google. Uid is the Google subject identifier,
// Email doubles as the key of the user's store list.
type User struct {
	Id          int
	Uid         string
	Email       string
	DisplayName string
	PhotoUrl    string
}
