package event_bus

const (
	UserSignedInEvent EventType = "user.signed_in"
	StoreCreatedEvent EventType = "store.created"
)

type UserSignedIn struct {
	UserId   int
	Email    string
	Name     string
	Provider string
}

// StoreCreated is published once a new spreadsheet exists on the provider side.
type StoreCreated struct {
	UserEmail   string
	StoreId     string
	DisplayName string
}
