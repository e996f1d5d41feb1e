package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// MockUserPrefix marks synthetic offline identities. Their data never touches
// the remote store and lives only in the local fallback store.
const MockUserPrefix = "mock-"

func IsOfflineUser(userID string) bool {
	return len(userID) >= len(MockUserPrefix) && userID[:len(MockUserPrefix)] == MockUserPrefix
}

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Password  []byte             `bson:"password"`
	Devices   []Device           `bson:"devices"`
	CreatedAt primitive.DateTime `bson:"created_at"`
	UpdatedAt primitive.DateTime `bson:"updated_at"`
}

type Device struct {
	DeviceID             string             `bson:"device_id"`
	LoginToken           LoginToken         `bson:"login_token"`
	PushToken            string             `bson:"push_token"`
	NotificationsEnabled bool               `bson:"notifications_enabled"`
	LastSeen             primitive.DateTime `bson:"last_seen"`
	CreatedAt            primitive.DateTime `bson:"created_at"`
}

type LoginToken struct {
	Token      []byte             `bson:"token"`
	Expiration primitive.DateTime `bson:"expiration"`
	CreatedAt  primitive.DateTime `bson:"created_at"`
}
