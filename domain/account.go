package domain

import "time"

// DefaultDisplayName is the placeholder profile name given to accounts created on first login.
const DefaultDisplayName = "New User"

// Account is a local user account. Email is globally unique and always present.
type Account struct {
	ID          string    `bson:"_id"          json:"id"`
	Email       string    `bson:"email"        json:"email"`
	DisplayName string    `bson:"display_name" json:"display_name"`
	Role        Role      `bson:"role"         json:"role"`
	CreatedAt   time.Time `bson:"created_at"   json:"created_at"`
}

// IdentityLink ties an account to one external identity. An account holds at most
// one link per provider, and a (provider, external id) pair belongs to one account.
type IdentityLink struct {
	AccountID  string    `bson:"account_id"  json:"account_id"`
	Provider   Provider  `bson:"provider"    json:"provider"`
	ExternalID string    `bson:"external_id" json:"external_id"`
	CreatedAt  time.Time `bson:"created_at"  json:"created_at"`
}
