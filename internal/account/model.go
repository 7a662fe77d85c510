package account

import "time"

const (
	// RoleUser is a buyer account.
	RoleUser = "user"
	// RoleMerchant is a local-business seller account.
	RoleMerchant = "merchant"
	// RoleAdmin is a platform operator account.
	RoleAdmin = "admin"
)

// Account represents a registered user or merchant. The Balance field is a
// display balance only; the on-chain token balance is authoritative.
type Account struct {
	ID                string
	Role              string
	Name              string
	Email             string
	PasswordHash      []byte
	WalletAddress     string
	EncryptedMnemonic string
	Balance           float64
	CreatedAt         time.Time
}

// HasWallet reports whether a custodial wallet has been provisioned.
func (a Account) HasWallet() bool {
	return a.WalletAddress != ""
}
