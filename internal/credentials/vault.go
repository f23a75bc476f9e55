package credentials

import (
	"errors"
	"fmt"
)

// Vault holds the two independently-lifecycled credentials: the durable
// bearer token and the tab-scoped admin secret.
type Vault struct {
	token       Slot
	adminSecret Slot
}

func NewVault(token, adminSecret Slot) *Vault {
	return &Vault{token: token, adminSecret: adminSecret}
}

// NewMemoryVault keeps both credentials in memory. Tests and short-lived
// tooling use it.
func NewMemoryVault() *Vault {
	return NewVault(NewMemorySlot(), NewMemorySlot())
}

// Token returns the bearer token, or "" when none is stored or the slot
// cannot be read.
func (v *Vault) Token() string {
	value, err := v.token.Load()
	if err != nil {
		return ""
	}
	return value
}

func (v *Vault) SetToken(token string) error {
	if token == "" {
		return fmt.Errorf("refusing to store empty token")
	}
	return v.token.Save(token)
}

func (v *Vault) ClearToken() error {
	return v.token.Clear()
}

func (v *Vault) AdminSecret() string {
	value, err := v.adminSecret.Load()
	if err != nil {
		return ""
	}
	return value
}

func (v *Vault) SetAdminSecret(secret string) error {
	if secret == "" {
		return fmt.Errorf("refusing to store empty admin secret")
	}
	return v.adminSecret.Save(secret)
}

func (v *Vault) ClearAdminSecret() error {
	return v.adminSecret.Clear()
}

// ClearAll removes both credentials. Both slots are always attempted.
func (v *Vault) ClearAll() error {
	return errors.Join(v.token.Clear(), v.adminSecret.Clear())
}
