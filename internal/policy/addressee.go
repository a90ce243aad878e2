package policy

import (
	"context"

	"github.com/diewo77/go-questions/gate"
	"github.com/diewo77/go-questions/internal/models"
)

// Addressed is implemented by resources sent to a specific expert.
type Addressed interface {
	GetExpertID() uint
}

// AddresseePolicy lets only the addressed expert update a resource.
// Other actions are left to the profile permissions.
type AddresseePolicy struct{}

func NewAddresseePolicy() *AddresseePolicy {
	return &AddresseePolicy{}
}

func (p *AddresseePolicy) Can(_ context.Context, user *models.User, action gate.Action, resource any) bool {
	if action != gate.ActionUpdate || resource == nil {
		return true
	}
	addressed, ok := resource.(Addressed)
	if !ok {
		return false
	}
	return user != nil && addressed.GetExpertID() == user.ID
}
