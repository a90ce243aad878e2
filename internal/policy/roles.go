package policy

import (
	"context"
	"strings"

	"github.com/diewo77/go-questions/gate"
	"github.com/diewo77/go-questions/internal/models"
)

// Resource types known to the gate.
const (
	ResourceQuestion = "question"
	ResourceUser     = "user"
)

// Role permissions. Every signed-in user is a member; the expert and admin
// flags each add their own set on top.
var (
	memberPermissions = []gate.Permission{
		gate.NewPermission(ResourceQuestion, gate.ActionCreate),
	}
	expertPermissions = []gate.Permission{
		gate.NewPermission(ResourceQuestion, gate.ActionUpdate),
		gate.NewPermission(ResourceQuestion, gate.ActionList),
	}
	adminPermissions = []gate.Permission{
		gate.Permission(ResourceUser + ":" + gate.WildcardAll),
	}
)

// ProfileFor derives the profile of a user from its expert and admin flags.
func ProfileFor(u *models.User) gate.Profile {
	if u == nil {
		return nil
	}
	names := []string{"member"}
	perms := append([]gate.Permission{}, memberPermissions...)
	if u.Expert {
		names = append(names, "expert")
		perms = append(perms, expertPermissions...)
	}
	if u.Admin {
		names = append(names, "admin")
		perms = append(perms, adminPermissions...)
	}
	return gate.NewStaticProfile(strings.Join(names, "+"), perms...)
}

// RoleResolver resolves profiles from the already loaded user record.
var RoleResolver = gate.ResolverFunc[*models.User](func(_ context.Context, u *models.User) (gate.Profile, error) {
	return ProfileFor(u), nil
})
