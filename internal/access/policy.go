// Package access decides whether an actor may perform an action on a
// resource. Role grants live in a casbin RBAC model; ownership is checked on
// top of the grant for mutations.
package access

import (
	"fmt"

	"NoticeBoard/internal/apperr"
	"NoticeBoard/internal/identity"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/util"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

type Resource string

const (
	ResourceNotice Resource = "notice"
	ResourceEvent  Resource = "event"
)

// SubjectAdmin is the casbin subject for any actor with the admin flag.
const SubjectAdmin = "admin"

// Actor is an authenticated caller, resolved from live identity state.
type Actor struct {
	ID      primitive.ObjectID
	Role    identity.Role
	IsAdmin bool
}

// Subject is the casbin subject the actor is enforced as.
func (a Actor) Subject() string {
	if a.IsAdmin {
		return SubjectAdmin
	}
	return string(a.Role)
}

var ErrForbidden = apperr.Authorization("Not authorized")

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

var grants = [][]string{
	{"member", string(ResourceNotice), string(ActionUpdate)},
	{"member", string(ResourceNotice), string(ActionDelete)},
	{"member", string(ResourceEvent), string(ActionUpdate)},
	{"member", string(ResourceEvent), string(ActionDelete)},
	{string(identity.RoleFaculty), string(ResourceNotice), string(ActionCreate)},
	{string(identity.RoleFaculty), string(ResourceEvent), string(ActionCreate)},
	{SubjectAdmin, "/api/admin/*", "*"},
}

var inheritance = [][]string{
	{string(identity.RoleStudent), "member"},
	{string(identity.RoleFaculty), "member"},
	{SubjectAdmin, string(identity.RoleFaculty)},
}

// Policy evaluates role grants and ownership.
type Policy struct {
	enforcer *casbin.Enforcer
}

func NewPolicy() (*Policy, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("loading rbac model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("creating enforcer: %w", err)
	}
	e.AddFunction("keyMatch", util.KeyMatchFunc)
	if _, err := e.AddPolicies(grants); err != nil {
		return nil, fmt.Errorf("loading grants: %w", err)
	}
	if _, err := e.AddGroupingPolicies(inheritance); err != nil {
		return nil, fmt.Errorf("loading role inheritance: %w", err)
	}
	return &Policy{enforcer: e}, nil
}

// Allowed reports whether subject holds a grant for act on obj.
func (p *Policy) Allowed(subject, obj, act string) (bool, error) {
	return p.enforcer.Enforce(subject, obj, act)
}

// Decide returns nil when actor may perform action on a resource owned by
// owner, and ErrForbidden otherwise. Reads are public. owner is ignored for
// creation.
func (p *Policy) Decide(actor Actor, resource Resource, action Action, owner primitive.ObjectID) error {
	if action == ActionRead {
		return nil
	}
	ok, err := p.Allowed(actor.Subject(), string(resource), string(action))
	if err != nil {
		return fmt.Errorf("enforcing %s on %s: %w", action, resource, err)
	}
	if !ok {
		return ErrForbidden
	}
	if action == ActionUpdate || action == ActionDelete {
		if !actor.IsAdmin && actor.ID != owner {
			return ErrForbidden
		}
	}
	return nil
}
