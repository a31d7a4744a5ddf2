// Package authz resolves whether a principal may perform an action on an
// entity in the project hierarchy. Resolution is a pure function over the
// already-loaded ownership chain; callers load the chain and map a Deny to
// a 403 without leaking entity existence.
package authz

import "corkboard/api/internal/rbac"

// Principal is the authenticated actor, as delivered by the identity layer.
type Principal struct {
	ID      string
	Name    string
	OrgRole rbac.OrgRole
}

// Target is the ownership chain of the entity under authorization. For a
// card this is its transitively-owning project; for a project, itself.
type Target struct {
	ProjectID  string
	OwnerID    string
	IsMember   bool
	MemberRole rbac.ProjectRole
}

type Decision struct {
	Allowed bool
	Reason  string
}

func Allow() Decision             { return Decision{Allowed: true} }
func Deny(reason string) Decision { return Decision{Reason: reason} }

// Resolve walks the checks in order, short-circuiting on the first match:
//
//  1. superadmin org role
//  2. admin org role (unrestricted inside the project domain)
//  3. project ownership
//  4. HR org role, limited to its allow-list
//  5. project membership consulted against the role table
func Resolve(p Principal, t Target, action rbac.Action) Decision {
	if p.OrgRole == rbac.OrgSuperAdmin {
		return Allow()
	}
	if p.OrgRole == rbac.OrgAdmin {
		return Allow()
	}
	if t.OwnerID != "" && p.ID == t.OwnerID {
		return Allow()
	}
	if p.OrgRole == rbac.OrgHR {
		if rbac.HRCan(action) {
			return Allow()
		}
		return Deny("not permitted")
	}
	if !t.IsMember {
		return Deny("not a project member")
	}
	if rbac.Can(t.MemberRole, action) {
		return Allow()
	}
	return Deny("not permitted")
}

// CanManageUser covers the account domain, where admin parity matters:
// an admin may act on any user except a superadmin; only a superadmin may
// act on another superadmin.
func CanManageUser(p Principal, subjectOrgRole rbac.OrgRole) Decision {
	switch p.OrgRole {
	case rbac.OrgSuperAdmin:
		return Allow()
	case rbac.OrgAdmin:
		if subjectOrgRole == rbac.OrgSuperAdmin {
			return Deny("not permitted")
		}
		return Allow()
	default:
		return Deny("not permitted")
	}
}
