// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package auth

import "github.com/stratastor/afd/pkg/errors"

// Authorizer is the single permission check every privileged CLI
// subcommand consults before mutating FSA/FRA/queue state (spec.md §6,
// §8 "Permission denied"). It checks afd.users first; when the user
// has no afd.users entry and an LDAP group client is configured, group
// membership in RequiredGroup is consulted as a fallback, so a site can
// authorize purely through its directory service without maintaining
// afd.users at all.
type Authorizer struct {
	UsersFile     string
	LDAP          *GroupClient
	RequiredGroup string
}

// Check reports whether user may invoke an action requiring token.
func (a *Authorizer) Check(user, token string) (bool, error) {
	tokens, outcome, err := Permissions(a.UsersFile, user)
	if err != nil {
		return false, err
	}

	switch outcome {
	case AllowAll:
		return true, nil
	case Granted:
		return Has(tokens, token), nil
	case NoAccess:
		return false, errors.New(errors.AuthPermissionDenied, "afd.users is not readable").
			WithMetadata("user", user)
	case NotFound:
		if a.LDAP == nil || a.RequiredGroup == "" {
			return false, nil
		}
		return a.LDAP.IsMember(user, a.RequiredGroup)
	default:
		return false, nil
	}
}
