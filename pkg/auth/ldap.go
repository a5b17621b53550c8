// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"crypto/tls"
	"fmt"

	"github.com/go-ldap/ldap/v3"

	"github.com/stratastor/afd/pkg/errors"
)

// GroupClientConfig configures a GroupClient. TLSInsecureSkipVerify is
// exposed (rather than silently hardcoded) because a lab or
// self-signed directory is common enough in AFD-sized deployments that
// the operator, not this package, should make that call.
type GroupClientConfig struct {
	URL                   string
	BindDN                string
	BindPassword          string
	UserBaseDN            string
	TLSInsecureSkipVerify bool
}

// GroupClient performs the one LDAP operation afd.users' optional
// directory-backed layer needs: resolving which groups a user belongs
// to, so afdcfg/set-pw callers can be authorized against a directory
// service instead of (or in addition to) the flat permission file
// (SPEC_FULL.md §4 "EXPANSION" entry for github.com/go-ldap/ldap/v3).
// Grounded on the teacher's pkg/ad.ADClient — narrowed to bind+search,
// with no directory-controller lifecycle management (out of AFD's
// scope).
type GroupClient struct {
	cfg GroupClientConfig
}

// NewGroupClient returns a GroupClient that dials fresh on every call;
// afd.users lookups are infrequent (tool invocations, not per-file
// transfers) so connection pooling isn't worth the complexity the
// teacher's long-lived ADClient carries for its much hotter path.
func NewGroupClient(cfg GroupClientConfig) *GroupClient {
	return &GroupClient{cfg: cfg}
}

func (c *GroupClient) connect() (*ldap.Conn, error) {
	tlsConfig := &tls.Config{InsecureSkipVerify: c.cfg.TLSInsecureSkipVerify} //nolint:gosec

	conn, err := ldap.DialURL(c.cfg.URL, ldap.DialWithTLSConfig(tlsConfig))
	if err != nil {
		return nil, errors.New(errors.AuthLDAPConnectFailed, err.Error()).
			WithMetadata("url", c.cfg.URL)
	}
	if err := conn.Bind(c.cfg.BindDN, c.cfg.BindPassword); err != nil {
		conn.Close()
		return nil, errors.New(errors.AuthLDAPConnectFailed, err.Error()).
			WithMetadata("bind_dn", c.cfg.BindDN)
	}
	return conn, nil
}

// UserGroups returns the memberOf values of username's directory
// entry (original_source/src/fd/get_group_list.c's flat-file
// equivalent; pkg/ad.ADClient.GetUserGroups's filter/attribute
// shape).
func (c *GroupClient) UserGroups(username string) ([]string, error) {
	conn, err := c.connect()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	filter := fmt.Sprintf("(&(objectClass=user)(sAMAccountName=%s))", ldap.EscapeFilter(username))
	req := ldap.NewSearchRequest(
		c.cfg.UserBaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		filter,
		[]string{"memberOf"},
		nil,
	)

	sr, err := conn.Search(req)
	if err != nil {
		return nil, errors.New(errors.AuthLDAPSearchFailed, err.Error()).
			WithMetadata("user", username)
	}
	if len(sr.Entries) == 0 {
		return nil, nil
	}
	return sr.Entries[0].GetAttributeValues("memberOf"), nil
}

// IsMember reports whether username belongs to group (a CN, matched
// against each memberOf DN's leading `CN=` component).
func (c *GroupClient) IsMember(username, group string) (bool, error) {
	groups, err := c.UserGroups(username)
	if err != nil {
		return false, err
	}
	return groupCNMatches(groups, group), nil
}

// groupCNMatches reports whether group appears as the leading `CN=`
// component of any DN in groups.
func groupCNMatches(groups []string, group string) bool {
	target := "CN=" + group
	for _, dn := range groups {
		if len(dn) >= len(target) && dn[:len(target)] == target {
			return true
		}
	}
	return false
}
