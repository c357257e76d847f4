package engine

import (
	"time"

	"github.com/dcaf-go/dcaf/methods"
	"github.com/dcaf-go/dcaf/storage/model"
	"github.com/dcaf-go/dcaf/update"
	"github.com/dcaf-go/dcaf/wire"
)

// FilterPermissions narrows the requested authorizations to what the access
// rules of cam grant at now. bundle is the verified update attribute bundle
// of the request or nil; rules with update attributes only apply if all of
// the bundle's attributes are granted by the rule.
// Authorizations for the same uri are merged.
func FilterPermissions(
	cam string, rules []model.AccessRule, requested []wire.Authorization, bundle *update.Bundle, now time.Time,
) []wire.Authorization {
	var granted []wire.Authorization
	for _, rule := range rules {
		if rule.CamIdentifier != cam || rule.Expired(now) {
			continue
		}
		for _, serverRule := range rule.ServerAccessRules {
			for _, a := range requested {
				if serverRule.ServerHost != a.Host || serverRule.Resource != a.ResourcePath {
					continue
				}
				m := methods.Intersect(serverRule.Methods, a.Methods)
				if m == 0 {
					continue
				}
				if serverRule.Gated() {
					if bundle == nil || !update.AttributesAllowed(bundle.Attributes, serverRule.UpdateAttributes) {
						continue
					}
				}
				granted = merge(granted, wire.NewAuthorization(a.URI, m))
			}
		}
	}
	return granted
}

func merge(auths []wire.Authorization, a wire.Authorization) []wire.Authorization {
	for i := range auths {
		if auths[i].URI == a.URI {
			auths[i].Methods = methods.Union(auths[i].Methods, a.Methods)
			return auths
		}
	}
	return append(auths, a)
}
