package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dcaf-go/dcaf/methods"
	"github.com/dcaf-go/dcaf/storage/model"
	"github.com/dcaf-go/dcaf/update"
	"github.com/dcaf-go/dcaf/wire"
)

func rules(serverRules ...model.ServerAccessRule) []model.AccessRule {
	return []model.AccessRule{
		{
			ID:                "r",
			CamIdentifier:     camID,
			ServerAccessRules: serverRules,
		},
	}
}

func TestFilterPermissions(t *testing.T) {
	now := time.Unix(t0, 0)
	gpio := update.GPIO(update.KindGPIOIn, 1, 2)
	tests := []struct {
		name      string
		rules     []model.AccessRule
		requested []wire.Authorization
		bundle    *update.Bundle
		expected  []methods.Mask
	}{
		{
			name:      "intersection",
			rules:     rules(model.ServerAccessRule{ServerHost: host, Resource: "/update", Methods: getPost}),
			requested: []wire.Authorization{auth("/update", getPut)},
			expected:  []methods.Mask{methods.GET},
		},
		{
			name:      "other path",
			rules:     rules(model.ServerAccessRule{ServerHost: host, Resource: "/update", Methods: getPost}),
			requested: []wire.Authorization{auth("/other", getPut)},
		},
		{
			name:      "other host",
			rules:     rules(model.ServerAccessRule{ServerHost: "rs2", Resource: "/update", Methods: getPost}),
			requested: []wire.Authorization{auth("/update", getPut)},
		},
		{
			name:      "disjoint methods",
			rules:     rules(model.ServerAccessRule{ServerHost: host, Resource: "/update", Methods: methods.DELETE}),
			requested: []wire.Authorization{auth("/update", getPut)},
		},
		{
			name: "merged",
			rules: rules(
				model.ServerAccessRule{ServerHost: host, Resource: "/update", Methods: methods.GET},
				model.ServerAccessRule{ServerHost: host, Resource: "/update", Methods: methods.PUT},
			),
			requested: []wire.Authorization{auth("/update", getPut)},
			expected:  []methods.Mask{getPut},
		},
		{
			name: "expired rule",
			rules: []model.AccessRule{
				{
					ID:                "r",
					CamIdentifier:     camID,
					ExpirationTime:    t0 - 1,
					ServerAccessRules: []model.ServerAccessRule{{ServerHost: host, Resource: "/update", Methods: 31}},
				},
			},
			requested: []wire.Authorization{auth("/update", methods.GET)},
		},
		{
			name: "rule of other cam",
			rules: []model.AccessRule{
				{
					ID:                "r",
					CamIdentifier:     "other",
					ServerAccessRules: []model.ServerAccessRule{{ServerHost: host, Resource: "/update", Methods: 31}},
				},
			},
			requested: []wire.Authorization{auth("/update", methods.GET)},
		},
		{
			name: "gated without bundle",
			rules: rules(
				model.ServerAccessRule{
					ServerHost: host, Resource: "/update", Methods: methods.PUT,
					UpdateAttributes: []update.Attribute{gpio},
				},
			),
			requested: []wire.Authorization{auth("/update", methods.PUT)},
		},
		{
			name: "gated with bundle",
			rules: rules(
				model.ServerAccessRule{
					ServerHost: host, Resource: "/update", Methods: methods.PUT,
					UpdateAttributes: []update.Attribute{gpio},
				},
			),
			requested: []wire.Authorization{auth("/update", methods.PUT)},
			bundle:    &update.Bundle{Attributes: []update.Attribute{gpio}, Hash: "h"},
			expected:  []methods.Mask{methods.PUT},
		},
	}
	for _, test := range tests {
		t.Run(
			test.name, func(t *testing.T) {
				granted := FilterPermissions(camID, test.rules, test.requested, test.bundle, now)
				var got []methods.Mask
				for _, a := range granted {
					got = append(got, a.Methods)
					assert.Equal(t, host, a.Host)
				}
				assert.Equal(t, test.expected, got)
			},
		)
	}
}

func TestFilterPermissionsNarrows(t *testing.T) {
	r := rules(model.ServerAccessRule{ServerHost: host, Resource: "/update", Methods: getPost})
	now := time.Unix(t0, 0)
	for req := methods.Mask(1); req < 32; req++ {
		granted := FilterPermissions(camID, r, []wire.Authorization{auth("/update", req)}, nil, now)
		for _, a := range granted {
			assert.True(t, req.Contains(a.Methods))
			assert.True(t, getPost.Contains(a.Methods))
		}
	}
}
