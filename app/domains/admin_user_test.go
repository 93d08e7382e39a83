package domains_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fleet-svc/app/domains"
)

func TestRoleAtLeast(t *testing.T) {
	assert.True(t, domains.RoleAtLeast(domains.RoleAdmin, domains.RoleViewer))
	assert.True(t, domains.RoleAtLeast(domains.RoleOperator, domains.RoleOperator))
	assert.False(t, domains.RoleAtLeast(domains.RoleViewer, domains.RoleOperator))
	assert.False(t, domains.RoleAtLeast("", domains.RoleViewer))
	assert.False(t, domains.RoleAtLeast("superuser", domains.RoleViewer))
}
