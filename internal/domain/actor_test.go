package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/OliveaSegaram/EC-sub001/internal/domain"
)

func TestUserAsActor(t *testing.T) {
	district := "district-7"
	branch := "it"

	dc := &domain.User{ID: "dc-1", Role: domain.RoleDistrictApprover, DistrictID: &district}
	assert.Equal(t, domain.Actor{UserID: "dc-1", Role: domain.RoleDistrictApprover, DistrictID: "district-7"},
		dc.AsActor())

	tech := &domain.User{ID: "tech-1", Role: domain.RoleTechnician, Branch: &branch}
	assert.Equal(t, domain.Actor{UserID: "tech-1", Role: domain.RoleTechnician, Branch: "it"},
		tech.AsActor())

	root := &domain.User{ID: "root-1", Role: domain.RoleRoot}
	assert.Equal(t, domain.Actor{UserID: "root-1", Role: domain.RoleRoot}, root.AsActor())
}

func TestHeadOfficeScoped(t *testing.T) {
	assert.True(t, domain.Actor{Role: domain.RoleCentralApprover}.HeadOfficeScoped())
	assert.True(t, domain.Actor{Role: domain.RoleTechnician, Branch: "it"}.HeadOfficeScoped())
	assert.True(t, domain.Actor{Role: domain.RoleSuperApprover, Branch: "it"}.HeadOfficeScoped())
	assert.False(t, domain.Actor{Role: domain.RoleSuperApprover}.HeadOfficeScoped())
	assert.False(t, domain.Actor{Role: domain.RoleDistrictApprover, DistrictID: "d7"}.HeadOfficeScoped())
	assert.False(t, domain.Actor{Role: domain.RoleSubmitter}.HeadOfficeScoped())
	assert.False(t, domain.Actor{Role: domain.RoleRoot}.HeadOfficeScoped())
}
