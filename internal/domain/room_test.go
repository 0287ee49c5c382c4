package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomForCompany(t *testing.T) {
	assert.Equal(t, "company_42", RoomForCompany("42"))
	assert.Equal(t, "company_abc", RoomForCompany("abc"))
}

func TestRoomForCompany_NoTenantScope(t *testing.T) {
	assert.Equal(t, SentinelRoom, RoomForCompany(""))
}

func TestGroupName(t *testing.T) {
	assert.Equal(t, "updates_company_42", GroupName(RoomForCompany("42")))
	assert.Equal(t, "updates_dev_admin", GroupName(SentinelRoom))
}

func TestGroupPattern_MatchesGroups(t *testing.T) {
	assert.Equal(t, "updates_*", GroupPattern())
}
