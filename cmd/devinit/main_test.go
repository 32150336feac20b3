package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voxaiomni/admin-core/internal/user/entity"
)

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, []entity.SeededAccount{
		{Identifier: "testUser", Password: "password123", Role: entity.RoleSuperAdmin},
		{Identifier: "clientTestUser", Password: "password123", Role: entity.RoleClientAdmin},
	})

	want := "Sample user credentials for testing (from Users table):\n" +
		"  Super Admin Panel -> User Identifier: testUser, Password: password123\n" +
		"  Client Admin Panel -> User Identifier: clientTestUser, Password: password123\n"
	assert.Equal(t, want, buf.String())
}
