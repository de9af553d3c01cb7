package debate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"conclave/pkg/config"
)

func TestRoleForSkepticIsLastAgent(t *testing.T) {
	const instances = 4

	for round := 1; round <= 3; round++ {
		for idx := 0; idx < instances; idx++ {
			role := RoleFor(idx, instances, true)
			if idx == instances-1 {
				assert.Equal(t, RoleSkeptic, role, "agent %d", idx)
			} else {
				assert.Equal(t, RoleDebater, role, "agent %d", idx)
			}
		}
	}
}

func TestRoleForSkepticDisabled(t *testing.T) {
	for idx := 0; idx < 4; idx++ {
		assert.Equal(t, RoleDebater, RoleFor(idx, 4, false))
	}
}

func TestRoleForSingleAgentNeverSkeptic(t *testing.T) {
	assert.Equal(t, RoleDebater, RoleFor(0, 1, true))
}

func TestPromptKeyTable(t *testing.T) {
	tests := []struct {
		role  Role
		first bool
		want  string
	}{
		{RoleDebater, true, config.PromptInitialRound},
		{RoleDebater, false, config.PromptDebateRound},
		{RoleSkeptic, true, config.PromptSkepticInitial},
		{RoleSkeptic, false, config.PromptSkepticRound},
		{RoleSynthesizer, true, config.PromptFinalSynthesis},
		{RoleSynthesizer, false, config.PromptFinalSynthesis},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PromptKey(tt.role, tt.first))
	}
}
