package debate

import "conclave/pkg/config"

// Role is an agent's function in a given turn.
type Role string

const (
	RoleDebater     Role = "debater"
	RoleSkeptic     Role = "skeptic"
	RoleSynthesizer Role = "synthesis"
)

// promptVariant keys the template table by role and round phase.
type promptVariant struct {
	role       Role
	firstRound bool
}

// Explicit lookup table instead of nested conditionals: every (role, phase)
// pair resolves to exactly one template key.
var promptKeys = map[promptVariant]string{
	{RoleDebater, true}:      config.PromptInitialRound,
	{RoleDebater, false}:     config.PromptDebateRound,
	{RoleSkeptic, true}:      config.PromptSkepticInitial,
	{RoleSkeptic, false}:     config.PromptSkepticRound,
	{RoleSynthesizer, true}:  config.PromptFinalSynthesis,
	{RoleSynthesizer, false}: config.PromptFinalSynthesis,
}

// RoleFor resolves an agent's role: the last agent is the skeptic when the
// skeptic is enabled and there is more than one agent.
func RoleFor(agentIndex, instanceCount int, skepticEnabled bool) Role {
	if skepticEnabled && instanceCount > 1 && agentIndex == instanceCount-1 {
		return RoleSkeptic
	}
	return RoleDebater
}

// PromptKey returns the template key for a role in the given phase.
func PromptKey(role Role, firstRound bool) string {
	return promptKeys[promptVariant{role: role, firstRound: firstRound}]
}
