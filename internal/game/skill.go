package game

import "fmt"

// Skill scales difficulty: harder skills spawn tougher enemies and the
// player takes full damage.
type Skill int

const (
	SkillBaby Skill = iota + 1
	SkillEasy
	SkillNormal
	SkillHard
)

// ParseSkill maps a config string to a skill level.
func ParseSkill(s string) (Skill, error) {
	switch s {
	case "baby":
		return SkillBaby, nil
	case "easy":
		return SkillEasy, nil
	case "", "normal":
		return SkillNormal, nil
	case "hard":
		return SkillHard, nil
	}
	return 0, fmt.Errorf("unknown skill: %q", s)
}

// PlayerDamageScale multiplies damage dealt to the player.
func (s Skill) PlayerDamageScale() float64 {
	switch s {
	case SkillBaby:
		return 0.5
	case SkillEasy:
		return 0.75
	default:
		return 1.0
	}
}

// EnemyHPScale multiplies enemy spawn health.
func (s Skill) EnemyHPScale() float64 {
	switch s {
	case SkillHard:
		return 1.25
	default:
		return 1.0
	}
}
