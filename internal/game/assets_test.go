package game

import (
	"testing"

	"github.com/pixil98/go-bunker/internal/storage"
	"github.com/pixil98/go-testutil"
)

func mustIdentifier(key string) storage.SmartIdentifier[*Weapon] {
	return storage.NewSmartIdentifier[*Weapon](key)
}

func TestWeaponDamageMax_Buckets(t *testing.T) {
	w := &Weapon{DamageClose: 25, DamageMid: 17, DamageFar: 9}

	testutil.AssertEqual(t, "adjacent", w.DamageMax(0), 25)
	testutil.AssertEqual(t, "close", w.DamageMax(1), 25)
	testutil.AssertEqual(t, "mid low", w.DamageMax(2), 17)
	testutil.AssertEqual(t, "mid high", w.DamageMax(3), 17)
	testutil.AssertEqual(t, "far", w.DamageMax(4), 9)
	testutil.AssertEqual(t, "very far", w.DamageMax(12), 9)
}

func TestSoundClassAudibleRange(t *testing.T) {
	c := &SoundClass{Radius: 10, WallFactor: 0.5}

	testutil.AssertEqual(t, "open air", c.AudibleRange(0), 10.0)
	testutil.AssertEqual(t, "one wall", c.AudibleRange(1), 5.0)
	testutil.AssertEqual(t, "two walls", c.AudibleRange(2), 2.5)
}

func TestLevelBuildGrid(t *testing.T) {
	l := &Level{
		Name: "test",
		Rows: []string{
			"#####",
			"#.D*#",
			"#.d.#",
			"#####",
		},
	}

	grid, decorations, err := l.BuildGrid()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "width", grid.Width, 5)
	testutil.AssertEqual(t, "height", grid.Height, 4)
	testutil.AssertEqual(t, "wall", grid.Tile(TileCoord{X: 0, Y: 0}), TileWall)
	testutil.AssertEqual(t, "floor", grid.Tile(TileCoord{X: 1, Y: 1}), TileEmpty)
	testutil.AssertEqual(t, "closed door", grid.Tile(TileCoord{X: 2, Y: 1}), TileDoorClosed)
	testutil.AssertEqual(t, "open door", grid.Tile(TileCoord{X: 2, Y: 2}), TileDoorOpen)
	testutil.AssertEqual(t, "decoration walkable grid", grid.Tile(TileCoord{X: 3, Y: 1}), TileEmpty)
	testutil.AssertEqual(t, "decoration set", decorations[TileCoord{X: 3, Y: 1}], true)
}

func TestLevelBuildGrid_RaggedRows(t *testing.T) {
	l := &Level{
		Name: "ragged",
		Rows: []string{"###", "#.##"},
	}

	if _, _, err := l.BuildGrid(); err == nil {
		t.Error("expected error for ragged rows")
	}
}

func TestLevelBuildGrid_UnknownRune(t *testing.T) {
	l := &Level{
		Name: "bad",
		Rows: []string{"#?#"},
	}

	if _, _, err := l.BuildGrid(); err == nil {
		t.Error("expected error for unknown tile rune")
	}
}

func TestGrid_OutOfBoundsReadsAsWall(t *testing.T) {
	g := NewGrid(3, 3)

	testutil.AssertEqual(t, "negative", g.Tile(TileCoord{X: -1, Y: 0}), TileWall)
	testutil.AssertEqual(t, "past edge", g.Tile(TileCoord{X: 3, Y: 0}), TileWall)
}

func TestEnemyValidate(t *testing.T) {
	valid := func() *Enemy {
		return &Enemy{
			Aliases:      []string{"guard"},
			ShortDesc:    "guard",
			MaxHP:        25,
			Speed:        3,
			AttackRange:  10,
			Weapon:       mustIdentifier("pistol"),
			Capabilities: Capabilities{Ranged: true},
			DeathTicks:   15,
		}
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := map[string]func(*Enemy){
		"no alias":           func(e *Enemy) { e.Aliases = nil },
		"no hp":              func(e *Enemy) { e.MaxHP = 0 },
		"no speed":           func(e *Enemy) { e.Speed = 0 },
		"armed without range": func(e *Enemy) { e.AttackRange = 0 },
		"no death ticks":     func(e *Enemy) { e.DeathTicks = 0 },
		"bad retreat": func(e *Enemy) {
			e.Capabilities.CanRetreat = true
			e.RetreatBelow = 1.5
		},
		"bad drop": func(e *Enemy) {
			e.Drops = []Drop{{Kind: "gold"}}
		},
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			e := valid()
			mutate(e)
			if err := e.Validate(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseSkill(t *testing.T) {
	tests := map[string]struct {
		in      string
		want    Skill
		wantErr bool
	}{
		"baby":    {in: "baby", want: SkillBaby},
		"easy":    {in: "easy", want: SkillEasy},
		"normal":  {in: "normal", want: SkillNormal},
		"default": {in: "", want: SkillNormal},
		"hard":    {in: "hard", want: SkillHard},
		"unknown": {in: "nightmare", wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ParseSkill(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "skill", got, tt.want)
		})
	}
}
