package algorithms

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pbl5-backend/models"
)

func TestTurnFor_Table(t *testing.T) {
	S, E, N, W := models.HeadingSouth, models.HeadingEast, models.HeadingNorth, models.HeadingWest
	cases := []struct {
		current, target models.Heading
		want            models.TurnCommand
	}{
		{S, S, models.Straight}, {S, E, models.TurnRight}, {S, W, models.TurnLeft}, {S, N, models.TurnRight},
		{E, E, models.Straight}, {E, N, models.TurnRight}, {E, S, models.TurnLeft}, {E, W, models.TurnLeft},
		{N, N, models.Straight}, {N, W, models.TurnRight}, {N, E, models.TurnLeft}, {N, S, models.TurnRight},
		{W, W, models.Straight}, {W, S, models.TurnRight}, {W, N, models.TurnLeft}, {W, E, models.TurnRight},
	}
	for _, tc := range cases {
		t.Run(tc.current.String()+"->"+tc.target.String(), func(t *testing.T) {
			assert.Equal(t, tc.want, TurnFor(tc.current, tc.target))
		})
	}
}

func TestApplyTurn_ReachesTarget(t *testing.T) {
	for _, current := range models.Headings {
		for _, target := range models.Headings {
			cmd := TurnFor(current, target)
			h := current
			for i := 0; i < TurnsRequired(current, target); i++ {
				h = ApplyTurn(h, cmd)
			}
			assert.Equal(t, target, h, "%v -> %v via %v", current, target, cmd)
		}
	}
}

func TestApplyTurn_Straight(t *testing.T) {
	for _, h := range models.Headings {
		assert.Equal(t, h, ApplyTurn(h, models.Straight))
		assert.Equal(t, h, ApplyTurn(ApplyTurn(h, models.TurnLeft), models.TurnRight))
	}
}

func TestIsOpposite(t *testing.T) {
	assert.True(t, IsOpposite(models.HeadingSouth, models.HeadingNorth))
	assert.True(t, IsOpposite(models.HeadingWest, models.HeadingEast))
	assert.False(t, IsOpposite(models.HeadingSouth, models.HeadingEast))
	assert.False(t, IsOpposite(models.HeadingSouth, models.HeadingSouth))
}

func TestHeadingBetween(t *testing.T) {
	from := models.NewCell(2, 2)
	cases := map[models.Cell]models.Heading{
		models.NewCell(3, 2): models.HeadingSouth,
		models.NewCell(1, 2): models.HeadingNorth,
		models.NewCell(2, 3): models.HeadingEast,
		models.NewCell(2, 1): models.HeadingWest,
	}
	for to, want := range cases {
		got, ok := HeadingBetween(from, to)
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := HeadingBetween(from, models.NewCell(3, 3))
	assert.False(t, ok)
}
