package algorithms

import "pbl5-backend/models"

// turnTable - TurnCommand for (current, target) heading.
// Opposite pairs carry the command that must be issued twice.
var turnTable = map[models.Heading]map[models.Heading]models.TurnCommand{
	models.HeadingSouth: {
		models.HeadingSouth: models.Straight,
		models.HeadingEast:  models.TurnRight,
		models.HeadingWest:  models.TurnLeft,
		models.HeadingNorth: models.TurnRight,
	},
	models.HeadingEast: {
		models.HeadingEast:  models.Straight,
		models.HeadingNorth: models.TurnRight,
		models.HeadingSouth: models.TurnLeft,
		models.HeadingWest:  models.TurnLeft,
	},
	models.HeadingNorth: {
		models.HeadingNorth: models.Straight,
		models.HeadingWest:  models.TurnRight,
		models.HeadingEast:  models.TurnLeft,
		models.HeadingSouth: models.TurnRight,
	},
	models.HeadingWest: {
		models.HeadingWest:  models.Straight,
		models.HeadingSouth: models.TurnRight,
		models.HeadingNorth: models.TurnLeft,
		models.HeadingEast:  models.TurnRight,
	},
}

// rightOf / leftOf - one 90° rotation
var (
	rightOf = map[models.Heading]models.Heading{
		models.HeadingSouth: models.HeadingEast,
		models.HeadingEast:  models.HeadingNorth,
		models.HeadingNorth: models.HeadingWest,
		models.HeadingWest:  models.HeadingSouth,
	}
	leftOf = map[models.Heading]models.Heading{
		models.HeadingSouth: models.HeadingWest,
		models.HeadingWest:  models.HeadingNorth,
		models.HeadingNorth: models.HeadingEast,
		models.HeadingEast:  models.HeadingSouth,
	}
)

// TurnFor - turn needed to face target from current
func TurnFor(current, target models.Heading) models.TurnCommand {
	if row, ok := turnTable[current]; ok {
		if cmd, ok := row[target]; ok {
			return cmd
		}
	}
	return models.Straight
}

// ApplyTurn - heading after one physical 90° turn (Straight is a no-op)
func ApplyTurn(current models.Heading, cmd models.TurnCommand) models.Heading {
	switch cmd {
	case models.TurnRight:
		return rightOf[current]
	case models.TurnLeft:
		return leftOf[current]
	default:
		return current
	}
}

// IsOpposite - headings differ by 180°
func IsOpposite(a, b models.Heading) bool {
	return rightOf[rightOf[a]] == b
}

// TurnsRequired - number of physical 90° turns from current to target
func TurnsRequired(current, target models.Heading) int {
	switch {
	case current == target:
		return 0
	case IsOpposite(current, target):
		return 2
	default:
		return 1
	}
}

// HeadingBetween - heading of a single grid step from -> to
func HeadingBetween(from, to models.Cell) (models.Heading, bool) {
	dRow, dCol := to.Row-from.Row, to.Col-from.Col
	for _, h := range models.Headings {
		hr, hc := h.Delta()
		if hr == dRow && hc == dCol {
			return h, true
		}
	}
	return 0, false
}
