package engine

import "time"

// Cell values used by the numeric grid encoding. Any value >= 1 is a body
// segment; the head holds the largest value and the tail holds 1.
const (
	EmptyCell = 0
	FoodCell  = -1

	// Validation constants
	MinGridSize       = 2
	MaxGridSize       = 256
	MinSeedLength     = 2
	DefaultSeedLength = 2
	MaxBulkSteps      = 100
	MaxTickMillis     = 10000

	// Score is the body length minus the two seeded segments that never count.
	unscoredSegments = 2
)

// ScoreForLength converts a body length into a score.
func ScoreForLength(length int) int {
	return length - unscoredSegments
}

// Encoding selects which stepper drives a session.
const (
	EncodingExplicit = "explicit"
	EncodingGrid     = "grid"
)

// Position represents x,y coordinates. X is the column and Y the row.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns p moved by d.
func (p Position) Add(d Direction) Position {
	return Position{X: p.X + d.DX, Y: p.Y + d.DY}
}

// Sub returns the direction from q to p.
func (p Position) Sub(q Position) Direction {
	return Direction{DX: p.X - q.X, DY: p.Y - q.Y}
}

// Direction is a heading vector. Inside a valid game it is always one of the
// four unit vectors along the grid axes.
type Direction struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

var (
	Up    = Direction{DX: 0, DY: -1}
	Down  = Direction{DX: 0, DY: 1}
	Left  = Direction{DX: -1, DY: 0}
	Right = Direction{DX: 1, DY: 0}
)

// IsUnit reports whether d is one of the four axis unit vectors.
func (d Direction) IsUnit() bool {
	return (d.DX == 0 && (d.DY == 1 || d.DY == -1)) || (d.DY == 0 && (d.DX == 1 || d.DX == -1))
}

// String names the heading for logs and tool output.
func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return "none"
}

// Outcome classifies the result of a single step.
type Outcome string

const (
	OutcomeContinue  Outcome = "continue"
	OutcomeCollision Outcome = "collision"
	OutcomeBoardFull Outcome = "board_full"
)

// Terminal reports whether the outcome ends the session.
func (o Outcome) Terminal() bool {
	return o == OutcomeCollision || o == OutcomeBoardFull
}

// StepResult describes what a single step did.
type StepResult struct {
	Action  Action    `json:"action"`
	From    Position  `json:"from"`
	To      Position  `json:"to"`
	Outcome Outcome   `json:"outcome"`
	Grew    bool      `json:"grew,omitempty"`
	Food    *Position `json:"food,omitempty"`
	Length  int       `json:"length"`
	Score   int       `json:"score"`
	Done    bool      `json:"done"`
}

// GameState represents the complete game state
type GameState struct {
	Grid       *Grid     `json:"grid"`
	Head       Position  `json:"head"`
	Heading    Direction `json:"heading"`
	Length     int       `json:"length"`
	Food       *Position `json:"food,omitempty"`
	Score      int       `json:"score"`
	Message    string    `json:"message"`
	GameOver   bool      `json:"game_over"`
	Outcome    Outcome   `json:"outcome,omitempty"`
	ConfigName string    `json:"config_name"`
	RNGState   []byte    `json:"rng_state,omitempty"`

	StepHistory []StepHistoryEntry `json:"step_history"`
	TotalSteps  int                `json:"total_steps"`

	// CurrentSteps tracks only the steps since the last reset. It mirrors
	// StepHistory entries but gets cleared on reset while StepHistory
	// remains cumulative.
	CurrentSteps      []StepHistoryEntry `json:"current_steps"`
	CurrentStepsCount int                `json:"current_steps_count"`
}

// StepHistoryEntry represents a single step in the game history
type StepHistoryEntry struct {
	Action       Action   `json:"action"`
	FromPosition Position `json:"from_position"`
	ToPosition   Position `json:"to_position"`
	Outcome      Outcome  `json:"outcome"`
	Grew         bool     `json:"grew,omitempty"`
	Length       int      `json:"length"`
	Timestamp    int64    `json:"timestamp"`
	StepNumber   int      `json:"step_number"`
}

func newHistoryEntry(res *StepResult, stepNumber int) StepHistoryEntry {
	return StepHistoryEntry{
		Action:       res.Action,
		FromPosition: res.From,
		ToPosition:   res.To,
		Outcome:      res.Outcome,
		Grew:         res.Grew,
		Length:       res.Length,
		Timestamp:    time.Now().Unix(),
		StepNumber:   stepNumber,
	}
}
