package engine

// Direction is a move command
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// Directions lists every move in a stable order
var Directions = []Direction{Up, Down, Left, Right}

// GameOverPolicy decides when a multi-face game ends
type GameOverPolicy string

const (
	// ActiveFacePolicy ends the game as soon as the face being played is terminal
	ActiveFacePolicy GameOverPolicy = "active_face"
	// AllFacesPolicy ends the game only once every face is terminal
	AllFacesPolicy GameOverPolicy = "all_faces"
)

const (
	// Validation constants
	MinGridSize            = 3
	MaxGridSize            = 8
	ClassicFaces           = 1
	CubeFaces              = 6
	DefaultFourProbability = 0.1
	DefaultLevelScore      = 2048
	MaxBulkMoves           = 50
	StartTileValue         = 2
	StartTileCount         = 2
)

// Position represents row,col coordinates on a board
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Tile is one numbered token on a board.
//
// IsNew and IsMerged are presentation hints describing the last turn. Merge eligibility
// within a move is tracked by id, not by these flags.
type Tile struct {
	ID       int  `json:"id"`
	Value    int  `json:"value"`
	Row      int  `json:"row"`
	Col      int  `json:"col"`
	IsNew    bool `json:"is_new,omitempty"`
	IsMerged bool `json:"is_merged,omitempty"`
}

// Board is the unordered set of tiles of one play surface
type Board []Tile

// IDGen produces tile ids. Every call must return a value never returned before in the session.
type IDGen func() int

// Rand is the randomness the sampler and spawner draw from.
// *math/rand/v2.Rand satisfies it.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

// MoveResult is the outcome of ApplyMove
type MoveResult struct {
	Board     Board `json:"board"`
	Moved     bool  `json:"moved"`
	ScoreGain int   `json:"score_gain"`
	Merges    int   `json:"merges"`
}

// GameConfig represents the game configuration from JSON
type GameConfig struct {
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	GridSize        int            `json:"grid_size"`
	Faces           int            `json:"faces"`
	FourProbability *float64       `json:"four_probability,omitempty"`
	LevelScore      int            `json:"level_score"`
	GameOverPolicy  GameOverPolicy `json:"game_over_policy"`
	Messages        Messages       `json:"messages"`
}

// FourChance returns the probability that a spawned tile is a 4. An unset
// four_probability means DefaultFourProbability; an explicit 0 only ever spawns 2s.
func (c *GameConfig) FourChance() float64 {
	if c.FourProbability == nil {
		return DefaultFourProbability
	}
	return *c.FourProbability
}

// Messages are the texts shown to the player on game events
type Messages struct {
	Welcome      string `json:"welcome"`
	NoMove       string `json:"no_move"`
	FaceTerminal string `json:"face_terminal"`
	GameOver     string `json:"game_over"`
	NewLevel     string `json:"new_level"`
	NewHighScore string `json:"new_high_score"`
}

// Face is one independent board of the game
type Face struct {
	Tiles    Board `json:"tiles"`
	Terminal bool  `json:"terminal"`
	Moves    int   `json:"moves"`
}

// GameState represents the complete game state
type GameState struct {
	GridSize    int                `json:"grid_size"`
	Faces       []Face             `json:"faces"`
	ActiveFace  int                `json:"active_face"`
	Score       int                `json:"score"`
	Level       int                `json:"level"`
	HighScore   int                `json:"high_score"`
	GameOver    bool               `json:"game_over"`
	Message     string             `json:"message"`
	ConfigName  string             `json:"config_name"`
	NextTileID  int                `json:"next_tile_id"`
	MoveHistory []MoveHistoryEntry `json:"move_history"`
	TotalMoves  int                `json:"total_moves"`

	// CurrentMoves tracks only the moves since the last reset. It mirrors MoveHistory entries
	// but gets cleared on reset while MoveHistory remains cumulative.
	CurrentMoves      []MoveHistoryEntry `json:"current_moves"`
	CurrentMovesCount int                `json:"current_moves_count"`

	// Computed helper views (not required for core game logic)
	BoardText   []string `json:"board_text,omitempty"`
	HighestTile int      `json:"highest_tile,omitempty"`
}

// MoveHistoryEntry represents a single move in the game history
type MoveHistoryEntry struct {
	Action     string `json:"action"`
	Face       int    `json:"face"`
	Moved      bool   `json:"moved"`
	ScoreGain  int    `json:"score_gain"`
	Merges     int    `json:"merges"`
	Score      int    `json:"score"`
	Spawned    *Tile  `json:"spawned,omitempty"`
	Timestamp  int64  `json:"timestamp"`
	MoveNumber int    `json:"move_number"`
}
