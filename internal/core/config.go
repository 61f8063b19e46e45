package core

// RuntimeConfig contains the terminal-side settings passed to a play session.
// The simulator itself works in world units; ScreenW/ScreenH only drive the
// presenter's scaling.
type RuntimeConfig struct {
	ScreenW  int   // Screen width in characters
	ScreenH  int   // Screen height in characters
	TickRate int   // Simulation ticks per second
	Seed     int64 // RNG seed for deterministic gameplay (0 = time based)
}

// DefaultTickRate matches the original game's frame pacing.
const DefaultTickRate = 30

// DefaultConfig returns a RuntimeConfig with sensible defaults.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		ScreenW:  80,
		ScreenH:  24,
		TickRate: DefaultTickRate,
		Seed:     0,
	}
}

// GameState represents the externally visible status of a play session.
type GameState struct {
	Score    int  // Current score
	GameOver bool // Whether the episode has ended
	Paused   bool // Whether the session is paused
}
