package domain

import (
	"github.com/go-playground/validator/v10"
)

const (
	MaxPlayers      = 4
	MinStartPlayers = 2
	RoomCodeLen     = 6

	DifficultyEasy   = "easy"
	DifficultyNormal = "normal"
	DifficultyHard   = "hard"
)

// RoomConfig holds the game rules fixed at creation.
type RoomConfig struct {
	Rounds          int    `json:"rounds" mapstructure:"rounds" validate:"min=1,max=10"`
	SecondsPerRound int    `json:"secondsPerRound" mapstructure:"seconds_per_round" validate:"min=15,max=300"`
	Difficulty      string `json:"difficulty" mapstructure:"difficulty" validate:"omitempty,oneof=easy normal hard"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validator is shared by packages that validate request payloads.
func Validator() *validator.Validate { return validate }

// Normalize validates the config and fills the default difficulty.
func (c RoomConfig) Normalize() (RoomConfig, error) {
	if err := validate.Struct(c); err != nil {
		return RoomConfig{}, Faultf(KindValidation, "invalid room configuration: %v", err)
	}
	if c.Difficulty == "" {
		c.Difficulty = DifficultyNormal
	}
	return c, nil
}

// RoomSnapshot is a read-only copy of a room, safe to send to clients.
type RoomSnapshot struct {
	Code     string     `json:"code"`
	Creator  string     `json:"creator"`
	Config   RoomConfig `json:"configuration"`
	Players  []string   `json:"players"`
	Started  bool       `json:"started"`
	Finished bool       `json:"finished"`
}

func (s RoomSnapshot) HasPlayer(name string) bool {
	for _, p := range s.Players {
		if SameName(p, name) {
			return true
		}
	}
	return false
}

func (s RoomSnapshot) IsCreator(name string) bool {
	return SameName(s.Creator, name)
}
