package app

import (
	"strings"

	"github.com/dkeye/Sketch/internal/domain"
	"github.com/rs/zerolog/log"
)

const DefaultReportThreshold = 3

// Policy decides what happens to a reported player.
type Policy interface {
	ApplyIfThresholdReached(target domain.UserID, targetName string, totalReports int) int
}

// RoomRemover is the slice of the registry a policy acts through.
type RoomRemover interface {
	ListRooms() []domain.RoomSnapshot
	AbandonRoom(code, player string) error
	BanPlayer(code, target string) error
}

// ExpulsionPolicy removes a player from every room once enough reports pile up.
// Rooms the player created are dissolved, the others ban them.
type ExpulsionPolicy struct {
	Rooms     RoomRemover
	Threshold int
}

func NewExpulsionPolicy(rooms RoomRemover, threshold int) *ExpulsionPolicy {
	if threshold <= 0 {
		threshold = DefaultReportThreshold
	}
	return &ExpulsionPolicy{Rooms: rooms, Threshold: threshold}
}

// ApplyIfThresholdReached returns how many rooms were acted upon.
func (p *ExpulsionPolicy) ApplyIfThresholdReached(target domain.UserID, targetName string, totalReports int) int {
	if strings.TrimSpace(string(target)) == "" || strings.TrimSpace(targetName) == "" {
		return 0
	}
	if totalReports < p.Threshold {
		return 0
	}

	affected := 0
	for _, room := range p.Rooms.ListRooms() {
		if !room.HasPlayer(targetName) {
			continue
		}
		var err error
		action := "ban"
		if room.IsCreator(targetName) {
			action = "abandon"
			err = p.Rooms.AbandonRoom(room.Code, targetName)
		} else {
			err = p.Rooms.BanPlayer(room.Code, targetName)
		}
		if err != nil {
			log.Warn().Err(err).Str("module", "app.policy").Str("room", room.Code).Str("player", targetName).Str("action", action).Msg("expulsion skipped")
			continue
		}
		affected++
	}

	log.Info().Str("module", "app.policy").Str("user", string(target)).Str("player", targetName).Int("reports", totalReports).Int("rooms", affected).Msg("expulsion applied")
	return affected
}
