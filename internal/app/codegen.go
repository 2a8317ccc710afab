package app

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/dkeye/Sketch/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	codeAlphabet    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	maxCodeAttempts = 10
)

// CodeGenerator produces room codes from an alphabet without look-alike characters.
type CodeGenerator struct {
	rand     io.Reader
	attempts int
}

func NewCodeGenerator() *CodeGenerator {
	return &CodeGenerator{rand: rand.Reader, attempts: maxCodeAttempts}
}

// NewCodeGeneratorFrom uses src as entropy; tests feed it a fixed stream.
func NewCodeGeneratorFrom(src io.Reader) *CodeGenerator {
	return &CodeGenerator{rand: src, attempts: maxCodeAttempts}
}

// GenerateCode returns a code for which taken reports false.
// taken is called with the registry lock held and must not lock it again.
func (g *CodeGenerator) GenerateCode(taken func(code string) bool) (string, error) {
	buf := make([]byte, domain.RoomCodeLen)
	for attempt := 0; attempt < g.attempts; attempt++ {
		if _, err := io.ReadFull(g.rand, buf); err != nil {
			return "", fmt.Errorf("read entropy: %w", err)
		}
		code := make([]byte, domain.RoomCodeLen)
		for i := range code {
			code[i] = codeAlphabet[int(buf[i])%len(codeAlphabet)]
		}
		if !taken(string(code)) {
			return string(code), nil
		}
	}
	log.Error().Str("module", "app.codegen").Int("attempts", g.attempts).Msg("room code space exhausted")
	return "", domain.ErrCodeSpaceExhausted
}
