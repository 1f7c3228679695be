package services

import (
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.pilab.hu/shadow-auth/internal/audit"
)

func TestMain(m *testing.M) {
	log.Logger = zerolog.Nop()
	audit.SetOutput(io.Discard)

	m.Run()
}
