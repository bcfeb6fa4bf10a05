package sheets

import (
	"github.com/klokku/expensesheets/internal/config"
	"github.com/klokku/expensesheets/internal/event_bus"
	"github.com/klokku/expensesheets/internal/utils"
	log "github.com/sirupsen/logrus"
)

const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// LoginLogger appends one row per sign-in to the configured log spreadsheet.
type LoginLogger struct {
	gateway Gateway
	sheet   config.LogSheet
	clock   utils.Clock
}

func NewLoginLogger(gateway Gateway, sheet config.LogSheet, clock utils.Clock) *LoginLogger {
	return &LoginLogger{gateway: gateway, sheet: sheet, clock: clock}
}

// Subscribe attaches the logger to sign-in events. Nothing is attached without a
// configured log sheet.
func (l *LoginLogger) Subscribe(bus *event_bus.EventBus) {
	if l.sheet.Id == "" {
		log.Info("Login log sheet not configured, sign-ins will not be recorded")
		return
	}
	event_bus.SubscribeTyped(bus, event_bus.UserSignedInEvent, l.onSignedIn)
}

// onSignedIn never fails the sign-in: append errors are only logged.
func (l *LoginLogger) onSignedIn(e event_bus.EventT[event_bus.UserSignedIn]) error {
	row := []string{
		l.clock.Now().UTC().Format(isoMillis),
		e.Data.Email,
		e.Data.Name,
		e.Data.Provider,
		"login",
	}
	if _, err := l.gateway.AppendRows(e.Context(), l.sheet.Id, l.sheet.Range, Grid{row}); err != nil {
		log.Errorf("failed to record sign-in of %s: %v", e.Data.Email, err)
	}
	return nil
}
