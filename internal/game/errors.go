package game

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tycoonfree/tycoon-server-go/internal/game/rules"
)

var (
	// ErrGameNotFound is returned by the engine for unknown game ids.
	ErrGameNotFound = errors.New("game not found")
	// ErrGameOver is returned when an action reaches a finished game.
	ErrGameOver = errors.New("game is over")
	// ErrPlayerNotFound is returned for seat indexes outside the game.
	ErrPlayerNotFound = errors.New("player not found")
)

// RejectionError reports an action that was not applied. The state is left
// exactly as it was before the call.
type RejectionError struct {
	Action  Action
	Reason  string
	Details map[string]string
}

func (e *RejectionError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("action %s rejected: %s", e.Action.Type, e.Reason)
	}
	keys := make([]string, 0, len(e.Details))
	for k := range e.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+e.Details[k])
	}
	return fmt.Sprintf("action %s rejected: %s (%s)", e.Action.Type, e.Reason, strings.Join(parts, ", "))
}

// Is lets errors.Is(err, ErrGameOver) match rejections of finished games.
func (e *RejectionError) Is(target error) bool {
	return target == ErrGameOver && e.Reason == rules.ReasonGameOver
}

// ConfigError reports an invalid game configuration.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid game config: %s: %s", e.Field, e.Reason)
}

func reject(action Action, reason string, details map[string]string) *RejectionError {
	return &RejectionError{Action: action, Reason: reason, Details: details}
}
