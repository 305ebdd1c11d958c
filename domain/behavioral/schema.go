package behavioral

import (
	"sort"

	"pymetrics/domain/core"
)

// EventSchema declares the payload contract for one event kind. Required
// fields make an event malformed when absent; expected fields degrade its
// completeness score but keep it in the aggregation.
type EventSchema struct {
	Required []string
	Expected []string
}

// FieldCount returns the number of declared fields.
func (s EventSchema) FieldCount() int {
	return len(s.Required) + len(s.Expected)
}

// GameSchema maps event kinds to their payload contracts, plus the kinds a
// session of this game cannot be scored without.
type GameSchema struct {
	Events    map[string]EventSchema
	Mandatory []string
}

// Schemas declares the per-game payload contracts. Field sets follow the
// instrument definitions: the balloon task is the BART protocol, the other
// two games carry trial/round structured payloads.
var Schemas = map[GameType]GameSchema{
	GameBalloonRisk: {
		Events: map[string]EventSchema{
			KindPump: {
				Required: []string{"balloon_id", "pump_number"},
				Expected: []string{"time_since_prev_pump", "balloon_size", "current_earnings"},
			},
			KindCashOut: {
				Required: []string{"balloon_id", "earnings_collected"},
				Expected: []string{"pumps_before_cash_out", "hesitation_time"},
			},
			KindPop: {
				Required: []string{"balloon_id", "pumps_at_pop"},
				Expected: []string{"earnings_lost", "time_since_last_pump"},
			},
		},
		Mandatory: []string{KindPump},
	},
	GameMemoryCards: {
		Events: map[string]EventSchema{
			KindCardFlip: {
				Required: []string{"card_id", "card_position"},
				Expected: []string{"reaction_time", "round_number"},
			},
			KindMatchAttempt: {
				Required: []string{"card_id_1", "card_id_2", "is_correct_match"},
				Expected: []string{"round_number", "reaction_time"},
			},
		},
		Mandatory: []string{KindCardFlip},
	},
	GameReactionTimer: {
		Events: map[string]EventSchema{
			KindStimulus: {
				Required: []string{"trial_number"},
				Expected: []string{"stimulus_type"},
			},
			KindResponse: {
				Required: []string{"trial_number", "reaction_time"},
				Expected: []string{"is_correct", "is_premature"},
			},
		},
		Mandatory: []string{KindResponse},
	},
}

// Validate checks an event's payload against its declared schema. Unknown
// kinds are malformed: the extractor has no contract to fold them under.
func Validate(gameType GameType, e Event) error {
	game, ok := Schemas[gameType]
	if !ok {
		return core.ErrUnknownGameType
	}
	schema, ok := game.Events[e.Kind]
	if !ok {
		return &core.MalformedEventError{EventID: e.ID, Kind: e.Kind, Fields: []string{"(unknown event kind)"}}
	}

	var missing []string
	for _, field := range schema.Required {
		if !e.Payload.Has(field) {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &core.MalformedEventError{EventID: e.ID, Kind: e.Kind, Fields: missing}
	}
	return nil
}

// Completeness scores how much of the declared field set an event actually
// carries, in [0,1]. Required fields are assumed present (the event passed
// Validate); expected fields degrade the score when absent.
func Completeness(gameType GameType, e Event) float64 {
	game, ok := Schemas[gameType]
	if !ok {
		return 0
	}
	schema, ok := game.Events[e.Kind]
	if !ok {
		return 0
	}
	total := schema.FieldCount()
	if total == 0 {
		return 1
	}
	present := 0
	for _, field := range schema.Required {
		if e.Payload.Has(field) {
			present++
		}
	}
	for _, field := range schema.Expected {
		if e.Payload.Has(field) {
			present++
		}
	}
	return float64(present) / float64(total)
}

// MissingMandatoryKinds returns the mandatory event kinds absent from the
// stream, sorted for deterministic error text.
func MissingMandatoryKinds(gameType GameType, events []Event) []string {
	game, ok := Schemas[gameType]
	if !ok {
		return nil
	}
	seen := make(map[string]bool, len(events))
	for _, e := range events {
		seen[e.Kind] = true
	}
	var missing []string
	for _, kind := range game.Mandatory {
		if !seen[kind] {
			missing = append(missing, kind)
		}
	}
	sort.Strings(missing)
	return missing
}
