package extractor

import (
	"sort"

	"pymetrics/domain/behavioral"
	"pymetrics/domain/metrics"
)

// extractMemoryCards computes the memory game formula set. Trials are match
// attempts; rounds group attempts for the learning trend.
func (e *Extractor) extractMemoryCards(set *metrics.Set, events []behavioral.Event) {
	flips := byKind(events, behavioral.KindCardFlip)
	attempts := byKind(events, behavioral.KindMatchAttempt)

	flipCompleteness := meanCompleteness(behavioral.GameMemoryCards, flips)
	attemptCompleteness := meanCompleteness(behavioral.GameMemoryCards, attempts)

	// Decision speed and consistency from flip reaction times.
	if times, usable := floatsWith(flips, "reaction_time"); len(times) > 0 {
		q := e.quality(inputStats{candidates: len(flips), usable: usable, completeness: flipCompleteness})
		set.Add("memory_cards_decision_speed_avg_reaction_time", mean(times), q, len(times))
		if len(times) > 1 {
			set.Add("memory_cards_consistency_flip_interval_cv", coefficientOfVariation(times), q, len(times))
		}
	}

	if len(attempts) == 0 {
		return
	}

	// Accuracy over all attempts.
	correct := 0
	for _, ev := range attempts {
		if ok, _ := ev.Payload.Bool("is_correct_match"); ok {
			correct++
		}
	}
	qAttempts := e.quality(inputStats{candidates: len(attempts), usable: len(attempts), completeness: attemptCompleteness})
	set.Add("memory_cards_cognition_match_accuracy", float64(correct)/float64(len(attempts)), qAttempts, len(attempts))

	// Learning: accuracy trend across rounds. Positive slope on accuracy
	// indicates learning.
	if byRound := accuracyByRound(attempts); len(byRound) >= 3 {
		usable := 0
		for _, ev := range attempts {
			if ev.Payload.Has("round_number") {
				usable++
			}
		}
		q := e.quality(inputStats{candidates: len(attempts), usable: usable, completeness: attemptCompleteness})
		set.Add("memory_cards_learning_improvement_rate", clamp(slope(byRound), -1, 1), q, usable)
	}
}

// accuracyByRound folds match attempts into per-round accuracy, ordered by
// round number.
func accuracyByRound(attempts []behavioral.Event) []float64 {
	type tally struct{ correct, total int }
	rounds := make(map[int]*tally)
	for _, ev := range attempts {
		r, ok := ev.Payload.Float("round_number")
		if !ok {
			continue
		}
		t := rounds[int(r)]
		if t == nil {
			t = &tally{}
			rounds[int(r)] = t
		}
		t.total++
		if correct, _ := ev.Payload.Bool("is_correct_match"); correct {
			t.correct++
		}
	}

	keys := make([]int, 0, len(rounds))
	for k := range rounds {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	out := make([]float64, 0, len(keys))
	for _, k := range keys {
		t := rounds[k]
		out = append(out, float64(t.correct)/float64(t.total))
	}
	return out
}
