package extractor

import (
	"pymetrics/domain/behavioral"
	"pymetrics/domain/metrics"
)

// extractReactionTimer computes the reaction game formula set. Trials are
// responses to stimuli; the core quantity is response latency.
func (e *Extractor) extractReactionTimer(set *metrics.Set, events []behavioral.Event) {
	responses := byKind(events, behavioral.KindResponse)
	if len(responses) == 0 {
		return
	}
	completeness := meanCompleteness(behavioral.GameReactionTimer, responses)

	times, usable := floatsWith(responses, "reaction_time")
	if len(times) == 0 {
		return
	}
	q := e.quality(inputStats{candidates: len(responses), usable: usable, completeness: completeness})

	// Timing statistics: decision-speed and impulsivity proxies.
	set.Add("reaction_timer_decision_speed_mean_reaction_time", mean(times), q, len(times))
	set.Add("reaction_timer_decision_speed_reaction_time_p10", percentile(times, 10), q, len(times))

	if len(times) > 1 {
		set.Add("reaction_timer_consistency_reaction_time_cv", coefficientOfVariation(times), q, len(times))
	}

	// Latency trend against trial index: negative slope indicates learning.
	if len(times) >= 3 {
		normalized := clamp(slope(times)/100.0, -1, 1) // per-trial drift, ms scaled to [-1,1]
		set.Add("reaction_timer_learning_reaction_time_slope", normalized, q, len(times))
	}

	// Premature responses: impulsivity proxy.
	premature, flagged := 0, 0
	for _, ev := range responses {
		if v, ok := ev.Payload.Bool("is_premature"); ok {
			flagged++
			if v {
				premature++
			}
		}
	}
	if flagged > 0 {
		qp := e.quality(inputStats{candidates: len(responses), usable: flagged, completeness: completeness})
		set.Add("reaction_timer_impulsivity_premature_rate", float64(premature)/float64(flagged), qp, flagged)
	}

	// Accuracy where the field is present.
	correct, answered := 0, 0
	for _, ev := range responses {
		if v, ok := ev.Payload.Bool("is_correct"); ok {
			answered++
			if v {
				correct++
			}
		}
	}
	if answered > 0 {
		qa := e.quality(inputStats{candidates: len(responses), usable: answered, completeness: completeness})
		set.Add("reaction_timer_attention_accuracy_rate", float64(correct)/float64(answered), qa, answered)
	}
}
