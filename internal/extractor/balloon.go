package extractor

import (
	"pymetrics/domain/behavioral"
	"pymetrics/domain/metrics"
)

// balloonTrial is one balloon's outcome, in first-appearance order.
type balloonTrial struct {
	id     string
	pumps  float64
	popped bool
	popMS  int64
}

// extractBalloonRisk computes the balloon task formula set. Trial quantity
// is pumps per balloon; negative outcomes are pops.
func (e *Extractor) extractBalloonRisk(set *metrics.Set, events []behavioral.Event) {
	pumps := byKind(events, behavioral.KindPump)
	cashOuts := byKind(events, behavioral.KindCashOut)
	pops := byKind(events, behavioral.KindPop)

	pumpCompleteness := meanCompleteness(behavioral.GameBalloonRisk, pumps)

	trials := collectBalloonTrials(pumps, pops)
	perTrialPumps := make([]float64, len(trials))
	for i, t := range trials {
		perTrialPumps[i] = t.pumps
	}

	// Risk tolerance: counting/ratio and escalation metrics.
	if len(trials) > 0 {
		q := e.quality(inputStats{candidates: len(pumps), usable: len(pumps), completeness: pumpCompleteness})
		set.Add("balloon_risk_risk_tolerance_avg_pumps_per_balloon", mean(perTrialPumps), q, len(trials))
		set.Add("balloon_risk_risk_tolerance_max_pumps_per_balloon", percentile(perTrialPumps, 100), q, len(trials))
		set.Add("balloon_risk_risk_tolerance_risk_escalation_rate", escalationFraction(perTrialPumps), q, len(trials))
	}
	if resolved := len(pops) + len(cashOuts); resolved > 0 {
		outcomeCompleteness := meanCompleteness(behavioral.GameBalloonRisk, append(append([]behavioral.Event{}, pops...), cashOuts...))
		q := e.quality(inputStats{candidates: resolved, usable: resolved, completeness: outcomeCompleteness})
		set.Add("balloon_risk_risk_tolerance_pop_rate", float64(len(pops))/float64(resolved), q, resolved)
	}

	// Consistency: dispersion of inter-pump intervals and pump counts.
	intervals, usable := floatsWith(pumps, "time_since_prev_pump")
	if len(intervals) > 1 {
		q := e.quality(inputStats{candidates: len(pumps), usable: usable, completeness: pumpCompleteness})
		set.Add("balloon_risk_consistency_pump_interval_std", stdDev(intervals), q, len(intervals))
		set.Add("balloon_risk_consistency_pump_interval_cv", coefficientOfVariation(intervals), q, len(intervals))

		pumpCV := coefficientOfVariation(perTrialPumps)
		intervalCV := coefficientOfVariation(intervals)
		consistency := clamp(1-(pumpCV+intervalCV)/2, 0, 1)
		set.Add("balloon_risk_consistency_behavioral_consistency_score", consistency, q, len(intervals))
	}

	// Learning: adaptation across thirds, trend slope, feedback response.
	if len(trials) >= e.cfg.MinTrials {
		q := e.quality(inputStats{candidates: len(pumps), usable: len(pumps), completeness: pumpCompleteness})
		set.Add("balloon_risk_learning_adaptation_rate", adaptationRate(perTrialPumps), q, len(trials))
		set.Add("balloon_risk_learning_curve_slope", clamp(slope(perTrialPumps), -1, 1), q, len(trials))
		if len(pops) > 0 {
			set.Add("balloon_risk_learning_feedback_response", e.feedbackResponse(trials), q, len(pops))
		}
	}

	// Decision speed: timing statistics over inter-pump intervals.
	if len(intervals) > 0 {
		q := e.quality(inputStats{candidates: len(pumps), usable: usable, completeness: pumpCompleteness})
		set.Add("balloon_risk_decision_speed_avg_decision_time", mean(intervals), q, len(intervals))
		set.Add("balloon_risk_decision_speed_decision_time_p90", percentile(intervals, 90), q, len(intervals))

		rapid := 0
		for _, iv := range intervals {
			if iv < float64(e.cfg.RapidDecisionMS) {
				rapid++
			}
		}
		set.Add("balloon_risk_decision_speed_rapid_decision_rate", float64(rapid)/float64(len(intervals)), q, len(intervals))
	}

	// Emotional regulation: recovery after losses.
	if len(pops) > 0 {
		popCompleteness := meanCompleteness(behavioral.GameBalloonRisk, pops)
		q := e.quality(inputStats{candidates: len(pops), usable: len(pops), completeness: popCompleteness})
		set.Add("balloon_risk_emotional_regulation_post_loss_shift", e.postLossShift(trials), q, len(pops))
		if recovery, n := recoveryTimes(pumps, pops); n > 0 {
			set.Add("balloon_risk_emotional_regulation_recovery_time", mean(recovery), q, n)
		}
	}
}

// collectBalloonTrials groups pump events by balloon in first-appearance
// order, recording each balloon's final pump count and pop outcome.
func collectBalloonTrials(pumps, pops []behavioral.Event) []balloonTrial {
	index := make(map[string]int)
	var trials []balloonTrial

	for _, ev := range pumps {
		id, _ := ev.Payload.String("balloon_id")
		count, _ := ev.Payload.Float("pump_number")
		i, seen := index[id]
		if !seen {
			index[id] = len(trials)
			trials = append(trials, balloonTrial{id: id, pumps: count})
			continue
		}
		if count > trials[i].pumps {
			trials[i].pumps = count
		}
	}
	for _, ev := range pops {
		id, _ := ev.Payload.String("balloon_id")
		if i, seen := index[id]; seen {
			trials[i].popped = true
			trials[i].popMS = ev.TimestampMS
		}
	}
	return trials
}

// adaptationRate compares the first and last thirds of the trial sequence,
// clamped to [-1,1]. Positive values mean later trials moved toward more
// pumps, the adaptive direction when balloons are not popping.
func adaptationRate(perTrial []float64) float64 {
	third := len(perTrial) / 3
	if third == 0 {
		return 0
	}
	early := mean(perTrial[:third])
	late := mean(perTrial[len(perTrial)-third:])
	if early == 0 {
		return 0
	}
	return clamp((late-early)/early, -1, 1)
}

// feedbackResponse measures the pullback in pumps on the trials immediately
// following a pop, relative to the overall mean. Positive values indicate a
// conservative response to negative feedback.
func (e *Extractor) feedbackResponse(trials []balloonTrial) float64 {
	var all, post []float64
	for i, t := range trials {
		all = append(all, t.pumps)
		if i > 0 && trials[i-1].popped {
			post = append(post, t.pumps)
		}
	}
	if len(post) == 0 {
		return 0
	}
	avgAll := mean(all)
	if avgAll == 0 {
		return 0
	}
	return clamp((avgAll-mean(post))/avgAll, -1, 1)
}

// postLossShift is the change in pumps over the recovery window after each
// pop, relative to the overall mean. Positive = conservative shift.
func (e *Extractor) postLossShift(trials []balloonTrial) float64 {
	var all, window []float64
	for _, t := range trials {
		all = append(all, t.pumps)
	}
	for i, t := range trials {
		if !t.popped {
			continue
		}
		for j := i + 1; j <= i+e.cfg.RecoveryWindowTrials && j < len(trials); j++ {
			window = append(window, trials[j].pumps)
		}
	}
	if len(window) == 0 {
		return 0
	}
	avgAll := mean(all)
	if avgAll == 0 {
		return 0
	}
	return clamp((avgAll-mean(window))/avgAll, -1, 1)
}

// recoveryTimes measures milliseconds from each pop to the subject's next
// pump, the emotional-recovery latency.
func recoveryTimes(pumps, pops []behavioral.Event) ([]float64, int) {
	var out []float64
	for _, pop := range pops {
		for _, pump := range pumps {
			if pump.TimestampMS > pop.TimestampMS {
				out = append(out, float64(pump.TimestampMS-pop.TimestampMS))
				break
			}
		}
	}
	return out, len(out)
}
