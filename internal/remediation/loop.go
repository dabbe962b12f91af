package remediation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"stacli/internal/events"
	"stacli/internal/extract"
	"stacli/internal/sta"
	"stacli/internal/timing"
	"stacli/internal/verilog"
)

// Runner executes one STA pass over the run's script and tees the tool
// output to logPath.
type Runner interface {
	Run(ctx context.Context, scriptPath, logPath string) (*sta.Result, error)
}

// Artifacts is the slice of a workspace run the loop writes through.
type Artifacts interface {
	ScriptPath() string
	IterationLogPath(iteration int) string
	WriteLiveDesign(content string) error
	WriteIterationDesign(iteration int, content string) (string, error)
	WriteProposal(iteration int, content string) (string, error)
}

// Loop runs the analyze/propose/apply cycle for a single design.
type Loop struct {
	STA       Runner
	Proposer  Proposer
	Artifacts Artifacts
	Budget    int
	Bus       *events.Bus
	Verbose   bool
}

// Run drives the session to a terminal state. The returned error covers
// infrastructure failures only (filesystem, cancellation); tool and model
// failures end the session through its Status instead.
func (l *Loop) Run(ctx context.Context, designName, design, reducedLib string) (*Session, error) {
	budget := l.Budget
	if budget <= 0 {
		budget = DefaultBudget
	}

	sess := &Session{
		ID:         uuid.New().String(),
		DesignName: designName,
		Budget:     budget,
		Status:     StatusRunning,
		StartedAt:  time.Now(),
	}

	original := design
	current := design

	l.publish(sess.ID, events.EventSessionStart, map[string]interface{}{
		"design": designName,
		"budget": budget,
	})

	for iteration := 1; iteration <= budget; iteration++ {
		select {
		case <-ctx.Done():
			sess.CompletedAt = time.Now()
			return sess, ctx.Err()
		default:
		}

		sess.Iterations = iteration
		l.logf("▶ Iteration %d/%d", iteration, budget)
		l.publish(sess.ID, events.EventIterationStart, map[string]interface{}{
			"iteration": iteration,
		})

		if _, err := l.Artifacts.WriteIterationDesign(iteration, current); err != nil {
			sess.CompletedAt = time.Now()
			return sess, fmt.Errorf("writing iteration design: %w", err)
		}
		if err := l.Artifacts.WriteLiveDesign(current); err != nil {
			sess.CompletedAt = time.Now()
			return sess, fmt.Errorf("writing live design: %w", err)
		}

		l.publish(sess.ID, events.EventSTAStart, map[string]interface{}{
			"iteration": iteration,
		})
		res, err := l.STA.Run(ctx, l.Artifacts.ScriptPath(), l.Artifacts.IterationLogPath(iteration))
		if err != nil || res.ExitCode != 0 || strings.TrimSpace(res.Log) == "" {
			if err != nil {
				l.logf("✗ STA run failed: %v", err)
			} else {
				l.logf("✗ STA run failed (exit %d)", res.ExitCode)
			}
			sess.abort(AbortSTAFailed)
			l.publishComplete(sess)
			return sess, nil
		}
		l.publish(sess.ID, events.EventSTAComplete, map[string]interface{}{
			"iteration": iteration,
			"duration":  res.Duration.String(),
		})

		snap := timing.Parse(res.Log)
		sess.Snapshots = append(sess.Snapshots, snap)
		l.publish(sess.ID, events.EventTimingParsed, map[string]interface{}{
			"iteration":      iteration,
			"has_violations": snap.HasViolations,
			"setup_slack":    snap.WorstSetupSlack,
			"hold_slack":     snap.WorstHoldSlack,
		})

		if !snap.HasViolations {
			l.logf("✓ No timing violations, converged at iteration %d", iteration)
			sess.finish(StatusConverged)
			l.publishComplete(sess)
			return sess, nil
		}
		l.logf("⚠ Violations remain (setup %s, hold %s)",
			formatSlack(snap.WorstSetupSlack), formatSlack(snap.WorstHoldSlack))

		if iteration == budget {
			sess.finish(StatusExhausted)
			l.publishComplete(sess)
			return sess, nil
		}

		req := l.buildRequest(original, res.Log, reducedLib, iteration, sess)
		l.publish(sess.ID, events.EventProposalRequest, map[string]interface{}{
			"iteration": iteration,
		})
		resp := l.Proposer.ProposeFix(ctx, req)
		if _, err := l.Artifacts.WriteProposal(iteration, resp); err != nil {
			sess.CompletedAt = time.Now()
			return sess, fmt.Errorf("writing proposal: %w", err)
		}
		l.publish(sess.ID, events.EventProposalReceived, map[string]interface{}{
			"iteration": iteration,
			"bytes":     len(resp),
		})

		next, err := extract.Verilog(resp)
		if err != nil {
			l.logf("✗ No design found in proposal, stopping")
			sess.abort(AbortNoDesignExtracted)
			l.publishComplete(sess)
			return sess, nil
		}

		changes := verilog.SummarizeChanges(current, next)
		sess.Attempts = append(sess.Attempts, FixAttempt{
			Design:     next,
			Changes:    changes,
			SetupSlack: snap.WorstSetupSlack,
			HoldSlack:  snap.WorstHoldSlack,
		})
		current = next
		l.logf("✓ Applied fix: %s", changes)
		l.publish(sess.ID, events.EventDesignUpdated, map[string]interface{}{
			"iteration": iteration,
			"changes":   changes,
		})
	}

	sess.finish(StatusExhausted)
	l.publishComplete(sess)
	return sess, nil
}

// buildRequest assembles the proposal input for the current iteration. The
// first request carries no history; later ones quote every prior attempt,
// the slack trend, and the best design seen so far.
func (l *Loop) buildRequest(original, report, lib string, iteration int, sess *Session) ProposalRequest {
	req := ProposalRequest{
		OriginalDesign: original,
		Report:         report,
		Liberty:        lib,
		Iteration:      iteration,
	}
	if iteration == 1 || len(sess.Attempts) == 0 {
		req.Variant = FirstAttempt{}
		return req
	}

	sub := SubsequentAttempt{
		History:       append([]FixAttempt(nil), sess.Attempts...),
		CurrentDesign: sess.Attempts[len(sess.Attempts)-1].Design,
	}
	if n := len(sess.Snapshots); n >= 2 {
		t := ComputeTrend(sess.Snapshots[n-2], sess.Snapshots[n-1])
		sub.Trend = &t
	}
	best := bestForPrompt(sess.Attempts)
	sub.BestIteration = best + 1
	sub.BestDesign = sess.Attempts[best].Design
	req.Variant = sub
	return req
}

func (l *Loop) publish(sessionID string, typ events.EventType, data map[string]interface{}) {
	if l.Bus == nil {
		return
	}
	l.Bus.Publish(events.Event{
		Type:      typ,
		Timestamp: time.Now(),
		Source:    "remediation",
		SessionID: sessionID,
		Data:      data,
	})
}

func (l *Loop) publishComplete(sess *Session) {
	l.publish(sess.ID, events.EventSessionComplete, map[string]interface{}{
		"status":     string(sess.Status),
		"reason":     sess.AbortReason,
		"iterations": sess.Iterations,
	})
}

func (l *Loop) logf(format string, args ...interface{}) {
	if l.Verbose {
		fmt.Printf(format+"\n", args...)
	}
}

func formatSlack(v *float64) string {
	if v == nil {
		return "none"
	}
	return fmt.Sprintf("%.2f", *v)
}
