package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ActionTriggers fires one action trigger per entry concurrently. Each entry
// needs "trigger_id" and may carry "name" and "attempt" (default 1). Results
// keep the input order. The first failure cancels the remaining calls and
// no partial results are returned.
func (c *Client) ActionTriggers(ctx context.Context, requestID int, triggers []map[string]string) ([]*EngineTrigger, error) {
	pending, err := buildTriggers(requestID, triggers)
	if err != nil {
		return nil, err
	}
	return fanOut(ctx, pending, c.ActionTrigger)
}

func buildTriggers(requestID int, triggers []map[string]string) ([]*EngineTrigger, error) {
	out := make([]*EngineTrigger, 0, len(triggers))
	for i, t := range triggers {
		id := t["trigger_id"]
		if id == "" {
			return nil, fmt.Errorf("triggers[%d]: %w", i, errEmptyField("EngineTrigger", "trigger_id"))
		}
		attempt := 1
		if s := strings.TrimSpace(t["attempt"]); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("triggers[%d]: invalid attempt %q: %w", i, s, err)
			}
			attempt = n
		}
		rid := requestID
		out = append(out, &EngineTrigger{
			TriggerID: id,
			Name:      t["name"],
			RequestID: &rid,
			Client:    DefaultTriggerClient,
			Attempt:   attempt,
		})
	}
	return out, nil
}

func fanOut(ctx context.Context, pending []*EngineTrigger, fire func(context.Context, *EngineTrigger) (*EngineTrigger, error)) ([]*EngineTrigger, error) {
	results := make([]*EngineTrigger, len(pending))
	g, ctx := errgroup.WithContext(ctx)
	for i, t := range pending {
		g.Go(func() error {
			res, err := fire(ctx, t)
			if err != nil {
				return fmt.Errorf("action trigger %s: %w", t.TriggerID, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
