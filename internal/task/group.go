// Package task runs the control loops as independent periodic tasks.
package task

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// Task is a periodic control loop. Step performs one polling/actuation
// iteration and returns how long to yield before the next one; it handles
// its own hardware errors.
type Task interface {
	Name() string
	// Start puts the hardware into its initial state.
	Start() error
	Step() time.Duration
	// Safe parks the actuators on shutdown.
	Safe() error
}

// Static priorities. Light control preempts water control.
const (
	PriorityWater = 1
	PriorityLight = 2
)

type entry struct {
	task     Task
	priority int
}

// Group runs a fixed set of tasks, each in its own goroutine, until the
// context is cancelled.
type Group struct {
	entries []entry

	// sleep yields for d or until ctx is done.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewGroup creates an empty task group.
func NewGroup() *Group {
	return &Group{sleep: sleepCtx}
}

// Add registers a task with a static priority. Higher runs first.
func (g *Group) Add(t Task, priority int) {
	g.entries = append(g.entries, entry{task: t, priority: priority})
}

// Run starts every task in priority order and loops them until ctx is
// cancelled, then parks every task's actuators. A task that fails to start
// aborts the whole group.
func (g *Group) Run(ctx context.Context) error {
	sort.SliceStable(g.entries, func(i, j int) bool {
		return g.entries[i].priority > g.entries[j].priority
	})

	for i, e := range g.entries {
		if err := e.task.Start(); err != nil {
			for _, started := range g.entries[:i] {
				g.park(started.task)
			}
			return fmt.Errorf("start %s: %w", e.task.Name(), err)
		}
	}

	eg, ctx := errgroup.WithContext(ctx)
	for _, e := range g.entries {
		e := e
		eg.Go(func() error {
			log.Printf("%s: running at priority %d", e.task.Name(), e.priority)
			g.loop(ctx, e.task)
			return nil
		})
	}
	return eg.Wait()
}

func (g *Group) loop(ctx context.Context, t Task) {
	defer g.park(t)
	for ctx.Err() == nil {
		d := t.Step()
		if err := g.sleep(ctx, d); err != nil {
			return
		}
	}
}

func (g *Group) park(t Task) {
	if err := t.Safe(); err != nil {
		log.Printf("%s: park error: %v", t.Name(), err)
		return
	}
	log.Printf("%s: stopped", t.Name())
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
