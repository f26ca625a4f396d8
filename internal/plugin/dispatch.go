package plugin

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// Dispatcher runs the configured bindings for every recognized gesture.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
	bindings []Binding
}

// NewDispatcher creates a Dispatcher for the given bindings.
func NewDispatcher(manager *Manager, executor *Executor, bindings []Binding) *Dispatcher {
	b := make([]Binding, len(bindings))
	copy(b, bindings)
	return &Dispatcher{
		manager:  manager,
		executor: executor,
		bindings: b,
	}
}

// Bindings returns the number of configured bindings.
func (d *Dispatcher) Bindings() int {
	return len(d.bindings)
}

// Dispatch runs every binding in order with base as the request template.
// A failing binding is logged and does not stop the others.
func (d *Dispatcher) Dispatch(ctx context.Context, base Request) error {
	var errs []error

	for _, b := range d.bindings {
		if err := d.run(ctx, b, base); err != nil {
			log.Printf("plugin: %s/%s: %v", b.Plugin, b.Action, err)
			errs = append(errs, fmt.Errorf("%s/%s: %w", b.Plugin, b.Action, err))
		}
	}

	return errors.Join(errs...)
}

func (d *Dispatcher) run(ctx context.Context, b Binding, base Request) error {
	p, err := d.manager.Get(b.Plugin)
	if err != nil {
		return err
	}
	if !p.Manifest.Supports(b.Action) {
		return fmt.Errorf("action %q not declared by plugin", b.Action)
	}

	req := base
	req.Action = b.Action
	req.Params = b.Params

	resp, err := d.executor.Execute(ctx, p, &req)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("plugin reported failure: %s", resp.Error)
	}

	return nil
}
