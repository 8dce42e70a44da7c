// Package agent runs a set of long-lived actions until the context ends or one of
// them fails.
package agent

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/lisanmuaddib/wrap-agent/pkg/actions"
	"github.com/sirupsen/logrus"
)

type Agent struct {
	logger  *logrus.Logger
	actions map[string]actions.Action
	mu      sync.RWMutex
}

type Config struct {
	Logger *logrus.Logger
}

func New(config Config) (*Agent, error) {
	if config.Logger == nil {
		config.Logger = logrus.New()
	}

	return &Agent{
		logger:  config.Logger,
		actions: make(map[string]actions.Action),
	}, nil
}

// RegisterAction adds a new action to the agent
func (a *Agent) RegisterAction(action actions.Action) error {
	if action == nil {
		return fmt.Errorf("action cannot be nil")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	name := action.Name()
	if _, exists := a.actions[name]; exists {
		return fmt.Errorf("action %s already registered", name)
	}

	a.actions[name] = action
	return nil
}

// Actions returns the names of the registered actions in sorted order
func (a *Agent) Actions() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	names := make([]string, 0, len(a.actions))
	for name := range a.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run starts all registered actions. It returns when ctx is cancelled, when an
// action fails, or when every action has returned on its own.
func (a *Agent) Run(ctx context.Context) error {
	a.mu.RLock()
	registered := make(map[string]actions.Action, len(a.actions))
	for name, action := range a.actions {
		registered[name] = action
	}
	a.mu.RUnlock()

	if len(registered) == 0 {
		return fmt.Errorf("no actions registered")
	}

	a.logger.WithField("actions", a.Actions()).Info("Starting agent with registered actions")

	// Create error channel for collecting errors from actions
	errChan := make(chan error, len(registered))

	// Start each action in its own goroutine
	var wg sync.WaitGroup
	for name, action := range registered {
		wg.Add(1)
		go func(name string, action actions.Action) {
			defer wg.Done()

			a.logger.WithField("action", name).Info("Starting action")
			if err := action.Execute(ctx); err != nil && ctx.Err() == nil {
				a.logger.WithError(err).WithField("action", name).Error("Action failed")
				errChan <- fmt.Errorf("action %s failed: %w", name, err)
				return
			}
			a.logger.WithField("action", name).Debug("Action returned")
		}(name, action)
	}

	allDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(allDone)
	}()

	// Wait for context cancellation, errors, or every action finishing
	select {
	case <-ctx.Done():
		a.logger.Info("Context cancelled, stopping all actions")
		a.stopAllActions()
		wg.Wait()
		return ctx.Err()
	case err := <-errChan:
		a.logger.WithError(err).Error("Action error occurred")
		a.stopAllActions()
		wg.Wait()
		return err
	case <-allDone:
		select {
		case err := <-errChan:
			a.stopAllActions()
			return err
		default:
		}
		if err := ctx.Err(); err != nil {
			a.stopAllActions()
			return err
		}
		a.logger.Info("All actions finished")
		return nil
	}
}

// Stop stops every registered action without cancelling their context
func (a *Agent) Stop() {
	a.stopAllActions()
}

// stopAllActions cleanly stops all registered actions
func (a *Agent) stopAllActions() {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for name, action := range a.actions {
		a.logger.WithField("action", name).Info("Stopping action")
		action.Stop()
	}
}
