package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/Dicklesworthstone/pipemon/internal/aggregator"
	"github.com/Dicklesworthstone/pipemon/internal/config"
	"github.com/Dicklesworthstone/pipemon/internal/errors"
	"github.com/Dicklesworthstone/pipemon/internal/logger"
	"github.com/Dicklesworthstone/pipemon/internal/sampler"
	"github.com/Dicklesworthstone/pipemon/internal/supervisor"
)

// Worker roles. Producers write raw samples; aggregators spawn producers
// and write combined records.
const (
	RoleMemory      = "memory"
	RoleCPU         = "cpu"
	RoleMaxFreq     = "max-freq"
	RoleCoreCount   = "core-count"
	RoleUtilization = "utilization"
	RoleCoreInfo    = "core-info"
)

// Roles lists every worker role.
var Roles = []string{RoleMemory, RoleCPU, RoleMaxFreq, RoleCoreCount, RoleUtilization, RoleCoreInfo}

// Env is what a worker of any role needs: the resolved configuration, the
// metric source producers read from, and the spawner aggregators start
// their producers with.
type Env struct {
	Config  config.Config
	Source  sampler.Source
	Spawner supervisor.Spawner
	// Interrupts is handed to aggregators so their reads can be abandoned.
	Interrupts <-chan struct{}
	Log        logger.Logger
}

func (e Env) logger() logger.Logger {
	if e.Log == nil {
		return logger.Noop()
	}
	return e.Log
}

func (e Env) schedule() sampler.Schedule {
	return sampler.Schedule{Samples: e.Config.Samples, Interval: e.Config.Interval()}
}

// Spec describes the worker for role.
func (e Env) Spec(role string) (supervisor.Spec, error) {
	task, err := e.Task(role)
	if err != nil {
		return supervisor.Spec{}, err
	}
	return supervisor.Spec{Role: role, Args: e.Config.Args(), Run: task}, nil
}

// mustSpec is for the role constants above; any other role is a bug.
func (e Env) mustSpec(role string) supervisor.Spec {
	spec, err := e.Spec(role)
	if err != nil {
		panic(err)
	}
	return spec
}

// Task returns the body of the worker for role.
func (e Env) Task(role string) (supervisor.Task, error) {
	switch role {
	case RoleMemory:
		return func(ctx context.Context, out io.Writer) error {
			return sampler.RunMemory(ctx, e.Source, e.schedule(), out)
		}, nil
	case RoleCPU:
		return func(ctx context.Context, out io.Writer) error {
			return sampler.RunCPU(ctx, e.Source, e.schedule(), out)
		}, nil
	case RoleMaxFreq:
		return func(ctx context.Context, out io.Writer) error {
			return sampler.RunMaxFrequency(ctx, e.Source, out)
		}, nil
	case RoleCoreCount:
		return func(ctx context.Context, out io.Writer) error {
			return sampler.RunCoreCount(ctx, e.Source, out)
		}, nil
	case RoleUtilization:
		return func(ctx context.Context, out io.Writer) error {
			p := &aggregator.Periodic{Spawner: e.Spawner, Interrupts: e.Interrupts, Log: e.logger()}
			if e.Config.Charts.Memory {
				spec := e.mustSpec(RoleMemory)
				p.Memory = &spec
			}
			if e.Config.Charts.CPU {
				spec := e.mustSpec(RoleCPU)
				p.CPU = &spec
			}
			return p.Run(ctx, out)
		}, nil
	case RoleCoreInfo:
		return func(ctx context.Context, out io.Writer) error {
			o := &aggregator.OneShot{
				Spawner:   e.Spawner,
				Frequency: e.mustSpec(RoleMaxFreq),
				Cores:     e.mustSpec(RoleCoreCount),
				Log:       e.logger(),
			}
			return o.Run(ctx, out)
		}, nil
	}
	return nil, errors.New(errors.ErrSpawn, fmt.Sprintf("Unknown worker role %q", role), "")
}
