package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/vk/choreo/internal/afcl"
	"github.com/vk/choreo/internal/ctxlog"
	"github.com/vk/choreo/internal/nodes"
	"github.com/vk/choreo/internal/workflow"
)

// Run loads the workflow, executes it once and writes its outputs.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	a.healthCheckServer()
	defer func() { _ = a.closeHealthCheckServer() }()

	wf, err := afcl.Load(a.config.WorkflowPath)
	if err != nil {
		return err
	}
	a.logger.Debug("Workflow loaded.", "workflow", wf.Name, "inputs", len(wf.DataIns), "outputs", len(wf.DataOuts))

	inputs, err := a.readInputs()
	if err != nil {
		return err
	}

	exe, err := workflow.New(wf)
	if err != nil {
		return fmt.Errorf("failed to build workflow graph: %w", err)
	}
	a.logger.Debug("Workflow graph built.", "node_count", len(exe.Graph().Nodes()))

	rt := &nodes.Runtime{
		ExecutionID:   a.executionID(),
		Workflow:      wf.Name,
		Invoker:       a.invoker,
		Resolver:      a.resolver,
		Sink:          a.sink,
		MaxBranches:   a.engine.Engine.MaxConcurrentBranches,
		MaxIterations: a.engine.Engine.MaxLoopIterations,
	}
	if a.config.MaxBranches > 0 {
		rt.MaxBranches = a.config.MaxBranches
	}

	a.logger.Info("🚀 Starting workflow execution...", "workflow", wf.Name, "max_branches", rt.MaxBranches)
	result, err := exe.Execute(ctx, rt, inputs)
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}

	if err := a.writeOutputs(exe.Outputs(result)); err != nil {
		return err
	}
	a.logger.Debug("App.Run method finished.")
	return nil
}

func (a *App) executionID() string {
	if a.config.ExecutionID == ExecutionIDAuto {
		return uuid.NewString()
	}
	return a.config.ExecutionID
}

// readInputs decodes the workflow inputs. Inline JSON wins over a file;
// with neither the workflow runs without inputs.
func (a *App) readInputs() (map[string]any, error) {
	var raw []byte
	switch {
	case a.config.InputJSON != "":
		raw = []byte(a.config.InputJSON)
	case a.config.InputPath != "":
		b, err := os.ReadFile(a.config.InputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read input file: %w", err)
		}
		raw = b
	default:
		return map[string]any{}, nil
	}

	var inputs map[string]any
	if err := json.Unmarshal(raw, &inputs); err != nil {
		return nil, fmt.Errorf("workflow input must be a JSON object: %w", err)
	}
	if inputs == nil {
		inputs = map[string]any{}
	}
	return inputs, nil
}

func (a *App) writeOutputs(outputs map[string]any) error {
	var w io.Writer = a.outW
	if a.config.OutputPath != "" {
		f, err := os.Create(a.config.OutputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(outputs); err != nil {
		return fmt.Errorf("failed to write workflow outputs: %w", err)
	}
	return nil
}
