package afcl

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vk/choreo/internal/model"
	"gopkg.in/yaml.v3"
)

// Load reads and decodes the workflow document at path.
func Load(path string) (*model.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow file: %w", err)
	}
	wf, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return wf, nil
}

// Parse decodes a YAML or JSON workflow document and validates it.
func Parse(data []byte) (*model.Workflow, error) {
	var doc workflowDoc
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("workflow document is empty")
		}
		return nil, fmt.Errorf("failed to parse workflow document: %w", err)
	}

	body, err := convertBody(doc.WorkflowBody, "workflowBody")
	if err != nil {
		return nil, err
	}
	wf := &model.Workflow{
		Name:     doc.Name,
		DataIns:  convertIns(doc.DataIns),
		DataOuts: convertOuts(doc.DataOuts),
		Body:     body,
	}
	if err := wf.Validate(); err != nil {
		return nil, err
	}
	return wf, nil
}

func convertBody(entries []entryDoc, where string) ([]model.Function, error) {
	out := make([]model.Function, 0, len(entries))
	for i, e := range entries {
		f, err := convertEntry(e)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", where, i, err)
		}
		out = append(out, f)
	}
	return out, nil
}

func convertEntry(e entryDoc) (model.Function, error) {
	var f model.Function
	set := 0

	if d := e.Function; d != nil {
		set++
		f.Atomic = &model.Atomic{
			Name:       d.Name,
			Type:       d.Type,
			DataIns:    convertIns(d.DataIns),
			DataOuts:   convertOuts(d.DataOuts),
			Properties: convertProps(d.Properties),
		}
	}

	if d := e.If; d != nil {
		set++
		then, err := convertBody(d.Then, "then")
		if err != nil {
			return f, fmt.Errorf("if %q: %w", d.Name, err)
		}
		els, err := convertBody(d.Else, "else")
		if err != nil {
			return f, fmt.Errorf("if %q: %w", d.Name, err)
		}
		terms := make([]model.Comparison, len(d.Condition.Conditions))
		for i, c := range d.Condition.Conditions {
			terms[i] = model.Comparison{
				Data1:    string(c.Data1),
				Data2:    string(c.Data2),
				Operator: c.Operator,
				Negation: bool(c.Negation),
			}
		}
		if len(terms) == 0 {
			return f, fmt.Errorf("if %q has no conditions", d.Name)
		}
		f.IfThenElse = &model.IfThenElse{
			Name:       d.Name,
			DataIns:    convertIns(d.DataIns),
			Condition:  model.Condition{CombinedWith: d.Condition.CombinedWith, Terms: terms},
			Then:       then,
			Else:       els,
			DataOuts:   convertOuts(d.DataOuts),
			Properties: convertProps(d.Properties),
		}
	}

	if d := e.Switch; d != nil {
		set++
		if len(d.Cases) == 0 {
			return f, fmt.Errorf("switch %q has no cases", d.Name)
		}
		if d.DataEval.Source == "" {
			return f, fmt.Errorf("switch %q has no dataEval source", d.Name)
		}
		cases := make([]model.Case, len(d.Cases))
		for i, c := range d.Cases {
			body, err := convertBody(c.Functions, fmt.Sprintf("cases[%d]", i))
			if err != nil {
				return f, fmt.Errorf("switch %q: %w", d.Name, err)
			}
			cases[i] = model.Case{Value: string(c.Value), Body: body}
		}
		def, err := convertBody(d.Default, "default")
		if err != nil {
			return f, fmt.Errorf("switch %q: %w", d.Name, err)
		}
		f.Switch = &model.Switch{
			Name:       d.Name,
			DataIns:    convertIns(d.DataIns),
			DataEval:   model.DataEval{Name: d.DataEval.Name, Type: d.DataEval.Type, Source: d.DataEval.Source},
			Cases:      cases,
			Default:    def,
			DataOuts:   convertOuts(d.DataOuts),
			Properties: convertProps(d.Properties),
		}
	}

	if d := e.Parallel; d != nil {
		set++
		if len(d.ParallelBody) == 0 {
			return f, fmt.Errorf("parallel %q has no sections", d.Name)
		}
		sections := make([]model.Section, len(d.ParallelBody))
		for i, s := range d.ParallelBody {
			body, err := convertBody(s.Section, fmt.Sprintf("parallelBody[%d]", i))
			if err != nil {
				return f, fmt.Errorf("parallel %q: %w", d.Name, err)
			}
			sections[i] = model.Section{Body: body}
		}
		f.Parallel = &model.Parallel{
			Name:       d.Name,
			DataIns:    convertIns(d.DataIns),
			Sections:   sections,
			DataOuts:   convertOuts(d.DataOuts),
			Properties: convertProps(d.Properties),
		}
	}

	if d := e.ParallelFor; d != nil {
		set++
		body, err := convertBody(d.LoopBody, "loopBody")
		if err != nil {
			return f, fmt.Errorf("parallelFor %q: %w", d.Name, err)
		}
		lc := d.LoopCounter
		if lc.To == "" {
			return f, fmt.Errorf("parallelFor %q has no loop upper bound", d.Name)
		}
		f.ParallelFor = &model.ParallelFor{
			Name:    d.Name,
			DataIns: convertIns(d.DataIns),
			LoopCounter: model.LoopCounter{
				Name: lc.Name,
				Type: lc.Type,
				From: string(lc.From),
				To:   string(lc.To),
				Step: string(lc.Step),
			},
			Body:       body,
			DataOuts:   convertOuts(d.DataOuts),
			Properties: convertProps(d.Properties),
		}
	}

	if d := e.Sequence; d != nil {
		set++
		body, err := convertBody(d.SequenceBody, "sequenceBody")
		if err != nil {
			return f, fmt.Errorf("sequence %q: %w", d.Name, err)
		}
		f.Sequence = &model.Sequence{Name: d.Name, Body: body}
	}

	if set != 1 {
		return f, fmt.Errorf("entry must declare exactly one of function, if, switch, parallel, parallelFor, sequence (found %d)", set)
	}
	return f, nil
}

func convertIns(docs []dataInDoc) []model.DataIn {
	out := make([]model.DataIn, len(docs))
	for i, d := range docs {
		out[i] = model.DataIn{
			Name:        d.Name,
			Type:        d.Type,
			Source:      d.Source,
			Passing:     bool(d.Passing),
			Constraints: convertConstraints(d.Constraints),
		}
	}
	return out
}

func convertOuts(docs []dataOutDoc) []model.DataOut {
	out := make([]model.DataOut, len(docs))
	for i, d := range docs {
		out[i] = model.DataOut{
			Name:        d.Name,
			Type:        d.Type,
			Source:      d.Source,
			Passing:     bool(d.Passing),
			Constraints: convertConstraints(d.Constraints),
		}
	}
	return out
}

func convertConstraints(docs []nameValueDoc) []model.Constraint {
	if len(docs) == 0 {
		return nil
	}
	out := make([]model.Constraint, len(docs))
	for i, d := range docs {
		out[i] = model.Constraint{Name: d.Name, Value: string(d.Value)}
	}
	return out
}

func convertProps(docs []nameValueDoc) []model.Property {
	if len(docs) == 0 {
		return nil
	}
	out := make([]model.Property, len(docs))
	for i, d := range docs {
		out[i] = model.Property{Name: d.Name, Value: string(d.Value)}
	}
	return out
}
