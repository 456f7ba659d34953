// Package compiler turns an assembled pipeline graph into an Argo Workflow
// that a Kubeflow Pipelines installation can run.
package compiler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"ml-pipelines/internal/graph"
)

// ErrCompile is wrapped by every compilation failure.
var ErrCompile = errors.New("compile error")

const (
	APIVersion = "argoproj.io/v1alpha1"
	KindName   = "Workflow"

	// AnnotationGraphHash carries Graph.Hash so identical definitions can be
	// recognised without diffing YAML.
	AnnotationGraphHash   = "pipelines.ml/graph-hash"
	AnnotationDescription = "pipelines.ml/description"

	inputsDir  = "/tmp/inputs"
	outputsDir = "/tmp/outputs"
)

// Options tunes the emitted workflow.
type Options struct {
	ServiceAccount string            // spec.serviceAccountName, omitted when empty
	Labels         map[string]string // workflow labels
}

// Compile renders g as an Argo Workflow with one DAG entry template and one
// container template per step.
func Compile(g *graph.Graph, opts Options) (*Workflow, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: nil graph", ErrCompile)
	}
	hash, err := g.Hash()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompile, err)
	}

	wf := &Workflow{
		APIVersion: APIVersion,
		Kind:       KindName,
		Metadata: Metadata{
			GenerateName: g.Name + "-",
			Annotations:  map[string]string{AnnotationGraphHash: hash},
		},
		Spec: Spec{
			Entrypoint:         entrypointName(g),
			ServiceAccountName: opts.ServiceAccount,
		},
	}
	for k, v := range g.Annotations {
		wf.Metadata.Annotations[k] = v
	}
	if g.Description != "" {
		wf.Metadata.Annotations[AnnotationDescription] = g.Description
	}
	if len(opts.Labels) > 0 {
		wf.Metadata.Labels = make(map[string]string, len(opts.Labels))
		for k, v := range opts.Labels {
			wf.Metadata.Labels[k] = v
		}
	}

	for _, p := range g.Params {
		arg := Parameter{Name: p.Name}
		if p.Default != nil {
			v, err := graph.Render(graph.Lit(p.Default), dagResolver{})
			if err != nil {
				return nil, fmt.Errorf("%w: parameter %q: %v", ErrCompile, p.Name, err)
			}
			arg.Value = &v
		}
		wf.Spec.Arguments.Parameters = append(wf.Spec.Arguments.Parameters, arg)
	}

	dag := &DAG{}
	volumes := make(map[string]Volume)
	for _, s := range g.Steps {
		task, err := compileTask(s)
		if err != nil {
			return nil, err
		}
		dag.Tasks = append(dag.Tasks, task)

		tmpl, err := compileTemplate(s)
		if err != nil {
			return nil, err
		}
		wf.Spec.Templates = append(wf.Spec.Templates, tmpl)

		for _, sv := range s.Secrets() {
			volumes[sv.Name] = Volume{Name: sv.Name, Secret: &SecretVolumeSource{SecretName: sv.Name}}
		}
	}
	entry := Template{Name: wf.Spec.Entrypoint, DAG: dag}
	wf.Spec.Templates = append([]Template{entry}, wf.Spec.Templates...)

	names := make([]string, 0, len(volumes))
	for n := range volumes {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		wf.Spec.Volumes = append(wf.Spec.Volumes, volumes[n])
	}
	return wf, nil
}

// entrypointName picks a template name for the DAG that no step uses.
func entrypointName(g *graph.Graph) string {
	name := g.Name
	for {
		if _, taken := g.Step(name); !taken {
			return name
		}
		name += "-dag"
	}
}

func inputPath(name string) string  { return inputsDir + "/" + name + "/data" }
func outputPath(name string) string { return outputsDir + "/" + name + "/data" }

func compileTask(s *graph.Step) (DAGTask, error) {
	task := DAGTask{Name: s.ID, Template: s.ID, Dependencies: s.Dependencies()}
	var r dagResolver

	args := &Arguments{}
	for _, name := range s.InputNames() {
		port, _ := s.Component.Input(name)
		v, _ := s.Input(name)
		if port.Kind == graph.KindArtifact {
			ref, ok := v.(graph.OutputRef)
			if !ok {
				return DAGTask{}, fmt.Errorf("%w: step %q: artifact input %q is not an upstream output", ErrCompile, s.ID, name)
			}
			args.Artifacts = append(args.Artifacts, Artifact{
				Name: name,
				From: fmt.Sprintf("{{tasks.%s.outputs.artifacts.%s}}", ref.Step().ID, ref.Name()),
			})
			continue
		}
		rendered, err := graph.Render(v, r)
		if err != nil {
			return DAGTask{}, fmt.Errorf("%w: step %q input %q: %v", ErrCompile, s.ID, name, err)
		}
		args.Parameters = append(args.Parameters, Parameter{Name: name, Value: &rendered})
	}
	if len(args.Parameters) > 0 || len(args.Artifacts) > 0 {
		task.Arguments = args
	}

	if c, ok := s.Condition(); ok {
		left, err := graph.Render(c.Left, r)
		if err != nil {
			return DAGTask{}, fmt.Errorf("%w: step %q condition: %v", ErrCompile, s.ID, err)
		}
		right, err := graph.Render(c.Right, r)
		if err != nil {
			return DAGTask{}, fmt.Errorf("%w: step %q condition: %v", ErrCompile, s.ID, err)
		}
		task.When = left + " " + string(c.Op) + " " + right
	}
	return task, nil
}

func compileTemplate(s *graph.Step) (Template, error) {
	c := s.Component
	tmpl := Template{Name: s.ID}
	container := &Container{Image: c.Image, Command: append([]string(nil), c.Command...)}

	inputs := &IO{}
	for _, name := range s.InputNames() {
		port, _ := c.Input(name)
		if port.Kind == graph.KindArtifact {
			inputs.Artifacts = append(inputs.Artifacts, Artifact{Name: name, Path: inputPath(name)})
			container.Args = append(container.Args, "--"+name, inputPath(name))
			continue
		}
		inputs.Parameters = append(inputs.Parameters, Parameter{Name: name})
		container.Args = append(container.Args, "--"+name, "{{inputs.parameters."+name+"}}")
	}
	if len(inputs.Parameters) > 0 || len(inputs.Artifacts) > 0 {
		tmpl.Inputs = inputs
	}

	outputs := &IO{}
	for _, port := range c.Outputs {
		path := outputPath(port.Name)
		if port.Kind == graph.KindArtifact {
			outputs.Artifacts = append(outputs.Artifacts, Artifact{Name: port.Name, Path: path})
		} else {
			outputs.Parameters = append(outputs.Parameters, Parameter{Name: port.Name, ValueFrom: &ValueFrom{Path: path}})
		}
		container.Args = append(container.Args, "--output-"+port.Name+"-path", path)
	}
	if len(outputs.Parameters) > 0 || len(outputs.Artifacts) > 0 {
		tmpl.Outputs = outputs
	}

	var r templateResolver
	for _, e := range s.Env() {
		v, err := graph.Render(e.Value, r)
		if err != nil {
			return Template{}, fmt.Errorf("%w: step %q env %q: %v", ErrCompile, s.ID, e.Name, err)
		}
		container.Env = append(container.Env, EnvVar{Name: e.Name, Value: v})
	}
	for _, sv := range s.Secrets() {
		container.VolumeMounts = append(container.VolumeMounts, VolumeMount{Name: sv.Name, MountPath: sv.MountPath})
	}
	tmpl.Container = container

	labels := s.Labels()
	annotations := map[string]string{"pipelines.ml/component": c.Name}
	if c.Source != "" {
		annotations["pipelines.ml/component-source"] = c.Source
	}
	tmpl.Metadata = &TemplateMetadata{Annotations: annotations}
	if len(labels) > 0 {
		tmpl.Metadata.Labels = labels
	}
	return tmpl, nil
}

// dagResolver renders references inside the entrypoint DAG.
type dagResolver struct{}

func (dagResolver) Param(p graph.ParamRef) string {
	return "{{workflow.parameters." + p.Name + "}}"
}

func (dagResolver) Output(o graph.OutputRef) string {
	return "{{tasks." + o.Step().ID + ".outputs.parameters." + o.Name() + "}}"
}

func (dagResolver) Placeholder(p graph.Placeholder) string {
	return placeholder(p)
}

// templateResolver renders values inside a container template, where only
// workflow-level variables are in scope.
type templateResolver struct{}

func (templateResolver) Param(p graph.ParamRef) string {
	return "{{workflow.parameters." + p.Name + "}}"
}

func (templateResolver) Output(o graph.OutputRef) string {
	// Build rejects step outputs outside of inputs, so this is unreachable
	// for graphs returned by Build.
	return ""
}

func (templateResolver) Placeholder(p graph.Placeholder) string {
	return placeholder(p)
}

func placeholder(p graph.Placeholder) string {
	switch p {
	case graph.RunID:
		return "{{workflow.uid}}"
	default:
		return "{{workflow." + string(p) + "}}"
	}
}

// Marshal encodes the workflow as YAML with two-space indentation.
func Marshal(wf *Workflow) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(wf); err != nil {
		return nil, fmt.Errorf("encode workflow: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode workflow: %w", err)
	}
	return buf.Bytes(), nil
}

// MarshalJSON encodes the workflow as indented JSON.
func MarshalJSON(wf *Workflow) ([]byte, error) {
	return json.MarshalIndent(wf, "", "  ")
}

// Unmarshal decodes a workflow previously produced by Marshal.
func Unmarshal(data []byte) (*Workflow, error) {
	var wf Workflow
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("decode workflow: %w", err)
	}
	if wf.Kind != KindName {
		return nil, fmt.Errorf("%w: kind %q is not %s", ErrCompile, wf.Kind, KindName)
	}
	return &wf, nil
}
