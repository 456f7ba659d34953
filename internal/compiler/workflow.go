package compiler

// Workflow is the subset of the Argo Workflow resource the compiler emits.
type Workflow struct {
	APIVersion string   `yaml:"apiVersion" json:"apiVersion"`
	Kind       string   `yaml:"kind" json:"kind"`
	Metadata   Metadata `yaml:"metadata" json:"metadata"`
	Spec       Spec     `yaml:"spec" json:"spec"`
}

type Metadata struct {
	Name         string            `yaml:"name,omitempty" json:"name,omitempty"`
	GenerateName string            `yaml:"generateName,omitempty" json:"generateName,omitempty"`
	Annotations  map[string]string `yaml:"annotations,omitempty" json:"annotations,omitempty"`
	Labels       map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
}

type Spec struct {
	Entrypoint         string     `yaml:"entrypoint" json:"entrypoint"`
	ServiceAccountName string     `yaml:"serviceAccountName,omitempty" json:"serviceAccountName,omitempty"`
	Arguments          Arguments  `yaml:"arguments,omitempty" json:"arguments,omitempty"`
	Templates          []Template `yaml:"templates" json:"templates"`
	Volumes            []Volume   `yaml:"volumes,omitempty" json:"volumes,omitempty"`
}

type Arguments struct {
	Parameters []Parameter `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	Artifacts  []Artifact  `yaml:"artifacts,omitempty" json:"artifacts,omitempty"`
}

// Parameter is a named string value. A nil Value on a workflow argument
// must be supplied at submission.
type Parameter struct {
	Name      string     `yaml:"name" json:"name"`
	Value     *string    `yaml:"value,omitempty" json:"value,omitempty"`
	ValueFrom *ValueFrom `yaml:"valueFrom,omitempty" json:"valueFrom,omitempty"`
}

type ValueFrom struct {
	Path string `yaml:"path" json:"path"`
}

type Artifact struct {
	Name string `yaml:"name" json:"name"`
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
	From string `yaml:"from,omitempty" json:"from,omitempty"`
}

type Template struct {
	Name      string            `yaml:"name" json:"name"`
	Metadata  *TemplateMetadata `yaml:"metadata,omitempty" json:"metadata,omitempty"`
	Inputs    *IO               `yaml:"inputs,omitempty" json:"inputs,omitempty"`
	Outputs   *IO               `yaml:"outputs,omitempty" json:"outputs,omitempty"`
	Container *Container        `yaml:"container,omitempty" json:"container,omitempty"`
	DAG       *DAG              `yaml:"dag,omitempty" json:"dag,omitempty"`
}

type TemplateMetadata struct {
	Labels      map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
	Annotations map[string]string `yaml:"annotations,omitempty" json:"annotations,omitempty"`
}

// IO holds template inputs or outputs.
type IO struct {
	Parameters []Parameter `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	Artifacts  []Artifact  `yaml:"artifacts,omitempty" json:"artifacts,omitempty"`
}

type Container struct {
	Image        string        `yaml:"image" json:"image"`
	Command      []string      `yaml:"command,omitempty" json:"command,omitempty"`
	Args         []string      `yaml:"args,omitempty" json:"args,omitempty"`
	Env          []EnvVar      `yaml:"env,omitempty" json:"env,omitempty"`
	VolumeMounts []VolumeMount `yaml:"volumeMounts,omitempty" json:"volumeMounts,omitempty"`
}

type EnvVar struct {
	Name  string `yaml:"name" json:"name"`
	Value string `yaml:"value" json:"value"`
}

type VolumeMount struct {
	Name      string `yaml:"name" json:"name"`
	MountPath string `yaml:"mountPath" json:"mountPath"`
}

type Volume struct {
	Name   string              `yaml:"name" json:"name"`
	Secret *SecretVolumeSource `yaml:"secret,omitempty" json:"secret,omitempty"`
}

type SecretVolumeSource struct {
	SecretName string `yaml:"secretName" json:"secretName"`
}

type DAG struct {
	Tasks []DAGTask `yaml:"tasks" json:"tasks"`
}

type DAGTask struct {
	Name         string     `yaml:"name" json:"name"`
	Template     string     `yaml:"template" json:"template"`
	Dependencies []string   `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
	When         string     `yaml:"when,omitempty" json:"when,omitempty"`
	Arguments    *Arguments `yaml:"arguments,omitempty" json:"arguments,omitempty"`
}

// Template looks up a template by name.
func (w *Workflow) Template(name string) (*Template, bool) {
	for i := range w.Spec.Templates {
		if w.Spec.Templates[i].Name == name {
			return &w.Spec.Templates[i], true
		}
	}
	return nil, false
}

// Task looks up a task of the entrypoint DAG.
func (w *Workflow) Task(name string) (*DAGTask, bool) {
	entry, ok := w.Template(w.Spec.Entrypoint)
	if !ok || entry.DAG == nil {
		return nil, false
	}
	for i := range entry.DAG.Tasks {
		if entry.DAG.Tasks[i].Name == name {
			return &entry.DAG.Tasks[i], true
		}
	}
	return nil, false
}
