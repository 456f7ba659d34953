package graph

// Kind tells how a port's data travels between steps.
type Kind string

const (
	// KindParameter ports carry small string-serialisable values.
	KindParameter Kind = "parameter"
	// KindArtifact ports carry artifact URIs produced and consumed by components.
	KindArtifact Kind = "artifact"
)

// Port is a declared input or output of a component.
type Port struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Kind     Kind   `json:"kind"`
	Optional bool   `json:"optional,omitempty"`
	Default  any    `json:"default,omitempty"`
}

// Required reports whether an input port must be bound.
func (p Port) Required() bool {
	return !p.Optional && p.Default == nil
}

// Component is an opaque unit of work with a declared interface. Its
// implementation lives in a container image owned by someone else.
type Component struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Source      string   `json:"source,omitempty"` // registry URL the definition was resolved from
	Image       string   `json:"image"`
	Command     []string `json:"command,omitempty"`
	Inputs      []Port   `json:"inputs"`
	Outputs     []Port   `json:"outputs"`
}

// Input looks up a declared input port.
func (c *Component) Input(name string) (Port, bool) {
	for _, p := range c.Inputs {
		if p.Name == name {
			return p, true
		}
	}
	return Port{}, false
}

// Output looks up a declared output port.
func (c *Component) Output(name string) (Port, bool) {
	for _, p := range c.Outputs {
		if p.Name == name {
			return p, true
		}
	}
	return Port{}, false
}

// Clone returns a deep copy so registries can hand out independent definitions.
func (c *Component) Clone() *Component {
	out := *c
	out.Command = append([]string(nil), c.Command...)
	out.Inputs = append([]Port(nil), c.Inputs...)
	out.Outputs = append([]Port(nil), c.Outputs...)
	return &out
}
