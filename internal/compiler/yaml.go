package compiler

import (
	"bytes"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/OxanaKozlova/workflow/internal/ir"
)

// yamlFile is the top-level shape of a YAML definition file.
type yamlFile struct {
	Workflows map[string]yamlWorkflow `yaml:"workflows"`
}

type yamlWorkflow struct {
	Type         string            `yaml:"type"`
	MarkingStore string            `yaml:"marking_store"`
	InitialPlace string            `yaml:"initial_place"`
	Places       []string          `yaml:"places"`
	Transitions  []yamlTransition  `yaml:"transitions"`
	Metadata     map[string]string `yaml:"metadata"`
}

type yamlTransition struct {
	Name  string     `yaml:"name"`
	From  stringList `yaml:"from"`
	To    stringList `yaml:"to"`
	Guard string     `yaml:"guard"`
}

// stringList decodes either a scalar or a sequence of strings.
type stringList []string

func (l *stringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*l = stringList{node.Value}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	default:
		return fmt.Errorf("line %d: expected a string or a list of strings", node.Line)
	}
}

// ParseYAML decodes a YAML definition file:
//
//	workflows:
//	  article:
//	    type: workflow
//	    initial_place: draft
//	    places: [draft, review, published]
//	    transitions:
//	      - name: to_review
//	        from: draft
//	        to: review
//
// Unknown fields are rejected to catch typos. Specs are returned sorted by
// workflow name.
func ParseYAML(data []byte) ([]ir.WorkflowSpec, error) {
	var file yamlFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, &CompileError{Field: "yaml", Message: err.Error()}
	}

	if len(file.Workflows) == 0 {
		return nil, &CompileError{Field: "workflows", Message: "no workflow declared"}
	}

	specs := make([]ir.WorkflowSpec, 0, len(file.Workflows))
	for name, wf := range file.Workflows {
		if len(wf.Places) == 0 {
			return nil, &CompileError{
				Field:   fmt.Sprintf("workflows.%s.places", name),
				Message: "places are required",
			}
		}

		spec := ir.WorkflowSpec{
			Name:         name,
			Type:         wf.Type,
			MarkingStore: wf.MarkingStore,
			InitialPlace: wf.InitialPlace,
			Places:       wf.Places,
			Metadata:     wf.Metadata,
		}
		if spec.Type == "" {
			spec.Type = ir.TypeWorkflow
		}
		for i, t := range wf.Transitions {
			if t.Name == "" {
				return nil, &CompileError{
					Field:   fmt.Sprintf("workflows.%s.transitions[%d].name", name, i),
					Message: "transition name is required",
				}
			}
			spec.Transitions = append(spec.Transitions, ir.TransitionSpec{
				Name:  t.Name,
				From:  []string(t.From),
				To:    []string(t.To),
				Guard: t.Guard,
			})
		}
		specs = append(specs, spec)
	}

	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs, nil
}
