package afcl

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// scalar accepts any YAML scalar as text: loop bounds and case labels are
// written both as numbers and as strings.
type scalar string

func (s *scalar) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar", node.Line)
	}
	if node.Tag == "!!null" {
		*s = ""
		return nil
	}
	*s = scalar(node.Value)
	return nil
}

// flag accepts true/false as booleans or strings.
type flag bool

func (f *flag) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a boolean", node.Line)
	}
	if node.Tag == "!!null" || node.Value == "" {
		*f = false
		return nil
	}
	b, err := strconv.ParseBool(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid boolean %q", node.Line, node.Value)
	}
	*f = flag(b)
	return nil
}

type workflowDoc struct {
	Name         string       `yaml:"name"`
	DataIns      []dataInDoc  `yaml:"dataIns"`
	DataOuts     []dataOutDoc `yaml:"dataOuts"`
	WorkflowBody []entryDoc   `yaml:"workflowBody"`
}

type nameValueDoc struct {
	Name  string `yaml:"name"`
	Value scalar `yaml:"value"`
}

type dataInDoc struct {
	Name        string         `yaml:"name"`
	Type        string         `yaml:"type"`
	Source      string         `yaml:"source"`
	Passing     flag           `yaml:"passing"`
	Constraints []nameValueDoc `yaml:"constraints"`
}

type dataOutDoc struct {
	Name        string         `yaml:"name"`
	Type        string         `yaml:"type"`
	Source      string         `yaml:"source"`
	Passing     flag           `yaml:"passing"`
	Constraints []nameValueDoc `yaml:"constraints"`
}

// entryDoc is one body entry; exactly one field is expected to be set.
type entryDoc struct {
	Function    *functionDoc    `yaml:"function"`
	If          *ifDoc          `yaml:"if"`
	Switch      *switchDoc      `yaml:"switch"`
	Parallel    *parallelDoc    `yaml:"parallel"`
	ParallelFor *parallelForDoc `yaml:"parallelFor"`
	Sequence    *sequenceDoc    `yaml:"sequence"`
}

type functionDoc struct {
	Name       string         `yaml:"name"`
	Type       string         `yaml:"type"`
	DataIns    []dataInDoc    `yaml:"dataIns"`
	DataOuts   []dataOutDoc   `yaml:"dataOuts"`
	Properties []nameValueDoc `yaml:"properties"`
}

type comparisonDoc struct {
	Data1    scalar `yaml:"data1"`
	Data2    scalar `yaml:"data2"`
	Operator string `yaml:"operator"`
	Negation flag   `yaml:"negation"`
}

type conditionDoc struct {
	CombinedWith string          `yaml:"combinedWith"`
	Conditions   []comparisonDoc `yaml:"conditions"`
}

type ifDoc struct {
	Name       string         `yaml:"name"`
	DataIns    []dataInDoc    `yaml:"dataIns"`
	Condition  conditionDoc   `yaml:"condition"`
	Then       []entryDoc     `yaml:"then"`
	Else       []entryDoc     `yaml:"else"`
	DataOuts   []dataOutDoc   `yaml:"dataOuts"`
	Properties []nameValueDoc `yaml:"properties"`
}

type dataEvalDoc struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
	Source string `yaml:"source"`
}

type caseDoc struct {
	Value     scalar     `yaml:"value"`
	Functions []entryDoc `yaml:"functions"`
}

type switchDoc struct {
	Name       string         `yaml:"name"`
	DataIns    []dataInDoc    `yaml:"dataIns"`
	DataEval   dataEvalDoc    `yaml:"dataEval"`
	Cases      []caseDoc      `yaml:"cases"`
	Default    []entryDoc     `yaml:"default"`
	DataOuts   []dataOutDoc   `yaml:"dataOuts"`
	Properties []nameValueDoc `yaml:"properties"`
}

type sectionDoc struct {
	Section []entryDoc `yaml:"section"`
}

type parallelDoc struct {
	Name         string         `yaml:"name"`
	DataIns      []dataInDoc    `yaml:"dataIns"`
	ParallelBody []sectionDoc   `yaml:"parallelBody"`
	DataOuts     []dataOutDoc   `yaml:"dataOuts"`
	Properties   []nameValueDoc `yaml:"properties"`
}

type loopCounterDoc struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	From scalar `yaml:"from"`
	To   scalar `yaml:"to"`
	Step scalar `yaml:"step"`
}

type parallelForDoc struct {
	Name        string         `yaml:"name"`
	DataIns     []dataInDoc    `yaml:"dataIns"`
	LoopCounter loopCounterDoc `yaml:"loopCounter"`
	LoopBody    []entryDoc     `yaml:"loopBody"`
	DataOuts    []dataOutDoc   `yaml:"dataOuts"`
	Properties  []nameValueDoc `yaml:"properties"`
}

type sequenceDoc struct {
	Name         string     `yaml:"name"`
	SequenceBody []entryDoc `yaml:"sequenceBody"`
}
