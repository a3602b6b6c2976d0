package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	apperrors "github.com/agbru/hypbound/internal/errors"
	"github.com/agbru/hypbound/internal/hypgeom"
	"github.com/agbru/hypbound/internal/mag"
)

// ProblemSpec is one entry of a batch file. Z and TK hold decimal text and
// are rounded up on conversion.
type ProblemSpec struct {
	Name string `yaml:"name" toml:"name"`
	K    int64  `yaml:"K" toml:"K"`
	A    int64  `yaml:"A" toml:"A"`
	B    int64  `yaml:"B" toml:"B"`
	R    *int   `yaml:"r" toml:"r"`
	Z    string `yaml:"z" toml:"z"`
	TK   string `yaml:"tk" toml:"tk"`
	Tol  *int64 `yaml:"tol" toml:"tol"`
}

// batchFile is the document layout shared by the YAML and TOML forms:
//
//	problems:
//	  - name: exp
//	    K: 0
//	    r: 1
//	    z: "1"
//	    tol: 64
type batchFile struct {
	Problems []ProblemSpec `yaml:"problems" toml:"problems"`
}

// NamedProblem pairs a problem with the label used in reports.
type NamedProblem struct {
	Name    string
	Problem hypgeom.Problem
}

// ToProblem converts the entry, using defaults for r, z, tk and tol when
// they are omitted.
func (s ProblemSpec) ToProblem() (hypgeom.Problem, error) {
	r := DefaultR
	if s.R != nil {
		r = *s.R
	}
	tol := int64(DefaultTol)
	if s.Tol != nil {
		tol = *s.Tol
	}
	zText, tkText := s.Z, s.TK
	if zText == "" {
		zText = DefaultZ
	}
	if tkText == "" {
		tkText = DefaultTK
	}
	z, err := mag.ParseDecimal(zText)
	if err != nil {
		return hypgeom.Problem{}, apperrors.NewValidationError("z", err.Error(), s.Z)
	}
	tk, err := mag.ParseDecimal(tkText)
	if err != nil {
		return hypgeom.Problem{}, apperrors.NewValidationError("tk", err.Error(), s.TK)
	}
	return hypgeom.Problem{
		Shape: hypgeom.Shape{K: s.K, A: s.A, B: s.B, R: r},
		TK:    tk,
		Z:     z,
		Tol:   tol,
	}, nil
}

// ParseProblems decodes a batch document. format is "yaml" or "toml".
// Unnamed entries are labelled by position.
func ParseProblems(data []byte, format string) ([]NamedProblem, error) {
	var doc batchFile
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, apperrors.NewConfigError("invalid YAML batch file: %v", err)
		}
	case "toml":
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return nil, apperrors.NewConfigError("invalid TOML batch file: %v", err)
		}
	default:
		return nil, apperrors.NewConfigError("unsupported batch format %q", format)
	}
	if len(doc.Problems) == 0 {
		return nil, apperrors.NewConfigError("batch file lists no problems")
	}

	out := make([]NamedProblem, 0, len(doc.Problems))
	for i, ps := range doc.Problems {
		p, err := ps.ToProblem()
		if err != nil {
			return nil, apperrors.NewConfigError("problem %d: %v", i+1, err)
		}
		name := ps.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i+1)
		}
		out = append(out, NamedProblem{Name: name, Problem: p})
	}
	return out, nil
}

// LoadProblems reads a batch file, choosing the decoder by extension
// (.yaml, .yml or .toml).
func LoadProblems(path string) ([]NamedProblem, error) {
	var format string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	case ".toml":
		format = "toml"
	default:
		return nil, apperrors.NewConfigError("cannot infer batch format of %q (want .yaml, .yml or .toml)", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewConfigError("reading batch file: %v", err)
	}
	return ParseProblems(data, format)
}
