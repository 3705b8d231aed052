// Package problemio reads and writes QUBO problems in the on-disk formats the
// command line and HTTP API accept.
package problemio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/dthelegend/diss/internal/reduce"
	"github.com/dthelegend/diss/pkg/qbin"
	"github.com/dthelegend/diss/pkg/qubo"
	"github.com/dthelegend/diss/pkg/sat"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatQBin Format = "qbin"
	FormatCNF  Format = "cnf"
)

var (
	ErrUnknownFormat = errors.New("problemio: unknown problem format")
	ErrInvalidTerm   = errors.New("problemio: invalid term")
	ErrNoProblem     = errors.New("problemio: no problem to write")
)

// FormatOf picks the format from the extension of path.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".qbin":
		return FormatQBin, nil
	case ".cnf", ".dimacs":
		return FormatCNF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, path)
	}
}

// Document is the text form of a problem: a size and a list of
// [i, j, value] triplets. Triplets at the same folded position are summed.
type Document struct {
	Size  int       `json:"size" yaml:"size"`
	Terms [][]int64 `json:"terms" yaml:"terms,flow"`
}

// NewDocument lists the non-zero coefficients of p.
func NewDocument(p *qubo.Problem) Document {
	terms := p.Terms()
	doc := Document{Size: p.Size(), Terms: make([][]int64, len(terms))}
	for k, t := range terms {
		doc.Terms[k] = []int64{int64(t.I), int64(t.J), int64(t.V)}
	}
	return doc
}

// TermError reports the document term at Index that failed validation.
type TermError struct {
	Index int
	Err   error
}

func (e *TermError) Error() string {
	return fmt.Sprintf("%v %d: %v", ErrInvalidTerm, e.Index, e.Err)
}

func (e *TermError) Unwrap() []error {
	return []error{ErrInvalidTerm, e.Err}
}

// Problem builds the problem the document describes.
func (d Document) Problem() (*qubo.Problem, error) {
	terms := make([]qubo.Term, len(d.Terms))
	for k, raw := range d.Terms {
		if len(raw) != 3 {
			return nil, &TermError{Index: k, Err: fmt.Errorf("want [i, j, value], got %d entries", len(raw))}
		}
		if raw[0] < 0 || raw[1] < 0 || raw[0] >= int64(d.Size) || raw[1] >= int64(d.Size) {
			return nil, &TermError{Index: k, Err: fmt.Errorf("index (%d, %d) outside size %d", raw[0], raw[1], d.Size)}
		}
		v, err := qubo.FromInt64(raw[2])
		if err != nil {
			return nil, &TermError{Index: k, Err: err}
		}
		terms[k] = qubo.Term{I: int(raw[0]), J: int(raw[1]), V: v}
	}
	return qubo.FromTriplets(d.Size, terms)
}

func DecodeJSON(r io.Reader) (*qubo.Problem, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("problemio: decode json: %w", err)
	}
	return doc.Problem()
}

func EncodeJSON(w io.Writer, p *qubo.Problem) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewDocument(p)); err != nil {
		return fmt.Errorf("problemio: encode json: %w", err)
	}
	return nil
}

func DecodeYAML(r io.Reader) (*qubo.Problem, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("problemio: decode yaml: %w", err)
	}
	return doc.Problem()
}

func EncodeYAML(w io.Writer, p *qubo.Problem) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(p)); err != nil {
		return fmt.Errorf("problemio: encode yaml: %w", err)
	}
	return enc.Close()
}

// Decode reads a problem in format f. CNF input is reduced to a QUBO and
// the reduction is discarded; use Load to keep it.
func Decode(r io.Reader, f Format) (*qubo.Problem, error) {
	switch f {
	case FormatJSON:
		return DecodeJSON(r)
	case FormatYAML:
		return DecodeYAML(r)
	case FormatCNF:
		p, err := sat.Parse(r)
		if err != nil {
			return nil, err
		}
		q, _, err := reduce.Nusslein23{}.Reduce(p)
		return q, err
	default:
		return nil, fmt.Errorf("%w: %q cannot be streamed", ErrUnknownFormat, f)
	}
}

// Encode writes p in format f.
func Encode(w io.Writer, p *qubo.Problem, f Format) error {
	switch f {
	case FormatJSON:
		return EncodeJSON(w, p)
	case FormatYAML:
		return EncodeYAML(w, p)
	case FormatQBin:
		return qbin.Write(w, p)
	default:
		return fmt.Errorf("%w: %q cannot be written", ErrUnknownFormat, f)
	}
}

// Source is a loaded problem. SAT and Model are set when the file held a
// CNF formula, so solutions can be mapped back to its variables. A formula
// that reduce.Trivial decides has no Problem.
type Source struct {
	Path    string
	Format  Format
	Problem *qubo.Problem
	SAT     *sat.Problem
	Model   reduce.Model
}

// Load reads the problem stored at path, choosing the decoder by extension.
// CNF formulas are reduced with Nusslein23.
func Load(path string) (*Source, error) {
	return LoadWith(path, reduce.Nusslein23{})
}

// LoadWith is Load with the reduction applied to CNF formulas.
func LoadWith(path string, r reduce.Reduction) (*Source, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	src := &Source{Path: path, Format: f}
	if f == FormatQBin {
		if src.Problem, err = qbin.Load(path); err != nil {
			return nil, err
		}
		return src, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	switch f {
	case FormatCNF:
		if src.SAT, err = sat.Parse(file); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if _, ok := reduce.Trivial(src.SAT); ok {
			break
		}
		if src.Problem, src.Model, err = r.Reduce(src.SAT); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	default:
		if src.Problem, err = Decode(file, f); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return src, nil
}

// Save writes p to path in the format its extension names.
func Save(path string, p *qubo.Problem) (err error) {
	if p == nil {
		return ErrNoProblem
	}
	f, err := FormatOf(path)
	if err != nil {
		return err
	}
	if f == FormatQBin {
		return qbin.WriteFile(path, p)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return Encode(file, p, f)
}
