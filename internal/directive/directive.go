package directive

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Directive markers recognised in the leading comment block.
const (
	CommentMarker = "//"
	InputMarker   = "Input:"
	OutputMarker  = "Output:"
	ErrorMarker   = "Error"
)

// Shape classifies which kind of directive block a file carries.
type Shape int

const (
	// ShapeNone means the file has no leading comment lines.
	ShapeNone Shape = iota
	// ShapeSingle means exactly one leading comment line.
	ShapeSingle
	// ShapePaired means an Input:/Output: pair.
	ShapePaired
)

func (s Shape) String() string {
	switch s {
	case ShapeNone:
		return "none"
	case ShapeSingle:
		return "single"
	case ShapePaired:
		return "paired"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// ErrMalformed is matched by every *MalformedError via errors.Is.
var ErrMalformed = errors.New("malformed directive block")

// MalformedError reports a fixture whose leading comment block does not fit
// any supported directive shape.
type MalformedError struct {
	Path   string
	Lines  int    // number of leading comment lines found
	Reason string // what is wrong with the block
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("%s: %s (%d leading comment lines)", e.Path, e.Reason, e.Lines)
}

// Is makes errors.Is(err, ErrMalformed) hold for any MalformedError.
func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformed
}

// TestCase is the parsed intent of one fixture.
//
// A nil Inputs or Expected slice means the directive was not declared at all;
// a non-nil empty slice means the marker was present with no tokens. The two
// cases are kept distinct.
type TestCase struct {
	Path       string
	Inputs     []string
	Expected   []string
	ShouldFail bool
}

// HasInputs reports whether an Input: directive was declared.
func (tc TestCase) HasInputs() bool {
	return tc.Inputs != nil
}

// HasExpected reports whether an Output: directive was declared.
func (tc TestCase) HasExpected() bool {
	return tc.Expected != nil
}

// Shape returns the directive shape this test case was parsed from.
func (tc TestCase) Shape() Shape {
	switch {
	case tc.HasInputs() || tc.HasExpected():
		return ShapePaired
	case tc.ShouldFail:
		return ShapeSingle
	default:
		return ShapeNone
	}
}

// Stdin returns the input tokens joined by newlines.
func (tc TestCase) Stdin() string {
	return strings.Join(tc.Inputs, "\n")
}

func (tc TestCase) String() string {
	return fmt.Sprintf("TestCase(%s, inputs=%v, expected=%v, should_fail=%t)",
		tc.Path, tc.Inputs, tc.Expected, tc.ShouldFail)
}

// ParseFile opens path and parses its directive block.
func ParseFile(path string) (TestCase, error) {
	f, err := os.Open(path)
	if err != nil {
		return TestCase{}, fmt.Errorf("open test file: %w", err)
	}
	defer f.Close()

	return Parse(path, f)
}

// Parse reads the leading comment block from r and classifies it.
// path is recorded in the returned TestCase and in any error.
func Parse(path string, r io.Reader) (TestCase, error) {
	comments, err := leadingComments(r)
	if err != nil {
		return TestCase{}, fmt.Errorf("read %s: %w", path, err)
	}

	tc := TestCase{Path: path}

	switch len(comments) {
	case 0:
		return tc, nil
	case 1:
		tc.ShouldFail = strings.Contains(comments[0], ErrorMarker)
		return tc, nil
	case 2:
		if !strings.Contains(comments[0], InputMarker) || !strings.Contains(comments[1], OutputMarker) {
			return TestCase{}, &MalformedError{
				Path:   path,
				Lines:  2,
				Reason: "non-paired input/output directives",
			}
		}
		tc.Inputs = tokens(comments[0], InputMarker)
		tc.Expected = tokens(comments[1], OutputMarker)
		return tc, nil
	default:
		return TestCase{}, &MalformedError{
			Path:   path,
			Lines:  len(comments),
			Reason: "heading comment is invalid",
		}
	}
}

// leadingComments returns the text after "//" for each line of the leading
// comment block. Only comment lines are read in full; the first code line is
// inspected through its prefix, so its length does not matter.
func leadingComments(r io.Reader) ([]string, error) {
	var comments []string

	br := bufio.NewReader(r)
	for {
		prefix, err := br.Peek(len(CommentMarker))
		if err != nil || string(prefix) != CommentMarker {
			if err != nil && !errors.Is(err, io.EOF) {
				return nil, err
			}
			break
		}

		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
		comments = append(comments, strings.TrimPrefix(line, CommentMarker))
		if err != nil {
			break
		}
	}

	return comments, nil
}

// tokens strips every occurrence of marker and splits the rest on whitespace.
// The result is never nil, so a bare marker yields an empty, declared list.
func tokens(line, marker string) []string {
	fields := strings.Fields(strings.ReplaceAll(line, marker, ""))
	if fields == nil {
		return []string{}
	}
	return fields
}

// Format renders the directive block that Parse would classify as tc.
// Paths are not part of the block and are ignored.
func Format(tc TestCase) string {
	switch tc.Shape() {
	case ShapePaired:
		var b strings.Builder
		b.WriteString(CommentMarker + " " + InputMarker)
		for _, tok := range tc.Inputs {
			b.WriteString(" " + tok)
		}
		b.WriteString("\n" + CommentMarker + " " + OutputMarker)
		for _, tok := range tc.Expected {
			b.WriteString(" " + tok)
		}
		b.WriteString("\n")
		return b.String()
	case ShapeSingle:
		return CommentMarker + " " + ErrorMarker + "\n"
	default:
		return ""
	}
}
