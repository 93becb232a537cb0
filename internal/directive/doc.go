// Package directive extracts test intent from the leading comment block of a
// source fixture.
//
// # Directive Format
//
// Only the comment lines at the very top of a file are inspected. Reading
// stops at the first line that does not begin with "//", so code may follow
// the block directly.
//
//	(no comment lines)        expect exit status 0, ignore output
//	// ... Error ...          expect a non-zero exit status
//	// anything else          expect exit status 0, ignore output
//	// Input: 3 4             feed "3\n4" on stdin
//	// Output: 7              expect exit status 0 and output tokens [7]
//
// A two-line block must pair an Input: line with an Output: line, in that
// order. Three or more leading comment lines are rejected. Malformed blocks
// are returned as *MalformedError and must abort discovery: a broken fixture
// is an authoring bug, not a failing test.
package directive
