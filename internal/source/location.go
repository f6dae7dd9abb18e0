package source

import (
	"bufio"
	"fmt"
	"os"
)

// Location is a span of source text between two positions in a file.
type Location struct {
	Start    Position
	End      Position
	Filename string
}

// NewLocation builds a Location from two positions.
func NewLocation(filename string, start, end Position) Location {
	return Location{Filename: filename, Start: start, End: end}
}

// Merge returns the smallest Location spanning both a and b.
func Merge(a, b Location) Location {
	loc := a
	if b.Start.Index < loc.Start.Index {
		loc.Start = b.Start
	}
	if b.End.Index > loc.End.Index {
		loc.End = b.End
	}
	return loc
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.Filename, l.Start.Line, l.Start.Column)
}

// GetSourceLinesRange reads only the requested 1-based, inclusive line
// range from filepath. Used to render diagnostic snippets without
// buffering whole files.
func GetSourceLinesRange(filepath string, startLine, endLine int) ([]string, error) {
	if startLine < 1 || endLine < startLine {
		return nil, fmt.Errorf("invalid line range: %d-%d", startLine, endLine)
	}

	file, err := os.Open(filepath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lines := make([]string, 0, endLine-startLine+1)
	current := 0
	for scanner.Scan() {
		current++
		if current < startLine {
			continue
		}
		if current > endLine {
			break
		}
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
