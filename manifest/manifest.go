// Package manifest reads container definitions.
//
// A manifest has one container per line, as seven whitespace separated
// integers:
//
//	identifier size value arrival_start arrival_end delivery_start delivery_end
//
// The order of the lines is the order in which the containers arrive.
package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/yardsim/yard"
)

// MaxSize is the largest container size the yard layout supports.
const MaxSize = 4

const numFields = 7

// Read decodes all the containers of a manifest.
func Read(r io.Reader) ([]yard.Container, error) {
	var containers []yard.Container

	seen := make(map[int]bool)
	sc := bufio.NewScanner(r)

	line := 0
	for sc.Scan() {
		line++

		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}

		c, err := ParseLine(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		if seen[c.ID] {
			return nil, fmt.Errorf("line %d: %w: duplicated container %d",
				line, yard.ErrTypeMismatch, c.ID)
		}

		seen[c.ID] = true
		containers = append(containers, c)
	}

	if err := sc.Err(); err != nil {
		return nil, err
	}

	return containers, nil
}

// ReadFile decodes the manifest at path.
func ReadFile(path string) ([]yard.Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	containers, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return containers, nil
}

// ParseLine decodes one container.
func ParseLine(line string) (yard.Container, error) {
	tokens := strings.Fields(line)
	if len(tokens) != numFields {
		return yard.Container{}, fmt.Errorf(
			"%w: expected %d integers, got %d fields",
			yard.ErrTypeMismatch, numFields, len(tokens))
	}

	var v [numFields]int

	for i, token := range tokens {
		n, err := strconv.Atoi(token)
		if err != nil {
			return yard.Container{}, fmt.Errorf("%w: %q is not an integer",
				yard.ErrTypeMismatch, token)
		}

		v[i] = n
	}

	c := yard.Container{
		ID:       v[0],
		Size:     v[1],
		Value:    v[2],
		Arrival:  yard.TimeRange{Start: v[3], End: v[4]},
		Delivery: yard.TimeRange{Start: v[5], End: v[6]},
	}

	if err := c.Validate(MaxSize); err != nil {
		return yard.Container{}, err
	}

	return c, nil
}

// Index maps the containers by identifier.
func Index(containers []yard.Container) map[int]yard.Container {
	index := make(map[int]yard.Container, len(containers))
	for _, c := range containers {
		index[c.ID] = c
	}

	return index
}

// Format writes the containers in manifest form.
func Format(w io.Writer, containers []yard.Container) error {
	for _, c := range containers {
		_, err := fmt.Fprintf(w, "%d %d %d %d %d %d %d\n",
			c.ID, c.Size, c.Value,
			c.Arrival.Start, c.Arrival.End,
			c.Delivery.Start, c.Delivery.End)
		if err != nil {
			return err
		}
	}

	return nil
}
