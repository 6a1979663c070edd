// Package corpus reads and writes sequence labeling corpora in a plain
// text format: one position per line, sequences separated by blank
// lines. A labeled line is whitespace-separated feature strings, a tab,
// and the gold label; an unlabeled line omits the tab and label.
package corpus

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/happyhackingspace/seqtag/crf"
)

// ReadFile parses a labeled corpus file.
func ReadFile(path string) ([]crf.Example, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	examples, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return examples, nil
}

// Read parses labeled sequences from r.
func Read(r io.Reader) ([]crf.Example, error) {
	var examples []crf.Example
	var current crf.Example

	flush := func() {
		if len(current.Labels) > 0 {
			examples = append(examples, current)
			current = crf.Example{}
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		features, label, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, fmt.Errorf("line %d: missing tab-separated label", lineNo)
		}
		label = strings.TrimSpace(label)
		if label == "" {
			return nil, fmt.Errorf("line %d: empty label", lineNo)
		}
		current.Features = append(current.Features, strings.Fields(features))
		current.Labels = append(current.Labels, label)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return examples, nil
}

// ReadUnlabeledFile parses a corpus file of feature sequences without
// labels.
func ReadUnlabeledFile(path string) ([][][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	sequences, err := ReadUnlabeled(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sequences, nil
}

// ReadUnlabeled parses unlabeled feature sequences from r. Any label
// column present is ignored, so labeled files can be tagged too.
func ReadUnlabeled(r io.Reader) ([][][]string, error) {
	var sequences [][][]string
	var current [][]string

	flush := func() {
		if len(current) > 0 {
			sequences = append(sequences, current)
			current = nil
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		features, _, _ := strings.Cut(line, "\t")
		current = append(current, strings.Fields(features))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return sequences, nil
}

// Write serializes labeled examples in the same format Read parses.
func Write(w io.Writer, examples []crf.Example) error {
	bw := bufio.NewWriter(w)
	for i, ex := range examples {
		if len(ex.Features) != len(ex.Labels) {
			return fmt.Errorf("example %d: %w", i, crf.ErrLengthMismatch)
		}
		if i > 0 {
			if _, err := bw.WriteString("\n"); err != nil {
				return err
			}
		}
		for t := range ex.Labels {
			line := strings.Join(ex.Features[t], " ") + "\t" + ex.Labels[t] + "\n"
			if _, err := bw.WriteString(line); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
