package corpus

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/happyhackingspace/seqtag/crf"
)

const labeled = `w=john shape=Xxxx	B-PER
w=smith shape=Xxxx	I-PER

w=london shape=Xxxx	B-LOC
`

func TestRead(t *testing.T) {
	examples, err := Read(strings.NewReader(labeled))
	require.NoError(t, err)
	require.Len(t, examples, 2)

	assert.Equal(t, [][]string{{"w=john", "shape=Xxxx"}, {"w=smith", "shape=Xxxx"}}, examples[0].Features)
	assert.Equal(t, []string{"B-PER", "I-PER"}, examples[0].Labels)
	assert.Equal(t, []string{"B-LOC"}, examples[1].Labels)
}

func TestReadMissingLabel(t *testing.T) {
	_, err := Read(strings.NewReader("w=john shape=Xxxx\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestReadTrailingBlankLines(t *testing.T) {
	examples, err := Read(strings.NewReader("f\tL\n\n\n\n"))
	require.NoError(t, err)
	require.Len(t, examples, 1)
}

func TestReadUnlabeled(t *testing.T) {
	sequences, err := ReadUnlabeled(strings.NewReader("f1 f2\nf3\n\nf4\n"))
	require.NoError(t, err)
	require.Len(t, sequences, 2)
	assert.Equal(t, [][]string{{"f1", "f2"}, {"f3"}}, sequences[0])

	// Labeled input is accepted too; the label column is dropped.
	sequences, err = ReadUnlabeled(strings.NewReader(labeled))
	require.NoError(t, err)
	require.Len(t, sequences, 2)
	assert.Equal(t, [][]string{{"w=london", "shape=Xxxx"}}, sequences[1])
}

func TestWriteReadRoundTrip(t *testing.T) {
	examples := []crf.Example{
		{
			Features: [][]string{{"a", "b"}, {"c"}},
			Labels:   []string{"X", "Y"},
		},
		{
			Features: [][]string{{"d"}},
			Labels:   []string{"Z"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, examples))

	parsed, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, examples, parsed)
}

func TestWriteRejectsMismatch(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, []crf.Example{{
		Features: [][]string{{"a"}, {"b"}},
		Labels:   []string{"X"},
	}})
	assert.ErrorIs(t, err, crf.ErrLengthMismatch)
}
