package eventlog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeKinds(t *testing.T) {
	a := Activity("A")
	m := MetaState("A", "B")

	assert.True(t, a.IsActivity())
	assert.True(t, m.IsMetaState())
	assert.True(t, Start.IsSentinel())
	assert.True(t, End.IsSentinel())

	// A literal "start" activity is not the sentinel
	assert.NotEqual(t, Start, Activity("start"))
	assert.Equal(t, "start", Start.String())
	assert.Equal(t, "(A, B)", m.String())
}

func TestMetaStateMembers(t *testing.T) {
	m := MetaState("A", "B", "C")
	assert.Equal(t, []Node{Activity("A"), Activity("B"), Activity("C")}, m.Members())
	assert.Equal(t, 3, m.Len())
	assert.True(t, m.Contains(Activity("B")))
	assert.False(t, m.Contains(Activity("D")))

	same, ok := MetaStateOf([]Node{Activity("A"), Activity("B"), Activity("C")})
	require.True(t, ok)
	assert.Equal(t, m, same)

	_, ok = MetaStateOf([]Node{Activity("A"), m})
	assert.False(t, ok)
}

func TestCompareOrdersSentinelsOutside(t *testing.T) {
	nodes := []Node{End, MetaState("A", "B"), Activity("B"), Start, Activity("A")}
	SortNodes(nodes)
	assert.Equal(t, []Node{Start, Activity("A"), Activity("B"), MetaState("A", "B"), End}, nodes)
}

func TestNewLog(t *testing.T) {
	l, err := New(map[string][]string{
		"2": {"A", "C"},
		"1": {"A", "B", "C"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2"}, l.Cases())
	assert.Equal(t, 2, l.CaseCount())
	assert.Equal(t, 5, l.EventCount())
	assert.Equal(t, []Node{Activity("A"), Activity("B"), Activity("C")}, l.Activities())
	assert.Equal(t, Trace{Activity("A"), Activity("C")}, l.Trace("2"))
	assert.Nil(t, l.Trace("missing"))

	freq := l.CaseFrequencies()
	assert.Equal(t, 2, freq[Activity("A")])
	assert.Equal(t, 1, freq[Activity("B")])
}

func TestNewLogRejectsEmptyTrace(t *testing.T) {
	_, err := New(map[string][]string{"1": {}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyTrace))
}

func TestNewLogRejectsSeparatorInLabel(t *testing.T) {
	_, err := New(map[string][]string{"1": {"A", "B\x1fC"}})
	assert.ErrorIs(t, err, ErrInvalidLabel)

	_, err = ReadCSV(strings.NewReader("case,activity\n1,A\x1fB\n"), DefaultCSVOptions())
	assert.ErrorIs(t, err, ErrInvalidLabel)

	// Meta-state events keep their members apart
	l, err := FromTraces(map[string]Trace{"1": {MetaState("A", "B"), Activity("C")}})
	require.NoError(t, err)
	assert.Equal(t, []Node{Activity("A"), Activity("B")}, l.Trace("1")[0].Members())
}

func TestFromTracesCopies(t *testing.T) {
	src := Trace{Activity("A"), Activity("B")}
	l, err := FromTraces(map[string]Trace{"1": src})
	require.NoError(t, err)

	src[0] = Activity("Z")
	assert.Equal(t, Activity("A"), l.Trace("1")[0])

	_, err = FromTraces(map[string]Trace{"1": {Start, Activity("A")}})
	assert.ErrorIs(t, err, ErrSentinelEvent)
}

func TestReadCSV(t *testing.T) {
	data := "case,activity,ts\n1,A,t1\n1,B,t2\n2,A,t3\n1,C,t4\n"
	l, err := ReadCSV(strings.NewReader(data), DefaultCSVOptions())
	require.NoError(t, err)

	assert.Equal(t, Trace{Activity("A"), Activity("B"), Activity("C")}, l.Trace("1"))
	assert.Equal(t, Trace{Activity("A")}, l.Trace("2"))
}

func TestReadCSVCustomColumns(t *testing.T) {
	data := "A;1\nB;1\n"
	l, err := ReadCSV(strings.NewReader(data), CSVOptions{CaseColumn: 1, ActivityColumn: 0, Comma: ';'})
	require.NoError(t, err)
	assert.Equal(t, Trace{Activity("A"), Activity("B")}, l.Trace("1"))
}

func TestReadCSVMissingColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("case,activity\n1\n"), DefaultCSVOptions())
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	require.NoError(t, os.WriteFile(path, []byte("case,activity\n1,A\n1,B\n2,A\n"), 0o600))

	l, err := LoadCSV(path, DefaultCSVOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, l.Cases())
	assert.Equal(t, 3, l.EventCount())

	_, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"), DefaultCSVOptions())
	assert.ErrorContains(t, err, "open log")
}
