package blogkb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/blogkb/pkg/blogkb/internalerr"
	"github.com/cognicore/blogkb/pkg/blogkb/kb"
	"github.com/cognicore/blogkb/pkg/blogkb/store"
	"github.com/cognicore/blogkb/pkg/blogkb/store/memstore"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func blogs() []store.SourceDocument {
	return []store.SourceDocument{
		{
			ID: "qc", Title: "Quantum Computing Explained", Topic: "Quantum Computing",
			TopicCategory: "Technology", Tags: []string{"qubits", "physics"},
			Summary: "An introduction to qubits and gates.",
			Content: "Quantum Computing is the use of quantum phenomena to perform computation. " +
				"The key idea is that qubits can hold superpositions of states at once.",
			CreatedAt: base.Add(2 * time.Hour),
		},
		{
			ID: "garden", Title: "Gardening Tips", Topic: "Gardening", TopicCategory: "Home",
			Summary:   "Soil, water and patience.",
			Content:   strings.Repeat("soil and water ", 100) + "and a quantum of patience.",
			CreatedAt: base.Add(time.Hour),
		},
		{
			ID: "bread", Title: "Baking Bread", Topic: "Baking", TopicCategory: "Home",
			Summary:   "Flour and yeast.",
			Content:   "Bread needs flour, water and yeast and an essential amount of time to rise.",
			CreatedAt: base,
		},
	}
}

func seeded(t *testing.T, opts ...memstore.Option) *memstore.Store {
	t.Helper()
	st := memstore.New(opts...)
	require.NoError(t, st.Insert(context.Background(), blogs()...))
	return st
}

type stubLLM struct {
	reply    string
	deltas   []string
	err      error
	system   string
	messages []Message
}

func (s *stubLLM) Complete(ctx context.Context, system string, messages []Message) (string, error) {
	s.system, s.messages = system, messages
	return s.reply, s.err
}

func (s *stubLLM) Stream(ctx context.Context, system string, messages []Message, onDelta func(string) error) error {
	s.system, s.messages = system, messages
	for _, d := range s.deltas {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := onDelta(d); err != nil {
			return err
		}
	}
	return s.err
}

// brokenStore fails every read.
type brokenStore struct{ *memstore.Store }

func (b brokenStore) TextSearch(context.Context, string, int) ([]store.SourceDocument, error) {
	return nil, errors.New("connection reset")
}

func (b brokenStore) Find(context.Context, store.Filter) ([]store.SourceDocument, error) {
	return nil, errors.New("connection reset")
}

func newEngine(t *testing.T, st store.Store, llm LLM) *Engine {
	t.Helper()
	e, err := New(Options{Store: st, LLM: llm})
	require.NoError(t, err)
	return e
}

func TestNewRequiresStore(t *testing.T) {
	_, err := New(Options{})
	assert.ErrorIs(t, err, internalerr.ErrInvalidConfig)
}

func TestRetrieveRanksByRelevance(t *testing.T) {
	e := newEngine(t, seeded(t), nil)

	ranked, err := e.Retrieve(context.Background(), "quantum computing applications")
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "qc", ranked[0].Doc.ID)
	assert.Equal(t, "garden", ranked[1].Doc.ID)
	assert.Greater(t, ranked[0].Breakdown.Total, ranked[1].Breakdown.Total)
}

func TestRetrieveFallsBackWithoutTextSearch(t *testing.T) {
	e := newEngine(t, seeded(t, memstore.WithoutTextSearch()), nil)

	ranked, err := e.Retrieve(context.Background(), "bread yeast")
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "bread", ranked[0].Doc.ID)

	// Only words longer than two characters reach the fallback.
	ranked, err = e.Retrieve(context.Background(), "is a")
	require.NoError(t, err)
	assert.Empty(t, ranked)
}

func TestRetrieveNoMatchIsEmpty(t *testing.T) {
	e := newEngine(t, seeded(t), nil)

	ranked, err := e.Retrieve(context.Background(), "astrophysics")
	require.NoError(t, err)
	assert.NotNil(t, ranked)
	assert.Empty(t, ranked)
}

func TestRetrieveQueryFailed(t *testing.T) {
	e := newEngine(t, brokenStore{seeded(t)}, nil)

	_, err := e.Retrieve(context.Background(), "quantum")
	require.Error(t, err)
	assert.ErrorIs(t, err, internalerr.ErrQueryFailed)
	assert.Contains(t, err.Error(), "could not process query")
}

func TestAskBuildsGroundedPrompt(t *testing.T) {
	llm := &stubLLM{reply: "## Answer\n**Quantum computing** uses `qubits`"}
	e := newEngine(t, seeded(t), llm)

	var history []Message
	for i := 0; i < 12; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		history = append(history, Message{Role: role, Content: fmt.Sprintf("turn %d", i)})
	}

	ans, err := e.Ask(context.Background(), ChatRequest{Message: "quantum computing applications", History: history})
	require.NoError(t, err)

	assert.Equal(t, "Answer\nQuantum computing uses qubits.", ans.Response)
	require.Len(t, ans.Sources, 2)
	assert.Equal(t, 2, ans.SourcesCount)
	assert.Equal(t, "Quantum Computing Explained", ans.Sources[0].Title)
	assert.Equal(t, "Quantum Computing", ans.Sources[0].Topic)
	assert.Equal(t, "Technology", ans.Sources[0].Category)
	assert.NotEmpty(t, ans.Card.ID)

	assert.Contains(t, llm.system, "Total blogs in collection: 3")
	assert.Contains(t, llm.system, "Top categories: Home (2), Technology (1)")
	assert.Contains(t, llm.system, `=== BLOG 1: "Quantum Computing Explained" ===`)
	assert.Contains(t, llm.system, "Tags: qubits, physics")
	assert.Contains(t, llm.system, "Tags: None")
	assert.Contains(t, llm.system, "Key Points:\nThe key idea is that qubits can hold superpositions of states at once.\nQuantum Computing is the use")
	assert.Contains(t, llm.system, "INSTRUCTIONS:")

	require.Len(t, llm.messages, 9)
	assert.Equal(t, "turn 4", llm.messages[0].Content)
	assert.Equal(t, Message{Role: RoleUser, Content: "quantum computing applications"}, llm.messages[8])
}

func TestAskWithoutMatches(t *testing.T) {
	llm := &stubLLM{reply: "I could not find that"}
	e := newEngine(t, seeded(t), llm)

	ans, err := e.Ask(context.Background(), ChatRequest{Message: "astrophysics"})
	require.NoError(t, err)
	assert.Equal(t, "I could not find that.", ans.Response)
	assert.Empty(t, ans.Sources)
	assert.Contains(t, llm.system, "No blogs directly match this query.")
	assert.NotContains(t, llm.system, "=== BLOG")
}

func TestAskErrors(t *testing.T) {
	e := newEngine(t, seeded(t), &stubLLM{err: errors.New("timeout")})

	_, err := e.Ask(context.Background(), ChatRequest{Message: "   "})
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)

	_, err = e.Ask(context.Background(), ChatRequest{Message: "quantum"})
	assert.ErrorIs(t, err, internalerr.ErrLLMUnavailable)

	noLLM := newEngine(t, seeded(t), nil)
	_, err = noLLM.Ask(context.Background(), ChatRequest{Message: "quantum"})
	assert.ErrorIs(t, err, internalerr.ErrLLMUnavailable)

	broken := newEngine(t, brokenStore{seeded(t)}, &stubLLM{reply: "x"})
	_, err = broken.Ask(context.Background(), ChatRequest{Message: "quantum"})
	assert.ErrorIs(t, err, internalerr.ErrQueryFailed)
}

func TestAskStream(t *testing.T) {
	llm := &stubLLM{deltas: []string{"**Qubits** ", "hold ", "superpositions"}}
	e := newEngine(t, seeded(t), llm)

	var got []string
	ans, err := e.AskStream(context.Background(), ChatRequest{Message: "quantum"}, func(d string) error {
		got = append(got, d)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, llm.deltas, got)
	assert.Equal(t, "Qubits hold superpositions.", ans.Response)
	assert.NotEmpty(t, ans.Sources)
}

func TestAskStreamCancelled(t *testing.T) {
	llm := &stubLLM{deltas: []string{"partial ", "reply"}}
	e := newEngine(t, seeded(t), llm)

	ctx, cancel := context.WithCancel(context.Background())
	ans, err := e.AskStream(ctx, ChatRequest{Message: "quantum"}, func(d string) error {
		cancel()
		return nil
	})
	assert.Nil(t, ans)
	assert.ErrorIs(t, err, context.Canceled)

	gone := errors.New("client gone")
	ans, err = e.AskStream(context.Background(), ChatRequest{Message: "quantum"}, func(string) error {
		return gone
	})
	assert.Nil(t, ans)
	assert.ErrorIs(t, err, gone)
	assert.NotErrorIs(t, err, internalerr.ErrLLMUnavailable)
}

func TestBuildKnowledgeBase(t *testing.T) {
	e := newEngine(t, seeded(t), nil)
	path := filepath.Join(t.TempDir(), "kb.json")

	base, err := e.BuildKnowledgeBase(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, base.Blogs, 3)

	read, err := kb.ReadArtifact(path)
	require.NoError(t, err)
	ids := make([]string, len(read.Blogs))
	for i, b := range read.Blogs {
		ids[i] = b.ID
	}
	assert.Equal(t, []string{"qc", "garden", "bread"}, ids)
	assert.Equal(t, "use of quantum phenomena to perform computation.",
		read.Blogs[0].Extraction.Definitions["Quantum Computing"])
}

func TestBuildKnowledgeBaseEmptyStore(t *testing.T) {
	e := newEngine(t, memstore.New(), nil)
	_, err := e.BuildKnowledgeBase(context.Background(), filepath.Join(t.TempDir(), "kb.json"))
	assert.ErrorIs(t, err, internalerr.ErrNotFound)
}

func TestConversation(t *testing.T) {
	history := []Message{{RoleUser, "a"}, {RoleAssistant, "b"}, {RoleUser, "c"}}

	msgs := Conversation(history, "d", 2)
	require.Len(t, msgs, 3)
	assert.Equal(t, "b", msgs[0].Content)
	assert.Equal(t, "d", msgs[2].Content)

	msgs = Conversation(nil, "only", 8)
	assert.Equal(t, []Message{{RoleUser, "only"}}, msgs)
}

func TestCleanAnswer(t *testing.T) {
	cases := map[string]string{
		"**Bold** and *italic*":            "Bold and italic.",
		"# Title\nBody text!":              "Title\nBody text!",
		"- first\n• second\n1. third":      "first\nsecond\nthird.",
		"Use `go test` here?":              "Use go test here?",
		"   spaced out.   ":                "spaced out.",
		"":                                 "",
		"Mid-line - dashes stay":           "Mid-line - dashes stay.",
		"10. Numbered\nVersion 2.5 stays": "Numbered\nVersion 2.5 stays.",
	}
	for in, want := range cases {
		assert.Equal(t, want, CleanAnswer(in), "CleanAnswer(%q)", in)
	}
}

func TestAccumulator(t *testing.T) {
	acc := NewAccumulator()
	require.NoError(t, acc.Write("hello "))
	require.NoError(t, acc.Write("world"))

	_, ok := acc.Final()
	assert.False(t, ok, "final text must wait for completion")

	acc.Complete()
	text, ok := acc.Final()
	assert.True(t, ok)
	assert.Equal(t, "hello world", text)
	assert.ErrorIs(t, acc.Write("late"), ErrStreamClosed)

	cancelled := NewAccumulator()
	require.NoError(t, cancelled.Write("partial"))
	cancelled.Cancel()
	cancelled.Complete()
	text, ok = cancelled.Final()
	assert.False(t, ok)
	assert.Empty(t, text)
	assert.ErrorIs(t, cancelled.Write("more"), ErrStreamClosed)
}
