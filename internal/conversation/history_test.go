package conversation

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHistoryKeepsMostRecent(t *testing.T) {
	h := NewHistory(5, EnglishLabels)
	for i := 1; i <= 7; i++ {
		h.Append(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}
	turns := h.Turns()
	require.Len(t, turns, 5)
	for i, turn := range turns {
		require.Equal(t, fmt.Sprintf("q%d", i+3), turn.Question)
		require.Equal(t, fmt.Sprintf("a%d", i+3), turn.Answer)
	}
}

func TestHistoryRender(t *testing.T) {
	h := NewHistory(0, Labels{})
	require.Equal(t, DefaultMaxTurns, h.MaxTurns())
	require.Equal(t, "", h.Render())

	h.Append("what?", "that")
	h.Append("why?", "because")
	want := "Conversation history:\nQuestion: what?\nAnswer: that\n\nQuestion: why?\nAnswer: because\n\n"
	require.Equal(t, want, h.Render())
	require.Equal(t, want, h.Render())

	h.Clear()
	require.Equal(t, 0, h.Len())
	require.Equal(t, "", h.Render())
}

func TestHistoryTurnsIsCopy(t *testing.T) {
	h := NewHistory(2, EnglishLabels)
	h.Append("q", "a")
	turns := h.Turns()
	turns[0].Question = "changed"
	require.Equal(t, "q", h.Turns()[0].Question)
}

func TestHistoryConcurrentAppend(t *testing.T) {
	h := NewHistory(3, EnglishLabels)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h.Append(fmt.Sprint(i), "x")
			_ = h.Render()
		}(i)
	}
	wg.Wait()
	require.Equal(t, 3, h.Len())
}
