package prompt

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

func newTestConsole(input string) (*Console, *bytes.Buffer) {
	var out bytes.Buffer
	return New(strings.NewReader(input), &out), &out
}

func TestAsk(t *testing.T) {
	c, out := newTestConsole("  student42  \nsecret\n")

	login, err := c.Ask(ctx, "LMS login: ")
	require.NoError(t, err)
	assert.Equal(t, "student42", login)

	// Non-terminal input falls back to a plain line read.
	password, err := c.AskSecret(ctx, "LMS password: ")
	require.NoError(t, err)
	assert.Equal(t, "secret", password)

	assert.Equal(t, "LMS login: LMS password: ", out.String(), "plain writers get unstyled labels")
}

func TestAskLastLineWithoutNewline(t *testing.T) {
	c, _ := newTestConsole("https://lms.example/mod/quiz/view.php?id=1")
	answer, err := c.Ask(ctx, "URL: ")
	require.NoError(t, err)
	assert.Equal(t, "https://lms.example/mod/quiz/view.php?id=1", answer)

	_, err = c.Ask(ctx, "URL: ")
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestAskFloat(t *testing.T) {
	t.Run("reprompts until the value is in range", func(t *testing.T) {
		c, out := newTestConsole("abc\n150\n-1\n75\n")

		value, err := c.AskFloat(ctx, "Desired correct answers, %: ", 0, 100)
		require.NoError(t, err)
		assert.Equal(t, 75.0, value)
		assert.Equal(t, 4, strings.Count(out.String(), "Desired correct answers, %: "))
		assert.Equal(t, 3, strings.Count(out.String(), "Enter a number between 0 and 100."))
	})

	t.Run("accepts bounds and decimal comma", func(t *testing.T) {
		c, _ := newTestConsole("0\n100\n12,5\n")
		for _, want := range []float64{0, 100, 12.5} {
			got, err := c.AskFloat(ctx, "%: ", 0, 100)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("closed input stops the loop", func(t *testing.T) {
		c, _ := newTestConsole("nope\n")
		_, err := c.AskFloat(ctx, "%: ", 0, 100)
		assert.ErrorIs(t, err, ErrNoInput)
	})
}

func TestWaitEnter(t *testing.T) {
	c, out := newTestConsole("\n")
	require.NoError(t, c.WaitEnter(ctx, "Answer it manually and press Enter..."))
	assert.Contains(t, out.String(), "press Enter")

	assert.ErrorIs(t, c.WaitEnter(ctx, "again"), ErrNoInput)
}

// syncBuffer is a bytes.Buffer safe to read while the console writes to it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestAskFloatCanceledWhileWaiting(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	out := &syncBuffer{}
	c := New(pr, out)

	askCtx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		_, err := c.AskFloat(askCtx, "Desired correct answers, %: ", 0, 100)
		errs <- err
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Desired correct answers")
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("AskFloat kept waiting for input after cancellation")
	}

	// The line the abandoned read picks up answers the next question.
	go func() { _, _ = io.WriteString(pw, "42\n") }()
	value, err := c.AskFloat(ctx, "Again, %: ", 0, 100)
	require.NoError(t, err)
	assert.Equal(t, 42.0, value)
}

func TestQuestionsFailFastOnDoneContext(t *testing.T) {
	c, _ := newTestConsole("unread\n")
	done, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Ask(done, "URL: ")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, c.WaitEnter(done, "press Enter"), context.Canceled)

	answer, err := c.Ask(ctx, "URL: ")
	require.NoError(t, err)
	assert.Equal(t, "unread", answer, "nothing was consumed by the canceled questions")
}
