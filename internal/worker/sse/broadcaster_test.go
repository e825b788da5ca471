package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// BroadcasterSuite is a test suite for Broadcaster operations.
type BroadcasterSuite struct {
	suite.Suite
	broadcaster *Broadcaster
}

func (s *BroadcasterSuite) SetupTest() {
	s.broadcaster = NewBroadcaster()
}

func TestBroadcasterSuite(t *testing.T) {
	suite.Run(t, new(BroadcasterSuite))
}

func (s *BroadcasterSuite) TestSubscribeAssignsUniqueIDs() {
	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		c := s.broadcaster.Subscribe("")
		s.False(seen[c.ID])
		seen[c.ID] = true
	}
	s.Equal(5, s.broadcaster.ClientCount())
}

func (s *BroadcasterSuite) TestUnsubscribeClosesDone() {
	c := s.broadcaster.Subscribe("")
	s.broadcaster.Unsubscribe(c)
	s.broadcaster.Unsubscribe(c)

	s.Equal(0, s.broadcaster.ClientCount())
	select {
	case <-c.Done():
	default:
		s.Fail("Done channel should be closed")
	}
}

func (s *BroadcasterSuite) TestPublishFiltersByPatient() {
	all := s.broadcaster.Subscribe("")
	mine := s.broadcaster.Subscribe("p-1")
	other := s.broadcaster.Subscribe("p-2")

	s.broadcaster.Publish(Event{Type: EventSessionStarted, PatientID: "p-1", SessionID: "s-1"})

	s.Len(all.send, 1)
	s.Len(mine.send, 1)
	s.Len(other.send, 0)

	msg := string(<-mine.send)
	s.True(strings.HasPrefix(msg, "event: session.started\ndata: "))
	s.Contains(msg, `"session_id":"s-1"`)
	s.True(strings.HasSuffix(msg, "\n\n"))
}

func (s *BroadcasterSuite) TestPublishDropsSlowClient() {
	c := s.broadcaster.Subscribe("")
	for i := 0; i < ClientBuffer+1; i++ {
		s.broadcaster.Publish(Event{Type: EventAlert})
	}
	s.Equal(0, s.broadcaster.ClientCount())
	<-c.Done()
}

func (s *BroadcasterSuite) TestPublishNoClients() {
	s.NotPanics(func() { s.broadcaster.Publish(Event{Type: EventAlert}) })
}

func TestHandleSSE_StreamsEvents(t *testing.T) {
	b := NewBroadcaster()
	srv := httptest.NewServer(http.HandlerFunc(b.HandleSSE))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"?patient_id=p-9", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected\n", line)

	require.Eventually(t, func() bool { return b.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	b.Publish(Event{Type: EventSessionFinished, PatientID: "p-9", Data: map[string]int{"intensity": 4}})

	var got []string
	for len(got) < 2 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "event: session.finished") || strings.HasPrefix(line, "data: {\"type\":\"session.finished\"") {
			got = append(got, line)
		}
	}
	assert.Contains(t, got[1], `"intensity":4`)
}
