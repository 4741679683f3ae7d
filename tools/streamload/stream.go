package main

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"sync/atomic"
)

type stats struct {
	connected   atomic.Int64
	connectErrs atomic.Int64
	streamErrs  atomic.Int64
	views       atomic.Int64
	lastVersion atomic.Uint64
}

type statsSnapshot struct {
	connected   int64
	connectErrs int64
	streamErrs  int64
	views       int64
	lastVersion uint64
}

func (s *stats) snapshot() statsSnapshot {
	return statsSnapshot{
		connected:   s.connected.Load(),
		connectErrs: s.connectErrs.Load(),
		streamErrs:  s.streamErrs.Load(),
		views:       s.views.Load(),
		lastVersion: s.lastVersion.Load(),
	}
}

// observeVersion keeps the highest view version seen by any subscriber.
func (s *stats) observeVersion(v uint64) {
	for {
		cur := s.lastVersion.Load()
		if v <= cur || s.lastVersion.CompareAndSwap(cur, v) {
			return
		}
	}
}

// readStream counts complete view frames until the body ends. Heartbeat comments are ignored.
func readStream(r io.Reader, st *stats) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4<<20)

	var (
		isView  bool
		hasData bool
	)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if isView && hasData {
				st.views.Add(1)
			}
			isView, hasData = false, false
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			isView = strings.TrimSpace(strings.TrimPrefix(line, "event:")) == "view"
		case strings.HasPrefix(line, "id:"):
			if v, err := strconv.ParseUint(strings.TrimSpace(strings.TrimPrefix(line, "id:")), 10, 64); err == nil {
				st.observeVersion(v)
			}
		case strings.HasPrefix(line, "data:"):
			hasData = true
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return io.ErrUnexpectedEOF
}
