// Command streamload opens many concurrent subscribers on the portfolio view stream and
// reports how many view frames they receive.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	var (
		targetURL    string
		connections  int
		testDuration time.Duration
		rampUp       time.Duration
	)

	flag.StringVar(&targetURL, "url", "http://localhost:8080/portfolio/stream", "portfolio stream URL")
	flag.IntVar(&connections, "conns", 500, "number of concurrent subscribers")
	flag.DurationVar(&testDuration, "dur", 60*time.Second, "test duration (0 for until interrupted)")
	flag.DurationVar(&rampUp, "ramp", 0, "spread subscriber starts across this window")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if connections <= 0 {
		logger.Fatal("invalid conns", zap.Int("conns", connections))
	}
	if rampUp == 0 && connections > 100 {
		rampUp = max(time.Duration(connections/500)*time.Second, time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if testDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, testDuration)
		defer cancel()
	}

	client := &http.Client{
		Transport: &http.Transport{
			MaxConnsPerHost:     connections + 100,
			MaxIdleConnsPerHost: connections + 100,
			DisableCompression:  true,
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
		},
	}

	logger.Info("starting stream load",
		zap.String("url", targetURL),
		zap.Int("conns", connections),
		zap.Duration("duration", testDuration),
		zap.Duration("ramp", rampUp),
	)

	st := &stats{}
	start := time.Now()
	go report(ctx, logger, st, start)

	var interval time.Duration
	if rampUp > 0 {
		interval = rampUp / time.Duration(connections)
	}

	var g errgroup.Group
	for i := 0; i < connections && ctx.Err() == nil; i++ {
		if i > 0 && interval > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(interval):
			}
		}
		g.Go(func() error {
			subscribe(ctx, client, targetURL, st)
			return nil
		})
	}
	_ = g.Wait()

	elapsed := max(time.Since(start), time.Millisecond)
	snap := st.snapshot()
	fmt.Printf("done: connected=%d connect_errs=%d stream_errs=%d views=%d elapsed=%s views/s=%.2f\n",
		snap.connected, snap.connectErrs, snap.streamErrs, snap.views,
		elapsed.Truncate(time.Millisecond), float64(snap.views)/elapsed.Seconds())
}

func subscribe(ctx context.Context, client *http.Client, url string, st *stats) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		st.connectErrs.Add(1)
		return
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := client.Do(req)
	if err != nil {
		st.connectErrs.Add(1)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		st.connectErrs.Add(1)
		return
	}

	st.connected.Add(1)
	if err := readStream(resp.Body, st); err != nil && ctx.Err() == nil {
		st.streamErrs.Add(1)
	}
}

func report(ctx context.Context, logger *zap.Logger, st *stats, start time.Time) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := st.snapshot()
			logger.Info("status",
				zap.Int64("connected", snap.connected),
				zap.Int64("connect_errs", snap.connectErrs),
				zap.Int64("stream_errs", snap.streamErrs),
				zap.Int64("views", snap.views),
				zap.Uint64("last_version", snap.lastVersion),
				zap.Duration("elapsed", time.Since(start).Truncate(time.Second)),
			)
		}
	}
}
