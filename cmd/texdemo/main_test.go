package main

import (
	"testing"
	"time"

	"github.com/gogpu/texstream"
	"github.com/gogpu/texstream/backend/software"
)

func TestBuildPayloads(t *testing.T) {
	cfg := config{width: 4, height: 6, rows: 2, caches: 3, format: texstream.FormatBGRA8}
	payloads, err := buildPayloads(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(payloads) != 3 {
		t.Fatalf("len(payloads) = %d, want 3", len(payloads))
	}
	for i, p := range payloads {
		if len(p) != 4*6*4 {
			t.Errorf("payload %d: len = %d, want %d", i, len(p), 4*6*4)
		}
	}
	if payloads[0][0] == payloads[1][0] && payloads[0][2] == payloads[1][2] {
		t.Error("payloads share the same first band")
	}

	if _, err := buildPayloads(config{width: 1, height: 1, caches: 1, format: texstream.FormatR8, input: "missing.png"}); err == nil {
		t.Error("buildPayloads with missing input error = nil")
	}
}

func TestFrameLoop(t *testing.T) {
	cfg := config{width: 2, height: 5, rows: 2, caches: 2, format: texstream.FormatRGBA8, frame: time.Microsecond, maxRuns: 100}
	payloads, err := buildPayloads(cfg)
	if err != nil {
		t.Fatal(err)
	}

	var queue texstream.QueueIssuer
	u, err := texstream.New(software.New(), texstream.WithIssuer(queue.Issue))
	if err != nil {
		t.Fatal(err)
	}
	defer u.Close()

	var jobs []*texstream.Job
	for _, p := range payloads {
		job, err := texstream.WritePixelsAsync(u, nil, cfg.width, cfg.height, cfg.format, p, boundary)
		if err != nil {
			t.Fatal(err)
		}
		defer job.Close()
		_ = job.SetRowsPerTick(cfg.rows)
		jobs = append(jobs, job)
	}

	var last float64
	frames, err := frameLoop(u, &queue, jobs, cfg, func(_ int, p float64) {
		if p < last {
			t.Errorf("progress went back from %v to %v", last, p)
		}
		last = p
	})
	if err != nil {
		t.Fatal(err)
	}
	// 5 rows at 2 per frame.
	if frames != 3 {
		t.Errorf("frames = %d, want 3", frames)
	}
	if last != 1 {
		t.Errorf("final progress = %v, want 1", last)
	}
}

func TestFrameLoopLimit(t *testing.T) {
	var queue texstream.QueueIssuer
	u, err := texstream.New(software.New(), texstream.WithIssuer(queue.Issue))
	if err != nil {
		t.Fatal(err)
	}
	defer u.Close()

	job, err := texstream.WritePixelsAsync(u, nil, 1, 8, texstream.FormatR8, make([]byte, 8), boundary)
	if err != nil {
		t.Fatal(err)
	}
	defer job.Close()
	_ = job.SetRowsPerTick(1)

	cfg := config{frame: time.Microsecond, maxRuns: 2}
	if _, err := frameLoop(u, &queue, []*texstream.Job{job}, cfg, func(int, float64) {}); err == nil {
		t.Error("frameLoop() error = nil, want limit error")
	}
}
