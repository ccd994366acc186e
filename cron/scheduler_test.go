package cron

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/Hokky66/Surodeals/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestSchedulerTrigger(t *testing.T) {
	s := NewScheduler(discardLogger())

	ran := 0
	if err := s.AddJob("ok-job", "0 3 * * *", func() error {
		ran++
		return nil
	}); err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	t.Run("manual trigger runs the job", func(t *testing.T) {
		if err := s.Trigger("ok-job"); err != nil {
			t.Fatalf("Trigger: %v", err)
		}
		if ran != 1 {
			t.Errorf("job should have run once, ran %d times", ran)
		}
		status := findStatus(t, s, "ok-job")
		if status.Runs != 1 || status.LastRun == nil || status.LastError != "" {
			t.Errorf("unexpected status %+v", status)
		}
	})

	t.Run("unknown job name errors", func(t *testing.T) {
		if err := s.Trigger("nope"); err == nil {
			t.Error("expected error for unknown job")
		}
	})
}

func TestSchedulerFailureIsolation(t *testing.T) {
	s := NewScheduler(discardLogger())

	if err := s.AddJob("failing", "0 3 * * *", func() error {
		return errors.New("disk full")
	}); err != nil {
		t.Fatalf("AddJob: %v", err)
	}
	if err := s.AddJob("panicking", "0 4 * * *", func() error {
		panic("boom")
	}); err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	// Neither a returned error nor a panic escapes the runner.
	if err := s.Trigger("failing"); err != nil {
		t.Fatalf("Trigger must not propagate job errors, got %v", err)
	}
	if err := s.Trigger("panicking"); err != nil {
		t.Fatalf("Trigger must not propagate job panics, got %v", err)
	}

	if status := findStatus(t, s, "failing"); status.LastError != "disk full" {
		t.Errorf("expected recorded error, got %q", status.LastError)
	}
	if status := findStatus(t, s, "panicking"); status.LastError == "" {
		t.Error("panic should be recorded as the job's last error")
	}

	// A later clean run clears the recorded error.
	s2 := NewScheduler(discardLogger())
	fail := true
	s2.AddJob("flaky", "0 5 * * *", func() error {
		if fail {
			return errors.New("transient")
		}
		return nil
	})
	s2.Trigger("flaky")
	fail = false
	s2.Trigger("flaky")
	if status := findStatus(t, s2, "flaky"); status.LastError != "" || status.Runs != 2 {
		t.Errorf("clean run should clear last error, got %+v", status)
	}
}

func TestSchedulerRejectsDuplicatesAndBadSchedules(t *testing.T) {
	s := NewScheduler(discardLogger())

	if err := s.AddJob("job", "55 23 * * *", func() error { return nil }); err != nil {
		t.Fatalf("AddJob: %v", err)
	}
	if err := s.AddJob("job", "0 3 * * *", func() error { return nil }); err == nil {
		t.Error("duplicate job name should be rejected")
	}
	if err := s.AddJob("bad", "not a schedule", func() error { return nil }); err == nil {
		t.Error("invalid cron expression should be rejected")
	}
}

func findStatus(t *testing.T, s *Scheduler, name string) models.JobStatus {
	t.Helper()
	for _, status := range s.Status() {
		if status.Name == name {
			return status
		}
	}
	t.Fatalf("job %q not registered", name)
	return models.JobStatus{}
}
