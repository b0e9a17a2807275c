package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"notevault-api/domain"
)

func TestTaskCreateDefaults(t *testing.T) {
	sess, _, _ := newTestSession(t, "alice")
	ctx := context.Background()

	id, err := sess.Tasks.Create(ctx, TaskInput{Title: "write report"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	task, err := sess.Tasks.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if task.Priority != domain.PriorityMedium {
		t.Errorf("Priority = %q, want medium default", task.Priority)
	}
	if task.Status != domain.StatusTodo {
		t.Errorf("Status = %q, want todo default", task.Status)
	}
	if task.CompletedAt != nil {
		t.Error("CompletedAt set on a fresh task")
	}
}

func TestTaskStatusTransitionsCompletedAt(t *testing.T) {
	sess, _, _ := newTestSession(t, "alice")
	ctx := context.Background()

	id, _ := sess.Tasks.Create(ctx, TaskInput{Title: "t"})

	if err := sess.Tasks.UpdateStatus(ctx, id, domain.StatusDone); err != nil {
		t.Fatalf("UpdateStatus done: %v", err)
	}
	task, _ := sess.Tasks.Get(ctx, id)
	if task.CompletedAt == nil {
		t.Fatal("CompletedAt nil after marking done")
	}

	if err := sess.Tasks.UpdateStatus(ctx, id, domain.StatusTodo); err != nil {
		t.Fatalf("UpdateStatus todo: %v", err)
	}
	task, _ = sess.Tasks.Get(ctx, id)
	if task.CompletedAt != nil {
		t.Fatalf("CompletedAt = %v after leaving done, want nil", task.CompletedAt)
	}
}

func TestTaskDueDateClearing(t *testing.T) {
	sess, _, _ := newTestSession(t, "alice")
	ctx := context.Background()

	due := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	id, _ := sess.Tasks.Create(ctx, TaskInput{Title: "t", DueDate: &due})

	task, _ := sess.Tasks.Get(ctx, id)
	if task.DueDate == nil || !task.DueDate.Equal(due) {
		t.Fatalf("DueDate = %v, want %v", task.DueDate, due)
	}

	// Nil leaves the due date alone.
	desc := "still due"
	if err := sess.Tasks.Update(ctx, id, TaskPatch{Description: &desc}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	task, _ = sess.Tasks.Get(ctx, id)
	if task.DueDate == nil {
		t.Fatal("DueDate cleared by unrelated patch")
	}

	// The zero time clears it.
	zero := time.Time{}
	if err := sess.Tasks.Update(ctx, id, TaskPatch{DueDate: &zero}); err != nil {
		t.Fatalf("Update clear: %v", err)
	}
	task, _ = sess.Tasks.Get(ctx, id)
	if task.DueDate != nil {
		t.Fatalf("DueDate = %v after clearing, want nil", task.DueDate)
	}
}

func TestTaskUpdatePriority(t *testing.T) {
	sess, _, _ := newTestSession(t, "alice")
	ctx := context.Background()

	id, _ := sess.Tasks.Create(ctx, TaskInput{Title: "t"})
	if err := sess.Tasks.UpdatePriority(ctx, id, domain.PriorityUrgent); err != nil {
		t.Fatalf("UpdatePriority: %v", err)
	}
	task, _ := sess.Tasks.Get(ctx, id)
	if task.Priority != domain.PriorityUrgent {
		t.Fatalf("Priority = %q, want urgent", task.Priority)
	}
}

func TestTaskOwnership(t *testing.T) {
	sess, backend, _ := newTestSession(t, "alice")
	ctx := context.Background()

	backend.InsertTask(ctx, domain.Task{ID: "t-bob", UserID: "bob", Title: "theirs"})

	if _, err := sess.Tasks.Get(ctx, "t-bob"); !errors.Is(err, domain.ErrNotFoundOrDenied) {
		t.Fatalf("Get foreign task: err = %v, want ErrNotFoundOrDenied", err)
	}
	if err := sess.Tasks.UpdateStatus(ctx, "t-bob", domain.StatusDone); !errors.Is(err, domain.ErrNotFoundOrDenied) {
		t.Fatalf("UpdateStatus foreign task: err = %v, want ErrNotFoundOrDenied", err)
	}
	if err := sess.Tasks.Delete(ctx, "t-bob"); !errors.Is(err, domain.ErrNotFoundOrDenied) {
		t.Fatalf("Delete foreign task: err = %v, want ErrNotFoundOrDenied", err)
	}
}

func TestTaskAllTags(t *testing.T) {
	sess, _, _ := newTestSession(t, "alice")
	ctx := context.Background()

	sess.Tasks.Create(ctx, TaskInput{Title: "a", Tags: []string{"urgent", "home"}})
	sess.Tasks.Create(ctx, TaskInput{Title: "b", Tags: []string{"home"}})

	tags := sess.Tasks.AllTags()
	if len(tags) != 2 || tags[0] != "home" || tags[1] != "urgent" {
		t.Fatalf("AllTags = %v, want [home urgent]", tags)
	}
}
