package broadcasts

import (
	"fmt"
	"testing"
)

func TestPartitionBatches(t *testing.T) {
	t.Parallel()

	ids := make([]string, 1200)
	for i := range ids {
		ids[i] = fmt.Sprintf("c%d", i)
	}

	batches := partitionBatches(ids, deliveryBatchSize)
	wantSizes := []int{500, 500, 200}
	if len(batches) != len(wantSizes) {
		t.Fatalf("got %d batches, want %d", len(batches), len(wantSizes))
	}
	total := 0
	for i, batch := range batches {
		if len(batch) != wantSizes[i] {
			t.Errorf("batch %d has %d ids, want %d", i, len(batch), wantSizes[i])
		}
		total += len(batch)
	}
	if total != len(ids) {
		t.Fatalf("batches cover %d ids, want %d", total, len(ids))
	}
	if batches[0][0] != "c0" || batches[2][199] != "c1199" {
		t.Fatal("batches are out of order")
	}
}

func TestPartitionBatchesEdgeSizes(t *testing.T) {
	t.Parallel()

	if got := partitionBatches(nil, 500); got != nil {
		t.Fatalf("empty input should yield no batches, got %v", got)
	}
	if got := partitionBatches([]string{"a"}, 500); len(got) != 1 || len(got[0]) != 1 {
		t.Fatalf("single id should yield one batch of one, got %v", got)
	}
	exact := partitionBatches(make([]string, 1000), 500)
	if len(exact) != 2 || len(exact[0]) != 500 || len(exact[1]) != 500 {
		t.Fatalf("exact multiple should split evenly, got %d batches", len(exact))
	}
}

func TestRunBatchesReportsBatchProgress(t *testing.T) {
	t.Parallel()

	ids := make([]string, 1200)
	for i := range ids {
		ids[i] = fmt.Sprintf("c%d", i)
	}

	var progress [][2]int
	inserted, err := runBatches(ids, deliveryBatchSize, func([]string) error {
		return nil
	}, func(completed, total int) {
		progress = append(progress, [2]int{completed, total})
	})
	if err != nil {
		t.Fatalf("runBatches failed: %v", err)
	}
	if inserted != len(ids) {
		t.Fatalf("inserted = %d, want %d", inserted, len(ids))
	}
	want := [][2]int{{1, 3}, {2, 3}, {3, 3}}
	if len(progress) != len(want) {
		t.Fatalf("got %d progress calls, want %d", len(progress), len(want))
	}
	for i, step := range want {
		if progress[i] != step {
			t.Errorf("progress call %d = %d/%d, want %d/%d",
				i, progress[i][0], progress[i][1], step[0], step[1])
		}
	}
}

func TestRunBatchesStopsOnFailure(t *testing.T) {
	t.Parallel()

	ids := make([]string, 1200)
	for i := range ids {
		ids[i] = fmt.Sprintf("c%d", i)
	}

	cause := fmt.Errorf("connection reset")
	calls := 0
	var progress [][2]int
	inserted, err := runBatches(ids, deliveryBatchSize, func([]string) error {
		calls++
		if calls == 2 {
			return cause
		}
		return nil
	}, func(completed, total int) {
		progress = append(progress, [2]int{completed, total})
	})
	if err != cause {
		t.Fatalf("err = %v, want %v", err, cause)
	}
	if inserted != 500 {
		t.Fatalf("inserted = %d, want 500", inserted)
	}
	if len(progress) != 1 || progress[0] != [2]int{1, 3} {
		t.Fatalf("progress = %v, want a single 1/3 call", progress)
	}
}

func TestMatchingAll(t *testing.T) {
	t.Parallel()

	occurrences := map[string]int{
		"c1": 2,
		"c2": 1,
		"c3": 2,
		"c4": 3,
	}
	matched := matchingAll(occurrences, 2)
	if len(matched) != 2 {
		t.Fatalf("matched %d contacts, want 2", len(matched))
	}
	for _, id := range []string{"c1", "c3"} {
		if _, ok := matched[id]; !ok {
			t.Errorf("expected %s to match", id)
		}
	}
}

func TestPartialBatchErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("connection reset")
	err := &PartialBatchError{MessageID: "m1", Inserted: 500, Total: 1200, Err: cause}
	if err.Unwrap() != cause {
		t.Fatal("Unwrap should return the cause")
	}
	want := "broadcast m1: inserted 500 of 1200 deliveries: connection reset"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}
