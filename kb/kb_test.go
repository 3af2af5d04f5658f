package kb

import (
	"fmt"
	"sync"
	"testing"

	"github.com/signalsfoundry/frame-kinematics/model"
)

func TestAddAndGetBody(t *testing.T) {
	store := NewKnowledgeBase()
	b := &model.BodyDefinition{
		ID:   "earth",
		Name: "Earth",
	}
	if err := store.AddBody(b); err != nil {
		t.Fatalf("AddBody error: %v", err)
	}
	got := store.GetBody("earth")
	if got == nil || got.Name != "Earth" {
		t.Fatalf("GetBody returned %#v, want name Earth", got)
	}
	if store.GetBody("moon") != nil {
		t.Fatalf("GetBody of a missing body should be nil")
	}
}

func TestAddBodyValidation(t *testing.T) {
	store := NewKnowledgeBase()
	if err := store.AddBody(&model.BodyDefinition{ID: "b1"}); err != nil {
		t.Fatalf("first AddBody error: %v", err)
	}
	if err := store.AddBody(&model.BodyDefinition{ID: "b1"}); err == nil {
		t.Fatalf("expected duplicate AddBody to fail")
	}
	if err := store.AddBody(&model.BodyDefinition{}); err == nil {
		t.Fatalf("expected AddBody without ID to fail")
	}
	if err := store.AddBody(nil); err == nil {
		t.Fatalf("expected AddBody(nil) to fail")
	}
}

func TestListBodiesIsOrdered(t *testing.T) {
	store := NewKnowledgeBase()
	for _, i := range []int{2, 0, 1} {
		b := &model.BodyDefinition{ID: fmt.Sprintf("b-%d", i)}
		if i > 0 {
			b.GravitationalParameter = float64(i)
		}
		if err := store.AddBody(b); err != nil {
			t.Fatalf("AddBody error: %v", err)
		}
	}

	bodies := store.ListBodies()
	if len(bodies) != 3 {
		t.Fatalf("ListBodies len=%d, want 3", len(bodies))
	}
	for i, b := range bodies {
		if want := fmt.Sprintf("b-%d", i); b.ID != want {
			t.Fatalf("ListBodies[%d] = %q, want %q", i, b.ID, want)
		}
	}
	massive := store.MassiveBodies()
	if len(massive) != 2 || massive[0].ID != "b-1" || massive[1].ID != "b-2" {
		t.Fatalf("MassiveBodies = %v", massive)
	}
}

func TestUpdateBodyPositionAndSubscribe(t *testing.T) {
	store := NewKnowledgeBase()
	b := &model.BodyDefinition{ID: "b1"}
	if err := store.AddBody(b); err != nil {
		t.Fatalf("AddBody error: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	var got Event
	unsubscribe := store.Subscribe(func(e Event) {
		got = e
		wg.Done()
	})

	pos := model.Motion{X: 1, Y: 2, Z: 3}
	if err := store.UpdateBodyPosition("b1", pos); err != nil {
		t.Fatalf("UpdateBodyPosition error: %v", err)
	}

	wg.Wait()
	if got.Type != EventBodyUpdated {
		t.Fatalf("got event type %v, want EventBodyUpdated", got.Type)
	}
	if got.Body.Coordinates != pos {
		t.Fatalf("event body position = %#v, want %#v", got.Body.Coordinates, pos)
	}

	unsubscribe()
	if err := store.UpdateBodyPosition("b1", model.Motion{}); err != nil {
		t.Fatalf("UpdateBodyPosition error: %v", err)
	}
	if got.Body.Coordinates != pos {
		t.Fatalf("unsubscribed callback was invoked")
	}
	if err := store.UpdateBodyPosition("missing", pos); err == nil {
		t.Fatalf("expected error for missing body")
	}
}

func TestUnsubscribeKeepsOtherSubscribers(t *testing.T) {
	store := NewKnowledgeBase()
	var first, second int
	unsubscribeFirst := store.Subscribe(func(Event) { first++ })
	store.Subscribe(func(Event) { second++ })
	unsubscribeFirst()
	unsubscribeFirst()

	if err := store.AddBody(&model.BodyDefinition{ID: "b1"}); err != nil {
		t.Fatalf("AddBody error: %v", err)
	}
	if first != 0 || second != 1 {
		t.Fatalf("callbacks invoked %d and %d times, want 0 and 1", first, second)
	}
}

func TestConcurrentAccess(t *testing.T) {
	store := NewKnowledgeBase()
	b := &model.BodyDefinition{ID: "b1"}
	if err := store.AddBody(b); err != nil {
		t.Fatalf("AddBody error: %v", err)
	}

	var wg sync.WaitGroup
	// Concurrent readers/writers
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.GetBody("b1")
			_ = store.ListBodies()
		}()
		go func() {
			defer wg.Done()
			_ = store.UpdateBodyPosition("b1", model.Motion{X: float64(i)})
		}()
	}
	wg.Wait()
}
