package calendar

import (
	"context"
	"testing"
	"time"
)

func TestListEventsFiltersByWindow(t *testing.T) {
	c := NewMemoryClient()
	now := time.Now()
	c.SeedEvents([]Event{
		{ID: "1", Summary: "yesterday", Start: now.Add(-24 * time.Hour)},
		{ID: "2", Summary: "today", Start: now},
		{ID: "3", Summary: "next week", Start: now.Add(7 * 24 * time.Hour)},
	})

	got, err := c.ListEvents(context.Background(), Window{Start: now.Add(-time.Hour), End: now.Add(time.Hour)})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "2" {
		t.Fatalf("expected only event 2 in window, got %+v", got)
	}
}

func TestAddAndListItems(t *testing.T) {
	c := NewMemoryClient()
	if err := c.AddItem(context.Background(), "Groceries", "milk"); err != nil {
		t.Fatal(err)
	}
	if err := c.AddItem(context.Background(), "groceries", "eggs"); err != nil {
		t.Fatal(err)
	}

	items, err := c.ListItems(context.Background(), "GROCERIES")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items (list titles are case-insensitive), got %d: %+v", len(items), items)
	}
}

func TestRemoveItem(t *testing.T) {
	c := NewMemoryClient()
	c.AddItem(context.Background(), "groceries", "milk")
	c.AddItem(context.Background(), "groceries", "eggs")

	removed, err := c.RemoveItem(context.Background(), "groceries", "Milk")
	if err != nil {
		t.Fatal(err)
	}
	if !removed {
		t.Fatal("expected removal to match case-insensitively")
	}
	items, _ := c.ListItems(context.Background(), "groceries")
	if len(items) != 1 || items[0].Title != "eggs" {
		t.Fatalf("expected only eggs left, got %+v", items)
	}

	removed, err = c.RemoveItem(context.Background(), "groceries", "bread")
	if err != nil {
		t.Fatal(err)
	}
	if removed {
		t.Fatal("expected removal of a nonexistent item to report false")
	}
}

func TestListTaskLists(t *testing.T) {
	c := NewMemoryClient()
	c.AddItem(context.Background(), "groceries", "milk")
	c.AddItem(context.Background(), "chores", "trash")

	lists, err := c.ListTaskLists(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(lists) != 2 {
		t.Fatalf("expected 2 task lists, got %d: %+v", len(lists), lists)
	}
}
