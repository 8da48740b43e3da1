package model

import "testing"

func TestBeforeCreateAssignsIDs(t *testing.T) {
	q := &Question{}
	if err := q.BeforeCreate(nil); err != nil {
		t.Fatal(err)
	}
	a := &Attempt{}
	if err := a.BeforeCreate(nil); err != nil {
		t.Fatal(err)
	}
	if len(q.ID) != 36 || len(a.ID) != 36 || q.ID == a.ID {
		t.Errorf("ids = %q, %q", q.ID, a.ID)
	}

	topic := &Topic{UUIDBase: UUIDBase{ID: "fixed"}}
	if err := topic.BeforeCreate(nil); err != nil {
		t.Fatal(err)
	}
	if topic.ID != "fixed" {
		t.Errorf("preset id replaced with %q", topic.ID)
	}
}
