package provider

import "testing"

func TestStreamEventConstructors(t *testing.T) {
	if ev := TokenEvent("x"); ev.Kind != EventToken || ev.Token != "x" {
		t.Errorf("TokenEvent() = %+v", ev)
	}
	if ev := DoneEvent(); ev.Kind != EventDone {
		t.Errorf("DoneEvent() = %+v", ev)
	}
	if ev := ErrorEvent("boom"); ev.Kind != EventError || ev.Message != "boom" {
		t.Errorf("ErrorEvent() = %+v", ev)
	}
	calls := []Call{{ID: "1", Name: "read"}}
	if ev := ToolCallEvent(calls); ev.Kind != EventToolCall || len(ev.Calls) != 1 {
		t.Errorf("ToolCallEvent() = %+v", ev)
	}
}
