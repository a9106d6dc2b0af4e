package platform

import "testing"

func TestDispatcher_SendDeliversPayload(t *testing.T) {
	d := NewDispatcher()

	var got any
	d.Connect("camera_source_changed/entry-1/cam-1", func(payload any) {
		got = payload
	})

	d.Send("camera_source_changed/entry-1/cam-1", "rtsp://new-source")

	if got != "rtsp://new-source" {
		t.Errorf("handler received %v, want rtsp://new-source", got)
	}
}

func TestDispatcher_SignalIsolation(t *testing.T) {
	d := NewDispatcher()

	cam1Calls := 0
	cam2Calls := 0
	d.Connect("camera_source_changed/entry-1/cam-1", func(any) { cam1Calls++ })
	d.Connect("camera_source_changed/entry-1/cam-2", func(any) { cam2Calls++ })

	d.Send("camera_source_changed/entry-1/cam-1", nil)

	if cam1Calls != 1 {
		t.Errorf("cam-1 handler called %d times, want 1", cam1Calls)
	}
	if cam2Calls != 0 {
		t.Errorf("cam-2 handler called %d times, want 0", cam2Calls)
	}
}

func TestDispatcher_Disconnect(t *testing.T) {
	d := NewDispatcher()

	calls := 0
	disconnect := d.Connect("sig", func(any) { calls++ })

	d.Send("sig", nil)
	disconnect()
	d.Send("sig", nil)
	disconnect() // idempotent

	if calls != 1 {
		t.Errorf("handler called %d times after disconnect, want 1", calls)
	}
	if d.SubscriberCount("sig") != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", d.SubscriberCount("sig"))
	}
}

func TestDispatcher_SendWithoutSubscribers(t *testing.T) {
	d := NewDispatcher()
	// Must not panic
	d.Send("nobody-listening", 42)
}

func TestDispatcher_MultipleSubscribers(t *testing.T) {
	d := NewDispatcher()

	first, second := 0, 0
	d.Connect("sig", func(any) { first++ })
	d.Connect("sig", func(any) { second++ })

	d.Send("sig", nil)

	if first != 1 || second != 1 {
		t.Errorf("handlers called (%d, %d), want (1, 1)", first, second)
	}
	if d.SubscriberCount("sig") != 2 {
		t.Errorf("SubscriberCount() = %d, want 2", d.SubscriberCount("sig"))
	}
}
