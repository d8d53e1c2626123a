package metrics

import "testing"

func TestCollectorAccumulatesCounters(t *testing.T) {
	c := NewCollector(nil)
	c.AddEventsProcessed(3)
	c.AddEventsProcessed(2)
	c.IncAlertsEmitted()
	c.IncAlertsEmitted()
	c.IncAlertsDeduped()
	c.IncAlertsThrottled()
	c.IncTenantFailure("permissionDenied")
	c.IncTenantFailure("permissionDenied")
	c.IncTenantFailure("tenantNotFound")

	snap := c.Snapshot()
	if snap.EventsProcessed != 5 {
		t.Fatalf("expected 5 events processed, got %d", snap.EventsProcessed)
	}
	if snap.AlertsEmitted != 2 {
		t.Fatalf("expected 2 alerts emitted, got %d", snap.AlertsEmitted)
	}
	if snap.AlertsDeduped != 1 || snap.AlertsThrottled != 1 {
		t.Fatalf("expected 1 deduped and 1 throttled, got %+v", snap)
	}
	if snap.TenantFailures["permissionDenied"] != 2 || snap.TenantFailures["tenantNotFound"] != 1 {
		t.Fatalf("unexpected tenant failure counts: %+v", snap.TenantFailures)
	}
}
