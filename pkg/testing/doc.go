// Package testing provides a session testing harness for fiber.
//
// # Quick Start
//
// Create a tester, render an element, and make assertions against the
// in-memory host:
//
//	func TestCounter(t *testing.T) {
//	    tester := fibertest.NewSessionTesterWithT(t)
//	    tester.Render(core.C(Counter, nil))
//
//	    tester.Tap(fibertest.ByKind("button"))
//	    tester.PumpAndSettle(time.Second)
//
//	    if got := tester.Find(fibertest.ByKind("span")).Text(); got != "1" {
//	        t.Errorf("expected 1, got %q", got)
//	    }
//	}
//
// The tester runs the session on a scheduler.Loop driven by a FakeClock, so
// a render can be advanced one slice at a time with Pump.
//
// # Snapshot Testing
//
// Capture and compare the host tree together with the committed unit tree:
//
//	snapshot := tester.CaptureSnapshot()
//	snapshot.MatchesFile(t, "testdata/counter.snapshot.json")
//
// Update snapshots with:
//
//	FIBER_UPDATE_SNAPSHOTS=1 go test ./...
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import fibertest "github.com/go-drift/fiber/pkg/testing"
package testing
