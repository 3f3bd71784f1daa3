package fiber

import "time"

// RenderStats summarizes one committed generation.
type RenderStats struct {
	Generation uint64        `json:"generation"`
	Units      int           `json:"units"`
	Turns      int           `json:"turns"`
	Placements int           `json:"placements"`
	Updates    int           `json:"updates"`
	Deletions  int           `json:"deletions"`
	Started    time.Time     `json:"started"`
	Render     time.Duration `json:"render"`
	Commit     time.Duration `json:"commit"`
}

// Observer receives lifecycle notifications from a Session. All methods are
// called on the render thread and must not block.
type Observer interface {
	// UnitPerformed is called after each unit of work, with the unit's kind.
	UnitPerformed(kind string)
	// Yielded is called when Resume stops because its deadline asked it to.
	Yielded()
	// Discarded is called when an in-flight generation is abandoned, either
	// because a new render started or because the render failed.
	Discarded(generation uint64)
	// Committed is called once a generation has been applied to the host.
	Committed(stats RenderStats)
	// Failed is called for every error that aborts a render or commit.
	Failed(err error)
}

type nopObserver struct{}

func (nopObserver) UnitPerformed(string)  {}
func (nopObserver) Yielded()              {}
func (nopObserver) Discarded(uint64)      {}
func (nopObserver) Committed(RenderStats) {}
func (nopObserver) Failed(error)          {}

type observers []Observer

func (o observers) UnitPerformed(kind string) {
	for _, ob := range o {
		ob.UnitPerformed(kind)
	}
}

func (o observers) Yielded() {
	for _, ob := range o {
		ob.Yielded()
	}
}

func (o observers) Discarded(generation uint64) {
	for _, ob := range o {
		ob.Discarded(generation)
	}
}

func (o observers) Committed(stats RenderStats) {
	for _, ob := range o {
		ob.Committed(stats)
	}
}

func (o observers) Failed(err error) {
	for _, ob := range o {
		ob.Failed(err)
	}
}
