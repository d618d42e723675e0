package task

import (
	"fmt"

	"github.com/sweeney/plant-care/internal/hw"
)

// output remembers the last level written to a switch so it is only driven
// on change. A failed write forgets the level so the next call retries.
type output struct {
	sw    hw.Switch
	name  string
	on    bool
	known bool
}

func newOutput(sw hw.Switch, name string) *output {
	return &output{sw: sw, name: name}
}

func (o *output) set(on bool) error {
	if o.known && o.on == on {
		return nil
	}
	if err := o.sw.Set(on); err != nil {
		o.known = false
		return fmt.Errorf("set %s: %w", o.name, err)
	}
	o.on = on
	o.known = true
	return nil
}
