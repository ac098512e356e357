package delivery

import (
	"fmt"
	"strconv"
	"strings"
)

// PeakWindow is a closed range of local hours, both ends included
type PeakWindow struct {
	Start int `yaml:"start" json:"start"`
	End   int `yaml:"end" json:"end"`
}

// Contains reports whether hour lies inside the window
func (w PeakWindow) Contains(hour int) bool {
	return hour >= w.Start && hour <= w.End
}

func (w PeakWindow) String() string {
	return fmt.Sprintf("%d-%d", w.Start, w.End)
}

// PeakSchedule is the set of peak windows in a day
type PeakSchedule []PeakWindow

// DefaultPeakSchedule covers lunch (11:00-14:59) and dinner (17:00-20:59)
var DefaultPeakSchedule = PeakSchedule{
	{Start: 11, End: 14},
	{Start: 17, End: 20},
}

// Contains reports whether any window covers hour
func (s PeakSchedule) Contains(hour int) bool {
	for _, w := range s {
		if w.Contains(hour) {
			return true
		}
	}
	return false
}

// Validate rejects windows outside 0-23 or with Start after End
func (s PeakSchedule) Validate() error {
	for _, w := range s {
		if w.Start < 0 || w.End > 23 || w.Start > w.End {
			return fmt.Errorf("invalid peak window %s", w)
		}
	}
	return nil
}

// IsPeakHour reports whether hour falls in the default schedule
func IsPeakHour(hour int) bool {
	return DefaultPeakSchedule.Contains(hour)
}

// ParsePeakSchedule reads windows written as "11-14,17-20"
func ParsePeakSchedule(s string) (PeakSchedule, error) {
	var schedule PeakSchedule
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		bounds := strings.SplitN(part, "-", 2)
		if len(bounds) != 2 {
			return nil, fmt.Errorf("invalid peak window %q, want START-END", part)
		}
		start, err := strconv.Atoi(strings.TrimSpace(bounds[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid peak window %q: %w", part, err)
		}
		end, err := strconv.Atoi(strings.TrimSpace(bounds[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid peak window %q: %w", part, err)
		}
		schedule = append(schedule, PeakWindow{Start: start, End: end})
	}
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	return schedule, nil
}
