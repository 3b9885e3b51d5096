package ffmpeg

import (
	"fmt"
	"strings"
)

// OptionType is a named input-side ffmpeg behavior flag.
type OptionType string

// Input option flags.
const (
	OptionGeneratePTS        OptionType = "genpts"
	OptionIgnoreDTS          OptionType = "igndts"
	OptionWallclockTimestamp OptionType = "wallclock_ts"
	OptionThreadQueue1024    OptionType = "thread_queue_1024"
	OptionThreadQueue4096    OptionType = "thread_queue_4096"
	OptionLowLatency         OptionType = "low_latency"
)

// ExclusiveGroup names a set of options of which at most one may be selected.
type ExclusiveGroup string

// Exclusive groups.
const (
	GroupThreadQueue ExclusiveGroup = "thread_queue"
)

// Option describes an input option flag.
type Option struct {
	Key            OptionType     `json:"key"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	AppDefault     bool           `json:"app_default"`
	ExclusiveGroup ExclusiveGroup `json:"exclusive_group,omitempty"`
	ConflictsWith  []OptionType   `json:"conflicts_with,omitempty"`
}

// AllOptions lists every supported input option.
var AllOptions = []Option{
	{
		Key:           OptionGeneratePTS,
		Name:          "Generate PTS",
		Description:   "Generate presentation timestamps for sources with missing PTS",
		ConflictsWith: []OptionType{OptionWallclockTimestamp},
	},
	{
		Key:         OptionIgnoreDTS,
		Name:        "Ignore DTS",
		Description: "Ignore decode timestamps from the capture device",
	},
	{
		Key:           OptionWallclockTimestamp,
		Name:          "Wallclock Timestamps",
		Description:   "Stamp frames with the wall clock to keep audio and video aligned",
		ConflictsWith: []OptionType{OptionGeneratePTS},
	},
	{
		Key:            OptionThreadQueue1024,
		Name:           "Large Thread Queue",
		Description:    "Use a 1024 packet input queue",
		AppDefault:     true,
		ExclusiveGroup: GroupThreadQueue,
	},
	{
		Key:            OptionThreadQueue4096,
		Name:           "Extra Large Thread Queue",
		Description:    "Use a 4096 packet input queue for bursty devices",
		ExclusiveGroup: GroupThreadQueue,
	},
	{
		Key:         OptionLowLatency,
		Name:        "Low Latency Mode",
		Description: "Disable input buffering and enable low-delay flags",
		AppDefault:  true,
	},
}

// GetOptionByKey returns an option by its key.
func GetOptionByKey(key OptionType) *Option {
	for i := range AllOptions {
		if AllOptions[i].Key == key {
			return &AllOptions[i]
		}
	}
	return nil
}

// GetDefaultOptions returns the options enabled when none are configured.
func GetDefaultOptions() []OptionType {
	var defaults []OptionType
	for _, option := range AllOptions {
		if option.AppDefault {
			defaults = append(defaults, option.Key)
		}
	}
	return defaults
}

// ParseOptions converts configuration strings into option keys.
func ParseOptions(values []string) ([]OptionType, error) {
	options := make([]OptionType, 0, len(values))
	for _, v := range values {
		key := OptionType(strings.TrimSpace(v))
		if GetOptionByKey(key) == nil {
			return nil, fmt.Errorf("unknown ffmpeg option %q", v)
		}
		options = append(options, key)
	}
	return options, ValidateOptions(options)
}

// ValidateOptions checks for conflicts and exclusive group violations.
func ValidateOptions(selected []OptionType) error {
	groups := make(map[ExclusiveGroup][]string)
	set := make(map[OptionType]bool, len(selected))
	for _, key := range selected {
		set[key] = true
		if option := GetOptionByKey(key); option != nil && option.ExclusiveGroup != "" {
			groups[option.ExclusiveGroup] = append(groups[option.ExclusiveGroup], option.Name)
		}
	}

	for group, names := range groups {
		if len(names) > 1 {
			return fmt.Errorf("multiple options from exclusive group '%s' selected: %s", group, strings.Join(names, ", "))
		}
	}

	for _, key := range selected {
		option := GetOptionByKey(key)
		if option == nil {
			continue
		}
		for _, conflict := range option.ConflictsWith {
			if set[conflict] {
				return fmt.Errorf("option '%s' conflicts with '%s'", option.Name, GetOptionByKey(conflict).Name)
			}
		}
	}
	return nil
}

// inputArgs renders options as arguments placed before -i.
func inputArgs(options []OptionType) []string {
	var args []string
	var fflags []string

	for _, option := range options {
		switch option {
		case OptionGeneratePTS:
			fflags = append(fflags, "+genpts")
		case OptionIgnoreDTS:
			fflags = append(fflags, "+igndts")
		case OptionWallclockTimestamp:
			args = append(args, "-use_wallclock_as_timestamps", "1")
		case OptionThreadQueue1024:
			args = append(args, "-thread_queue_size", "1024")
		case OptionThreadQueue4096:
			args = append(args, "-thread_queue_size", "4096")
		case OptionLowLatency:
			fflags = append(fflags, "+nobuffer")
			args = append(args, "-flags", "+low_delay")
		}
	}

	if len(fflags) > 0 {
		args = append(args, "-fflags", strings.Join(fflags, ""))
	}
	return args
}
