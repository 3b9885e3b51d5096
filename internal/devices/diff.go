package devices

import "sort"

// diffDevices compares the previous device set with the current list.
// A device whose path or name changed counts as removed and re-added.
func diffDevices(previous map[string]DeviceInfo, current []DeviceInfo) (added, removed []DeviceInfo) {
	seen := make(map[string]DeviceInfo, len(current))
	for _, device := range current {
		seen[device.DeviceID] = device
	}

	for id, old := range previous {
		if dev, ok := seen[id]; !ok || dev != old {
			removed = append(removed, old)
		}
	}
	for id, dev := range seen {
		if old, ok := previous[id]; !ok || old != dev {
			added = append(added, dev)
		}
	}

	sort.Slice(removed, func(i, j int) bool { return removed[i].DeviceID < removed[j].DeviceID })
	sort.Slice(added, func(i, j int) bool { return added[i].DeviceID < added[j].DeviceID })
	return added, removed
}
