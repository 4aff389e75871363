// Package feedstatus renders the feed generation status page.
package feedstatus

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	twmerge "github.com/Oudwins/tailwind-merge-go"

	"feedwatch/internal/features/feedstatus/models"
)

const (
	timeLayout = "2006-01-02 15:04:05"
	labelClass = "text-sm text-gray-500"
	barClasses = "h-3 w-full overflow-hidden rounded-full accent-blue-600"
)

func barClass(status *models.Status) string {
	if status.Job.Done {
		return twmerge.Merge(barClasses, "accent-green-600")
	}
	return barClasses
}

// barValue clamps the bar to 0..100; the reported progress is left as computed.
func barValue(progress int) int {
	return min(max(progress, 0), 100)
}

func progressLabel(status *models.Status) string {
	label := fmt.Sprintf("%d%%", status.Progress)
	if status.Job.Done {
		label += " Done in " + strconv.FormatFloat(status.DoneMinutes, 'f', -1, 64) + " minutes."
	}
	return label
}

func startedAt(status *models.Status) string {
	return formatTime(status.Job.StartedAt())
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(timeLayout)
}

func trackerJSON(info map[string]any) (string, error) {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
