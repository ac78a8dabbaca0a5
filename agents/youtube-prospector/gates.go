package youtubeprospector

import (
	"fmt"
	"strings"

	"prospector/internal/models"
)

// Gate flag tokens, reported in GateVerdict.Flags and carried into rejections.
const (
	FlagTooBig        = "too_big"
	FlagTooSmall      = "too_small"
	FlagMasterclass   = "masterclass"
	FlagAutoGenerated = "auto_generated"
	FlagTooOld        = "too_old"
)

const (
	masterclassSeconds = 3600
	topicChannelMarker = " - Topic"
	autoGeneratedMark  = "Auto-generated"
)

// Prequalify applies the hard gates in priority order and stops at the first failure.
// An unknown subscriber count never trips the subscriber gates.
func Prequalify(record *models.CandidateRecord, subsMin, subsMax int64) models.GateVerdict {
	if record.SubscribersKnown() {
		subs := *record.SubscriberCount
		if subs > subsMax {
			return reject(fmt.Sprintf("Channel too big (>%d)", subsMax), FlagTooBig)
		}
		if subs < subsMin {
			return reject(fmt.Sprintf("Channel too small (<%d)", subsMin), FlagTooSmall)
		}
	}

	if record.DurationSeconds >= masterclassSeconds {
		return reject("Masterclass format (>60min)", FlagMasterclass)
	}

	if strings.Contains(record.Channel, topicChannelMarker) || strings.Contains(record.Description, autoGeneratedMark) {
		return reject("Auto-generated/Topic content", FlagAutoGenerated)
	}

	return models.GateVerdict{Passed: true, Flags: []string{}}
}

func reject(reason, flag string) models.GateVerdict {
	return models.GateVerdict{Passed: false, Reason: reason, Flags: []string{flag}}
}
