package statuslog

import (
	"sort"

	"github.com/lzhlsy00/video-gen/internal/i18n"
	"github.com/lzhlsy00/video-gen/internal/model"
)

// Heuristic step totals; the backend does not publish its plan.
const (
	totalStepsWithResult    = 7
	totalStepsWithoutResult = 6
)

// Options configures a Normalizer
type Options struct {
	Rules   Rules
	Markers Markers
	// DetectErrorsUnfiltered makes failure detection also look at the latest
	// raw entry, which the noise filter would otherwise hide.
	DetectErrorsUnfiltered bool
}

// Normalizer builds StatusSnapshots from raw status rows.
type Normalizer struct {
	classifier      *Classifier
	markers         Markers
	errorsOnRawFeed bool
}

func NewNormalizer(opts Options) *Normalizer {
	return &Normalizer{
		classifier:      NewClassifier(opts.Rules.Merge(DefaultRules())),
		markers:         opts.Markers.Merge(DefaultMarkers()),
		errorsOnRawFeed: opts.DetectErrorsUnfiltered,
	}
}

// Classifier exposes the classifier backing this normalizer.
func (n *Normalizer) Classifier() *Classifier {
	return n.classifier
}

// Initializing is the snapshot for a job the backend has not materialized yet.
func (n *Normalizer) Initializing(videoID, locale string) *model.StatusSnapshot {
	return &model.StatusSnapshot{
		VideoID:        videoID,
		BuildStatus:    i18n.Message(locale, i18n.MsgInitializing),
		TerminalOutput: []string{},
	}
}

// Normalize sorts, filters and interprets the status rows of video.
func (n *Normalizer) Normalize(video *model.Video, entries []model.StatusEntry, locale string) *model.StatusSnapshot {
	raw := SortEntries(entries)
	steps := n.classifier.Filter(raw)

	buildStatus := ""
	currentStep := 1
	if len(steps) > 0 {
		latest := steps[len(steps)-1]
		buildStatus = latest.BuildStatus
		currentStep = latest.StepOr(1)
	}
	if buildStatus == "" {
		buildStatus = i18n.Message(locale, i18n.MsgProcessing)
	}

	isComplete := n.markers.Complete(buildStatus) || video.HasResult()

	errMsg := ""
	if n.markers.Failed(buildStatus) {
		errMsg = buildStatus
	} else if n.errorsOnRawFeed && len(raw) > 0 {
		if last := raw[len(raw)-1].BuildStatus; n.markers.Failed(last) {
			errMsg = last
		}
	}

	total := totalSteps(errMsg != "", video.HasResult(), currentStep)

	return &model.StatusSnapshot{
		VideoID:        video.VideoID,
		VideoURL:       video.VideoURL,
		BuildStatus:    buildStatus,
		TerminalOutput: []string{},
		IsComplete:     isComplete,
		Error:          errMsg,
		Steps:          steps,
		CurrentStep:    &currentStep,
		TotalSteps:     &total,
	}
}

func totalSteps(hasError, hasResult bool, current int) int {
	switch {
	case hasError:
		return current
	case hasResult:
		return totalStepsWithResult
	default:
		return totalStepsWithoutResult
	}
}

// SortEntries returns a copy of entries ordered by step, ties broken by
// creation time. Entries without a step sort as step 1.
func SortEntries(entries []model.StatusEntry) []model.StatusEntry {
	out := make([]model.StatusEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := out[i].StepOr(1), out[j].StepOr(1)
		if si != sj {
			return si < sj
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
