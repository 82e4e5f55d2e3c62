package model

// Resolution presets understood by the generation backend
type Resolution string

const (
	ResolutionLow    Resolution = "l"
	ResolutionMedium Resolution = "m"
	ResolutionHigh   Resolution = "h"
	ResolutionPro    Resolution = "p"
	ResolutionUltra  Resolution = "k"
)

// Narration voices
type Voice string

const (
	VoiceAlloy   Voice = "alloy"
	VoiceEcho    Voice = "echo"
	VoiceFable   Voice = "fable"
	VoiceOnyx    Voice = "onyx"
	VoiceNova    Voice = "nova"
	VoiceShimmer Voice = "shimmer"
)

// Audio/visual sync strategies
type SyncMethod string

const (
	SyncMethodTimingAnalysis SyncMethod = "timing_analysis"
	SyncMethodSimple         SyncMethod = "simple"
)

// Language
type Language string

const (
	LanguageEN Language = "en"
	LanguageZH Language = "zh"
)

// Job status as reported by the generation backend
type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Generation defaults applied to every submission that omits a field.
const (
	DefaultResolution   = ResolutionMedium
	DefaultIncludeAudio = true
	DefaultVoice        = VoiceNova
	DefaultLanguage     = LanguageEN
	DefaultSyncMethod   = SyncMethodTimingAnalysis
)
