package pipeline

// Stage is a state of the pipeline machine.
type Stage string

const (
	StageValidating           Stage = "validating"
	StageIngesting            Stage = "ingesting"
	StageRecognizing          Stage = "recognizing"
	StageNormalizing          Stage = "normalizing"
	StageTranslating          Stage = "translating"
	StageSynthesizing         Stage = "synthesizing"
	StageDone                 Stage = "done"
	StageConversionFailed     Stage = "conversion_failed"
	StageFallbackTranslating  Stage = "fallback_translating"
	StageFallbackSynthesizing Stage = "fallback_synthesizing"
)

// transitions lists the allowed edges. The empty stage is the entry point.
var transitions = map[Stage][]Stage{
	"":                       {StageValidating},
	StageValidating:          {StageIngesting},
	StageIngesting:           {StageRecognizing, StageConversionFailed},
	StageRecognizing:         {StageNormalizing, StageFallbackTranslating},
	StageNormalizing:         {StageTranslating},
	StageTranslating:         {StageSynthesizing},
	StageSynthesizing:        {StageDone},
	StageFallbackTranslating: {StageFallbackSynthesizing},
}

// CanTransition reports whether the machine may move from one stage to another.
func CanTransition(from, to Stage) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Outcome labels for metrics and logs.
const (
	resultRejected          = "rejected"
	resultCancelled         = "cancelled"
	resultConversionFailed  = "conversion_failed"
	resultFallback          = "fallback"
	resultTranslationFailed = "translation_failed"
	resultSynthesisFailed   = "synthesis_failed"
	resultDone              = "done"
)
