// Package scheduler implements the scheduled rain alert job.
//
// One invocation of the job is one poll: fetch the near-term forecast,
// classify it, and send the umbrella reminder when precipitation is expected.
// Triggering the job (cron, EventBridge) is outside this package.
package scheduler

import "rainalert/internal/types"

// Fixed message texts.
const (
	UmbrellaMessage = "It's going to rain today. Remember to bring an umbrella ☔️"
	NoRainMessage   = "No rain forecasted today."
)

// Stage names a pipeline step in failure logs.
type Stage string

const (
	StageFetch    Stage = "fetch"
	StageDispatch Stage = "dispatch"
)

// PollOutcome identifies how a successful poll ended.
type PollOutcome string

const (
	OutcomeAlertSent PollOutcome = "alert_sent"
	OutcomeNoRain    PollOutcome = "no_rain"
)

// PollResult summarizes a successful poll. It is the Lambda response body.
type PollResult struct {
	RunID          string                `json:"run_id,omitempty"`
	Outcome        PollOutcome           `json:"outcome"`
	Message        string                `json:"message"`
	WillRain       bool                  `json:"will_rain"`
	Entries        int                   `json:"entries"`
	ConditionCodes []int                 `json:"condition_codes"`
	Receipt        *types.MessageReceipt `json:"receipt,omitempty"`
}
