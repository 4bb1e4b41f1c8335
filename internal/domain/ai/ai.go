package ai

// ScoreDetail is one scored dimension of a diagnosis.
type ScoreDetail struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// Scores covers the four fixed diagnosis dimensions.
type Scores struct {
	Clarity       ScoreDetail `json:"clarity"`
	Completeness  ScoreDetail `json:"completeness"`
	Effectiveness ScoreDetail `json:"effectiveness"`
	Structure     ScoreDetail `json:"structure"`
}

// DiagnoseResult is the structured quality report for a prompt body.
type DiagnoseResult struct {
	OverallScore float64  `json:"overall_score"`
	Scores       Scores   `json:"scores"`
	Suggestions  []string `json:"suggestions"`
}
