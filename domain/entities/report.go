package entities

import "time"

// PerformanceReport is the scored outcome of a completed interview,
// stored keyed by the interview ID.
type PerformanceReport struct {
	InterviewID        string    `json:"interview_id" bson:"_id"`
	UserID             string    `json:"user_id" bson:"user_id"`
	Role               JobRole   `json:"role" bson:"role"`
	Transcript         string    `json:"transcript" bson:"transcript"`
	OverallScore       int       `json:"overall_score" bson:"overall_score"`
	Strengths          string    `json:"strengths" bson:"strengths"`
	Weaknesses         string    `json:"weaknesses" bson:"weaknesses"`
	ActionableFeedback string    `json:"actionable_feedback" bson:"actionable_feedback"`
	Fallback           bool      `json:"fallback" bson:"fallback"`
	CreatedAt          time.Time `json:"created_at" bson:"created_at"`
}

// MatchStrength buckets a resume match score.
type MatchStrength string

const (
	MatchStrong           MatchStrength = "Strong Match"
	MatchGood             MatchStrength = "Good Match"
	MatchNeedsImprovement MatchStrength = "Needs Improvement"
)

// ResumeAnalysis is the outcome of scoring a resume against a job description.
type ResumeAnalysis struct {
	MatchScore      int           `json:"match_score"`
	MatchStrength   MatchStrength `json:"match_strength"`
	Summary         string        `json:"summary"`
	MatchedKeywords []string      `json:"matched_keywords"`
	MissingKeywords []string      `json:"missing_keywords"`
	Suggestions     []string      `json:"suggestions"`
}
