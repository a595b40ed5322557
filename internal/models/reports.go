package models

// Response rows of the report aggregators.

type ScorePoint struct {
	Date  string  `json:"date"` // dd/mm/yyyy
	Score float64 `json:"score"`
}

type AnswerBreakdown struct {
	Date      string `json:"date"` // dd/mm/yyyy
	Blank     int    `json:"blank"`
	Incorrect int    `json:"incorrect"`
	Correct   int    `json:"correct"`
}

type UsageValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type MaterialConsumption struct {
	Status         string       `json:"status"`
	Message        string       `json:"message,omitempty"`
	TimeUsage      []UsageValue `json:"time_usage"`
	FrequencyUsage []UsageValue `json:"frequency_usage"`
}

type RecommendedTopic struct {
	TopicID   uint   `json:"topic_id"`
	TopicName string `json:"topic_name"`
}

type RecommendedCourse struct {
	CourseID   uint               `json:"course_id"`
	CourseName string             `json:"course_name"`
	Topics     []RecommendedTopic `json:"topics"`
	TopicCount int                `json:"topic_count"`
}

type Recommendations struct {
	Courses []RecommendedCourse `json:"courses"`
}

// Material types every consumption report carries, in display order.
const (
	MaterialFlashcards   = "Flashcards"
	MaterialPDF          = "PDF"
	MaterialVideo        = "Video"
	MaterialSolucionario = "Solucionario"
)

var CanonicalMaterialTypes = []string{
	MaterialFlashcards,
	MaterialPDF,
	MaterialVideo,
	MaterialSolucionario,
}
